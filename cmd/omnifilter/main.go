package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/omniql-engine/omnifilter/config"
	"github.com/omniql-engine/omnifilter/logger"
)

var (
	configPath string
	cfg        *config.Config
)

// --- Cobra root and top-level commands ---

var rootCmd = &cobra.Command{
	Use:           "omnifilter",
	Short:         "Compile flat filter conditions into native queries",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			loaded.Database, _ = cmd.Flags().GetString("db")
		}
		if cmd.Flags().Changed("schema") {
			loaded.Schema, _ = cmd.Flags().GetString("schema")
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		logger.Init(logger.Config{Level: loaded.Log.Level, Format: loaded.Log.Format})
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("db", "", "database: PostgreSQL, MySQL, SQLite, MongoDB, Redis, Memory")
	rootCmd.PersistentFlags().String("schema", "", "entity schema file")

	rootCmd.AddCommand(compileCmd(), reverseCmd(), validateCmd(), queryCmd(), operatorsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
