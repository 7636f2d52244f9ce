package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	ofl "github.com/omniql-engine/omnifilter"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/parser"
	"github.com/omniql-engine/omnifilter/engine/reverse"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/engine/translator"
	"github.com/omniql-engine/omnifilter/engine/validator"
	"github.com/omniql-engine/omnifilter/engine/wire"
	"github.com/omniql-engine/omnifilter/logger"
	"github.com/omniql-engine/omnifilter/mapping"
)

// ---- compile ----

func compileCmd() *cobra.Command {
	var (
		entity   string
		sortFlag string
		pageNum  int
		pageSize int
		showArgs bool
		asJSON   bool
		validate bool
	)
	cmd := &cobra.Command{
		Use:   "compile KEY=VALUE...",
		Short: "Compile conditions such as EQ_user.name=bob into the native query",
		Example: `  omnifilter compile --schema schema.yaml --entity User --db MySQL \
    LTE_birthDate=2020-05-01 IN_status=A,B --sort -age,name`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, reg, err := newEngine()
			if err != nil {
				return err
			}
			q, err := engine.Compile(entity, parseConditionArgs(args), parser.ParseSortParam(sortFlag), page(pageNum, pageSize))
			if err != nil {
				return err
			}

			res, err := translator.Translate(&q.Query, q.Predicate, cfg.Database,
				translator.WithRegistry(reg),
				translator.WithTenant(cfg.Tenant))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.String())
			if showArgs && res.Relational != nil {
				fmt.Fprintln(out, res.Relational.SQL)
				fmt.Fprintf(out, "args: %v\n", res.Relational.Args)
			}
			if validate && res.Relational != nil {
				if err := validator.ValidateSQL(res.Relational.Inline, res.DBType); err != nil {
					return fmt.Errorf("rendered query does not parse: %w", err)
				}
				fmt.Fprintln(out, "valid")
			}
			if asJSON {
				data, err := wire.MarshalJSON(q.Predicate)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "entity name")
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", "", "sort fields, '-' for descending: -age,name")
	cmd.Flags().IntVar(&pageNum, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&pageSize, "size", 0, "page size, 0 for unpaged")
	cmd.Flags().BoolVar(&showArgs, "args", false, "print the parameterized SQL and its arguments")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the predicate as JSON")
	cmd.Flags().BoolVar(&validate, "validate", false, "parse the rendered SQL with the database's grammar")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

// ---- reverse ----

func reverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse SQL",
		Short: "Turn a SQL WHERE clause or SELECT back into condition keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conds, err := reverse.ToConditions(args[0], cfg.Database)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range conds {
				fmt.Fprintf(out, "%s=%s\n", c.Key, formatValue(c.Value))
			}
			return nil
		},
	}
}

// ---- validate ----

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate WHERE",
		Short: "Check a WHERE clause against the database's grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := validator.ValidateWhereWithDetails(cfg.Database, args[0])
			if err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("invalid: %s", res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
}

// ---- query ----

func queryCmd() *cobra.Command {
	var (
		entity   string
		dsn      string
		sortFlag string
		pageNum  int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "query KEY=VALUE...",
		Short: "Run conditions against a SQLite database and print the rows as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = cfg.DSN
			}
			if dsn == "" {
				return fmt.Errorf("--dsn is required")
			}
			_, reg, err := newEngine()
			if err != nil {
				return err
			}
			conv, err := cfg.Conversions()
			if err != nil {
				return err
			}

			db, err := sql.Open("sqlite", dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			client, err := ofl.WrapSQL(db, "SQLite", reg,
				ofl.WithConversions(conv),
				ofl.WithLogger(logger.Get()))
			if err != nil {
				return err
			}
			rows, err := client.Find(context.Background(), entity, parseConditionArgs(args), parser.ParseSortParam(sortFlag), page(pageNum, pageSize))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "entity name")
	cmd.Flags().StringVar(&dsn, "dsn", "", "SQLite database file")
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", "", "sort fields, '-' for descending")
	cmd.Flags().IntVar(&pageNum, "page", 0, "zero-based page number")
	cmd.Flags().IntVar(&pageSize, "size", 0, "page size, 0 for unpaged")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

// ---- operators ----

func operatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operators",
		Short: "List the supported operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATOR\tCATEGORY\tNATIVE\tEXAMPLE")
			for _, op := range mapping.Operators {
				native := mapping.OperatorMap[cfg.Database][op]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op, mapping.OperatorCategory(op), native, mapping.OperatorExamples[op])
			}
			return w.Flush()
		},
	}
}

// ---- helpers ----

func newEngine() (*ofl.Engine, *schema.Registry, error) {
	if cfg.Schema == "" {
		return nil, nil, fmt.Errorf("a schema file is required (--schema or OMNIFILTER_SCHEMA)")
	}
	reg, err := schema.LoadFile(cfg.Schema)
	if err != nil {
		return nil, nil, err
	}
	conv, err := cfg.Conversions()
	if err != nil {
		return nil, nil, err
	}
	return ofl.New(reg, ofl.WithConversions(conv), ofl.WithLogger(logger.Get())), reg, nil
}

// parseConditionArgs splits KEY=VALUE arguments at the first '='. A key
// given more than once collects its values into a []string.
func parseConditionArgs(args []string) models.Conditions {
	var conds models.Conditions
	index := map[string]int{}
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		i, seen := index[key]
		if !seen {
			index[key] = len(conds)
			conds = append(conds, models.Condition{Key: key, Value: value})
			continue
		}
		switch prev := conds[i].Value.(type) {
		case string:
			conds[i].Value = []string{prev, value}
		case []string:
			conds[i].Value = append(prev, value)
		}
	}
	return conds
}

func page(number, size int) *models.Page {
	if size <= 0 {
		return nil
	}
	return &models.Page{Number: number, Size: size}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
