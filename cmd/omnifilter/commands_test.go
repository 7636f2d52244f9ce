package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/omnifilter/engine/models"
)

const testSchema = `
entities:
  - name: User
    table: users
    attributes:
      - {name: name, type: STRING}
      - {name: age, type: INT}
      - {name: birthDate, type: DATE}
`

func TestParseConditionArgs(t *testing.T) {
	conds := parseConditionArgs([]string{"EQ_name=a=b", "IN_status=A", "IN_status=B", "NULL_x"})
	assert.Equal(t, models.Conditions{
		{Key: "EQ_name", Value: "a=b"},
		{Key: "IN_status", Value: []string{"A", "B"}},
		{Key: "NULL_x", Value: ""},
	}, conds)
}

func TestPage(t *testing.T) {
	assert.Nil(t, page(3, 0))
	assert.Equal(t, &models.Page{Number: 3, Size: 5}, page(3, 5))
}

func TestCompileCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"compile", "--schema", path, "--db", "PostgreSQL", "--entity", "User",
		"--sort", "-age", "--validate",
		"LTE_birthDate=2020-05-01", "GT_age=18",
	})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(),
		`SELECT * FROM "users" WHERE "birth_date" < '2020-05-02 00:00:00' AND "age" > 18 ORDER BY "age" DESC`)
	assert.Contains(t, out.String(), "valid")
}
