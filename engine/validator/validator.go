// Package validator checks rendered filters with the native parsers of each
// database before they are executed.
package validator

import (
	"fmt"
)

// ValidationResult contains detailed validation info
type ValidationResult struct {
	Valid bool
	Error string
	Query string // the statement that was parsed
}

// whereProbe wraps a bare WHERE expression into a parseable statement.
const whereProbe = "SELECT * FROM t WHERE "

// ValidateSQL validates a complete statement based on database type
func ValidateSQL(query string, dbType string) error {
	switch dbType {
	case "PostgreSQL":
		return ValidatePostgreSQL(query)
	case "MySQL":
		return ValidateMySQL(query)
	case "SQLite":
		return ValidateSQLite(query)
	case "MongoDB":
		return ValidateMongoDB(query)
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// ValidateWhere validates a rendered WHERE expression (without the keyword).
func ValidateWhere(dbType, where string) error {
	switch dbType {
	case "PostgreSQL", "MySQL", "SQLite":
		if err := ValidateSQL(whereProbe+where, dbType); err != nil {
			return fmt.Errorf("invalid %s where clause: %w", dbType, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// ValidateWhereWithDetails returns detailed validation result
func ValidateWhereWithDetails(dbType, where string) (*ValidationResult, error) {
	query := whereProbe + where
	switch dbType {
	case "PostgreSQL", "MySQL", "SQLite":
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err := ValidateSQL(query, dbType); err != nil {
		return &ValidationResult{Valid: false, Error: err.Error(), Query: query}, nil
	}
	return &ValidationResult{Valid: true, Query: query}, nil
}
