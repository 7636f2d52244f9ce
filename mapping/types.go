package mapping

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the universal attribute type of an entity field.
type Kind string

const (
	KindString    Kind = "STRING"
	KindInt       Kind = "INT"
	KindFloat     Kind = "FLOAT"
	KindBool      Kind = "BOOLEAN"
	KindDate      Kind = "DATE"
	KindTimestamp Kind = "TIMESTAMP"
	KindUUID      Kind = "UUID"
	KindJSON      Kind = "JSON"
	KindBinary    Kind = "BINARY"
	KindEntity    Kind = "ENTITY" // nested entity reference
	KindUnknown   Kind = ""
)

// kindAliases maps universal and common native type names onto kinds.
var kindAliases = map[string]Kind{
	"STRING":    KindString,
	"TEXT":      KindString,
	"VARCHAR":   KindString,
	"CHAR":      KindString,
	"INT":       KindInt,
	"INTEGER":   KindInt,
	"BIGINT":    KindInt,
	"SMALLINT":  KindInt,
	"AUTO":      KindInt,
	"BIGAUTO":   KindInt,
	"FLOAT":     KindFloat,
	"REAL":      KindFloat,
	"DOUBLE":    KindFloat,
	"DECIMAL":   KindFloat,
	"NUMERIC":   KindFloat,
	"BOOLEAN":   KindBool,
	"BOOL":      KindBool,
	"DATE":      KindDate,
	"TIMESTAMP": KindTimestamp,
	"DATETIME":  KindTimestamp,
	"TIME":      KindTimestamp,
	"UUID":      KindUUID,
	"JSON":      KindJSON,
	"JSONB":     KindJSON,
	"BINARY":    KindBinary,
	"BLOB":      KindBinary,
	"BYTEA":     KindBinary,
	"ENTITY":    KindEntity,
}

// ParseKind resolves a type name (case-insensitive) to a Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindAliases[strings.ToUpper(strings.TrimSpace(name))]
	return k, ok
}

// IsDateCompatible reports whether values of kind are points in time.
func IsDateCompatible(k Kind) bool {
	return k == KindDate || k == KindTimestamp
}

// IsOrdered reports whether ordering operators (GT, LT, ...) apply to kind.
func IsOrdered(k Kind) bool {
	switch k {
	case KindString, KindInt, KindFloat, KindBool, KindDate, KindTimestamp, KindUUID:
		return true
	}
	return false
}

// KindOf classifies a runtime value.
func KindOf(v any) Kind {
	switch v.(type) {
	case string:
		return KindString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case bool:
		return KindBool
	case time.Time, *time.Time:
		return KindTimestamp
	case uuid.UUID:
		return KindUUID
	case []byte:
		return KindBinary
	case map[string]any:
		return KindJSON
	}
	return KindUnknown
}

// SameKind treats DATE and TIMESTAMP as one kind since both carry time.Time values.
func SameKind(a, b Kind) bool {
	if IsDateCompatible(a) && IsDateCompatible(b) {
		return true
	}
	return a == b
}

// TypeMap - Runtime mapping for schema bootstrap
// Usage: TypeMap["PostgreSQL"][KindTimestamp] returns "TIMESTAMP"
var TypeMap = map[string]map[Kind]string{
	"PostgreSQL": {
		KindString:    "VARCHAR",
		KindInt:       "BIGINT",
		KindFloat:     "DOUBLE PRECISION",
		KindBool:      "BOOLEAN",
		KindDate:      "DATE",
		KindTimestamp: "TIMESTAMP",
		KindUUID:      "UUID",
		KindJSON:      "JSONB",
		KindBinary:    "BYTEA",
	},
	"MySQL": {
		KindString:    "VARCHAR(255)",
		KindInt:       "BIGINT",
		KindFloat:     "DOUBLE",
		KindBool:      "BOOLEAN",
		KindDate:      "DATE",
		KindTimestamp: "DATETIME",
		KindUUID:      "CHAR(36)",
		KindJSON:      "JSON",
		KindBinary:    "BLOB",
	},
	"SQLite": {
		KindString:    "TEXT",
		KindInt:       "INTEGER",
		KindFloat:     "REAL",
		KindBool:      "INTEGER",
		KindDate:      "TEXT",
		KindTimestamp: "TEXT",
		KindUUID:      "TEXT",
		KindJSON:      "TEXT",
		KindBinary:    "BLOB",
	},
}

// ColumnType returns the native column type for kind, "" if unmapped.
func ColumnType(dbType string, k Kind) string {
	return TypeMap[dbType][k]
}
