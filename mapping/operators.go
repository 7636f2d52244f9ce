package mapping

// Operator is a filter operator token as it appears in a condition key
// (the part before the first underscore of "EQ_user.name").
type Operator string

// The closed operator set. Tokens are matched exactly, case-sensitive.
const (
	EQ      Operator = "EQ"
	NOTEQ   Operator = "NOTEQ"
	LIKE    Operator = "LIKE"
	LLIKE   Operator = "LLIKE" // %value
	RLIKE   Operator = "RLIKE" // value%
	NLIKE   Operator = "NLIKE" // NOT value%
	GT      Operator = "GT"
	LT      Operator = "LT"
	GTE     Operator = "GTE"
	LTE     Operator = "LTE"
	IN      Operator = "IN"
	NOTIN   Operator = "NOTIN"
	NULL    Operator = "NULL"
	NOTNULL Operator = "NOTNULL"
)

// Operators lists every registered operator in declaration order.
var Operators = []Operator{
	EQ, NOTEQ, LIKE, LLIKE, RLIKE, NLIKE, GT, LT, GTE, LTE, IN, NOTIN, NULL, NOTNULL,
}

// LookupOperator resolves a token against the registry. No aliasing, no case folding.
func LookupOperator(token string) (Operator, bool) {
	for _, op := range Operators {
		if string(op) == token {
			return op, true
		}
	}
	return "", false
}

// ============================================================================
// OPERATOR CATEGORIES
// ============================================================================

// Operator categories drive compilation and rendering.
const (
	CategoryComparison = "COMPARISON"  // EQ, NOTEQ
	CategoryOrdering   = "ORDERING"    // GT, LT, GTE, LTE
	CategoryPattern    = "PATTERN"     // LIKE family
	CategoryMultiValue = "MULTI_VALUE" // IN, NOTIN
	CategoryNullCheck  = "NULLCHECK"   // NULL, NOTNULL
)

// OperatorCategories - SSOT for operator types
var OperatorCategories = map[Operator]string{
	EQ:      CategoryComparison,
	NOTEQ:   CategoryComparison,
	GT:      CategoryOrdering,
	LT:      CategoryOrdering,
	GTE:     CategoryOrdering,
	LTE:     CategoryOrdering,
	LIKE:    CategoryPattern,
	LLIKE:   CategoryPattern,
	RLIKE:   CategoryPattern,
	NLIKE:   CategoryPattern,
	IN:      CategoryMultiValue,
	NOTIN:   CategoryMultiValue,
	NULL:    CategoryNullCheck,
	NOTNULL: CategoryNullCheck,
}

// OperatorCategory returns the category for an operator, "" if unregistered.
func OperatorCategory(op Operator) string {
	return OperatorCategories[op]
}

// ============================================================================
// NATIVE RENDERING PER DATABASE
// ============================================================================

// OperatorMap - Runtime mapping for renderers
// Usage: OperatorMap["MongoDB"][GTE] returns "$gte"
var OperatorMap = map[string]map[Operator]string{
	"PostgreSQL": {
		EQ:      "=",
		NOTEQ:   "<>",
		GT:      ">",
		LT:      "<",
		GTE:     ">=",
		LTE:     "<=",
		LIKE:    "LIKE",
		LLIKE:   "LIKE",
		RLIKE:   "LIKE",
		NLIKE:   "NOT LIKE",
		IN:      "IN",
		NOTIN:   "NOT IN",
		NULL:    "IS NULL",
		NOTNULL: "IS NOT NULL",
	},
	"MySQL": {
		EQ:      "=",
		NOTEQ:   "<>",
		GT:      ">",
		LT:      "<",
		GTE:     ">=",
		LTE:     "<=",
		LIKE:    "LIKE",
		LLIKE:   "LIKE",
		RLIKE:   "LIKE",
		NLIKE:   "NOT LIKE",
		IN:      "IN",
		NOTIN:   "NOT IN",
		NULL:    "IS NULL",
		NOTNULL: "IS NOT NULL",
	},
	"SQLite": {
		EQ:      "=",
		NOTEQ:   "<>",
		GT:      ">",
		LT:      "<",
		GTE:     ">=",
		LTE:     "<=",
		LIKE:    "LIKE", // SQLite LIKE is case-insensitive for ASCII
		LLIKE:   "LIKE",
		RLIKE:   "LIKE",
		NLIKE:   "NOT LIKE",
		IN:      "IN",
		NOTIN:   "NOT IN",
		NULL:    "IS NULL",
		NOTNULL: "IS NOT NULL",
	},
	"MongoDB": {
		EQ:      "$eq",
		NOTEQ:   "$ne",
		GT:      "$gt",
		LT:      "$lt",
		GTE:     "$gte",
		LTE:     "$lte",
		LIKE:    "$regex",
		LLIKE:   "$regex",
		RLIKE:   "$regex",
		NLIKE:   "$not/$regex",
		IN:      "$in",
		NOTIN:   "$nin",
		NULL:    "$eq:null",
		NOTNULL: "$ne:null",
	},
	"Redis": {
		EQ:      "=",
		NOTEQ:   "!=",
		GT:      ">",
		LT:      "<",
		GTE:     ">=",
		LTE:     "<=",
		LIKE:    "LIKE",
		LLIKE:   "LIKE",
		RLIKE:   "LIKE",
		NLIKE:   "NOT_LIKE",
		IN:      "IN",
		NOTIN:   "NOT_IN",
		NULL:    "IS_NULL",
		NOTNULL: "IS_NOT_NULL",
	},
}

// OperatorExamples - Usage examples for each operator, keyed by condition key
var OperatorExamples = map[Operator]string{
	EQ:      "EQ_status=active",
	NOTEQ:   "NOTEQ_status=inactive",
	LIKE:    "LIKE_name=oh",
	LLIKE:   "LLIKE_email=@gmail.com",
	RLIKE:   "RLIKE_name=Jo",
	NLIKE:   "NLIKE_name=test",
	GT:      "GT_age=18",
	LT:      "LT_price=100",
	GTE:     "GTE_createdAt=2024-01-01",
	LTE:     "LTE_createdAt=2024-01-31",
	IN:      "IN_status=active,pending",
	NOTIN:   "NOTIN_status=deleted,banned",
	NULL:    "NULL_deletedAt=1",
	NOTNULL: "NOTNULL_updatedAt=1",
}
