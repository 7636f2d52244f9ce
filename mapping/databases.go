package mapping

// SupportedDatabases lists all stores a compiled predicate can be rendered for.
// Callers must use these exact names.
var SupportedDatabases = []string{
	"PostgreSQL",
	"MySQL",
	"SQLite",
	"MongoDB",
	"Redis",
	"Memory",
}

// IsSupportedDatabase checks if a database type is supported
func IsSupportedDatabase(dbType string) bool {
	for _, db := range SupportedDatabases {
		if db == dbType {
			return true
		}
	}
	return false
}
