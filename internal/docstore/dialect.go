package docstore

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the database-specific pieces of the SQL document store.
// Every engine stores documents in one `documents` table; what differs is
// the DSN, placeholder syntax, JSON path expressions and connection setup.
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// CreateSchemaQuery returns the SQL creating the documents table
	CreateSchemaQuery() string

	// JSONEqualExpr returns a boolean SQL expression comparing a top-level
	// JSON field of the data column against one ? placeholder
	JSONEqualExpr(field string) string

	// JSONContainsExpr returns a boolean SQL expression testing whether a
	// top-level JSON array field contains the ? placeholder value
	JSONContainsExpr(field string) string

	// JSONOrderExpr returns the SQL expression to order by a top-level
	// JSON field of the data column
	JSONOrderExpr(field string) string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// fieldNameRegexp restricts JSON field names interpolated into SQL to the
// snake_case identifiers the models use.
var fieldNameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validFieldName reports whether a field name is safe to interpolate.
func validFieldName(field string) bool {
	return fieldNameRegexp.MatchString(field)
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
