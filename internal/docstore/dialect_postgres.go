package docstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return nil
}

func (d *PostgresDialect) CreateSchemaQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		);
	`
}

func (d *PostgresDialect) JSONEqualExpr(field string) string {
	return fmt.Sprintf("data->>'%s' = ?", field)
}

func (d *PostgresDialect) JSONContainsExpr(field string) string {
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM jsonb_array_elements_text(data->'%s') elem WHERE elem = ?)",
		field,
	)
}

func (d *PostgresDialect) JSONOrderExpr(field string) string {
	return fmt.Sprintf("data->>'%s'", field)
}
