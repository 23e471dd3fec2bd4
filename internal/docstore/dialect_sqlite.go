package docstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent transactions
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Enable WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return err
	}

	return nil
}

func (d *SQLiteDialect) CreateSchemaQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			data TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		);
	`
}

func (d *SQLiteDialect) JSONEqualExpr(field string) string {
	return fmt.Sprintf("json_extract(data, '$.%s') = ?", field)
}

func (d *SQLiteDialect) JSONContainsExpr(field string) string {
	return fmt.Sprintf(
		"EXISTS (SELECT 1 FROM json_each(json_extract(data, '$.%s')) WHERE json_each.value = ?)",
		field,
	)
}

func (d *SQLiteDialect) JSONOrderExpr(field string) string {
	return fmt.Sprintf("json_extract(data, '$.%s')", field)
}
