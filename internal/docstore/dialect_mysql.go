package docstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return nil
}

func (d *MySQLDialect) CreateSchemaQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS documents (
			collection VARCHAR(64) NOT NULL,
			id VARCHAR(64) NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			data JSON NOT NULL,
			updated_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6),
			PRIMARY KEY (collection, id)
		);
	`
}

func (d *MySQLDialect) JSONEqualExpr(field string) string {
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(data, '$.%s')) = ?", field)
}

func (d *MySQLDialect) JSONContainsExpr(field string) string {
	return fmt.Sprintf("JSON_CONTAINS(JSON_EXTRACT(data, '$.%s'), JSON_QUOTE(?))", field)
}

func (d *MySQLDialect) JSONOrderExpr(field string) string {
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(data, '$.%s'))", field)
}
