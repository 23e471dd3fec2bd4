package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"chorepoints/internal/config"
)

// SQLStore is the production document store. Documents live in a single
// `documents` table keyed by (collection, id), with the body stored as
// JSON and queried through dialect-specific JSON path expressions.
type SQLStore struct {
	db       *sql.DB
	dialect  Dialect
	notifier *notifier
}

// Open creates and configures a SQLite-backed store (backwards compatible
// default for local development).
func Open(path string) (*SQLStore, error) {
	return open(NewSQLiteDialect(), DialectConfig{Path: path})
}

// OpenWithConfig creates the store described by the configuration
// (supports sqlite, postgres, mysql).
func OpenWithConfig(cfg *config.Config) (*SQLStore, error) {
	var dialect Dialect
	var dialectConfig DialectConfig

	switch strings.ToLower(cfg.DatabaseType) {
	case "postgres", "postgresql":
		dialect = NewPostgresDialect()
		dialectConfig = DialectConfig{URL: cfg.DatabaseURL}
	case "mysql":
		dialect = NewMySQLDialect()
		dialectConfig = DialectConfig{URL: cfg.DatabaseURL}
	case "sqlite", "sqlite3", "":
		dialect = NewSQLiteDialect()
		dialectConfig = DialectConfig{Path: cfg.DatabasePath}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}

	return open(dialect, dialectConfig)
}

func open(dialect Dialect, dialectConfig DialectConfig) (*SQLStore, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply dialect-specific configuration
	if err := dialect.ConfigureConnection(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	if _, err := db.Exec(dialect.CreateSchemaQuery()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLStore{db: db, dialect: dialect}
	s.notifier = newNotifier(s.Query)
	return s, nil
}

// Close cancels all subscriptions and closes the database connection.
func (s *SQLStore) Close() error {
	s.notifier.closeAll()
	return s.db.Close()
}

// Get returns a document by id, or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := s.dialect.RewriteQuery(
		"SELECT id, version, data FROM documents WHERE collection = ? AND id = ?")
	return scanDocument(s.db.QueryRowContext(ctx, query, collection, id))
}

// Query returns all documents matching the query.
func (s *SQLStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	queryStr, args, err := s.buildSelect(collection, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &doc.Version, &data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Data = json.RawMessage(data)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Transact runs fn inside a SQL transaction with optimistic version checks
// on commit, retrying bounded times on conflict.
func (s *SQLStore) Transact(ctx context.Context, fn func(Txn) error) error {
	return withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		txn := &sqlTxn{
			ctx:     ctx,
			tx:      tx,
			dialect: s.dialect,
			reads:   make(map[docKey]int64),
			writes:  make(map[docKey]*Document),
		}

		if err := fn(txn); err != nil {
			tx.Rollback()
			return err
		}

		touched, err := txn.commit()
		if err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		s.notifier.notify(ctx, touched)
		return nil
	})
}

// Subscribe registers a live query over one collection.
func (s *SQLStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	return s.notifier.subscribe(ctx, collection, q)
}

// buildSelect assembles the filtered SELECT for a query.
func (s *SQLStore) buildSelect(collection string, q Query) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT id, version, data FROM documents WHERE collection = ?")
	args := []any{collection}

	for _, f := range q.Filters {
		if !validFieldName(f.Field) {
			return "", nil, fmt.Errorf("invalid filter field name: %q", f.Field)
		}
		b.WriteString(" AND ")
		switch f.Op {
		case OpEqual:
			b.WriteString(s.dialect.JSONEqualExpr(f.Field))
		case OpContains:
			b.WriteString(s.dialect.JSONContainsExpr(f.Field))
		default:
			return "", nil, fmt.Errorf("unsupported filter op: %d", f.Op)
		}
		args = append(args, f.Value)
	}

	if q.OrderBy != "" {
		if !validFieldName(q.OrderBy) {
			return "", nil, fmt.Errorf("invalid order field name: %q", q.OrderBy)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(s.dialect.JSONOrderExpr(q.OrderBy))
		if q.Desc {
			b.WriteString(" DESC")
		}
	}

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}

	return s.dialect.RewriteQuery(b.String()), args, nil
}

// sqlTxn stages reads and writes for a SQLStore transaction. Reads run
// inside the underlying SQL transaction; writes are applied at commit with
// a version guard per document.
type sqlTxn struct {
	ctx     context.Context
	tx      *sql.Tx
	dialect Dialect
	reads   map[docKey]int64
	writes  map[docKey]*Document
}

func (t *sqlTxn) Get(collection, id string) (*Document, error) {
	key := docKey{collection, id}
	if staged, ok := t.writes[key]; ok {
		if staged == nil {
			return nil, ErrNotFound
		}
		copied := *staged
		return &copied, nil
	}

	doc, err := t.readCurrent(key)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	if _, seen := t.reads[key]; !seen {
		if doc != nil {
			t.reads[key] = doc.Version
		} else {
			t.reads[key] = 0
		}
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (t *sqlTxn) Put(collection, id string, data any) error {
	raw, err := marshalBody(data)
	if err != nil {
		return err
	}
	key := docKey{collection, id}
	if err := t.pinVersion(key); err != nil {
		return err
	}
	t.writes[key] = &Document{ID: id, Data: raw}
	return nil
}

func (t *sqlTxn) Delete(collection, id string) error {
	key := docKey{collection, id}
	if err := t.pinVersion(key); err != nil {
		return err
	}
	t.writes[key] = nil
	return nil
}

func (t *sqlTxn) pinVersion(key docKey) error {
	if _, seen := t.reads[key]; seen {
		return nil
	}
	doc, err := t.readCurrent(key)
	if err != nil && err != ErrNotFound {
		return err
	}
	if doc != nil {
		t.reads[key] = doc.Version
	} else {
		t.reads[key] = 0
	}
	return nil
}

func (t *sqlTxn) readCurrent(key docKey) (*Document, error) {
	query := t.dialect.RewriteQuery(
		"SELECT id, version, data FROM documents WHERE collection = ? AND id = ?")
	return scanDocument(t.tx.QueryRowContext(t.ctx, query, key.collection, key.id))
}

// commit validates pinned versions of read-only documents and applies the
// staged writes, each guarded by the version observed at first touch.
func (t *sqlTxn) commit() (map[string]struct{}, error) {
	if len(t.reads) > MaxTxnDocuments {
		return nil, ErrTxnTooLarge
	}

	// Re-check documents that were read but not written
	for key, version := range t.reads {
		if _, written := t.writes[key]; written {
			continue
		}
		doc, err := t.readCurrent(key)
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		var current int64
		if doc != nil {
			current = doc.Version
		}
		if current != version {
			return nil, ErrConflict
		}
	}

	touched := make(map[string]struct{})
	for key, staged := range t.writes {
		touched[key.collection] = struct{}{}
		version := t.reads[key]

		switch {
		case staged == nil && version == 0:
			// Deleting a document that never existed

		case staged == nil:
			query := t.dialect.RewriteQuery(
				"DELETE FROM documents WHERE collection = ? AND id = ? AND version = ?")
			if err := t.execGuarded(query, key.collection, key.id, version); err != nil {
				return nil, err
			}

		case version == 0:
			query := t.dialect.RewriteQuery(
				"INSERT INTO documents (collection, id, version, data) VALUES (?, ?, 1, ?)")
			if _, err := t.tx.ExecContext(t.ctx, query, key.collection, key.id, []byte(staged.Data)); err != nil {
				// Most likely a concurrent insert of the same id
				return nil, fmt.Errorf("insert %s/%s failed (%v): %w", key.collection, key.id, err, ErrConflict)
			}

		default:
			query := t.dialect.RewriteQuery(
				"UPDATE documents SET version = version + 1, data = ?, updated_at = CURRENT_TIMESTAMP " +
					"WHERE collection = ? AND id = ? AND version = ?")
			result, err := t.tx.ExecContext(t.ctx, query, []byte(staged.Data), key.collection, key.id, version)
			if err != nil {
				return nil, fmt.Errorf("update %s/%s failed: %w", key.collection, key.id, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return nil, err
			}
			if affected == 0 {
				return nil, ErrConflict
			}
		}
	}
	return touched, nil
}

func (t *sqlTxn) execGuarded(query string, args ...any) error {
	result, err := t.tx.ExecContext(t.ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	var data []byte
	err := row.Scan(&doc.ID, &doc.Version, &data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	doc.Data = json.RawMessage(data)
	return &doc, nil
}
