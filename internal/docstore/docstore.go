// Package docstore provides the document database the engines are written
// against: keyed JSON documents grouped into collections, field-filtered
// queries, optimistic multi-document transactions, and live per-query
// subscriptions. Two implementations exist: a SQL-backed store for
// production (SQLite, PostgreSQL or MySQL, selected by dialect) and an
// in-memory store for tests.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// maxTxnAttempts bounds automatic retries of a transaction that aborted on
// a version conflict before the conflict is surfaced to the caller.
const maxTxnAttempts = 5

// MaxTxnDocuments is the document budget of a single transaction. Fan-out
// operations that would touch more documents must fall back to best-effort
// batches and report partial completion.
const MaxTxnDocuments = 25

// Document is a versioned JSON record. Version increments on every
// committed write and drives optimistic concurrency control.
type Document struct {
	ID      string          `json:"id"`
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Fields unmarshals the document body into a generic field map.
func (d *Document) Fields() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(d.Data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}
	return m, nil
}

// Op is a filter comparison operator.
type Op int

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Op = iota
	// OpContains matches documents whose array field contains the value.
	OpContains
)

// Filter restricts a query to documents matching one field condition.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// Contains builds an array-membership filter.
func Contains(field string, value any) Filter {
	return Filter{Field: field, Op: OpContains, Value: value}
}

// Query describes a filtered, optionally ordered and limited read of a
// collection.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Txn exposes the reads and writes available inside a transaction. All
// writes are staged and committed together; the commit aborts with
// ErrConflict if any document involved changed since it was first read.
type Txn interface {
	// Get returns a document, or ErrNotFound. The observed version is
	// pinned for commit-time validation.
	Get(collection, id string) (*Document, error)
	// Put stages a full write of the document body.
	Put(collection, id string, data any) error
	// Delete stages removal of a document. Deleting an absent document is
	// a no-op.
	Delete(collection, id string) error
}

// Store is the document database contract consumed by repositories and
// services.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Transact runs fn inside a transaction, retrying a bounded number of
	// times when the commit aborts on contention.
	Transact(ctx context.Context, fn func(Txn) error) error
	// Subscribe delivers the full current result set of the query, then a
	// fresh snapshot after every committed write touching the collection.
	// The subscription must be cancelled when the observer goes away.
	Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error)
	Close() error
}

// withRetry drives the bounded retry loop shared by both store
// implementations. Only version conflicts are retried; every other error
// is returned as-is.
func withRetry(ctx context.Context, attempt func() error) error {
	var err error
	for i := 0; i < maxTxnAttempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = attempt()
		if !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction contention not resolved after %d attempts: %w", maxTxnAttempts, err)
}

// marshalBody encodes a document body for storage.
func marshalBody(data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document body: %w", err)
	}
	return raw, nil
}
