package docstore

import "errors"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a transaction observed a document that
	// changed before commit. Transact retries these automatically.
	ErrConflict = errors.New("document version conflict")

	// ErrTxnTooLarge is returned when a transaction touches more documents
	// than MaxTxnDocuments allows.
	ErrTxnTooLarge = errors.New("transaction exceeds document budget")
)
