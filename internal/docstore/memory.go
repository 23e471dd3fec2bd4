package docstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store with the same transactional and
// subscription semantics as the SQL store. It backs every service test.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	notifier    *notifier
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]map[string]Document),
	}
	s.notifier = newNotifier(s.Query)
	return s
}

// Get returns a copy of a document or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := doc
	return &copied, nil
}

// Query returns all documents matching the query.
func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	s.mu.RLock()
	var docs []Document
	for _, doc := range s.collections[collection] {
		fields, err := doc.Fields()
		if err != nil {
			continue
		}
		if matchFields(fields, q.Filters) {
			docs = append(docs, doc)
		}
	}
	s.mu.RUnlock()

	sortDocuments(docs, q.OrderBy, q.Desc)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

// Transact runs fn with optimistic concurrency: versions of every document
// read or written are pinned, and the commit aborts with ErrConflict
// (then retries) if any of them moved in the meantime.
func (s *MemoryStore) Transact(ctx context.Context, fn func(Txn) error) error {
	return withRetry(ctx, func() error {
		txn := &memTxn{
			store:  s,
			reads:  make(map[docKey]int64),
			writes: make(map[docKey]*Document),
		}
		if err := fn(txn); err != nil {
			return err
		}
		touched, err := txn.commit()
		if err != nil {
			return err
		}
		s.notifier.notify(ctx, touched)
		return nil
	})
}

// Subscribe registers a live query over one collection.
func (s *MemoryStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	return s.notifier.subscribe(ctx, collection, q)
}

// Close cancels all subscriptions.
func (s *MemoryStore) Close() error {
	s.notifier.closeAll()
	return nil
}

// currentVersion returns the committed version of a document, 0 if absent.
func (s *MemoryStore) currentVersion(key docKey) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.collections[key.collection][key.id]; ok {
		return doc.Version
	}
	return 0
}

type docKey struct {
	collection string
	id         string
}

// memTxn stages reads and writes for a MemoryStore transaction.
type memTxn struct {
	store  *MemoryStore
	reads  map[docKey]int64     // version observed at first read; 0 = absent
	writes map[docKey]*Document // nil entry = staged delete
}

func (t *memTxn) Get(collection, id string) (*Document, error) {
	key := docKey{collection, id}
	if staged, ok := t.writes[key]; ok {
		if staged == nil {
			return nil, ErrNotFound
		}
		copied := *staged
		return &copied, nil
	}

	t.store.mu.RLock()
	doc, ok := t.store.collections[collection][id]
	t.store.mu.RUnlock()

	if _, seen := t.reads[key]; !seen {
		if ok {
			t.reads[key] = doc.Version
		} else {
			t.reads[key] = 0
		}
	}
	if !ok {
		return nil, ErrNotFound
	}
	copied := doc
	return &copied, nil
}

func (t *memTxn) Put(collection, id string, data any) error {
	raw, err := marshalBody(data)
	if err != nil {
		return err
	}
	key := docKey{collection, id}
	t.pinVersion(key)
	t.writes[key] = &Document{ID: id, Data: raw}
	return nil
}

func (t *memTxn) Delete(collection, id string) error {
	key := docKey{collection, id}
	t.pinVersion(key)
	t.writes[key] = nil
	return nil
}

// pinVersion records the current committed version of a document the
// first time it is touched, so blind writes still conflict-check.
func (t *memTxn) pinVersion(key docKey) {
	if _, seen := t.reads[key]; !seen {
		t.reads[key] = t.store.currentVersion(key)
	}
}

// commit validates every pinned version and applies the staged writes
// atomically. Returns the set of collections touched.
func (t *memTxn) commit() (map[string]struct{}, error) {
	if len(t.reads) > MaxTxnDocuments {
		return nil, ErrTxnTooLarge
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for key, version := range t.reads {
		var current int64
		if doc, ok := t.store.collections[key.collection][key.id]; ok {
			current = doc.Version
		}
		if current != version {
			return nil, ErrConflict
		}
	}

	touched := make(map[string]struct{})
	for key, staged := range t.writes {
		touched[key.collection] = struct{}{}
		if staged == nil {
			delete(t.store.collections[key.collection], key.id)
			continue
		}
		if t.store.collections[key.collection] == nil {
			t.store.collections[key.collection] = make(map[string]Document)
		}
		staged.Version = t.reads[key] + 1
		t.store.collections[key.collection][key.id] = *staged
	}
	return touched, nil
}
