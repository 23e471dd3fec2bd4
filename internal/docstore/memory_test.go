package docstore

import (
	"context"
	"errors"
	"testing"
)

type testDoc struct {
	ID       string   `json:"id"`
	FamilyID string   `json:"family_id"`
	Status   string   `json:"status"`
	Members  []string `json:"members"`
	Points   int      `json:"points"`
}

func putDoc(t *testing.T, s Store, collection string, doc testDoc) {
	t.Helper()
	err := s.Transact(context.Background(), func(tx Txn) error {
		return tx.Put(collection, doc.ID, doc)
	})
	if err != nil {
		t.Fatalf("failed to put document %s: %v", doc.ID, err)
	}
}

func TestMemoryStoreGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	putDoc(t, s, "things", testDoc{ID: "a", FamilyID: "f1", Status: "pending"})

	doc, err := s.Get(ctx, "things", "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.ID != "a" {
		t.Errorf("expected id a, got %s", doc.ID)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}

	if _, err := s.Get(ctx, "things", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreQueryFilters(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	putDoc(t, s, "things", testDoc{ID: "a", FamilyID: "f1", Status: "pending", Members: []string{"c1", "c2"}})
	putDoc(t, s, "things", testDoc{ID: "b", FamilyID: "f1", Status: "approved", Members: []string{"c2"}})
	putDoc(t, s, "things", testDoc{ID: "c", FamilyID: "f2", Status: "pending", Members: []string{"c3"}})

	tests := []struct {
		name    string
		query   Query
		wantIDs map[string]bool
	}{
		{
			name:    "equality on family",
			query:   Query{Filters: []Filter{Eq("family_id", "f1")}},
			wantIDs: map[string]bool{"a": true, "b": true},
		},
		{
			name:    "equality on two fields",
			query:   Query{Filters: []Filter{Eq("family_id", "f1"), Eq("status", "pending")}},
			wantIDs: map[string]bool{"a": true},
		},
		{
			name:    "array contains",
			query:   Query{Filters: []Filter{Contains("members", "c2")}},
			wantIDs: map[string]bool{"a": true, "b": true},
		},
		{
			name:    "contains with no match",
			query:   Query{Filters: []Filter{Contains("members", "c9")}},
			wantIDs: map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.Query(ctx, "things", tt.query)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(docs) != len(tt.wantIDs) {
				t.Fatalf("expected %d documents, got %d", len(tt.wantIDs), len(docs))
			}
			for _, doc := range docs {
				if !tt.wantIDs[doc.ID] {
					t.Errorf("unexpected document %s in result", doc.ID)
				}
			}
		})
	}
}

func TestMemoryStoreQueryOrderAndLimit(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	putDoc(t, s, "things", testDoc{ID: "a", Points: 30})
	putDoc(t, s, "things", testDoc{ID: "b", Points: 10})
	putDoc(t, s, "things", testDoc{ID: "c", Points: 20})

	docs, err := s.Query(ctx, "things", Query{OrderBy: "points", Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "b" || docs[1].ID != "c" {
		t.Errorf("expected order b, c; got %s, %s", docs[0].ID, docs[1].ID)
	}

	docs, err = s.Query(ctx, "things", Query{OrderBy: "points", Desc: true, Limit: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if docs[0].ID != "a" {
		t.Errorf("expected a first in descending order, got %s", docs[0].ID)
	}
}

func TestTransactRetriesOnConflict(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	putDoc(t, s, "things", testDoc{ID: "a", Points: 1})

	attempts := 0
	err := s.Transact(ctx, func(tx Txn) error {
		attempts++
		doc, err := tx.Get("things", "a")
		if err != nil {
			return err
		}
		// Interfere once: bump the document from outside so the first
		// commit attempt hits a version conflict
		if attempts == 1 {
			interfere := s.Transact(ctx, func(outer Txn) error {
				return outer.Put("things", "a", testDoc{ID: "a", Points: 99})
			})
			if interfere != nil {
				return interfere
			}
		}
		_ = doc
		return tx.Put("things", "a", testDoc{ID: "a", Points: 2})
	})
	if err != nil {
		t.Fatalf("Transact failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}

	doc, err := s.Get(ctx, "things", "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Version != 3 {
		t.Errorf("expected version 3 after interfering write plus retry, got %d", doc.Version)
	}
}

func TestTransactRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx Txn) error {
		if err := tx.Put("things", "x", testDoc{ID: "x"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error returned, got %v", err)
	}

	if _, err := s.Get(ctx, "things", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected staged write discarded, got %v", err)
	}
}

func TestTransactDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	putDoc(t, s, "things", testDoc{ID: "a"})

	err := s.Transact(ctx, func(tx Txn) error {
		return tx.Delete("things", "a")
	})
	if err != nil {
		t.Fatalf("Transact failed: %v", err)
	}
	if _, err := s.Get(ctx, "things", "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected document deleted, got %v", err)
	}

	// Deleting an absent document is a no-op
	err = s.Transact(ctx, func(tx Txn) error {
		return tx.Delete("things", "never-existed")
	})
	if err != nil {
		t.Errorf("expected delete of absent document to succeed, got %v", err)
	}
}

func TestTransactBudget(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	err := s.Transact(context.Background(), func(tx Txn) error {
		for i := 0; i <= MaxTxnDocuments; i++ {
			if err := tx.Put("things", string(rune('a'+i%26))+string(rune('0'+i/26)), testDoc{}); err != nil {
				return err
			}
		}
		return nil
	})
	if !errors.Is(err, ErrTxnTooLarge) {
		t.Fatalf("expected ErrTxnTooLarge, got %v", err)
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	putDoc(t, s, "things", testDoc{ID: "a", FamilyID: "f1"})

	sub, err := s.Subscribe(ctx, "things", Query{Filters: []Filter{Eq("family_id", "f1")}})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()

	// Initial snapshot carries current state
	snap := <-sub.Updates()
	if len(snap) != 1 || snap[0].ID != "a" {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	// A write to the collection re-delivers the full result set
	putDoc(t, s, "things", testDoc{ID: "b", FamilyID: "f1"})
	snap = <-sub.Updates()
	if len(snap) != 2 {
		t.Fatalf("expected 2 documents in snapshot, got %d", len(snap))
	}

	// Writes outside the filter still notify with the filtered set
	putDoc(t, s, "things", testDoc{ID: "z", FamilyID: "f9"})
	snap = <-sub.Updates()
	if len(snap) != 2 {
		t.Fatalf("expected filtered snapshot of 2 documents, got %d", len(snap))
	}
}

func TestSubscribeLatestWins(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	sub, err := s.Subscribe(ctx, "things", Query{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Cancel()
	<-sub.Updates() // drain initial snapshot

	// Several writes without a read in between: only the newest snapshot
	// must remain buffered
	putDoc(t, s, "things", testDoc{ID: "a"})
	putDoc(t, s, "things", testDoc{ID: "b"})
	putDoc(t, s, "things", testDoc{ID: "c"})

	snap := <-sub.Updates()
	if len(snap) != 3 {
		t.Fatalf("expected latest snapshot with 3 documents, got %d", len(snap))
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	sub, err := s.Subscribe(context.Background(), "things", Query{})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	<-sub.Updates()

	sub.Cancel()
	sub.Cancel() // idempotent

	if _, open := <-sub.Updates(); open {
		t.Error("expected updates channel closed after cancel")
	}

	// Writes after cancel must not panic
	putDoc(t, s, "things", testDoc{ID: "a"})
}
