package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"chorepoints/internal/docstore"
	"chorepoints/internal/repository"
)

// backupFormatVersion guards imports against future layout changes
const backupFormatVersion = "1.0"

// BackupData is the complete on-disk backup structure
type BackupData struct {
	Version     string                      `json:"version"`
	ExportedAt  time.Time                   `json:"exported_at"`
	Collections map[string][]BackupDocument `json:"collections"`
}

// BackupDocument is one stored document with its body preserved verbatim
type BackupDocument struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// BackupService exports and imports the full document store as JSON
type BackupService struct {
	store docstore.Store
}

// NewBackupService creates a new backup service
func NewBackupService(store docstore.Store) *BackupService {
	return &BackupService{store: store}
}

// Export writes every collection to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	backup := BackupData{
		Version:     backupFormatVersion,
		ExportedAt:  time.Now().UTC(),
		Collections: make(map[string][]BackupDocument),
	}

	for _, collection := range repository.Collections() {
		docs, err := s.store.Query(ctx, collection, docstore.Query{})
		if err != nil {
			return fmt.Errorf("failed to read collection %s: %w", collection, err)
		}
		entries := make([]BackupDocument, 0, len(docs))
		for _, doc := range docs {
			entries = append(entries, BackupDocument{ID: doc.ID, Data: doc.Data})
		}
		backup.Collections[collection] = entries
		log.Printf("Exported %d documents from %s", len(entries), collection)
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// Import loads a backup file into the store. With clear set, every known
// collection is emptied first.
func (s *BackupService) Import(ctx context.Context, inputPath string, clear bool) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup BackupData
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version != backupFormatVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	if clear {
		if err := s.clearAll(ctx); err != nil {
			return err
		}
	}

	for _, collection := range repository.Collections() {
		entries := backup.Collections[collection]
		if err := s.importCollection(ctx, collection, entries); err != nil {
			return fmt.Errorf("failed to import collection %s: %w", collection, err)
		}
		log.Printf("Imported %d documents into %s", len(entries), collection)
	}
	return nil
}

// importCollection writes documents in transaction-sized batches
func (s *BackupService) importCollection(ctx context.Context, collection string, entries []BackupDocument) error {
	for start := 0; start < len(entries); start += docstore.MaxTxnDocuments {
		end := start + docstore.MaxTxnDocuments
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]
		err := s.store.Transact(ctx, func(tx docstore.Txn) error {
			for _, entry := range batch {
				if err := tx.Put(collection, entry.ID, entry.Data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) clearAll(ctx context.Context) error {
	for _, collection := range repository.Collections() {
		docs, err := s.store.Query(ctx, collection, docstore.Query{})
		if err != nil {
			return fmt.Errorf("failed to list collection %s: %w", collection, err)
		}
		for start := 0; start < len(docs); start += docstore.MaxTxnDocuments {
			end := start + docstore.MaxTxnDocuments
			if end > len(docs) {
				end = len(docs)
			}
			batch := docs[start:end]
			err := s.store.Transact(ctx, func(tx docstore.Txn) error {
				for _, doc := range batch {
					if err := tx.Delete(collection, doc.ID); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to clear collection %s: %w", collection, err)
			}
		}
	}
	return nil
}
