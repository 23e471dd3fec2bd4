package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
)

// FamilyRepository handles document store operations for families
type FamilyRepository struct {
	store docstore.Store
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(store docstore.Store) *FamilyRepository {
	return &FamilyRepository{store: store}
}

// Get retrieves a family by ID; returns nil when the family does not exist
func (r *FamilyRepository) Get(ctx context.Context, id string) (*models.Family, error) {
	doc, err := r.store.Get(ctx, CollectionFamilies, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return decodeFamily(doc)
}

// TxGet reads a family inside a transaction, pinning its version
func (r *FamilyRepository) TxGet(tx docstore.Txn, id string) (*models.Family, error) {
	doc, err := tx.Get(CollectionFamilies, id)
	if err != nil {
		return nil, err
	}
	return decodeFamily(doc)
}

// TxPut writes a family inside a transaction
func (r *FamilyRepository) TxPut(tx docstore.Txn, family *models.Family) error {
	return tx.Put(CollectionFamilies, family.ID, family)
}

func decodeFamily(doc *docstore.Document) (*models.Family, error) {
	var family models.Family
	if err := json.Unmarshal(doc.Data, &family); err != nil {
		return nil, fmt.Errorf("failed to decode family %s: %w", doc.ID, err)
	}
	family.ID = doc.ID
	return &family, nil
}
