package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
)

// ClaimRepository handles document store operations for reward claims
type ClaimRepository struct {
	store docstore.Store
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(store docstore.Store) *ClaimRepository {
	return &ClaimRepository{store: store}
}

// Get retrieves a claim by ID; returns nil when the claim does not exist
func (r *ClaimRepository) Get(ctx context.Context, id string) (*models.RewardClaim, error) {
	doc, err := r.store.Get(ctx, CollectionClaims, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return decodeClaim(doc)
}

// ByFamily retrieves all claims in a family, newest first
func (r *ClaimRepository) ByFamily(ctx context.Context, familyID string) ([]models.RewardClaim, error) {
	docs, err := r.store.Query(ctx, CollectionClaims, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("family_id", familyID)},
		OrderBy: "claimed_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query family claims: %w", err)
	}
	return decodeClaims(docs)
}

// ByChild retrieves all claims made by a child, newest first
func (r *ClaimRepository) ByChild(ctx context.Context, childID string) ([]models.RewardClaim, error) {
	docs, err := r.store.Query(ctx, CollectionClaims, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("child_id", childID)},
		OrderBy: "claimed_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query child claims: %w", err)
	}
	return decodeClaims(docs)
}

// TxGet reads a claim inside a transaction, pinning its version
func (r *ClaimRepository) TxGet(tx docstore.Txn, id string) (*models.RewardClaim, error) {
	doc, err := tx.Get(CollectionClaims, id)
	if err != nil {
		return nil, err
	}
	return decodeClaim(doc)
}

// TxPut writes a claim inside a transaction
func (r *ClaimRepository) TxPut(tx docstore.Txn, claim *models.RewardClaim) error {
	return tx.Put(CollectionClaims, claim.ID, claim)
}

// TxDelete removes a claim inside a transaction
func (r *ClaimRepository) TxDelete(tx docstore.Txn, id string) error {
	return tx.Delete(CollectionClaims, id)
}

func decodeClaim(doc *docstore.Document) (*models.RewardClaim, error) {
	var claim models.RewardClaim
	if err := json.Unmarshal(doc.Data, &claim); err != nil {
		return nil, fmt.Errorf("failed to decode claim %s: %w", doc.ID, err)
	}
	claim.ID = doc.ID
	return &claim, nil
}

func decodeClaims(docs []docstore.Document) ([]models.RewardClaim, error) {
	claims := make([]models.RewardClaim, 0, len(docs))
	for i := range docs {
		claim, err := decodeClaim(&docs[i])
		if err != nil {
			return nil, err
		}
		claims = append(claims, *claim)
	}
	return claims, nil
}
