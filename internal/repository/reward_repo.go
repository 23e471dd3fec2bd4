package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
)

// RewardRepository handles document store operations for rewards
type RewardRepository struct {
	store docstore.Store
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(store docstore.Store) *RewardRepository {
	return &RewardRepository{store: store}
}

// Get retrieves a reward by ID; returns nil when the reward does not exist
func (r *RewardRepository) Get(ctx context.Context, id string) (*models.Reward, error) {
	doc, err := r.store.Get(ctx, CollectionRewards, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return decodeReward(doc)
}

// ByFamily retrieves all rewards in a family, newest first
func (r *RewardRepository) ByFamily(ctx context.Context, familyID string) ([]models.Reward, error) {
	docs, err := r.store.Query(ctx, CollectionRewards, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("family_id", familyID)},
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query family rewards: %w", err)
	}
	return decodeRewards(docs)
}

// AssignedTo retrieves all rewards assigned to a child
func (r *RewardRepository) AssignedTo(ctx context.Context, childID string) ([]models.Reward, error) {
	docs, err := r.store.Query(ctx, CollectionRewards, docstore.Query{
		Filters: []docstore.Filter{docstore.Contains("assigned_child_ids", childID)},
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned rewards: %w", err)
	}
	return decodeRewards(docs)
}

// TxGet reads a reward inside a transaction, pinning its version
func (r *RewardRepository) TxGet(tx docstore.Txn, id string) (*models.Reward, error) {
	doc, err := tx.Get(CollectionRewards, id)
	if err != nil {
		return nil, err
	}
	return decodeReward(doc)
}

// TxPut writes a reward inside a transaction
func (r *RewardRepository) TxPut(tx docstore.Txn, reward *models.Reward) error {
	return tx.Put(CollectionRewards, reward.ID, reward)
}

// TxDelete removes a reward inside a transaction
func (r *RewardRepository) TxDelete(tx docstore.Txn, id string) error {
	return tx.Delete(CollectionRewards, id)
}

func decodeReward(doc *docstore.Document) (*models.Reward, error) {
	var reward models.Reward
	if err := json.Unmarshal(doc.Data, &reward); err != nil {
		return nil, fmt.Errorf("failed to decode reward %s: %w", doc.ID, err)
	}
	reward.ID = doc.ID
	return &reward, nil
}

func decodeRewards(docs []docstore.Document) ([]models.Reward, error) {
	rewards := make([]models.Reward, 0, len(docs))
	for i := range docs {
		reward, err := decodeReward(&docs[i])
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, *reward)
	}
	return rewards, nil
}
