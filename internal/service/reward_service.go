package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
	"chorepoints/internal/repository"
)

var ErrRewardNotFound = errors.New("reward not found")

// RewardService manages the reward catalog of a family
type RewardService struct {
	store   docstore.Store
	rewards *repository.RewardRepository
}

// NewRewardService creates a new reward service
func NewRewardService(store docstore.Store, rewards *repository.RewardRepository) *RewardService {
	return &RewardService{store: store, rewards: rewards}
}

// CreateRewardInput carries the caller-provided fields of a new reward
type CreateRewardInput struct {
	Title          string
	Description    string
	RequiredPoints int
	ImageURL       string
	CreatedBy      string
	FamilyID       string
}

// CreateReward adds a reward to the family catalog. The reward starts
// with no assigned children; assignment happens through task creation or
// an explicit assign.
func (s *RewardService) CreateReward(ctx context.Context, input CreateRewardInput) (*models.Reward, error) {
	if err := models.Validate(input.Title != "", "title", "title is required"); err != nil {
		return nil, err
	}
	if err := models.Validate(input.RequiredPoints > 0, "required_points", "required points must be positive"); err != nil {
		return nil, err
	}
	if err := models.Validate(input.FamilyID != "", "family_id", "family id is required"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reward := &models.Reward{
		ID:             uuid.NewString(),
		Title:          input.Title,
		Description:    input.Description,
		RequiredPoints: input.RequiredPoints,
		ImageURL:       input.ImageURL,
		CreatedBy:      input.CreatedBy,
		FamilyID:       input.FamilyID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		return s.rewards.TxPut(tx, reward)
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// UpdateRewardInput carries the editable metadata of a reward
type UpdateRewardInput struct {
	Title          string
	Description    string
	RequiredPoints int
	ImageURL       string
}

// UpdateReward edits a reward's metadata. Claims already made keep the
// cost they were claimed at.
func (s *RewardService) UpdateReward(ctx context.Context, rewardID string, input UpdateRewardInput) (*models.Reward, error) {
	if err := models.Validate(input.Title != "", "title", "title is required"); err != nil {
		return nil, err
	}
	if err := models.Validate(input.RequiredPoints > 0, "required_points", "required points must be positive"); err != nil {
		return nil, err
	}

	var updated *models.Reward
	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		reward, err := s.rewards.TxGet(tx, rewardID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrRewardNotFound
		}
		if err != nil {
			return err
		}
		reward.Title = input.Title
		reward.Description = input.Description
		reward.RequiredPoints = input.RequiredPoints
		reward.ImageURL = input.ImageURL
		reward.UpdatedAt = time.Now().UTC()
		updated = reward
		return s.rewards.TxPut(tx, reward)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AssignReward adds a child to a reward's assigned set
func (s *RewardService) AssignReward(ctx context.Context, rewardID, childID string) (*models.Reward, error) {
	return s.mutate(ctx, rewardID, func(reward *models.Reward) {
		reward.Assign(childID)
	})
}

// UnassignReward removes a child from a reward's assigned set. Existing
// claims by that child are untouched.
func (s *RewardService) UnassignReward(ctx context.Context, rewardID, childID string) (*models.Reward, error) {
	return s.mutate(ctx, rewardID, func(reward *models.Reward) {
		reward.Unassign(childID)
	})
}

// DeleteReward removes a reward from the catalog. Existing claims keep
// their frozen snapshot of the reward.
func (s *RewardService) DeleteReward(ctx context.Context, rewardID string) error {
	return s.store.Transact(ctx, func(tx docstore.Txn) error {
		return s.rewards.TxDelete(tx, rewardID)
	})
}

// GetReward retrieves a reward by ID
func (s *RewardService) GetReward(ctx context.Context, rewardID string) (*models.Reward, error) {
	reward, err := s.rewards.Get(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}

// FamilyRewards retrieves all rewards in a family, newest first
func (s *RewardService) FamilyRewards(ctx context.Context, familyID string) ([]models.Reward, error) {
	return s.rewards.ByFamily(ctx, familyID)
}

// ChildRewards retrieves all rewards assigned to a child
func (s *RewardService) ChildRewards(ctx context.Context, childID string) ([]models.Reward, error) {
	return s.rewards.AssignedTo(ctx, childID)
}

func (s *RewardService) mutate(ctx context.Context, rewardID string, fn func(*models.Reward)) (*models.Reward, error) {
	var updated *models.Reward
	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		reward, err := s.rewards.TxGet(tx, rewardID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrRewardNotFound
		}
		if err != nil {
			return err
		}
		fn(reward)
		reward.UpdatedAt = time.Now().UTC()
		updated = reward
		return s.rewards.TxPut(tx, reward)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
