package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"chorepoints/internal/docstore"
	"chorepoints/internal/ledger"
	"chorepoints/internal/models"
	"chorepoints/internal/repository"
)

var (
	ErrClaimNotFound      = errors.New("claim not found")
	ErrInsufficientPoints = errors.New("not enough points to claim this reward")
	ErrPromiseInPast      = errors.New("promised date must not be in the past")
	ErrRewardNotAssigned  = errors.New("reward is not assigned to this child")
)

// ClaimService runs reward redemption. The debit and the claim record are
// written in one transaction against a freshly read balance, so a child
// can never spend the same points twice and a claim never exists without
// its debit.
type ClaimService struct {
	store    docstore.Store
	claims   *repository.ClaimRepository
	rewards  *repository.RewardRepository
	users    *repository.UserRepository
	families *repository.FamilyRepository
	email    *EmailService
}

// NewClaimService creates a new claim service
func NewClaimService(
	store docstore.Store,
	claims *repository.ClaimRepository,
	rewards *repository.RewardRepository,
	users *repository.UserRepository,
	families *repository.FamilyRepository,
	email *EmailService,
) *ClaimService {
	return &ClaimService{
		store:    store,
		claims:   claims,
		rewards:  rewards,
		users:    users,
		families: families,
		email:    email,
	}
}

// ClaimReward spends a child's points on a reward. Balance check, debit,
// and claim creation happen atomically; the claim freezes the reward's
// title and cost at claim time.
func (s *ClaimService) ClaimReward(ctx context.Context, childID, rewardID string) (*models.RewardClaim, error) {
	var claim *models.RewardClaim
	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		reward, err := s.rewards.TxGet(tx, rewardID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrRewardNotFound
		}
		if err != nil {
			return err
		}
		if !reward.AssignedTo(childID) {
			return ErrRewardNotAssigned
		}

		child, err := s.users.TxGet(tx, childID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrChildNotFound
		}
		if err != nil {
			return err
		}
		if !ledger.CanAfford(child.Points, reward.RequiredPoints) {
			return ErrInsufficientPoints
		}

		now := time.Now().UTC()
		child.Points = ledger.Debit(child.Points, reward.RequiredPoints)
		child.UpdatedAt = now
		if err := s.users.TxPut(tx, child); err != nil {
			return err
		}

		claim = &models.RewardClaim{
			ID:          uuid.NewString(),
			RewardID:    reward.ID,
			RewardTitle: reward.Title,
			RewardCost:  reward.RequiredPoints,
			ChildID:     child.ID,
			ChildName:   child.DisplayName,
			FamilyID:    child.FamilyID,
			Status:      models.ClaimPending,
			ClaimedAt:   now,
		}
		return s.claims.TxPut(tx, claim)
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// RemindClaim stamps a reminder on a claim. Pending claims move to
// reminded; promised claims keep their status and promise date. Granted
// claims cannot be reminded. After the commit, each parent of the family
// is nudged by email on a best-effort basis.
func (s *ClaimService) RemindClaim(ctx context.Context, claimID string) (*models.RewardClaim, error) {
	claim, err := s.mutate(ctx, claimID, func(claim *models.RewardClaim) error {
		if !claim.Status.CanRemind() {
			return &models.TransitionError{Entity: "claim", From: string(claim.Status), Op: "remind"}
		}
		now := time.Now().UTC()
		claim.LastRemindedAt = &now
		if claim.Status == models.ClaimPending {
			claim.Status = models.ClaimReminded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.email != nil && s.email.IsEnabled() {
		family, err := s.families.Get(ctx, claim.FamilyID)
		if err != nil || family == nil {
			log.Printf("Warning: failed to load family for claim reminder: %v", err)
			return claim, nil
		}
		parents, err := s.users.ByIDs(ctx, family.ParentIDs)
		if err != nil {
			log.Printf("Warning: failed to load parents for claim reminder: %v", err)
			return claim, nil
		}
		for _, parent := range parents {
			if err := s.email.SendClaimReminder(ctx, parent.Email, parent.DisplayName, claim.ChildName, claim.RewardTitle); err != nil {
				log.Printf("Warning: failed to send claim reminder to %s: %v", parent.Email, err)
			}
		}
	}
	return claim, nil
}

// PromiseClaim marks a claim as promised for a given date. Only pending
// and reminded claims can be promised, and the date must not be in the
// past.
func (s *ClaimService) PromiseClaim(ctx context.Context, claimID string, promisedFor time.Time) (*models.RewardClaim, error) {
	if promisedFor.Before(time.Now().UTC().Truncate(24 * time.Hour)) {
		return nil, ErrPromiseInPast
	}
	return s.mutate(ctx, claimID, func(claim *models.RewardClaim) error {
		if !claim.Status.CanPromise() {
			return &models.TransitionError{Entity: "claim", From: string(claim.Status), Op: "promise"}
		}
		claim.Status = models.ClaimPromised
		claim.PromisedFor = &promisedFor
		return nil
	})
}

// GrantClaim marks a claim as fulfilled. Granting is terminal and moves
// no points; the debit happened at claim time.
func (s *ClaimService) GrantClaim(ctx context.Context, claimID string) (*models.RewardClaim, error) {
	return s.mutate(ctx, claimID, func(claim *models.RewardClaim) error {
		if !claim.Status.CanGrant() {
			return &models.TransitionError{Entity: "claim", From: string(claim.Status), Op: "grant"}
		}
		now := time.Now().UTC()
		claim.Status = models.ClaimGranted
		claim.GrantedAt = &now
		return nil
	})
}

// DeleteClaim removes a claim record. The points spent on it are not
// refunded.
func (s *ClaimService) DeleteClaim(ctx context.Context, claimID string) error {
	return s.store.Transact(ctx, func(tx docstore.Txn) error {
		return s.claims.TxDelete(tx, claimID)
	})
}

// GetClaim retrieves a claim by ID
func (s *ClaimService) GetClaim(ctx context.Context, claimID string) (*models.RewardClaim, error) {
	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

// FamilyClaims retrieves all claims in a family, newest first
func (s *ClaimService) FamilyClaims(ctx context.Context, familyID string) ([]models.RewardClaim, error) {
	return s.claims.ByFamily(ctx, familyID)
}

// ChildClaims retrieves all claims made by a child, newest first
func (s *ClaimService) ChildClaims(ctx context.Context, childID string) ([]models.RewardClaim, error) {
	return s.claims.ByChild(ctx, childID)
}

// UnclaimedRewards lists the rewards assigned to a child that the child
// has not yet claimed. Callers use this to offer only claimable rewards.
func (s *ClaimService) UnclaimedRewards(ctx context.Context, childID string) ([]models.Reward, error) {
	assigned, err := s.rewards.AssignedTo(ctx, childID)
	if err != nil {
		return nil, err
	}
	claims, err := s.claims.ByChild(ctx, childID)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]bool, len(claims))
	for _, c := range claims {
		claimed[c.RewardID] = true
	}

	unclaimed := make([]models.Reward, 0, len(assigned))
	for _, r := range assigned {
		if !claimed[r.ID] {
			unclaimed = append(unclaimed, r)
		}
	}
	return unclaimed, nil
}

func (s *ClaimService) mutate(ctx context.Context, claimID string, fn func(*models.RewardClaim) error) (*models.RewardClaim, error) {
	var updated *models.RewardClaim
	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		claim, err := s.claims.TxGet(tx, claimID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrClaimNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(claim); err != nil {
			return err
		}
		updated = claim
		return s.claims.TxPut(tx, claim)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
