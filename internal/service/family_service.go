package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
	"chorepoints/internal/repository"
)

var (
	ErrFamilyNotFound  = errors.New("family not found")
	ErrChildNotFound   = errors.New("child not found")
	ErrParentNotFound  = errors.New("no parent account with that email")
	ErrNotAParent      = errors.New("account is not a parent")
	ErrNotFamilyMember = errors.New("user is not a member of this family")
	ErrEmailTaken      = errors.New("an account with that email already exists")
)

// FamilyService handles family membership: onboarding parents, creating
// child profiles, linking co-parents and the cascading cleanup when a
// child is removed.
type FamilyService struct {
	store    docstore.Store
	users    *repository.UserRepository
	families *repository.FamilyRepository
	tasks    *repository.TaskRepository
	rewards  *repository.RewardRepository
	email    *EmailService
}

// NewFamilyService creates a new family service
func NewFamilyService(
	store docstore.Store,
	users *repository.UserRepository,
	families *repository.FamilyRepository,
	tasks *repository.TaskRepository,
	rewards *repository.RewardRepository,
	email *EmailService,
) *FamilyService {
	return &FamilyService{
		store:    store,
		users:    users,
		families: families,
		tasks:    tasks,
		rewards:  rewards,
		email:    email,
	}
}

// CreateParent creates a parent account. Authentication lives outside this
// service; the account only carries identity.
func (s *FamilyService) CreateParent(ctx context.Context, email, displayName string) (*models.User, error) {
	if err := models.Validate(email != "", "email", "email is required"); err != nil {
		return nil, err
	}
	if err := models.Validate(displayName != "", "display_name", "display name is required"); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	now := time.Now().UTC()
	parent := &models.User{
		ID:          uuid.NewString(),
		Email:       email,
		Role:        models.RoleParent,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.store.Transact(ctx, func(tx docstore.Txn) error {
		return s.users.TxPut(tx, parent)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}
	return parent, nil
}

// CreateFamily creates a family with the given parent as its only member
// and points the parent's family reference at it, in one transaction.
func (s *FamilyService) CreateFamily(ctx context.Context, name, parentID string) (*models.Family, error) {
	if err := models.Validate(name != "", "name", "family name is required"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	family := &models.Family{
		ID:        uuid.NewString(),
		Name:      name,
		ParentIDs: []string{parentID},
		ChildIDs:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		parent, err := s.users.TxGet(tx, parentID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrParentNotFound
		}
		if err != nil {
			return err
		}
		if !parent.IsParent() {
			return ErrNotAParent
		}

		parent.FamilyID = family.ID
		parent.UpdatedAt = now
		if err := s.users.TxPut(tx, parent); err != nil {
			return err
		}
		return s.families.TxPut(tx, family)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	return family, nil
}

// AddChild creates a child profile and appends it to the family's child
// set. Account and membership are written in the same transaction.
func (s *FamilyService) AddChild(ctx context.Context, familyID, name string) (*models.User, error) {
	if err := models.Validate(name != "", "name", "child name is required"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	child := &models.User{
		ID:          uuid.NewString(),
		Role:        models.RoleChild,
		FamilyID:    familyID,
		DisplayName: name,
		Points:      0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		family, err := s.families.TxGet(tx, familyID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrFamilyNotFound
		}
		if err != nil {
			return err
		}

		family.AddChild(child.ID)
		family.UpdatedAt = now
		if err := s.users.TxPut(tx, child); err != nil {
			return err
		}
		return s.families.TxPut(tx, family)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add child: %w", err)
	}

	return child, nil
}

// AddCoParent links an existing parent account, found by email, into the
// family. A parent already belonging to another family may still be
// linked; their primary family reference moves to the new family while the
// previous family keeps listing them.
func (s *FamilyService) AddCoParent(ctx context.Context, familyID, email string) (*models.User, error) {
	coParent, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if coParent == nil {
		return nil, ErrParentNotFound
	}
	if !coParent.IsParent() {
		return nil, ErrNotAParent
	}

	now := time.Now().UTC()
	var familyName string
	err = s.store.Transact(ctx, func(tx docstore.Txn) error {
		family, err := s.families.TxGet(tx, familyID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrFamilyNotFound
		}
		if err != nil {
			return err
		}
		familyName = family.Name

		user, err := s.users.TxGet(tx, coParent.ID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrParentNotFound
		}
		if err != nil {
			return err
		}

		family.AddParent(user.ID)
		family.UpdatedAt = now
		user.FamilyID = family.ID
		user.UpdatedAt = now

		if err := s.families.TxPut(tx, family); err != nil {
			return err
		}
		return s.users.TxPut(tx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add co-parent: %w", err)
	}

	if s.email != nil {
		if sendErr := s.email.SendCoParentAdded(ctx, coParent.Email, coParent.DisplayName, familyName); sendErr != nil {
			log.Printf("Warning: failed to send co-parent notification to %s: %v", coParent.Email, sendErr)
		}
	}

	return coParent, nil
}

// RemoveChild removes a child from the family: the child disappears from
// every task's and reward's assigned set, the account is deleted and the
// family's child set shrinks. Within the transaction budget this is one
// atomic unit; beyond it the unassignment runs as best-effort batches and
// the account is only deleted once every batch succeeded.
func (s *FamilyService) RemoveChild(ctx context.Context, familyID, childID string) error {
	child, err := s.users.Get(ctx, childID)
	if err != nil {
		return err
	}
	if child == nil || !child.IsChild() {
		return ErrChildNotFound
	}
	if child.FamilyID != familyID {
		return ErrNotFamilyMember
	}

	assignedTasks, err := s.tasks.AssignedTo(ctx, childID)
	if err != nil {
		return err
	}
	assignedRewards, err := s.rewards.AssignedTo(ctx, childID)
	if err != nil {
		return err
	}

	// tasks + rewards + family + child account
	total := len(assignedTasks) + len(assignedRewards) + 2
	if total <= docstore.MaxTxnDocuments {
		err := s.store.Transact(ctx, func(tx docstore.Txn) error {
			for _, t := range assignedTasks {
				if err := s.unassignTaskTx(tx, t.ID, childID); err != nil {
					return err
				}
			}
			for _, r := range assignedRewards {
				if err := s.unassignRewardTx(tx, r.ID, childID); err != nil {
					return err
				}
			}
			return s.detachChildTx(tx, familyID, childID)
		})
		if err != nil {
			return fmt.Errorf("failed to remove child: %w", err)
		}
		return nil
	}

	// Fan-out exceeds the transaction budget: unassign in best-effort
	// per-document transactions and surface partial completion.
	partial := &PartialError{Op: "unassign child " + childID}
	for _, t := range assignedTasks {
		taskID := t.ID
		err := s.store.Transact(ctx, func(tx docstore.Txn) error {
			return s.unassignTaskTx(tx, taskID, childID)
		})
		if err != nil {
			partial.record(taskID, err)
		}
	}
	for _, r := range assignedRewards {
		rewardID := r.ID
		err := s.store.Transact(ctx, func(tx docstore.Txn) error {
			return s.unassignRewardTx(tx, rewardID, childID)
		})
		if err != nil {
			partial.record(rewardID, err)
		}
	}
	if err := partial.orNil(); err != nil {
		// The account stays; a retry of RemoveChild picks up the remainder
		log.Printf("Error: %v", err)
		return err
	}

	err = s.store.Transact(ctx, func(tx docstore.Txn) error {
		return s.detachChildTx(tx, familyID, childID)
	})
	if err != nil {
		return fmt.Errorf("failed to remove child: %w", err)
	}
	return nil
}

// unassignTaskTx strips a child from one task's assigned set. A task that
// vanished since it was listed is skipped.
func (s *FamilyService) unassignTaskTx(tx docstore.Txn, taskID, childID string) error {
	task, err := s.tasks.TxGet(tx, taskID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !task.AssignedTo(childID) {
		return nil
	}
	task.Unassign(childID)
	task.UpdatedAt = time.Now().UTC()
	return s.tasks.TxPut(tx, task)
}

func (s *FamilyService) unassignRewardTx(tx docstore.Txn, rewardID, childID string) error {
	reward, err := s.rewards.TxGet(tx, rewardID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !reward.AssignedTo(childID) {
		return nil
	}
	reward.Unassign(childID)
	return s.rewards.TxPut(tx, reward)
}

// detachChildTx deletes the child account and removes it from the
// family's child set.
func (s *FamilyService) detachChildTx(tx docstore.Txn, familyID, childID string) error {
	family, err := s.families.TxGet(tx, familyID)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrFamilyNotFound
	}
	if err != nil {
		return err
	}
	family.RemoveChild(childID)
	family.UpdatedAt = time.Now().UTC()
	if err := s.families.TxPut(tx, family); err != nil {
		return err
	}
	return s.users.TxDelete(tx, childID)
}

// GetFamily retrieves a family by ID
func (s *FamilyService) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	family, err := s.families.Get(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// FamilyChildren retrieves all child profiles in a family
func (s *FamilyService) FamilyChildren(ctx context.Context, familyID string) ([]models.User, error) {
	return s.users.ChildrenByFamily(ctx, familyID)
}

// FamilyParents retrieves all parent accounts in a family. The family's
// parent set is the authority: a co-parent whose primary family reference
// moved to another family still lists here.
func (s *FamilyService) FamilyParents(ctx context.Context, familyID string) ([]models.User, error) {
	family, err := s.GetFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return s.users.ByIDs(ctx, family.ParentIDs)
}

// GetChild retrieves a child profile by ID
func (s *FamilyService) GetChild(ctx context.Context, childID string) (*models.User, error) {
	child, err := s.users.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil || !child.IsChild() {
		return nil, ErrChildNotFound
	}
	return child, nil
}
