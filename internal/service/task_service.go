package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chorepoints/internal/docstore"
	"chorepoints/internal/ledger"
	"chorepoints/internal/models"
	"chorepoints/internal/repository"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskService drives a task through its lifecycle from creation to point
// award. Every point movement happens inside a store transaction against
// a freshly read balance.
type TaskService struct {
	store   docstore.Store
	tasks   *repository.TaskRepository
	rewards *repository.RewardRepository
	users   *repository.UserRepository
}

// NewTaskService creates a new task service
func NewTaskService(
	store docstore.Store,
	tasks *repository.TaskRepository,
	rewards *repository.RewardRepository,
	users *repository.UserRepository,
) *TaskService {
	return &TaskService{
		store:   store,
		tasks:   tasks,
		rewards: rewards,
		users:   users,
	}
}

// CreateTaskInput carries the caller-provided fields of a new task
type CreateTaskInput struct {
	Title            string
	Description      string
	Points           int
	ImageURL         string
	Recurring        bool
	AssignedChildIDs []string
	LinkedRewardIDs  []string
	CreatedBy        string
	FamilyID         string
}

// CreateTask persists a new pending task and, in the same transaction,
// merges its assigned children into every linked reward's assigned set.
// A task never exists without its linked rewards reflecting the
// assignment.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if err := models.Validate(input.Title != "", "title", "title is required"); err != nil {
		return nil, err
	}
	if err := models.Validate(input.Points >= 0, "points", "points must not be negative"); err != nil {
		return nil, err
	}
	if err := models.Validate(len(input.LinkedRewardIDs) > 0, "linked_reward_ids", "a task must link to at least one reward"); err != nil {
		return nil, err
	}
	if err := models.Validate(input.FamilyID != "", "family_id", "family id is required"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:               uuid.NewString(),
		Title:            input.Title,
		Description:      input.Description,
		Points:           input.Points,
		ImageURL:         input.ImageURL,
		Recurring:        input.Recurring,
		AssignedChildIDs: input.AssignedChildIDs,
		LinkedRewardIDs:  input.LinkedRewardIDs,
		CreatedBy:        input.CreatedBy,
		FamilyID:         input.FamilyID,
		Status:           models.TaskPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		for _, rewardID := range task.LinkedRewardIDs {
			reward, err := s.rewards.TxGet(tx, rewardID)
			if errors.Is(err, docstore.ErrNotFound) {
				return fmt.Errorf("linked reward %s: %w", rewardID, ErrRewardNotFound)
			}
			if err != nil {
				return err
			}
			for _, childID := range task.AssignedChildIDs {
				reward.Assign(childID)
			}
			if err := s.rewards.TxPut(tx, reward); err != nil {
				return err
			}
		}
		return s.tasks.TxPut(tx, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// SubmitTask moves a pending or declined task to submitted, optionally
// attaching a proof image. No points move yet.
func (s *TaskService) SubmitTask(ctx context.Context, taskID, proofImageURL string) (*models.Task, error) {
	return s.transition(ctx, taskID, func(task *models.Task) error {
		if !task.Status.CanSubmit() {
			return &models.TransitionError{Entity: "task", From: string(task.Status), Op: "submit"}
		}
		task.Status = models.TaskSubmitted
		if proofImageURL != "" {
			task.ProofImageURL = proofImageURL
		}
		return nil
	})
}

// ApproveTask moves a submitted task to approved and credits every
// assigned child the task's point value. The status guard runs against a
// fresh read inside the transaction, so approving twice can never credit
// twice. When the fan-out fits the transaction budget the whole award is
// one atomic unit; otherwise the status flip commits first and the
// credits run as best-effort per-child transactions, with partial
// completion reported as a PartialError.
func (s *TaskService) ApproveTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	if 1+len(task.AssignedChildIDs) <= docstore.MaxTxnDocuments {
		return s.approveAtomic(ctx, taskID)
	}
	return s.approveBatched(ctx, taskID)
}

func (s *TaskService) approveAtomic(ctx context.Context, taskID string) (*models.Task, error) {
	var approved *models.Task
	var missing []string

	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		missing = missing[:0]
		task, err := s.tasks.TxGet(tx, taskID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrTaskNotFound
		}
		if err != nil {
			return err
		}
		if !task.Status.CanReview() {
			return &models.TransitionError{Entity: "task", From: string(task.Status), Op: "approve"}
		}

		for _, childID := range task.AssignedChildIDs {
			if err := s.creditChildTx(tx, childID, task.Points, &missing); err != nil {
				return err
			}
		}

		task.Status = models.TaskApproved
		task.UpdatedAt = time.Now().UTC()
		approved = task
		return s.tasks.TxPut(tx, task)
	})
	if err != nil {
		return nil, err
	}

	for _, childID := range missing {
		log.Printf("Warning: task %s approved but assigned child %s no longer exists", taskID, childID)
	}
	return approved, nil
}

func (s *TaskService) approveBatched(ctx context.Context, taskID string) (*models.Task, error) {
	var approved *models.Task
	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		task, err := s.tasks.TxGet(tx, taskID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrTaskNotFound
		}
		if err != nil {
			return err
		}
		if !task.Status.CanReview() {
			return &models.TransitionError{Entity: "task", From: string(task.Status), Op: "approve"}
		}
		task.Status = models.TaskApproved
		task.UpdatedAt = time.Now().UTC()
		approved = task
		return s.tasks.TxPut(tx, task)
	})
	if err != nil {
		return nil, err
	}

	partial := &PartialError{Op: "credit children for task " + taskID}
	for _, childID := range approved.AssignedChildIDs {
		id := childID
		err := s.store.Transact(ctx, func(tx docstore.Txn) error {
			var missing []string
			return s.creditChildTx(tx, id, approved.Points, &missing)
		})
		if err != nil {
			partial.record(id, err)
		}
	}
	if err := partial.orNil(); err != nil {
		log.Printf("Error: %v", err)
		return approved, err
	}
	return approved, nil
}

// creditChildTx awards points to one child against a fresh balance read.
// A child that disappeared since assignment is recorded and skipped.
func (s *TaskService) creditChildTx(tx docstore.Txn, childID string, points int, missing *[]string) error {
	child, err := s.users.TxGet(tx, childID)
	if errors.Is(err, docstore.ErrNotFound) {
		*missing = append(*missing, childID)
		return nil
	}
	if err != nil {
		return err
	}
	child.Points = ledger.Credit(child.Points, points)
	child.UpdatedAt = time.Now().UTC()
	return s.users.TxPut(tx, child)
}

// DeclineTask moves a submitted task to declined. No points move.
func (s *TaskService) DeclineTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.transition(ctx, taskID, func(task *models.Task) error {
		if !task.Status.CanReview() {
			return &models.TransitionError{Entity: "task", From: string(task.Status), Op: "decline"}
		}
		task.Status = models.TaskDeclined
		return nil
	})
}

// ResetTask returns a non-approved task to pending, discarding any
// submitted proof.
func (s *TaskService) ResetTask(ctx context.Context, taskID string) (*models.Task, error) {
	return s.transition(ctx, taskID, func(task *models.Task) error {
		if !task.Status.CanReset() {
			return &models.TransitionError{Entity: "task", From: string(task.Status), Op: "reset"}
		}
		task.Status = models.TaskPending
		task.ProofImageURL = ""
		return nil
	})
}

// UpdateTaskInput carries the editable metadata of a task
type UpdateTaskInput struct {
	Title       string
	Description string
	Points      int
	ImageURL    string
	Recurring   bool
}

// UpdateTask edits a task's metadata. Lifecycle state and assignments are
// untouched.
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (*models.Task, error) {
	if err := models.Validate(input.Title != "", "title", "title is required"); err != nil {
		return nil, err
	}
	if err := models.Validate(input.Points >= 0, "points", "points must not be negative"); err != nil {
		return nil, err
	}

	return s.transition(ctx, taskID, func(task *models.Task) error {
		task.Title = input.Title
		task.Description = input.Description
		task.Points = input.Points
		task.ImageURL = input.ImageURL
		task.Recurring = input.Recurring
		return nil
	})
}

// DeleteTask removes a task unconditionally. Points already awarded stay
// awarded; approval is irreversible by deletion.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	return s.store.Transact(ctx, func(tx docstore.Txn) error {
		return s.tasks.TxDelete(tx, taskID)
	})
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// FamilyTasks retrieves all tasks in a family, newest first
func (s *TaskService) FamilyTasks(ctx context.Context, familyID string) ([]models.Task, error) {
	return s.tasks.ByFamily(ctx, familyID)
}

// ChildTasks retrieves all tasks assigned to a child
func (s *TaskService) ChildTasks(ctx context.Context, childID string) ([]models.Task, error) {
	return s.tasks.AssignedTo(ctx, childID)
}

// transition applies mutate to a freshly read task inside a transaction
func (s *TaskService) transition(ctx context.Context, taskID string, mutate func(*models.Task) error) (*models.Task, error) {
	var updated *models.Task
	err := s.store.Transact(ctx, func(tx docstore.Txn) error {
		task, err := s.tasks.TxGet(tx, taskID)
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrTaskNotFound
		}
		if err != nil {
			return err
		}
		if err := mutate(task); err != nil {
			return err
		}
		task.UpdatedAt = time.Now().UTC()
		updated = task
		return s.tasks.TxPut(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
