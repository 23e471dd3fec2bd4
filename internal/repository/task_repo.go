package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
)

// TaskRepository handles document store operations for tasks
type TaskRepository struct {
	store docstore.Store
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(store docstore.Store) *TaskRepository {
	return &TaskRepository{store: store}
}

// Get retrieves a task by ID; returns nil when the task does not exist
func (r *TaskRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	doc, err := r.store.Get(ctx, CollectionTasks, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return decodeTask(doc)
}

// ByFamily retrieves all tasks in a family, newest first
func (r *TaskRepository) ByFamily(ctx context.Context, familyID string) ([]models.Task, error) {
	docs, err := r.store.Query(ctx, CollectionTasks, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("family_id", familyID)},
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query family tasks: %w", err)
	}
	return decodeTasks(docs)
}

// AssignedTo retrieves all tasks assigned to a child
func (r *TaskRepository) AssignedTo(ctx context.Context, childID string) ([]models.Task, error) {
	docs, err := r.store.Query(ctx, CollectionTasks, docstore.Query{
		Filters: []docstore.Filter{docstore.Contains("assigned_child_ids", childID)},
		OrderBy: "created_at",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned tasks: %w", err)
	}
	return decodeTasks(docs)
}

// TxGet reads a task inside a transaction, pinning its version
func (r *TaskRepository) TxGet(tx docstore.Txn, id string) (*models.Task, error) {
	doc, err := tx.Get(CollectionTasks, id)
	if err != nil {
		return nil, err
	}
	return decodeTask(doc)
}

// TxPut writes a task inside a transaction
func (r *TaskRepository) TxPut(tx docstore.Txn, task *models.Task) error {
	return tx.Put(CollectionTasks, task.ID, task)
}

// TxDelete removes a task inside a transaction
func (r *TaskRepository) TxDelete(tx docstore.Txn, id string) error {
	return tx.Delete(CollectionTasks, id)
}

func decodeTask(doc *docstore.Document) (*models.Task, error) {
	var task models.Task
	if err := json.Unmarshal(doc.Data, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task %s: %w", doc.ID, err)
	}
	task.ID = doc.ID
	return &task, nil
}

func decodeTasks(docs []docstore.Document) ([]models.Task, error) {
	tasks := make([]models.Task, 0, len(docs))
	for i := range docs {
		task, err := decodeTask(&docs[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}
