package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
)

// UserRepository handles document store operations for user accounts
type UserRepository struct {
	store docstore.Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Get retrieves a user by ID; returns nil when the user does not exist
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.store.Get(ctx, CollectionUsers, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return decodeUser(doc)
}

// GetByEmail retrieves a parent account by email; returns nil when absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := r.store.Query(ctx, CollectionUsers, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("email", email)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeUser(&docs[0])
}

// ChildrenByFamily retrieves all child profiles in a family
func (r *UserRepository) ChildrenByFamily(ctx context.Context, familyID string) ([]models.User, error) {
	docs, err := r.store.Query(ctx, CollectionUsers, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("family_id", familyID),
			docstore.Eq("role", string(models.RoleChild)),
		},
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query family children: %w", err)
	}
	return decodeUsers(docs)
}

// ByIDs resolves user IDs to accounts, preserving order and skipping IDs
// that no longer resolve. Used to expand a family's membership arrays.
func (r *UserRepository) ByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		user, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		users = append(users, *user)
	}
	return users, nil
}

// TxGet reads a user inside a transaction, pinning its version
func (r *UserRepository) TxGet(tx docstore.Txn, id string) (*models.User, error) {
	doc, err := tx.Get(CollectionUsers, id)
	if err != nil {
		return nil, err
	}
	return decodeUser(doc)
}

// TxPut writes a user inside a transaction
func (r *UserRepository) TxPut(tx docstore.Txn, user *models.User) error {
	return tx.Put(CollectionUsers, user.ID, user)
}

// TxDelete removes a user inside a transaction
func (r *UserRepository) TxDelete(tx docstore.Txn, id string) error {
	return tx.Delete(CollectionUsers, id)
}

func decodeUser(doc *docstore.Document) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal(doc.Data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", doc.ID, err)
	}
	user.ID = doc.ID
	return &user, nil
}

func decodeUsers(docs []docstore.Document) ([]models.User, error) {
	users := make([]models.User, 0, len(docs))
	for i := range docs {
		user, err := decodeUser(&docs[i])
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}
