package service

import (
	"context"
	"testing"

	"chorepoints/internal/docstore"
	"chorepoints/internal/models"
	"chorepoints/internal/repository"
)

// testEnv wires all services onto a fresh in-memory store
type testEnv struct {
	store    *docstore.MemoryStore
	users    *repository.UserRepository
	families *FamilyService
	tasks    *TaskService
	rewards  *RewardService
	claims   *ClaimService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := docstore.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	users := repository.NewUserRepository(store)
	families := repository.NewFamilyRepository(store)
	tasks := repository.NewTaskRepository(store)
	rewards := repository.NewRewardRepository(store)
	claims := repository.NewClaimRepository(store)

	email, err := NewEmailService(context.Background(), "", "", "", "")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}

	return &testEnv{
		store:    store,
		users:    users,
		families: NewFamilyService(store, users, families, tasks, rewards, email),
		tasks:    NewTaskService(store, tasks, rewards, users),
		rewards:  NewRewardService(store, rewards),
		claims:   NewClaimService(store, claims, rewards, users, families, email),
	}
}

// setupFamily creates a parent, a family, and one child
func setupFamily(t *testing.T, env *testEnv) (*models.User, *models.Family, *models.User) {
	t.Helper()
	ctx := context.Background()

	parent, err := env.families.CreateParent(ctx, "parent@example.com", "Pat")
	if err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}
	family, err := env.families.CreateFamily(ctx, "The Tests", parent.ID)
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	child, err := env.families.AddChild(ctx, family.ID, "Sam")
	if err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	return parent, family, child
}

// createReward adds a reward to the family catalog
func createReward(t *testing.T, env *testEnv, familyID, parentID, title string, points int) *models.Reward {
	t.Helper()
	reward, err := env.rewards.CreateReward(context.Background(), CreateRewardInput{
		Title:          title,
		RequiredPoints: points,
		CreatedBy:      parentID,
		FamilyID:       familyID,
	})
	if err != nil {
		t.Fatalf("CreateReward() error = %v", err)
	}
	return reward
}

// createTask adds a task assigned to the given children, linked to the
// given rewards
func createTask(t *testing.T, env *testEnv, familyID, parentID string, points int, childIDs, rewardIDs []string) *models.Task {
	t.Helper()
	task, err := env.tasks.CreateTask(context.Background(), CreateTaskInput{
		Title:            "Tidy room",
		Points:           points,
		AssignedChildIDs: childIDs,
		LinkedRewardIDs:  rewardIDs,
		CreatedBy:        parentID,
		FamilyID:         familyID,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

// childPoints reads a child's current balance from the store
func childPoints(t *testing.T, env *testEnv, childID string) int {
	t.Helper()
	child, err := env.users.Get(context.Background(), childID)
	if err != nil {
		t.Fatalf("users.Get() error = %v", err)
	}
	if child == nil {
		t.Fatalf("child %s not found", childID)
	}
	return child.Points
}
