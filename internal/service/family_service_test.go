package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chorepoints/internal/models"
	"chorepoints/internal/repository"
)

func TestCreateParentDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.families.CreateParent(ctx, "pat@example.com", "Pat"); err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}
	_, err := env.families.CreateParent(ctx, "pat@example.com", "Other Pat")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("CreateParent() duplicate error = %v, want ErrEmailTaken", err)
	}
}

func TestCreateFamilyLinksParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	parent, err := env.families.CreateParent(ctx, "pat@example.com", "Pat")
	if err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}
	family, err := env.families.CreateFamily(ctx, "The Tests", parent.ID)
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	if !family.HasParent(parent.ID) {
		t.Error("family does not list the founding parent")
	}

	updated, err := env.families.GetChild(ctx, parent.ID)
	if err == nil && updated != nil {
		t.Fatal("GetChild() returned a parent account")
	}
	parents, err := env.families.FamilyParents(ctx, family.ID)
	if err != nil {
		t.Fatalf("FamilyParents() error = %v", err)
	}
	if len(parents) != 1 || parents[0].ID != parent.ID {
		t.Errorf("FamilyParents() = %v, want the founding parent", parents)
	}
}

func TestAddChild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, family, child := setupFamily(t, env)

	if !child.IsChild() {
		t.Error("added account is not a child")
	}
	if child.Points != 0 {
		t.Errorf("new child points = %d, want 0", child.Points)
	}
	if child.FamilyID != family.ID {
		t.Errorf("child FamilyID = %s, want %s", child.FamilyID, family.ID)
	}

	got, err := env.families.GetFamily(ctx, family.ID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if !got.HasChild(child.ID) {
		t.Error("family does not list the added child")
	}
}

func TestAddCoParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, family, _ := setupFamily(t, env)

	other, err := env.families.CreateParent(ctx, "alex@example.com", "Alex")
	if err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}
	added, err := env.families.AddCoParent(ctx, family.ID, "alex@example.com")
	if err != nil {
		t.Fatalf("AddCoParent() error = %v", err)
	}
	if added.ID != other.ID {
		t.Errorf("AddCoParent() = %s, want %s", added.ID, other.ID)
	}

	got, err := env.families.GetFamily(ctx, family.ID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if !got.HasParent(other.ID) {
		t.Error("family does not list the co-parent")
	}
}

func TestAddCoParentKeepsFirstFamilyListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, first, _ := setupFamily(t, env)

	other, err := env.families.CreateParent(ctx, "alex@example.com", "Alex")
	if err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}
	second, err := env.families.CreateFamily(ctx, "The Others", other.ID)
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}
	if _, err := env.families.AddCoParent(ctx, first.ID, "alex@example.com"); err != nil {
		t.Fatalf("AddCoParent() error = %v", err)
	}

	// Joining a second family moves the primary family reference
	moved, err := env.users.Get(ctx, other.ID)
	if err != nil {
		t.Fatalf("users.Get() error = %v", err)
	}
	if moved.FamilyID != first.ID {
		t.Errorf("co-parent FamilyID = %s, want %s", moved.FamilyID, first.ID)
	}

	// Both families still list the co-parent; membership follows the
	// family's parent set, not the account's primary family reference
	firstParents, err := env.families.FamilyParents(ctx, first.ID)
	if err != nil {
		t.Fatalf("FamilyParents(first) error = %v", err)
	}
	if !containsUser(firstParents, parent.ID) || !containsUser(firstParents, other.ID) {
		t.Errorf("FamilyParents(first) = %v, want both parents", firstParents)
	}
	secondParents, err := env.families.FamilyParents(ctx, second.ID)
	if err != nil {
		t.Fatalf("FamilyParents(second) error = %v", err)
	}
	if len(secondParents) != 1 || secondParents[0].ID != other.ID {
		t.Errorf("FamilyParents(second) = %v, want the founding parent", secondParents)
	}
}

func containsUser(users []models.User, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}

func TestAddCoParentWithoutEmailService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, family, _ := setupFamily(t, env)

	if _, err := env.families.CreateParent(ctx, "alex@example.com", "Alex"); err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}

	svc := NewFamilyService(
		env.store,
		env.users,
		repository.NewFamilyRepository(env.store),
		repository.NewTaskRepository(env.store),
		repository.NewRewardRepository(env.store),
		nil,
	)
	if _, err := svc.AddCoParent(ctx, family.ID, "alex@example.com"); err != nil {
		t.Fatalf("AddCoParent() without email service error = %v", err)
	}
}

func TestAddCoParentUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	_, family, _ := setupFamily(t, env)

	_, err := env.families.AddCoParent(context.Background(), family.ID, "nobody@example.com")
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("AddCoParent() error = %v, want ErrParentNotFound", err)
	}
}

func TestRemoveChildCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	keeper, err := env.families.AddChild(ctx, family.ID, "Alex")
	if err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}

	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	task := createTask(t, env, family.ID, parent.ID, 10, []string{child.ID, keeper.ID}, []string{reward.ID})

	if err := env.families.RemoveChild(ctx, family.ID, child.ID); err != nil {
		t.Fatalf("RemoveChild() error = %v", err)
	}

	gotTask, err := env.tasks.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if gotTask.AssignedTo(child.ID) {
		t.Error("removed child still assigned to task")
	}
	if !gotTask.AssignedTo(keeper.ID) {
		t.Error("remaining child lost its task assignment")
	}

	gotReward, err := env.rewards.GetReward(ctx, reward.ID)
	if err != nil {
		t.Fatalf("GetReward() error = %v", err)
	}
	if gotReward.AssignedTo(child.ID) {
		t.Error("removed child still assigned to reward")
	}

	gotFamily, err := env.families.GetFamily(ctx, family.ID)
	if err != nil {
		t.Fatalf("GetFamily() error = %v", err)
	}
	if gotFamily.HasChild(child.ID) {
		t.Error("family still lists the removed child")
	}

	gone, err := env.users.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("users.Get() error = %v", err)
	}
	if gone != nil {
		t.Error("removed child account still exists")
	}
}

func TestRemoveChildLargeFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)

	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	var taskIDs []string
	for i := 0; i < 30; i++ {
		task := createTask(t, env, family.ID, parent.ID, 1, []string{child.ID}, []string{reward.ID})
		taskIDs = append(taskIDs, task.ID)
	}

	if err := env.families.RemoveChild(ctx, family.ID, child.ID); err != nil {
		t.Fatalf("RemoveChild() error = %v", err)
	}

	for i, id := range taskIDs {
		task, err := env.tasks.GetTask(ctx, id)
		if err != nil {
			t.Fatalf("GetTask(%d) error = %v", i, err)
		}
		if task.AssignedTo(child.ID) {
			t.Errorf("task %d still assigned to removed child", i)
		}
	}
	gone, err := env.users.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("users.Get() error = %v", err)
	}
	if gone != nil {
		t.Error("removed child account still exists")
	}
}

func TestRemoveChildWrongFamily(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _, child := setupFamily(t, env)

	other, err := env.families.CreateParent(ctx, "alex@example.com", "Alex")
	if err != nil {
		t.Fatalf("CreateParent() error = %v", err)
	}
	otherFamily, err := env.families.CreateFamily(ctx, "Others", other.ID)
	if err != nil {
		t.Fatalf("CreateFamily() error = %v", err)
	}

	err = env.families.RemoveChild(ctx, otherFamily.ID, child.ID)
	if !errors.Is(err, ErrNotFamilyMember) {
		t.Fatalf("RemoveChild() error = %v, want ErrNotFamilyMember", err)
	}
}

func TestFamilyChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, family, _ := setupFamily(t, env)

	for i := 0; i < 3; i++ {
		if _, err := env.families.AddChild(ctx, family.ID, fmt.Sprintf("Kid %d", i)); err != nil {
			t.Fatalf("AddChild() error = %v", err)
		}
	}
	children, err := env.families.FamilyChildren(ctx, family.ID)
	if err != nil {
		t.Fatalf("FamilyChildren() error = %v", err)
	}
	if len(children) != 4 {
		t.Errorf("FamilyChildren() = %d, want 4", len(children))
	}
	for _, c := range children {
		if c.Role != models.RoleChild {
			t.Errorf("child %s has role %q", c.ID, c.Role)
		}
	}
}
