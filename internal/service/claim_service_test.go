package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chorepoints/internal/models"
)

// grantPoints awards a child points through the task lifecycle
func grantPoints(t *testing.T, env *testEnv, familyID, parentID, childID string, points int, rewardID string) {
	t.Helper()
	ctx := context.Background()
	task := createTask(t, env, familyID, parentID, points, []string{childID}, []string{rewardID})
	if _, err := env.tasks.SubmitTask(ctx, task.ID, ""); err != nil {
		t.Fatalf("SubmitTask() error = %v", err)
	}
	if _, err := env.tasks.ApproveTask(ctx, task.ID); err != nil {
		t.Fatalf("ApproveTask() error = %v", err)
	}
}

func TestClaimRewardDebitsAtomically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}
	if claim.Status != models.ClaimPending {
		t.Errorf("Status = %q, want %q", claim.Status, models.ClaimPending)
	}
	if claim.RewardCost != 50 {
		t.Errorf("RewardCost = %d, want 50", claim.RewardCost)
	}
	if claim.RewardTitle != "Cinema" {
		t.Errorf("RewardTitle = %q, want %q", claim.RewardTitle, "Cinema")
	}
	if claim.ChildName != child.DisplayName {
		t.Errorf("ChildName = %q, want %q", claim.ChildName, child.DisplayName)
	}
	if got := childPoints(t, env, child.ID); got != 10 {
		t.Errorf("child points = %d, want 10", got)
	}
}

func TestClaimRewardInsufficientPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 30, reward.ID)

	_, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("ClaimReward() error = %v, want ErrInsufficientPoints", err)
	}

	// The failed claim left no record and moved no points
	if got := childPoints(t, env, child.ID); got != 30 {
		t.Errorf("child points = %d, want 30", got)
	}
	claims, err := env.claims.ChildClaims(ctx, child.ID)
	if err != nil {
		t.Fatalf("ChildClaims() error = %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("claims = %d, want 0", len(claims))
	}
}

func TestClaimRewardNotAssigned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)

	_, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if !errors.Is(err, ErrRewardNotAssigned) {
		t.Fatalf("ClaimReward() error = %v, want ErrRewardNotAssigned", err)
	}
}

func TestClaimCostFrozenAgainstRewardEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}

	// Raising the price after the claim changes nothing about it
	if _, err := env.rewards.UpdateReward(ctx, reward.ID, UpdateRewardInput{
		Title:          "Cinema (deluxe)",
		RequiredPoints: 500,
	}); err != nil {
		t.Fatalf("UpdateReward() error = %v", err)
	}

	got, err := env.claims.GetClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if got.RewardCost != 50 {
		t.Errorf("RewardCost = %d, want frozen 50", got.RewardCost)
	}
	if got.RewardTitle != "Cinema" {
		t.Errorf("RewardTitle = %q, want frozen %q", got.RewardTitle, "Cinema")
	}
}

func TestClaimSpendCannotGoNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	rewardA := createReward(t, env, family.ID, parent.ID, "Cinema", 40)
	rewardB := createReward(t, env, family.ID, parent.ID, "Ice cream", 40)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, rewardA.ID)

	// Assign the second reward too
	if _, err := env.rewards.AssignReward(ctx, rewardB.ID, child.ID); err != nil {
		t.Fatalf("AssignReward() error = %v", err)
	}

	if _, err := env.claims.ClaimReward(ctx, child.ID, rewardA.ID); err != nil {
		t.Fatalf("first ClaimReward() error = %v", err)
	}
	_, err := env.claims.ClaimReward(ctx, child.ID, rewardB.ID)
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("second ClaimReward() error = %v, want ErrInsufficientPoints", err)
	}
	if got := childPoints(t, env, child.ID); got != 20 {
		t.Errorf("child points = %d, want 20", got)
	}
}

func TestRemindClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}

	reminded, err := env.claims.RemindClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("RemindClaim() error = %v", err)
	}
	if reminded.Status != models.ClaimReminded {
		t.Errorf("Status = %q, want %q", reminded.Status, models.ClaimReminded)
	}
	if reminded.LastRemindedAt == nil {
		t.Error("LastRemindedAt not set")
	}

	// Reminding again is allowed and stays reminded
	again, err := env.claims.RemindClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("second RemindClaim() error = %v", err)
	}
	if again.Status != models.ClaimReminded {
		t.Errorf("Status = %q, want %q", again.Status, models.ClaimReminded)
	}
}

func TestRemindDoesNotRegressPromisedClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}

	promisedFor := time.Now().UTC().Add(72 * time.Hour)
	if _, err := env.claims.PromiseClaim(ctx, claim.ID, promisedFor); err != nil {
		t.Fatalf("PromiseClaim() error = %v", err)
	}

	reminded, err := env.claims.RemindClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("RemindClaim() error = %v", err)
	}
	if reminded.Status != models.ClaimPromised {
		t.Errorf("Status = %q, want %q (remind must not regress a promise)", reminded.Status, models.ClaimPromised)
	}
	if reminded.PromisedFor == nil || !reminded.PromisedFor.Equal(promisedFor) {
		t.Errorf("PromisedFor = %v, want %v", reminded.PromisedFor, promisedFor)
	}
	if reminded.LastRemindedAt == nil {
		t.Error("LastRemindedAt not set")
	}
}

func TestPromiseClaimValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}

	_, err = env.claims.PromiseClaim(ctx, claim.ID, time.Now().UTC().Add(-48*time.Hour))
	if !errors.Is(err, ErrPromiseInPast) {
		t.Fatalf("PromiseClaim() past date error = %v, want ErrPromiseInPast", err)
	}

	promised, err := env.claims.PromiseClaim(ctx, claim.ID, time.Now().UTC().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("PromiseClaim() error = %v", err)
	}
	if promised.Status != models.ClaimPromised {
		t.Errorf("Status = %q, want %q", promised.Status, models.ClaimPromised)
	}

	// A promised claim cannot be promised again
	_, err = env.claims.PromiseClaim(ctx, claim.ID, time.Now().UTC().Add(96*time.Hour))
	var terr *models.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("second PromiseClaim() error = %v, want TransitionError", err)
	}
}

func TestGrantClaimIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}

	granted, err := env.claims.GrantClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GrantClaim() error = %v", err)
	}
	if granted.Status != models.ClaimGranted {
		t.Errorf("Status = %q, want %q", granted.Status, models.ClaimGranted)
	}
	if granted.GrantedAt == nil {
		t.Error("GrantedAt not set")
	}
	// Granting moves no points; the debit happened at claim time
	if got := childPoints(t, env, child.ID); got != 10 {
		t.Errorf("child points = %d, want 10", got)
	}

	var terr *models.TransitionError
	if _, err := env.claims.GrantClaim(ctx, claim.ID); !errors.As(err, &terr) {
		t.Errorf("second GrantClaim() error = %v, want TransitionError", err)
	}
	if _, err := env.claims.RemindClaim(ctx, claim.ID); !errors.As(err, &terr) {
		t.Errorf("RemindClaim() on granted error = %v, want TransitionError", err)
	}
	if _, err := env.claims.PromiseClaim(ctx, claim.ID, time.Now().UTC().Add(24*time.Hour)); !errors.As(err, &terr) {
		t.Errorf("PromiseClaim() on granted error = %v, want TransitionError", err)
	}
}

func TestDeleteClaimDoesNotRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	reward := createReward(t, env, family.ID, parent.ID, "Cinema", 50)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 60, reward.ID)

	claim, err := env.claims.ClaimReward(ctx, child.ID, reward.ID)
	if err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}
	if err := env.claims.DeleteClaim(ctx, claim.ID); err != nil {
		t.Fatalf("DeleteClaim() error = %v", err)
	}
	if got := childPoints(t, env, child.ID); got != 10 {
		t.Errorf("child points = %d, want 10 (no refund)", got)
	}
	if _, err := env.claims.GetClaim(ctx, claim.ID); !errors.Is(err, ErrClaimNotFound) {
		t.Errorf("GetClaim() after delete error = %v, want ErrClaimNotFound", err)
	}
}

func TestUnclaimedRewards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	parent, family, child := setupFamily(t, env)
	rewardA := createReward(t, env, family.ID, parent.ID, "Cinema", 40)
	rewardB := createReward(t, env, family.ID, parent.ID, "Ice cream", 10)
	grantPoints(t, env, family.ID, parent.ID, child.ID, 100, rewardA.ID)

	if _, err := env.rewards.AssignReward(ctx, rewardB.ID, child.ID); err != nil {
		t.Fatalf("AssignReward() error = %v", err)
	}

	unclaimed, err := env.claims.UnclaimedRewards(ctx, child.ID)
	if err != nil {
		t.Fatalf("UnclaimedRewards() error = %v", err)
	}
	if len(unclaimed) != 2 {
		t.Fatalf("unclaimed = %d, want 2", len(unclaimed))
	}

	if _, err := env.claims.ClaimReward(ctx, child.ID, rewardA.ID); err != nil {
		t.Fatalf("ClaimReward() error = %v", err)
	}

	unclaimed, err = env.claims.UnclaimedRewards(ctx, child.ID)
	if err != nil {
		t.Fatalf("UnclaimedRewards() error = %v", err)
	}
	if len(unclaimed) != 1 {
		t.Fatalf("unclaimed = %d, want 1", len(unclaimed))
	}
	if unclaimed[0].ID != rewardB.ID {
		t.Errorf("unclaimed[0].ID = %s, want %s", unclaimed[0].ID, rewardB.ID)
	}
}
