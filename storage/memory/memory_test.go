package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

func TestMergeSubscriptionSemantics(t *testing.T) {
	store := New()
	ctx := context.Background()

	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store.MergeSubscription(ctx, "family_1", billing.SubscriptionUpdate{
		Status:         billing.StatusActive,
		EndDate:        &end,
		Plan:           billing.PlanMonthly,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})

	sd, err := store.GetSubscription(ctx, "family_1")
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, billing.StatusActive, sd.Status)
	require.NotNil(t, sd.EndDate)
	assert.True(t, sd.EndDate.Equal(end))

	// A status-only update overwrites status and end date but keeps the
	// identifiers from the earlier merge.
	store.MergeSubscription(ctx, "family_1", billing.SubscriptionUpdate{
		Status: billing.StatusCancelled,
	})

	sd, err = store.GetSubscription(ctx, "family_1")
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, billing.StatusCancelled, sd.Status)
	assert.Nil(t, sd.EndDate)
	assert.Equal(t, "sub_1", sd.SubscriptionID)
	assert.Equal(t, billing.PlanMonthly, sd.Plan)
}

func TestMergeSubscriptionEmptyUserIDSkipped(t *testing.T) {
	store := New()
	store.MergeSubscription(context.Background(), "", billing.SubscriptionUpdate{
		Status: billing.StatusActive,
	})

	sd, err := store.GetSubscription(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, sd)
}

func TestGetSubscriptionReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store.MergeSubscription(ctx, "family_1", billing.SubscriptionUpdate{
		Status:  billing.StatusActive,
		EndDate: &end,
	})

	first, err := store.GetSubscription(ctx, "family_1")
	require.NoError(t, err)
	first.Status = billing.StatusExpired
	*first.EndDate = first.EndDate.Add(time.Hour)

	second, err := store.GetSubscription(ctx, "family_1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusActive, second.Status)
	assert.True(t, second.EndDate.Equal(end))
}

func TestClaimPendingCheckout(t *testing.T) {
	store := New()
	ctx := context.Background()

	store.StashPendingCheckout(ctx, " New@Example.com ", billing.PendingCheckout{
		CustomerID:     "cus_pending",
		SubscriptionID: "sub_pending",
		Plan:           billing.PlanYearly,
	})

	claimed, err := store.ClaimPendingCheckout(ctx, "new@example.com", "family_1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "sub_pending", claimed.SubscriptionID)

	sd, err := store.GetSubscription(ctx, "family_1")
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, billing.StatusActive, sd.Status)
	assert.Equal(t, billing.PlanYearly, sd.Plan)
	assert.Equal(t, "cus_pending", sd.CustomerID)

	claimed, err = store.ClaimPendingCheckout(ctx, "new@example.com", "family_1")
	require.NoError(t, err)
	assert.Nil(t, claimed, "stash is consumed on first claim")
}

func TestClaimPendingCheckoutRequiresKeys(t *testing.T) {
	store := New()

	_, err := store.ClaimPendingCheckout(context.Background(), "", "family_1")
	assert.Error(t, err)

	_, err = store.ClaimPendingCheckout(context.Background(), "a@example.com", "")
	assert.Error(t, err)
}
