package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

func TestSubscriptionDeltaAlwaysWritesStatusAndEndDate(t *testing.T) {
	delta := subscriptionDelta(billing.SubscriptionUpdate{
		Status: billing.StatusCancelled,
	})

	assert.Equal(t, "cancelled", delta["status"])

	end, present := delta["subscriptionEndDate"]
	require.True(t, present, "end date key must always be written")
	assert.Nil(t, end, "cancelled record carries an explicit null end date")

	assert.NotContains(t, delta, "plan")
	assert.NotContains(t, delta, "customerId")
	assert.NotContains(t, delta, "subscriptionId")
}

func TestSubscriptionDeltaFormatsEndDate(t *testing.T) {
	end := time.Date(2026, 3, 15, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	delta := subscriptionDelta(billing.SubscriptionUpdate{
		Status:  billing.StatusActive,
		EndDate: &end,
	})

	assert.Equal(t, "2026-03-15T11:30:00Z", delta["subscriptionEndDate"])
}

func TestSubscriptionDeltaOptionalFields(t *testing.T) {
	delta := subscriptionDelta(billing.SubscriptionUpdate{
		Status:         billing.StatusActive,
		Plan:           billing.PlanYearly,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})

	assert.Equal(t, "yearly", delta["plan"])
	assert.Equal(t, "cus_1", delta["customerId"])
	assert.Equal(t, "sub_1", delta["subscriptionId"])
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, zerolog.Nop(), Config{})
	assert.Error(t, err)
}

// emulatorStore returns a store backed by the Firestore emulator, skipping
// the test when FIRESTORE_EMULATOR_HOST is not set.
func emulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping emulator test")
	}

	client, err := firestore.NewClient(context.Background(), "chicken-chores-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, zerolog.Nop(), Config{
		UsersCollection:            "families_test",
		PendingCheckoutsCollection: "pendingCheckouts_test",
	})
	require.NoError(t, err)
	return store
}

func TestMergeAndGetSubscription(t *testing.T) {
	store := emulatorStore(t)
	ctx := context.Background()
	userID := "family_merge_test"

	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status:         billing.StatusActive,
		EndDate:        &end,
		Plan:           billing.PlanMonthly,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
	})

	sd, err := store.GetSubscription(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, billing.StatusActive, sd.Status)
	assert.Equal(t, billing.PlanMonthly, sd.Plan)
	require.NotNil(t, sd.EndDate)
	assert.True(t, sd.EndDate.Equal(end))

	// A cancellation clears the end date but keeps the identifiers merged in
	// earlier.
	store.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status: billing.StatusCancelled,
	})

	sd, err = store.GetSubscription(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, billing.StatusCancelled, sd.Status)
	assert.Nil(t, sd.EndDate)
	assert.Equal(t, "sub_1", sd.SubscriptionID)
}

func TestGetSubscriptionMissingUser(t *testing.T) {
	store := emulatorStore(t)

	sd, err := store.GetSubscription(context.Background(), "no_such_family")
	require.NoError(t, err)
	assert.Nil(t, sd)
}

func TestClaimPendingCheckout(t *testing.T) {
	store := emulatorStore(t)
	ctx := context.Background()

	store.StashPendingCheckout(ctx, "Claimer@Example.com", billing.PendingCheckout{
		CustomerID:     "cus_pending",
		SubscriptionID: "sub_pending",
		Plan:           billing.PlanYearly,
		CreatedAt:      time.Now().UTC(),
	})

	claimed, err := store.ClaimPendingCheckout(ctx, "claimer@example.com", "family_claim_test")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "sub_pending", claimed.SubscriptionID)

	sd, err := store.GetSubscription(ctx, "family_claim_test")
	require.NoError(t, err)
	require.NotNil(t, sd)
	assert.Equal(t, billing.StatusActive, sd.Status)
	assert.Equal(t, billing.PlanYearly, sd.Plan)

	// The stash is consumed; a second claim finds nothing.
	claimed, err = store.ClaimPendingCheckout(ctx, "claimer@example.com", "family_claim_test")
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestClaimPendingCheckoutRequiresKeys(t *testing.T) {
	store := emulatorStore(t)

	_, err := store.ClaimPendingCheckout(context.Background(), "", "family_1")
	assert.Error(t, err)

	_, err = store.ClaimPendingCheckout(context.Background(), "a@example.com", "")
	assert.Error(t, err)
}
