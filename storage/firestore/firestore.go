// Package firestore provides the Firestore implementation of the
// billing.RecordStore interface: one document per user, with the
// subscription state merge-updated under the "subscriptionData" field.
package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

// Store implements billing.RecordStore using Google Cloud Firestore.
type Store struct {
	client            *firestore.Client
	usersCollection   string
	pendingCollection string
	logger            zerolog.Logger
	metrics           billing.Metrics
}

// Config holds Firestore record store configuration.
type Config struct {
	// UsersCollection is the collection holding per-user documents.
	// Default: "families"
	UsersCollection string

	// PendingCheckoutsCollection holds paid checkouts awaiting account
	// creation, keyed by lowercased email.
	// Default: "pendingCheckouts"
	PendingCheckoutsCollection string

	// Metrics is optional; nil falls back to NoopMetrics.
	Metrics billing.Metrics
}

// New creates a new Firestore record store.
func New(client *firestore.Client, logger zerolog.Logger, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}

	if config.UsersCollection == "" {
		config.UsersCollection = "families"
	}
	if config.PendingCheckoutsCollection == "" {
		config.PendingCheckoutsCollection = "pendingCheckouts"
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &billing.NoopMetrics{}
	}

	return &Store{
		client:            client,
		usersCollection:   config.UsersCollection,
		pendingCollection: config.PendingCheckoutsCollection,
		logger:            logger.With().Str("component", "record_store").Logger(),
		metrics:           metrics,
	}, nil
}

// MergeSubscription implements billing.RecordStore. It is fire-and-forget:
// a missing userID is a logged no-op and write failures are logged, never
// propagated, so a webhook acknowledgment is never failed over a local write.
func (s *Store) MergeSubscription(ctx context.Context, userID string, upd billing.SubscriptionUpdate) {
	if userID == "" {
		s.logger.Warn().
			Str("status", string(upd.Status)).
			Msg("subscription merge requested without userId, skipping")
		s.metrics.RecordStoreWrite("skipped")
		return
	}

	doc := s.client.Collection(s.usersCollection).Doc(userID)
	data := map[string]interface{}{
		"subscriptionData": subscriptionDelta(upd),
	}

	if _, err := doc.Set(ctx, data, firestore.MergeAll); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID).
			Str("status", string(upd.Status)).
			Msg("failed to merge subscription record")
		s.metrics.RecordStoreWrite("error")
		return
	}

	s.metrics.RecordStoreWrite("success")
}

// GetSubscription returns the stored subscription state for a user, or nil
// when the user document does not exist or carries no subscriptionData.
func (s *Store) GetSubscription(ctx context.Context, userID string) (*billing.SubscriptionData, error) {
	snap, err := s.client.Collection(s.usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user record: %w", err)
	}

	raw, ok := snap.Data()["subscriptionData"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	sd := &billing.SubscriptionData{
		Status:         billing.Status(getString(raw, "status")),
		Plan:           billing.Plan(getString(raw, "plan")),
		CustomerID:     getString(raw, "customerId"),
		SubscriptionID: getString(raw, "subscriptionId"),
	}
	if v := getString(raw, "subscriptionEndDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			sd.EndDate = &t
		}
	}

	return sd, nil
}

// StashPendingCheckout implements billing.RecordStore. Fire-and-forget like
// MergeSubscription; a replayed checkout event overwrites the same document.
func (s *Store) StashPendingCheckout(ctx context.Context, email string, pc billing.PendingCheckout) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		s.logger.Warn().
			Str("subscription_id", pc.SubscriptionID).
			Msg("pending checkout stash requested without email, skipping")
		s.metrics.RecordStoreWrite("skipped")
		return
	}

	doc := s.client.Collection(s.pendingCollection).Doc(key)
	if _, err := doc.Set(ctx, pc); err != nil {
		s.logger.Error().Err(err).
			Str("email", key).
			Str("subscription_id", pc.SubscriptionID).
			Msg("failed to stash pending checkout")
		s.metrics.RecordStoreWrite("error")
		return
	}

	s.metrics.RecordStoreWrite("success")
}

// ClaimPendingCheckout moves a stashed checkout onto the user's record and
// removes the stash, atomically. Returns nil when nothing is stashed for
// the email.
func (s *Store) ClaimPendingCheckout(ctx context.Context, email, userID string) (*billing.PendingCheckout, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" || userID == "" {
		return nil, fmt.Errorf("email and userId are required")
	}

	pendingDoc := s.client.Collection(s.pendingCollection).Doc(key)
	userDoc := s.client.Collection(s.usersCollection).Doc(userID)

	var claimed *billing.PendingCheckout
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		claimed = nil

		snap, err := tx.Get(pendingDoc)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}

		var pc billing.PendingCheckout
		if err := snap.DataTo(&pc); err != nil {
			return fmt.Errorf("failed to decode pending checkout: %w", err)
		}

		err = tx.Set(userDoc, map[string]interface{}{
			"subscriptionData": subscriptionDelta(billing.SubscriptionUpdate{
				Status:         billing.StatusActive,
				Plan:           pc.Plan,
				CustomerID:     pc.CustomerID,
				SubscriptionID: pc.SubscriptionID,
			}),
		}, firestore.MergeAll)
		if err != nil {
			return err
		}

		if err := tx.Delete(pendingDoc); err != nil {
			return err
		}

		claimed = &pc
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending checkout: %w", err)
	}

	if claimed != nil {
		s.logger.Info().
			Str("user_id", userID).
			Str("email", key).
			Str("subscription_id", claimed.SubscriptionID).
			Msg("pending checkout linked to user record")
	}
	return claimed, nil
}

// Close releases the underlying Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

// subscriptionDelta converts an update into the merge payload. Status and
// subscriptionEndDate are always written (a nil end date writes an explicit
// null, which keeps cancelled records without an end date); the remaining
// fields only when set.
func subscriptionDelta(upd billing.SubscriptionUpdate) map[string]interface{} {
	var end interface{}
	if upd.EndDate != nil {
		end = upd.EndDate.UTC().Format(time.RFC3339)
	}

	delta := map[string]interface{}{
		"status":              string(upd.Status),
		"subscriptionEndDate": end,
	}
	if upd.Plan != "" {
		delta["plan"] = string(upd.Plan)
	}
	if upd.CustomerID != "" {
		delta["customerId"] = upd.CustomerID
	}
	if upd.SubscriptionID != "" {
		delta["subscriptionId"] = upd.SubscriptionID
	}
	return delta
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
