package billing

import (
	"context"
	"net/http"
)

// Provider is the interface the HTTP layer programs against. It exists so
// handlers can be exercised with test doubles instead of a live Stripe client.
type Provider interface {
	// Name returns the provider name (e.g. "stripe")
	Name() string

	// CreateCheckoutSession opens a subscription-mode checkout session and
	// returns the opaque session ID. The request's userId/plan/isNewSignup are
	// embedded as provider metadata so the webhook can correlate the session
	// back to a local user; the call itself makes no local write.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)

	// HasValidPayment reports whether the email has a currently active,
	// non-expired subscription. Read-only.
	HasValidPayment(ctx context.Context, email string) (bool, error)

	// RestoreSubscription rebuilds a subscription summary from provider state
	// for a re-authenticating user. Returns nil when there is nothing to
	// restore. Read-only.
	RestoreSubscription(ctx context.Context, email string) (*SubscriptionSummary, error)

	// CancelSubscription requests immediate cancellation and optimistically
	// mirrors the cancelled state into the record store ahead of the webhook.
	CancelSubscription(ctx context.Context, userID, subscriptionID string) (*CancelResult, error)

	// TagSubscription patches the provider-side subscription metadata with
	// the real userId, so later lifecycle events correlate to the local
	// record. Used when a pending checkout is claimed after signup.
	TagSubscription(ctx context.Context, subscriptionID, userID string) error

	// WebhookHandler returns the HTTP handler that verifies and applies the
	// provider's lifecycle events. This is the only steady-state mutation path.
	WebhookHandler() http.Handler
}

// RecordStore is the document store holding per-user subscription state.
//
// MergeSubscription is deliberately fire-and-forget: a falsy userID is a
// logged no-op and write failures are logged, never returned, so the webhook
// path never fails an acknowledgment because of a local write. Provider state
// remains the source of truth and can be replayed later.
type RecordStore interface {
	MergeSubscription(ctx context.Context, userID string, upd SubscriptionUpdate)

	// GetSubscription returns the stored subscription state for a user, or
	// nil when the user has none.
	GetSubscription(ctx context.Context, userID string) (*SubscriptionData, error)

	// StashPendingCheckout records a paid checkout that has no local account
	// yet, keyed by the checkout email. Fire-and-forget like MergeSubscription.
	StashPendingCheckout(ctx context.Context, email string, pc PendingCheckout)

	// ClaimPendingCheckout moves a stashed checkout onto the given user's
	// record and returns it. Returns nil when there is nothing to claim.
	ClaimPendingCheckout(ctx context.Context, email, userID string) (*PendingCheckout, error)
}
