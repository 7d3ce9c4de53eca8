// Package billing defines the subscription vocabulary shared by the payment
// provider, the record store, and the HTTP layer.
package billing

import "time"

// Status is the application-side subscription status.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Plan is the application-side billing plan vocabulary.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// PendingUserID is the sentinel userId carried by checkout sessions created
// before the account exists. The reconciler never writes a user record for it.
const PendingUserID = "pending"

// SubscriptionData is the per-user subscription state persisted under the
// "subscriptionData" field of the user document. The end date is stored as an
// ISO-8601 string or null.
type SubscriptionData struct {
	Status         Status     `json:"status"`
	Plan           Plan       `json:"plan,omitempty"`
	CustomerID     string     `json:"customerId,omitempty"`
	SubscriptionID string     `json:"subscriptionId,omitempty"`
	EndDate        *time.Time `json:"subscriptionEndDate"`
}

// SubscriptionUpdate is a merge delta applied to a user's SubscriptionData.
// Status and EndDate are written on every transition (EndDate nil writes an
// explicit null, keeping the cancelled ⇒ no end date invariant). The optional
// fields are only written when non-empty.
type SubscriptionUpdate struct {
	Status         Status
	EndDate        *time.Time
	Plan           Plan
	CustomerID     string
	SubscriptionID string
}

// SubscriptionSummary is the user-facing view returned by restore-subscription.
type SubscriptionSummary struct {
	Plan           Plan       `json:"plan"`
	Status         Status     `json:"status"`
	CustomerID     string     `json:"customerId"`
	SubscriptionID string     `json:"subscriptionId"`
	EndDate        *time.Time `json:"subscriptionEndDate"`
}

// CheckoutRequest carries everything needed to open a checkout session.
// UserID may be PendingUserID for pre-signup checkouts; Plan is forwarded to
// the provider unvalidated (an unmapped plan fails provider-side).
type CheckoutRequest struct {
	Plan        Plan
	UserID      string
	Email       string
	FamilyName  string
	IsNewSignup bool
}

// CancelResult mirrors the provider's response to an immediate cancellation.
type CancelResult struct {
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
}

// PendingCheckout is a paid checkout that could not be linked to a user yet.
// It is stashed by the reconciler keyed by the checkout email and claimed by
// the signup flow once the account materializes. It carries no period end:
// the checkout payload has none, and the subscription.updated event that
// follows the post-link metadata tag supplies it.
type PendingCheckout struct {
	CustomerID     string    `json:"customerId" firestore:"customerId"`
	SubscriptionID string    `json:"subscriptionId" firestore:"subscriptionId"`
	Plan           Plan      `json:"plan" firestore:"plan"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
}
