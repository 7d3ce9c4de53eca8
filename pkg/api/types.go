package api

import "github.com/AregawiF/Chicken-Chores/pkg/billing"

// CheckoutSessionRequest is the body of POST /api/create-checkout-session.
type CheckoutSessionRequest struct {
	Plan        billing.Plan `json:"plan"`
	UserID      string       `json:"userId"`
	Email       string       `json:"email"`
	FamilyName  string       `json:"familyName"`
	IsNewSignup bool         `json:"isNewSignup"`
}

// CheckoutSessionResponse carries the opaque provider session ID.
type CheckoutSessionResponse struct {
	ID string `json:"id"`
}

// VerifyPaymentRequest is the body of POST /api/verify-payment.
type VerifyPaymentRequest struct {
	Email string `json:"email"`
}

// VerifyPaymentResponse reports whether the email has a valid payment.
type VerifyPaymentResponse struct {
	HasValidPayment bool `json:"hasValidPayment"`
}

// RestoreSubscriptionRequest is the body of POST /api/restore-subscription.
// UserID is accepted but unused; the lookup is by email only.
type RestoreSubscriptionRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// RestoreSubscriptionResponse carries the restored summary, or null.
type RestoreSubscriptionResponse struct {
	Subscription *billing.SubscriptionSummary `json:"subscription"`
}

// CancelSubscriptionRequest is the body of POST /api/cancel-subscription.
type CancelSubscriptionRequest struct {
	UserID         string `json:"userId"`
	SubscriptionID string `json:"subscriptionId"`
}

// CancelSubscriptionResponse mirrors the provider's cancellation result.
type CancelSubscriptionResponse struct {
	Success  bool                  `json:"success"`
	Canceled *billing.CancelResult `json:"canceled"`
}

// SubscriptionStatusRequest is the body of POST /api/subscription-status.
type SubscriptionStatusRequest struct {
	UserID string `json:"userId"`
}

// SubscriptionStatusResponse carries the stored subscription state, or null.
type SubscriptionStatusResponse struct {
	Subscription *billing.SubscriptionData `json:"subscription"`
}

// LinkSubscriptionRequest is the body of POST /api/link-subscription, called
// by the signup flow to claim a checkout paid before the account existed.
type LinkSubscriptionRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// LinkSubscriptionResponse reports whether a pending checkout was claimed.
type LinkSubscriptionResponse struct {
	Linked bool `json:"linked"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
