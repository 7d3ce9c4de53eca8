package stripe

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

// CreateCheckoutSession opens a subscription-mode checkout session and returns
// its ID. The userId, plan, familyName and isNewSignup are embedded as session
// and subscription metadata so the webhook reconciler can correlate the paid
// session back to a local user; this call makes no local write.
func (p *Provider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	startTime := time.Now()

	// Unmapped plans produce an empty price ID and fail at Stripe. This is a
	// pass-through failure, not validated locally.
	priceID := p.priceIDForPlan(req.Plan)

	metadata := map[string]string{
		"userId":      req.UserID,
		"plan":        string(req.Plan),
		"isNewSignup": strconv.FormatBool(req.IsNewSignup),
	}
	if req.FamilyName != "" {
		metadata["familyName"] = req.FamilyName
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
		Metadata:   metadata,
	}

	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	// Subscription lifecycle events carry subscription metadata, not session
	// metadata, so the correlation keys go on both.
	params.SubscriptionData = &stripe.CheckoutSessionCreateSubscriptionDataParams{}
	for k, v := range metadata {
		params.SubscriptionData.AddMetadata(k, v)
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		p.metrics.RecordAPICall(providerName, "/checkout/sessions", "error")
		p.metrics.RecordAPICallDuration(providerName, "/checkout/sessions", time.Since(startTime))
		return "", fmt.Errorf("%w: failed to create checkout session: %w", billing.ErrProviderAPIError, err)
	}

	p.metrics.RecordAPICall(providerName, "/checkout/sessions", "success")
	p.metrics.RecordAPICallDuration(providerName, "/checkout/sessions", time.Since(startTime))

	p.logger.Info().
		Str("session_id", session.ID).
		Str("user_id", req.UserID).
		Str("plan", string(req.Plan)).
		Bool("new_signup", req.IsNewSignup).
		Msg("checkout session created")

	return session.ID, nil
}
