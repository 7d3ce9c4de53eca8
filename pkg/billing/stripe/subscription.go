package stripe

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

// findCustomerByEmail looks up the Stripe customer with an exact email match.
// Only the first match is considered; one customer per email is a documented
// assumption, not enforced.
func (p *Provider) findCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	startTime := time.Now()

	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Limit = stripe.Int64(1)

	for cust, err := range p.client.V1Customers.List(ctx, params) {
		if err != nil {
			p.metrics.RecordAPICall(providerName, "/customers", "error")
			return nil, fmt.Errorf("%w: failed to list customers: %w", billing.ErrProviderAPIError, err)
		}
		p.metrics.RecordAPICall(providerName, "/customers", "success")
		p.metrics.RecordAPICallDuration(providerName, "/customers", time.Since(startTime))
		return cust, nil
	}

	p.metrics.RecordAPICall(providerName, "/customers", "not_found")
	return nil, billing.ErrCustomerNotFound
}

// findActiveSubscription returns the customer's first active subscription.
// Limit 1 is an arbitrary tie-break; one active subscription per customer is
// a documented assumption.
func (p *Provider) findActiveSubscription(ctx context.Context, customerID string) (*stripe.Subscription, error) {
	startTime := time.Now()

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Limit = stripe.Int64(1)

	for sub, err := range p.client.V1Subscriptions.List(ctx, params) {
		if err != nil {
			p.metrics.RecordAPICall(providerName, "/subscriptions", "error")
			return nil, fmt.Errorf("%w: failed to list subscriptions: %w", billing.ErrProviderAPIError, err)
		}
		p.metrics.RecordAPICall(providerName, "/subscriptions", "success")
		p.metrics.RecordAPICallDuration(providerName, "/subscriptions", time.Since(startTime))
		return sub, nil
	}

	p.metrics.RecordAPICall(providerName, "/subscriptions", "not_found")
	return nil, billing.ErrNoActiveSubscription
}

// HasValidPayment reports whether the email has a currently active,
// non-expired subscription. The period end is re-checked against the clock
// because a provider-side "active" label can be stale.
func (p *Provider) HasValidPayment(ctx context.Context, email string) (bool, error) {
	cust, err := p.findCustomerByEmail(ctx, email)
	if err == billing.ErrCustomerNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	sub, err := p.findActiveSubscription(ctx, cust.ID)
	if err == billing.ErrNoActiveSubscription {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if end := periodEnd(sub.Items); end != nil && end.Before(time.Now()) {
		p.logger.Warn().
			Str("customer_id", cust.ID).
			Str("subscription_id", sub.ID).
			Time("period_end", *end).
			Msg("subscription reported active but period already elapsed")
		return false, nil
	}

	return true, nil
}

// RestoreSubscription rebuilds a subscription summary from provider state for
// a user re-authenticating without local state. The lookup is by email only
// so a subscription can be restored before a local account exists. Returns
// nil when there is nothing to restore.
func (p *Provider) RestoreSubscription(ctx context.Context, email string) (*billing.SubscriptionSummary, error) {
	cust, err := p.findCustomerByEmail(ctx, email)
	if err == billing.ErrCustomerNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sub, err := p.findActiveSubscription(ctx, cust.ID)
	if err == billing.ErrNoActiveSubscription {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &billing.SubscriptionSummary{
		Plan:           planFromItems(sub.Items),
		Status:         billing.StatusActive,
		CustomerID:     cust.ID,
		SubscriptionID: sub.ID,
		EndDate:        periodEnd(sub.Items),
	}, nil
}

// CancelSubscription requests immediate cancellation from Stripe, then
// mirrors the cancelled state into the record store so the UI reflects it
// before the authoritative webhook arrives. On provider failure no local
// write happens.
func (p *Provider) CancelSubscription(ctx context.Context, userID, subscriptionID string) (*billing.CancelResult, error) {
	startTime := time.Now()

	sub, err := p.client.V1Subscriptions.Cancel(ctx, subscriptionID, nil)
	if err != nil {
		p.metrics.RecordAPICall(providerName, "/subscriptions/cancel", "error")
		p.metrics.RecordAPICallDuration(providerName, "/subscriptions/cancel", time.Since(startTime))
		return nil, fmt.Errorf("%w: failed to cancel subscription: %w", billing.ErrProviderAPIError, err)
	}

	p.metrics.RecordAPICall(providerName, "/subscriptions/cancel", "success")
	p.metrics.RecordAPICallDuration(providerName, "/subscriptions/cancel", time.Since(startTime))

	// Optimistic local write; the subscription.deleted webhook reapplies the
	// same transition.
	p.records.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status:         billing.StatusCancelled,
		EndDate:        nil,
		SubscriptionID: sub.ID,
	})

	p.logger.Info().
		Str("user_id", userID).
		Str("subscription_id", sub.ID).
		Msg("subscription cancelled")

	return &billing.CancelResult{
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}, nil
}

// TagSubscription patches the Stripe subscription metadata with the real
// userId so later lifecycle events correlate to the local record.
func (p *Provider) TagSubscription(ctx context.Context, subscriptionID, userID string) error {
	params := &stripe.SubscriptionUpdateParams{}
	params.AddMetadata("userId", userID)

	if _, err := p.client.V1Subscriptions.Update(ctx, subscriptionID, params); err != nil {
		p.metrics.RecordAPICall(providerName, "/subscriptions/update", "error")
		return fmt.Errorf("%w: failed to tag subscription metadata: %w", billing.ErrProviderAPIError, err)
	}

	p.metrics.RecordAPICall(providerName, "/subscriptions/update", "success")
	return nil
}
