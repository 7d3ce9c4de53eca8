package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

// WebhookHandler returns the HTTP handler that verifies and applies Stripe
// lifecycle events. Signature verification is the authentication mechanism
// for this endpoint; no field of the payload is trusted before it passes.
func (p *Provider) WebhookHandler() http.Handler {
	return http.HandlerFunc(p.handleWebhook)
}

func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if len(p.webhookSecret) == 0 {
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		p.metrics.RecordWebhookError(providerName, "invalid_payload")
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	event, err := stripe.ConstructEvent(body, sig, string(p.webhookSecret))
	if err != nil {
		p.logger.Warn().Err(err).Msg("webhook signature verification failed")
		p.metrics.RecordWebhookError(providerName, "invalid_signature")
		http.Error(w, billing.ErrInvalidWebhookSignature.Error(), http.StatusBadRequest)
		return
	}

	eventType := string(event.Type)

	// Post-verification processing errors turn into a 500 so Stripe redelivers
	// the event; at-least-once delivery relies on this.
	if err := p.processEvent(r.Context(), &event); err != nil {
		p.logger.Error().Err(err).
			Str("event_id", event.ID).
			Str("event_type", eventType).
			Msg("webhook processing failed")
		p.metrics.RecordWebhookEvent(providerName, eventType, "error")
		p.metrics.RecordWebhookError(providerName, "processing_error")
		p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))
		http.Error(w, "failed to process webhook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))

	p.metrics.RecordWebhookEvent(providerName, eventType, "success")
	p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))
}

// processEvent dispatches a verified event to its handler. Event kinds outside
// the fixed subset are acknowledged and ignored so new provider event types
// never cause redelivery storms.
func (p *Provider) processEvent(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event)
	case "invoice.payment_succeeded":
		return p.handleInvoicePaymentSucceeded(ctx, event)
	case "customer.subscription.updated":
		return p.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_failed":
		return p.handleInvoicePaymentFailed(ctx, event)
	default:
		p.logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("ignoring unhandled event type")
		return nil
	}
}

// handleCheckoutCompleted processes checkout.session.completed events. For a
// real userId it activates the user's record; for the "pending" sentinel the
// paid session is stashed keyed by email until the account materializes and
// claims it via the link-subscription endpoint.
func (p *Provider) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	if session.Subscription == nil || session.Subscription.ID == "" {
		// Not a subscription checkout - ignore
		return nil
	}

	userID := session.Metadata["userId"]
	if userID == "" {
		// A malformed session will never heal; redelivery cannot fix it.
		p.logger.Warn().
			Str("session_id", session.ID).
			Msg("checkout session missing metadata.userId, skipping")
		return nil
	}

	if userID == billing.PendingUserID {
		// New signup: the account does not exist yet, so there is no record
		// to write. Stash the paid session keyed by email from the payload
		// alone; the period end lands once the link flow tags the
		// subscription and lifecycle events start correlating.
		email := checkoutEmail(&session)
		if email == "" {
			p.logger.Warn().
				Str("session_id", session.ID).
				Str("subscription_id", session.Subscription.ID).
				Msg("pending checkout has no email, cannot stash for later linking")
			return nil
		}
		customerID := ""
		if session.Customer != nil {
			customerID = session.Customer.ID
		}
		p.records.StashPendingCheckout(ctx, email, billing.PendingCheckout{
			CustomerID:     customerID,
			SubscriptionID: session.Subscription.ID,
			Plan:           billing.Plan(session.Metadata["plan"]),
			CreatedAt:      time.Now().UTC(),
		})
		p.logger.Info().
			Str("session_id", session.ID).
			Str("subscription_id", session.Subscription.ID).
			Msg("new signup checkout stashed until account is created")
		return nil
	}

	sub, err := p.client.V1Subscriptions.Retrieve(ctx, session.Subscription.ID, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription %s: %w", session.Subscription.ID, err)
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	} else if session.Customer != nil {
		customerID = session.Customer.ID
	}

	p.records.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status:         billing.StatusActive,
		EndDate:        periodEnd(sub.Items),
		Plan:           planFromItems(sub.Items),
		CustomerID:     customerID,
		SubscriptionID: sub.ID,
	})

	p.logger.Info().
		Str("user_id", userID).
		Str("subscription_id", sub.ID).
		Msg("checkout completed, subscription activated")
	return nil
}

// handleInvoicePaymentSucceeded is informational in the current scope: the
// subscription and customer are looked up for the log line but no local
// mutation happens. Renewal period ends land via subscription.updated.
func (p *Provider) handleInvoicePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	subscriptionID := invoiceSubscriptionID(event.Data.Raw)
	if subscriptionID == "" {
		// Not a subscription invoice - ignore
		return nil
	}

	sub, err := p.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription %s: %w", subscriptionID, err)
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	p.logger.Info().
		Str("subscription_id", sub.ID).
		Str("customer_id", customerID).
		Str("user_id", sub.Metadata["userId"]).
		Msg("invoice payment succeeded")
	return nil
}

// handleSubscriptionUpdated maps the provider status onto the local
// vocabulary and recomputes the period end from the event payload.
func (p *Provider) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	userID := sub.Metadata["userId"]
	if userID == "" || userID == billing.PendingUserID {
		p.logger.Warn().
			Str("subscription_id", sub.ID).
			Str("user_id", userID).
			Msg("subscription update without linkable userId, skipping")
		return nil
	}

	status := mapSubscriptionStatus(sub.Status)
	end := periodEnd(sub.Items)
	if status == billing.StatusCancelled {
		// cancelled records never carry an end date
		end = nil
	}

	p.records.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status:  status,
		EndDate: end,
	})

	p.logger.Info().
		Str("user_id", userID).
		Str("subscription_id", sub.ID).
		Str("provider_status", string(sub.Status)).
		Str("status", string(status)).
		Msg("subscription updated")
	return nil
}

// handleSubscriptionDeleted marks the user cancelled with no end date.
func (p *Provider) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	userID := sub.Metadata["userId"]
	if userID == "" {
		p.logger.Warn().
			Str("subscription_id", sub.ID).
			Msg("subscription deletion without metadata.userId, skipping")
		return nil
	}

	p.records.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status:  billing.StatusCancelled,
		EndDate: nil,
	})

	p.logger.Info().
		Str("user_id", userID).
		Str("subscription_id", sub.ID).
		Msg("subscription deleted, record cancelled")
	return nil
}

// handleInvoicePaymentFailed marks the user expired with the recomputed
// period end from the subscription the invoice belongs to.
func (p *Provider) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) error {
	subscriptionID := invoiceSubscriptionID(event.Data.Raw)
	if subscriptionID == "" {
		return nil
	}

	sub, err := p.client.V1Subscriptions.Retrieve(ctx, subscriptionID, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription %s: %w", subscriptionID, err)
	}

	userID := sub.Metadata["userId"]
	if userID == "" {
		p.logger.Warn().
			Str("subscription_id", sub.ID).
			Msg("failed invoice subscription has no metadata.userId, skipping")
		return nil
	}

	p.records.MergeSubscription(ctx, userID, billing.SubscriptionUpdate{
		Status:  billing.StatusExpired,
		EndDate: periodEnd(sub.Items),
	})

	p.logger.Warn().
		Str("user_id", userID).
		Str("subscription_id", sub.ID).
		Msg("invoice payment failed, record expired")
	return nil
}

// invoiceSubscriptionID pulls the subscription reference out of a raw invoice
// payload. Depending on the API version it appears as a top-level string, an
// expanded object, or nested under parent.subscription_details.
func invoiceSubscriptionID(raw json.RawMessage) string {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}

	if id := subscriptionRef(data["subscription"]); id != "" {
		return id
	}

	if parent, ok := data["parent"].(map[string]interface{}); ok {
		if details, ok := parent["subscription_details"].(map[string]interface{}); ok {
			return subscriptionRef(details["subscription"])
		}
	}

	return ""
}

func subscriptionRef(v interface{}) string {
	switch ref := v.(type) {
	case string:
		return ref
	case map[string]interface{}:
		if id, ok := ref["id"].(string); ok {
			return id
		}
	}
	return ""
}

// checkoutEmail returns the best available email for a checkout session.
func checkoutEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return strings.ToLower(session.CustomerDetails.Email)
	}
	if session.CustomerEmail != "" {
		return strings.ToLower(session.CustomerEmail)
	}
	return ""
}
