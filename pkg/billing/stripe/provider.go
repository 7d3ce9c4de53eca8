// Package stripe implements the billing.Provider interface on top of the
// Stripe API: checkout sessions, payment verification, subscription restore
// and cancellation, and the webhook reconciler that mirrors subscription
// lifecycle events into the record store.
package stripe

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

const (
	providerName = "stripe"

	// Stripe webhook payloads are small; anything larger is garbage.
	maxWebhookBodyBytes = 256 * 1024
)

// Config holds Stripe provider configuration.
type Config struct {
	// APIKey is the Stripe secret key (required).
	APIKey string

	// WebhookSecret is the webhook signing secret (required for the
	// webhook handler; events are rejected without it).
	WebhookSecret string

	// MonthlyPriceID / YearlyPriceID map the application's plan vocabulary to
	// Stripe prices. An unmapped plan is forwarded as an empty price and fails
	// provider-side; checkout does not validate plans locally.
	MonthlyPriceID string
	YearlyPriceID  string

	// SuccessURL / CancelURL are the checkout redirect targets.
	SuccessURL string
	CancelURL  string

	// Metrics is optional; nil falls back to NoopMetrics.
	Metrics billing.Metrics
}

// Provider implements billing.Provider for Stripe.
type Provider struct {
	client        *stripe.Client
	records       billing.RecordStore
	webhookSecret []byte
	priceIDs      map[billing.Plan]string
	successURL    string
	cancelURL     string
	logger        zerolog.Logger
	metrics       billing.Metrics
}

// NewProvider creates a new Stripe billing provider.
func NewProvider(records billing.RecordStore, logger zerolog.Logger, config Config) (*Provider, error) {
	if records == nil {
		return nil, billing.ErrProviderNotConfigured
	}

	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, billing.ErrProviderNotConfigured
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &billing.NoopMetrics{}
	}

	return &Provider{
		client:        stripe.NewClient(apiKey),
		records:       records,
		webhookSecret: []byte(strings.TrimSpace(config.WebhookSecret)),
		priceIDs: map[billing.Plan]string{
			billing.PlanMonthly: config.MonthlyPriceID,
			billing.PlanYearly:  config.YearlyPriceID,
		},
		successURL: config.SuccessURL,
		cancelURL:  config.CancelURL,
		logger:     logger.With().Str("provider", providerName).Logger(),
		metrics:    metrics,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// priceIDForPlan maps a plan to its configured Stripe price. Unknown plans
// yield an empty price ID, which Stripe rejects at session creation.
func (p *Provider) priceIDForPlan(plan billing.Plan) string {
	return p.priceIDs[plan]
}
