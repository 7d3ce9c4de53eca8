// Package config loads the server configuration from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration.
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	StaticDir string `env:"STATIC_DIR" envDefault:"./static"`

	Stripe   StripeConfig
	Firebase FirebaseConfig
}

// StripeConfig holds the payment provider credentials and price mapping.
type StripeConfig struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required"`
	MonthlyPriceID string `env:"STRIPE_MONTHLY_PRICE_ID"`
	YearlyPriceID  string `env:"STRIPE_YEARLY_PRICE_ID"`
	SuccessURL     string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://chicken-chores.app/payment-success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL      string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://chicken-chores.app/payment-cancelled"`
}

// FirebaseConfig holds the document-store service-account fields. When
// ClientEmail and PrivateKey are empty the Firestore client falls back to
// application default credentials. An empty ProjectID selects the in-memory
// record store, for local development only.
type FirebaseConfig struct {
	ProjectID   string `env:"FIREBASE_PROJECT_ID"`
	ClientEmail string `env:"FIREBASE_CLIENT_EMAIL"`
	PrivateKey  string `env:"FIREBASE_PRIVATE_KEY"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// ServiceAccountJSON assembles a service-account credential document from the
// individual env fields. Returns false when the fields are not set. Private
// keys pasted into env vars carry literal \n sequences; they are unescaped
// here.
func (c FirebaseConfig) ServiceAccountJSON() ([]byte, bool) {
	if c.ClientEmail == "" || c.PrivateKey == "" {
		return nil, false
	}

	sa := map[string]string{
		"type":         "service_account",
		"project_id":   c.ProjectID,
		"client_email": c.ClientEmail,
		"private_key":  strings.ReplaceAll(c.PrivateKey, `\n`, "\n"),
		"token_uri":    "https://oauth2.googleapis.com/token",
	}
	data, err := json.Marshal(sa)
	if err != nil {
		return nil, false
	}
	return data, true
}
