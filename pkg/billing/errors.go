package billing

import "errors"

var (
	// ErrProviderNotConfigured is returned when a provider is missing required configuration
	ErrProviderNotConfigured = errors.New("billing provider not configured")

	// ErrInvalidWebhookSignature is returned when webhook signature validation fails
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// ErrCustomerNotFound is returned when no provider customer matches an email
	ErrCustomerNotFound = errors.New("customer not found in billing provider")

	// ErrNoActiveSubscription is returned when a customer has no active subscription
	ErrNoActiveSubscription = errors.New("no active subscription for customer")

	// ErrProviderAPIError is returned when the provider's API returns an error
	ErrProviderAPIError = errors.New("billing provider API error")
)
