package billing

import "time"

// Metrics defines the interface for tracking billing operations.
// All methods are optional - components should gracefully handle nil metrics.
type Metrics interface {
	// RecordWebhookEvent records a webhook event received from the provider.
	// status: "success" or "error"
	RecordWebhookEvent(provider, eventType, status string)

	// RecordWebhookProcessingDuration records how long webhook processing took.
	RecordWebhookProcessingDuration(provider, eventType string, duration time.Duration)

	// RecordWebhookError records a webhook processing error.
	// errorType: e.g. "invalid_signature", "invalid_payload", "processing_error"
	RecordWebhookError(provider, errorType string)

	// RecordAPICall records an API call to the billing provider.
	// status: "success" or an error category
	RecordAPICall(provider, endpoint, status string)

	// RecordAPICallDuration records how long a provider API call took.
	RecordAPICallDuration(provider, endpoint string, duration time.Duration)

	// RecordStoreWrite records a record-store merge attempt.
	// status: "success", "error" or "skipped"
	RecordStoreWrite(status string)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordWebhookEvent(_, _, _ string)                            {}
func (n *NoopMetrics) RecordWebhookProcessingDuration(_, _ string, _ time.Duration) {}
func (n *NoopMetrics) RecordWebhookError(_, _ string)                               {}
func (n *NoopMetrics) RecordAPICall(_, _, _ string)                                 {}
func (n *NoopMetrics) RecordAPICallDuration(_, _ string, _ time.Duration)           {}
func (n *NoopMetrics) RecordStoreWrite(_ string)                                    {}
