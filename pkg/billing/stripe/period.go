package stripe

import (
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

// periodEnd derives the effective expiry of a subscription: the minimum
// non-missing current_period_end across its line items. A subscription with
// multiple items is treated as expiring at its earliest-expiring item. Returns
// nil when no item carries a period end.
func periodEnd(items *stripe.SubscriptionItemList) *time.Time {
	if items == nil {
		return nil
	}

	var min int64
	for _, item := range items.Data {
		if item == nil || item.CurrentPeriodEnd == 0 {
			continue
		}
		if min == 0 || item.CurrentPeriodEnd < min {
			min = item.CurrentPeriodEnd
		}
	}

	if min == 0 {
		return nil
	}
	t := time.Unix(min, 0).UTC()
	return &t
}

// planFromItems normalizes the Stripe billing interval into the application's
// plan vocabulary: "year" maps to yearly, anything else to monthly.
func planFromItems(items *stripe.SubscriptionItemList) billing.Plan {
	if items == nil {
		return billing.PlanMonthly
	}
	for _, item := range items.Data {
		if item == nil || item.Price == nil || item.Price.Recurring == nil {
			continue
		}
		if item.Price.Recurring.Interval == stripe.PriceRecurringIntervalYear {
			return billing.PlanYearly
		}
		return billing.PlanMonthly
	}
	return billing.PlanMonthly
}

// mapSubscriptionStatus maps a Stripe subscription status onto the local
// status vocabulary. Unmapped provider statuses are treated as expired so a
// new provider-side state never leaves a user marked active by accident.
func mapSubscriptionStatus(status stripe.SubscriptionStatus) billing.Status {
	switch status {
	case stripe.SubscriptionStatusActive:
		return billing.StatusActive
	case stripe.SubscriptionStatusPastDue:
		return billing.StatusExpired
	case stripe.SubscriptionStatusCanceled:
		return billing.StatusCancelled
	case stripe.SubscriptionStatusUnpaid:
		return billing.StatusExpired
	default:
		return billing.StatusExpired
	}
}
