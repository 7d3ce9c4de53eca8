package stripe

import (
	"testing"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/AregawiF/Chicken-Chores/pkg/billing"
)

func items(ends ...int64) *stripe.SubscriptionItemList {
	list := &stripe.SubscriptionItemList{}
	for _, end := range ends {
		list.Data = append(list.Data, &stripe.SubscriptionItem{CurrentPeriodEnd: end})
	}
	return list
}

func TestPeriodEndEarliestItemWins(t *testing.T) {
	// A zero period end counts as missing.
	end := periodEnd(items(100, 50, 0))
	if end == nil {
		t.Fatal("expected a period end")
	}
	if got := end.Unix(); got != 50 {
		t.Errorf("expected epoch 50, got %d", got)
	}
}

func TestPeriodEndAllMissing(t *testing.T) {
	if end := periodEnd(items(0, 0)); end != nil {
		t.Errorf("expected nil period end, got %v", end)
	}
}

func TestPeriodEndNoItems(t *testing.T) {
	if end := periodEnd(nil); end != nil {
		t.Errorf("expected nil period end for nil items, got %v", end)
	}
	if end := periodEnd(&stripe.SubscriptionItemList{}); end != nil {
		t.Errorf("expected nil period end for empty items, got %v", end)
	}
}

func TestPeriodEndIsUTC(t *testing.T) {
	end := periodEnd(items(1767225600))
	if end == nil {
		t.Fatal("expected a period end")
	}
	if end.Location() != time.UTC {
		t.Errorf("expected UTC period end, got %v", end.Location())
	}
}

func TestPlanFromItems(t *testing.T) {
	tests := []struct {
		name     string
		interval stripe.PriceRecurringInterval
		want     billing.Plan
	}{
		{"year maps to yearly", stripe.PriceRecurringIntervalYear, billing.PlanYearly},
		{"month maps to monthly", stripe.PriceRecurringIntervalMonth, billing.PlanMonthly},
		{"week maps to monthly", stripe.PriceRecurringIntervalWeek, billing.PlanMonthly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{Price: &stripe.Price{Recurring: &stripe.PriceRecurring{Interval: tt.interval}}},
				},
			}
			if got := planFromItems(list); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPlanFromItemsDefaultsToMonthly(t *testing.T) {
	if got := planFromItems(nil); got != billing.PlanMonthly {
		t.Errorf("expected monthly for nil items, got %s", got)
	}
	if got := planFromItems(&stripe.SubscriptionItemList{}); got != billing.PlanMonthly {
		t.Errorf("expected monthly for empty items, got %s", got)
	}
}

func TestMapSubscriptionStatus(t *testing.T) {
	tests := []struct {
		provider stripe.SubscriptionStatus
		want     billing.Status
	}{
		{stripe.SubscriptionStatusActive, billing.StatusActive},
		{stripe.SubscriptionStatusPastDue, billing.StatusExpired},
		{stripe.SubscriptionStatusCanceled, billing.StatusCancelled},
		{stripe.SubscriptionStatusUnpaid, billing.StatusExpired},
		{stripe.SubscriptionStatus("unknown_status"), billing.StatusExpired},
		{stripe.SubscriptionStatus(""), billing.StatusExpired},
	}

	for _, tt := range tests {
		if got := mapSubscriptionStatus(tt.provider); got != tt.want {
			t.Errorf("status %q: expected %s, got %s", tt.provider, tt.want, got)
		}
	}
}
