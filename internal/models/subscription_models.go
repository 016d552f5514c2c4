package models

import "time"

// SubscriptionStatus is the local subscription state, driven exclusively by
// billing-provider webhook events and the lazy trial-expiry check. Absence of
// a subscription row is the implicit initial state, distinct from any value
// here.
type SubscriptionStatus string

const (
	SubscriptionTrialing     SubscriptionStatus = "TRIALING"
	SubscriptionActive       SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue      SubscriptionStatus = "PAST_DUE"
	SubscriptionCancelled    SubscriptionStatus = "CANCELLED"
	SubscriptionTrialExpired SubscriptionStatus = "TRIAL_EXPIRED"
	SubscriptionInactive     SubscriptionStatus = "INACTIVE"
)

// SubscriptionPlan is the product tier a user is on.
type SubscriptionPlan string

const (
	PlanTrial   SubscriptionPlan = "TRIAL"
	PlanMonthly SubscriptionPlan = "MONTHLY"
	PlanYearly  SubscriptionPlan = "YEARLY"
)

// Subscription is the one-per-user billing record reconciled from provider
// webhooks. TrialUsed is sticky: once true it never resets, regardless of
// later cancellations.
type Subscription struct {
	UserID             string             `json:"user_id" db:"user_id"`
	CustomerID         string             `json:"customer_id" db:"customer_id"`
	SubscriptionID     *string            `json:"subscription_id,omitempty" db:"subscription_id"`
	PriceID            *string            `json:"price_id,omitempty" db:"price_id"`
	Status             SubscriptionStatus `json:"status" db:"status"`
	Plan               SubscriptionPlan   `json:"plan" db:"plan"`
	TrialStartDate     *time.Time         `json:"trial_start_date,omitempty" db:"trial_start_date"`
	TrialEndDate       *time.Time         `json:"trial_end_date,omitempty" db:"trial_end_date"`
	TrialUsed          bool               `json:"trial_used" db:"trial_used"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty" db:"current_period_start"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty" db:"current_period_end"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// IsTrialExpiredAt reports whether a trialing subscription has passed its
// trial end at the given instant.
func (s *Subscription) IsTrialExpiredAt(now time.Time) bool {
	if s.Status != SubscriptionTrialing || s.TrialEndDate == nil {
		return false
	}
	return !now.Before(*s.TrialEndDate)
}

// TrialDaysRemainingAt returns whole days left in the trial at a given time,
// rounding partial days up. Returns 0 when not trialing or already expired.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if s.Status != SubscriptionTrialing || s.TrialEndDate == nil {
		return 0
	}
	remaining := s.TrialEndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// Payment is an append-only record of a payment observed via billing
// webhooks.
type Payment struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CustomerID  string    `json:"customer_id" db:"customer_id"`
	ProviderRef *string   `json:"provider_ref,omitempty" db:"provider_ref"`
	AmountPence int64     `json:"amount_pence" db:"amount_pence"`
	Currency    string    `json:"currency" db:"currency"`
	Kind        string    `json:"kind" db:"kind"` // trial | subscription
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
