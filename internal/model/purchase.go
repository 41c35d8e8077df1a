package model

import (
	"math"
	"time"
)

const (
	PurchaseStatusActive  = "active"
	PurchaseStatusExpired = "expired"
)

// BillingCycle is the validity window of one purchase.
const BillingCycle = 30 * 24 * time.Hour

// BillingCycleDays is BillingCycle in whole days.
const BillingCycleDays = 30

type Purchase struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PlanID      string    `json:"plan_id"`
	PlanName    string    `json:"plan_name"`
	PricePaid   int64     `json:"price_paid"`
	PurchasedAt time.Time `json:"purchased_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Status      string    `json:"status"`
}

// NewPurchase builds an active purchase of plan for userID starting at now.
func NewPurchase(userID string, plan *Plan, now time.Time) *Purchase {
	purchasedAt := now.UTC()
	return &Purchase{
		UserID:      userID,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		PricePaid:   plan.PriceINR,
		PurchasedAt: purchasedAt,
		ExpiresAt:   ExpiryFrom(purchasedAt),
		Status:      PurchaseStatusActive,
	}
}

// ExpiryFrom returns the end of the billing cycle that starts at t.
func ExpiryFrom(t time.Time) time.Time {
	return t.Add(BillingCycle)
}

// DaysRemaining is the number of started days left before expiresAt.
// It is not clamped: an expiry in the past yields zero or less.
func DaysRemaining(expiresAt, now time.Time) int {
	return int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
}

// ProgressPercent maps days remaining onto a 0-100 bar width.
func ProgressPercent(daysRemaining int) float64 {
	pct := float64(daysRemaining) / BillingCycleDays * 100
	return math.Max(0, math.Min(100, pct))
}
