package model

import (
	"testing"
	"time"
)

func TestExpiryFromIsExactlyThirtyDays(t *testing.T) {
	starts := []time.Time{
		time.Date(2026, 1, 31, 23, 59, 59, 999, time.UTC),
		time.Date(2026, 3, 8, 1, 30, 0, 0, time.UTC),
		time.Date(2028, 2, 28, 12, 0, 0, 0, time.UTC),
	}
	for _, start := range starts {
		got := ExpiryFrom(start)
		if d := got.Sub(start); d != 720*time.Hour {
			t.Errorf("ExpiryFrom(%v) - start = %v, want 720h", start, d)
		}
	}
}

func TestNewPurchase(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 15, 0, 0, time.FixedZone("IST", 5*3600+1800))
	plan := &Plan{ID: "p2", Name: "Pro", PriceINR: 499, Features: []string{"A", "B"}}

	p := NewPurchase("user-1", plan, now)
	if p.Status != PurchaseStatusActive {
		t.Errorf("status = %q, want %q", p.Status, PurchaseStatusActive)
	}
	if p.PlanID != "p2" || p.PlanName != "Pro" || p.PricePaid != 499 {
		t.Errorf("plan fields = %q %q %d", p.PlanID, p.PlanName, p.PricePaid)
	}
	if p.PurchasedAt.Location() != time.UTC {
		t.Errorf("purchased_at location = %v, want UTC", p.PurchasedAt.Location())
	}
	if !p.PurchasedAt.Equal(now) {
		t.Errorf("purchased_at = %v, want %v", p.PurchasedAt, now)
	}
	if !p.ExpiresAt.Equal(now.Add(30 * 24 * time.Hour)) {
		t.Errorf("expires_at = %v, want now+30d", p.ExpiresAt)
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		expires time.Time
		want    int
	}{
		{now.Add(30 * 24 * time.Hour), 30},
		{now.Add(29*24*time.Hour + time.Minute), 30},
		{now.Add(24 * time.Hour), 1},
		{now.Add(time.Second), 1},
		{now, 0},
		{now.Add(-time.Hour), 0},
		{now.Add(-36 * time.Hour), -1},
	}
	for _, tt := range tests {
		if got := DaysRemaining(tt.expires, now); got != tt.want {
			t.Errorf("DaysRemaining(now%+v) = %d, want %d", tt.expires.Sub(now), got, tt.want)
		}
	}
}

func TestDaysRemainingNonIncreasing(t *testing.T) {
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	expires := ExpiryFrom(start)

	prev := DaysRemaining(expires, start)
	for now := start; now.Before(expires.Add(72 * time.Hour)); now = now.Add(97 * time.Minute) {
		got := DaysRemaining(expires, now)
		if got > prev {
			t.Fatalf("days remaining went up at %v: %d > %d", now, got, prev)
		}
		prev = got
	}
	if prev > 0 {
		t.Errorf("days remaining after expiry = %d, want <= 0", prev)
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{30, 100},
		{15, 50},
		{0, 0},
		{-3, 0},
		{45, 100},
	}
	for _, tt := range tests {
		if got := ProgressPercent(tt.days); got != tt.want {
			t.Errorf("ProgressPercent(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestFormatINR(t *testing.T) {
	if got := FormatINR(499); got != "₹499" {
		t.Errorf("FormatINR(499) = %q", got)
	}
	if got := FormatINR(1499); got != "₹1499" {
		t.Errorf("FormatINR(1499) = %q", got)
	}
}
