package model

import "strconv"

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	PriceINR int64    `json:"price_inr"`
	Features []string `json:"features"`
}

// FormatINR renders a whole-rupee amount the way the storefront shows it.
func FormatINR(amount int64) string {
	return "₹" + strconv.FormatInt(amount, 10)
}
