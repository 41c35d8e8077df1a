package handler

import (
	"net/http"
)

// Feature is one card in the landing page feature grid.
type Feature struct {
	Icon        string
	Title       string
	Description string
}

var landingFeatures = []Feature{
	{Icon: "\U0001F5C4", Title: "SSD Storage", Description: "Ultra-fast SSD storage for blazing performance"},
	{Icon: "\U0001F6E1", Title: "99.9% Uptime", Description: "Rock-solid infrastructure you can rely on"},
	{Icon: "\U0001F3A7", Title: "24/7 Support", Description: "Expert support whenever you need it"},
}

type MarketingHandler struct {
	renderer *Renderer
}

func NewMarketingHandler(renderer *Renderer) *MarketingHandler {
	return &MarketingHandler{renderer: renderer}
}

// LandingPage renders the homepage.
func (h *MarketingHandler) LandingPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"ActiveNav": "home",
		"Features":  landingFeatures,
	}
	h.renderer.Render(w, r, http.StatusOK, "index.html", data)
}
