package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/model"
	"github.com/dukerupert/cloudbyte/internal/store"
)

type DashboardHandler struct {
	purchases *store.PurchaseStore
	renderer  *Renderer
	now       func() time.Time
	logger    *slog.Logger
}

func NewDashboardHandler(purchases *store.PurchaseStore, renderer *Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		purchases: purchases,
		renderer:  renderer,
		now:       time.Now,
		logger:    logger,
	}
}

// Dashboard shows the most recent active plan, or the empty state.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	data := map[string]any{"ActiveNav": "dashboard"}

	purchase, err := h.purchases.LatestActive(r.Context(), userID)
	if err != nil {
		h.logger.Error("latest active purchase", "user_id", userID, "error", err)
		data["Error"] = "Unable to load your plan right now. Please try again."
		h.renderer.Render(w, r, http.StatusInternalServerError, "dashboard.html", data)
		return
	}

	if purchase != nil {
		days := model.DaysRemaining(purchase.ExpiresAt, h.now())
		data["Purchase"] = purchase
		data["DaysRemaining"] = days
		data["Progress"] = model.ProgressPercent(days)
	}
	h.renderer.Render(w, r, http.StatusOK, "dashboard.html", data)
}
