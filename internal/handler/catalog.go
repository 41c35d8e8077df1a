package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/store"
)

type CatalogHandler struct {
	plans    *store.PlanStore
	renderer *Renderer
	logger   *slog.Logger
}

func NewCatalogHandler(plans *store.PlanStore, renderer *Renderer, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		plans:    plans,
		renderer: renderer,
		logger:   logger,
	}
}

// Pricing renders one card per plan, cheapest first.
func (h *CatalogHandler) Pricing(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"ActiveNav": "pricing"}

	plans, err := h.plans.List(r.Context())
	if err != nil {
		h.logger.Error("list plans", "error", err)
		data["Error"] = "Unable to load plans right now. Please try again."
		h.renderer.Render(w, r, http.StatusInternalServerError, "pricing.html", data)
		return
	}

	data["Plans"] = plans
	h.renderer.Render(w, r, http.StatusOK, "pricing.html", data)
}

// Select carries the chosen plan to checkout, or to the login view when
// there is no session yet.
func (h *CatalogHandler) Select(w http.ResponseWriter, r *http.Request) {
	id := r.FormValue("plan_id")
	if id == "" {
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}

	plan, err := h.plans.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get plan", "plan_id", id, "error", err)
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}
	if plan == nil {
		http.Redirect(w, r, "/pricing", http.StatusSeeOther)
		return
	}

	if !auth.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, "/auth?plan="+url.QueryEscape(plan.ID), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/checkout?plan="+url.QueryEscape(plan.ID), http.StatusSeeOther)
}
