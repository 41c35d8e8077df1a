package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/flash"
	"github.com/dukerupert/cloudbyte/internal/metrics"
	"github.com/dukerupert/cloudbyte/internal/middleware"
	"github.com/dukerupert/cloudbyte/internal/model"
	"github.com/dukerupert/cloudbyte/internal/store"
)

type planContextKey struct{}

// PlanFromContext returns the plan attached by RequirePlan.
func PlanFromContext(ctx context.Context) *model.Plan {
	plan, _ := ctx.Value(planContextKey{}).(*model.Plan)
	return plan
}

type CheckoutHandler struct {
	plans     *store.PlanStore
	purchases *store.PurchaseStore
	mailer    Mailer
	renderer  *Renderer
	now       func() time.Time
	logger    *slog.Logger
}

func NewCheckoutHandler(
	plans *store.PlanStore,
	purchases *store.PurchaseStore,
	mailer Mailer,
	renderer *Renderer,
	logger *slog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		plans:     plans,
		purchases: purchases,
		mailer:    mailer,
		renderer:  renderer,
		now:       time.Now,
		logger:    logger,
	}
}

// RequirePlan is the checkout precondition: the request must name a known
// plan, via ?plan= on GET or plan_id on POST. Without one the visitor is
// sent back to pricing.
func (h *CheckoutHandler) RequirePlan() middleware.Precondition {
	return middleware.Precondition{
		Name:     "plan",
		Redirect: "/pricing",
		Check: func(r *http.Request) (*http.Request, bool) {
			id := r.FormValue("plan_id")
			if id == "" {
				id = r.URL.Query().Get("plan")
			}
			if id == "" {
				return r, false
			}
			plan, err := h.plans.GetByID(r.Context(), id)
			if err != nil {
				h.logger.Error("get plan", "plan_id", id, "error", err)
				return r, false
			}
			if plan == nil {
				return r, false
			}
			return r.WithContext(context.WithValue(r.Context(), planContextKey{}, plan)), true
		},
	}
}

// Page renders the order summary for the carried plan.
func (h *CheckoutHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "checkout.html", h.pageData(r))
}

// Confirm records an active purchase and lands on the dashboard.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	plan := PlanFromContext(r.Context())

	purchase := model.NewPurchase(ac.UserID, plan, h.now())
	if err := h.purchases.Create(r.Context(), purchase); err != nil {
		h.logger.Error("create purchase", "user_id", ac.UserID, "plan_id", plan.ID, "error", err)
		data := h.pageData(r)
		data["Error"] = "Payment failed. Please try again."
		h.renderer.Render(w, r, http.StatusInternalServerError, "checkout.html", data)
		return
	}

	metrics.IncPurchase(plan.ID)
	h.logger.Info("plan activated", "user_id", ac.UserID, "plan_id", plan.ID, "purchase_id", purchase.ID)

	if h.mailer != nil && h.mailer.Configured() {
		if err := h.mailer.SendActivation(r.Context(), ac.Email, purchase); err != nil {
			h.logger.Error("send activation email", "error", err)
		}
	}

	flash.Set(w, flash.Success, "Plan activated successfully!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *CheckoutHandler) pageData(r *http.Request) map[string]any {
	return map[string]any{
		"Plan":      PlanFromContext(r.Context()),
		"CycleDays": model.BillingCycleDays,
	}
}
