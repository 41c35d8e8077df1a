package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/flash"
	"github.com/dukerupert/cloudbyte/internal/metrics"
	"github.com/dukerupert/cloudbyte/internal/middleware"
	"github.com/dukerupert/cloudbyte/internal/store"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type signupForm struct {
	FullName string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,bcryptlen"`
}

// maxPasswordBytes is bcrypt's input limit. validator's max counts runes.
const maxPasswordBytes = 72

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

type AuthHandler struct {
	sessions     *auth.Service
	plans        *store.PlanStore
	mailer       Mailer
	renderer     *Renderer
	validate     *validator.Validate
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(
	sessions *auth.Service,
	plans *store.PlanStore,
	mailer Mailer,
	renderer *Renderer,
	secureCookie bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		plans:        plans,
		mailer:       mailer,
		renderer:     renderer,
		validate:     newValidator(),
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Page renders the sign-in form, or sign-up with ?mode=signup. A plan
// carried from the pricing page is shown but not acted on.
func (h *AuthHandler) Page(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Signup":   r.URL.Query().Get("mode") == "signup",
		"Email":    "",
		"FullName": "",
	}
	if id := r.URL.Query().Get("plan"); id != "" {
		plan, err := h.plans.GetByID(r.Context(), id)
		if err != nil {
			h.logger.Warn("get carried plan", "plan_id", id, "error", err)
		}
		if plan != nil {
			data["SelectedPlan"] = plan
		}
	}
	h.renderer.Render(w, r, http.StatusOK, "auth.html", data)
}

// Login checks credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := loginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	data := map[string]any{"Signup": false, "Email": form.Email, "FullName": ""}

	if err := h.validate.Struct(form); err != nil {
		metrics.IncAuthAttempt("signin", "invalid")
		data["Error"] = validationMessage(err)
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, "auth.html", data)
		return
	}

	sess, err := h.sessions.SignIn(r.Context(), form.Email, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.IncAuthAttempt("signin", "rejected")
		data["Error"] = "Invalid login credentials"
		h.renderer.Render(w, r, http.StatusUnauthorized, "auth.html", data)
		return
	}
	if err != nil {
		metrics.IncAuthAttempt("signin", "error")
		h.logger.Error("sign in", "error", err)
		data["Error"] = "Authentication failed"
		h.renderer.Render(w, r, http.StatusInternalServerError, "auth.html", data)
		return
	}

	metrics.IncAuthAttempt("signin", "ok")
	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	flash.Set(w, flash.Success, "Welcome back!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Signup creates an account and signs it in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form := signupForm{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	data := map[string]any{"Signup": true, "Email": form.Email, "FullName": form.FullName}

	if err := h.validate.Struct(form); err != nil {
		metrics.IncAuthAttempt("signup", "invalid")
		data["Error"] = validationMessage(err)
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, "auth.html", data)
		return
	}

	sess, err := h.sessions.SignUp(r.Context(), form.Email, form.Password, auth.Profile{FullName: form.FullName})
	if errors.Is(err, auth.ErrEmailTaken) {
		metrics.IncAuthAttempt("signup", "rejected")
		data["Error"] = "User already registered"
		h.renderer.Render(w, r, http.StatusConflict, "auth.html", data)
		return
	}
	if errors.Is(err, auth.ErrPasswordTooLong) {
		metrics.IncAuthAttempt("signup", "invalid")
		data["Error"] = passwordTooLong
		h.renderer.Render(w, r, http.StatusUnprocessableEntity, "auth.html", data)
		return
	}
	if err != nil {
		metrics.IncAuthAttempt("signup", "error")
		h.logger.Error("sign up", "error", err)
		data["Error"] = "Authentication failed"
		h.renderer.Render(w, r, http.StatusInternalServerError, "auth.html", data)
		return
	}

	metrics.IncAuthAttempt("signup", "ok")
	if h.mailer != nil && h.mailer.Configured() {
		if err := h.mailer.SendWelcome(r.Context(), sess.Email, form.FullName); err != nil {
			h.logger.Error("send welcome email", "error", err)
		}
	} else {
		h.logger.Info("email not configured, skipping welcome email", "email", sess.Email)
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	flash.Set(w, flash.Success, "Account created! Redirecting to dashboard...")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout revokes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.sessions.SignOut(r.Context(), token); err != nil {
			h.logger.Error("sign out", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

const passwordTooLong = "Password is too long"

// validationMessage turns the first failed field into a sentence for the form.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid form data"
	}

	fe := verrs[0]
	field := map[string]string{
		"FullName": "Full name",
		"Email":    "Email",
		"Password": "Password",
	}[fe.Field()]

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "bcryptlen":
		return passwordTooLong
	default:
		return field + " is invalid"
	}
}
