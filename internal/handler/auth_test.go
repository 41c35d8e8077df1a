package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dukerupert/cloudbyte/internal/middleware"
)

func newAuthHandler(env *testEnv) *AuthHandler {
	return NewAuthHandler(env.svc, env.plans, env.mailer, env.renderer, false, env.logger)
}

func TestAuthPageModes(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest("GET", "/auth", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome Back") || !strings.Contains(body, `action="/auth/login"`) {
		t.Error("default mode should render sign-in")
	}

	rec = httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest("GET", "/auth?mode=signup", nil))
	body = rec.Body.String()
	if !strings.Contains(body, "Full Name") || !strings.Contains(body, `action="/auth/signup"`) {
		t.Error("signup mode should render the sign-up form")
	}
}

func TestAuthPageShowsCarriedPlan(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest("GET", "/auth?plan=pro", nil))
	if !strings.Contains(rec.Body.String(), "Selected plan: <strong>Pro</strong>") {
		t.Error("expected carried plan to be shown")
	}

	rec = httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest("GET", "/auth?plan=unknown", nil))
	if strings.Contains(rec.Body.String(), "Selected plan") {
		t.Error("unknown plan should not be shown")
	}
}

func TestSignupSuccess(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	rec := httptest.NewRecorder()
	h.Signup(rec, postForm("/auth/signup", url.Values{
		"full_name": {"Alice"},
		"email":     {"alice@example.com"},
		"password":  {"hunter22"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}

	cookie := findCookie(rec, middleware.SessionCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	sess, err := env.svc.Current(context.Background(), cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("cookie token should resolve to a session: %v", err)
	}

	if findCookie(rec, "cloudbyte_flash") == nil {
		t.Error("expected flash cookie")
	}
	if len(env.mailer.welcomed) != 1 || env.mailer.welcomed[0] != "alice@example.com" {
		t.Errorf("welcomed = %v, want [alice@example.com]", env.mailer.welcomed)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)
	env.signUp(t, "alice@example.com")

	rec := httptest.NewRecorder()
	h.Signup(rec, postForm("/auth/signup", url.Values{
		"full_name": {"Alice Again"},
		"email":     {"alice@example.com"},
		"password":  {"hunter22"},
	}))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), "User already registered") {
		t.Error("expected duplicate email message")
	}
	if findCookie(rec, middleware.SessionCookieName) != nil {
		t.Error("no session cookie expected on failure")
	}
}

func TestSignupShortPassword(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	rec := httptest.NewRecorder()
	h.Signup(rec, postForm("/auth/signup", url.Values{
		"full_name": {"Alice"},
		"email":     {"alice@example.com"},
		"password":  {"abc"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(rec.Body.String(), "Password must be at least 6 characters") {
		t.Error("expected password length message")
	}
	if !strings.Contains(rec.Body.String(), `value="alice@example.com"`) {
		t.Error("expected email to be kept in the form")
	}
}

func TestSignupMultibytePasswordOverBcryptLimit(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	// 40 runes, 120 bytes.
	rec := httptest.NewRecorder()
	h.Signup(rec, postForm("/auth/signup", url.Values{
		"full_name": {"Alice"},
		"email":     {"alice@example.com"},
		"password":  {strings.Repeat("€", 40)},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Password is too long") {
		t.Error("expected password length message")
	}
	if strings.Contains(body, "Authentication failed") {
		t.Error("long password should not surface as a server error")
	}
	if findCookie(rec, middleware.SessionCookieName) != nil {
		t.Error("no session cookie expected")
	}
}

func TestLoginSuccess(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)
	env.signUp(t, "alice@example.com")

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/auth/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"hunter22"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
	if findCookie(rec, middleware.SessionCookieName) == nil {
		t.Error("expected session cookie")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)
	env.signUp(t, "alice@example.com")

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/auth/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"wrong-password"},
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), "Invalid login credentials") {
		t.Error("expected invalid credentials message")
	}
}

func TestLoginInvalidEmail(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	rec := httptest.NewRecorder()
	h.Login(rec, postForm("/auth/login", url.Values{
		"email":    {"not-an-email"},
		"password": {"hunter22"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(rec.Body.String(), "Enter a valid email address") {
		t.Error("expected email validation message")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)
	sess := env.signUp(t, "alice@example.com")

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	cookie := findCookie(rec, middleware.SessionCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Error("expected session cookie to be cleared")
	}

	got, err := env.svc.Current(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got != nil {
		t.Error("token should be rejected after logout")
	}
}

func TestValidationMessage(t *testing.T) {
	env := setupEnv(t)
	h := newAuthHandler(env)

	err := h.validate.Struct(signupForm{Email: "alice@example.com", Password: "hunter22"})
	if got := validationMessage(err); got != "Full name is required" {
		t.Errorf("message = %q, want %q", got, "Full name is required")
	}
}
