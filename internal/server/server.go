package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/handler"
	"github.com/dukerupert/cloudbyte/internal/metrics"
	"github.com/dukerupert/cloudbyte/internal/middleware"
	"github.com/dukerupert/cloudbyte/internal/store"
	ws "github.com/dukerupert/cloudbyte/internal/websocket"
	"github.com/dukerupert/cloudbyte/web"
)

const (
	tokenIssuer     = "cloudbyte"
	authRateLimit   = 10
	authRateWindow  = time.Minute
	healthPingLimit = 2 * time.Second
)

type Config struct {
	BaseURL           string
	JWTSecret         []byte
	SessionTTL        time.Duration
	SecureCookie      bool
	TrustProxyHeaders bool
	Mailer            handler.Mailer
	Terminal          handler.TerminalConfig
	AuthOptions       []auth.Option
}

type Server struct {
	db           *sql.DB
	sessionStore *store.SessionStore
	authService  *auth.Service
	sessions     *auth.Cache
	hub          *ws.Hub
	unsubscribe  func()
	rateLimiter  *middleware.RateLimiter
	clientIP     func(*http.Request) string
	marketingH   *handler.MarketingHandler
	catalogH     *handler.CatalogHandler
	authH        *handler.AuthHandler
	checkoutH    *handler.CheckoutHandler
	dashboardH   *handler.DashboardHandler
	terminalH    *handler.TerminalHandler
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) (*Server, error) {
	accountStore := store.NewAccountStore(db)
	sessionStore := store.NewSessionStore(db)
	planStore := store.NewPlanStore(db)
	purchaseStore := store.NewPurchaseStore(db)

	authService := auth.NewService(
		accountStore,
		sessionStore,
		auth.NewTokenIssuer(cfg.JWTSecret, tokenIssuer),
		cfg.SessionTTL,
		logger.With("component", "auth"),
		cfg.AuthOptions...,
	)
	sessions := auth.NewCache(authService)

	hub := ws.NewHub(logger.With("component", "websocket"))
	unsubscribe := authService.Subscribe(hub.HandleSessionEvent)

	renderer, err := handler.NewRenderer(web.Templates, cfg.BaseURL, logger.With("component", "render"))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	metrics.MustRegister()
	metrics.WatchSessions(sessions.Len)

	return &Server{
		db:           db,
		sessionStore: sessionStore,
		authService:  authService,
		sessions:     sessions,
		hub:          hub,
		unsubscribe:  unsubscribe,
		rateLimiter:  middleware.NewRateLimiter(authRateLimit, authRateWindow),
		clientIP:     middleware.ClientIP(cfg.TrustProxyHeaders),
		marketingH:   handler.NewMarketingHandler(renderer),
		catalogH:     handler.NewCatalogHandler(planStore, renderer, logger.With("component", "catalog")),
		authH:        handler.NewAuthHandler(authService, planStore, cfg.Mailer, renderer, cfg.SecureCookie, logger.With("component", "auth")),
		checkoutH:    handler.NewCheckoutHandler(planStore, purchaseStore, cfg.Mailer, renderer, logger.With("component", "checkout")),
		dashboardH:   handler.NewDashboardHandler(purchaseStore, renderer, logger.With("component", "dashboard")),
		terminalH:    handler.NewTerminalHandler(renderer, cfg.Terminal),
		logger:       logger,
	}, nil
}

// Warm loads live sessions into the session cache.
func (s *Server) Warm(ctx context.Context) error {
	return s.sessions.Warm(ctx)
}

// Cleanup removes expired sessions and idle rate-limit entries.
func (s *Server) Cleanup(ctx context.Context) {
	now := time.Now()
	if n, err := s.sessionStore.DeleteExpired(ctx, now); err != nil {
		s.logger.Error("cleanup expired sessions", "error", err)
	} else if n > 0 {
		s.logger.Info("cleaned up expired sessions", "count", n)
	}
	if n := s.sessions.Prune(now); n > 0 {
		s.logger.Debug("pruned session cache", "count", n)
	}
	if n := s.rateLimiter.Cleanup(); n > 0 {
		s.logger.Debug("pruned rate limiter", "count", n)
	}
}

// Close detaches the session cache and websocket hub from the provider.
func (s *Server) Close() {
	s.unsubscribe()
	s.sessions.Close()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public marketing routes
	mux.HandleFunc("GET /{$}", s.marketingH.LandingPage)
	mux.HandleFunc("GET /pricing", s.catalogH.Pricing)
	mux.HandleFunc("POST /pricing/select", s.catalogH.Select)

	// Auth routes (public)
	mux.HandleFunc("GET /auth", s.authH.Page)
	mux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	mux.HandleFunc("POST /auth/signup", s.rateLimitedHandler(s.authH.Signup))
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Infrastructure
	mux.HandleFunc("GET /health", s.healthCheck)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /ws/session", ws.HandleSession(s.hub, s.logger.With("component", "websocket")))

	// Static files
	static, _ := fs.Sub(web.Static, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// SEO static files
	mux.HandleFunc("GET /robots.txt", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, "robots.txt")
	})

	// Protected routes
	gateLogger := s.logger.With("component", "gate")
	requireSession := middleware.Guard(s.sessions, gateLogger)
	requirePlan := middleware.Guard(s.sessions, gateLogger, s.checkoutH.RequirePlan())

	mux.Handle("GET /checkout", requirePlan(http.HandlerFunc(s.checkoutH.Page)))
	mux.Handle("POST /checkout", requirePlan(http.HandlerFunc(s.checkoutH.Confirm)))
	mux.Handle("GET /dashboard", requireSession(http.HandlerFunc(s.dashboardH.Dashboard)))
	mux.Handle("GET /terminal", requireSession(http.HandlerFunc(s.terminalH.Terminal)))

	// The mux records the matched pattern on the request it receives, so
	// everything reading r.Pattern must sit inside OptionalSession, which
	// replaces the request.
	var h http.Handler = mux
	h = metrics.Middleware(h)
	h = middleware.RequestLogger(s.logger)(h)
	h = middleware.OptionalSession(s.sessions, gateLogger)(h)
	return h
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, s.clientIP)
	return rl(h).ServeHTTP
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingLimit)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
