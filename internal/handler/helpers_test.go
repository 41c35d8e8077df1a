package handler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/cloudbyte/internal/auth"
	"github.com/dukerupert/cloudbyte/internal/database"
	"github.com/dukerupert/cloudbyte/internal/model"
	"github.com/dukerupert/cloudbyte/internal/store"
	"github.com/dukerupert/cloudbyte/web"
)

type fakeMailer struct {
	mu          sync.Mutex
	configured  bool
	welcomed    []string
	activations []*model.Purchase
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomed = append(m.welcomed, toEmail)
	return nil
}

func (m *fakeMailer) SendActivation(ctx context.Context, toEmail string, p *model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activations = append(m.activations, p)
	return nil
}

type testEnv struct {
	db        *sql.DB
	svc       *auth.Service
	plans     *store.PlanStore
	purchases *store.PurchaseStore
	renderer  *Renderer
	mailer    *fakeMailer
	logger    *slog.Logger
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := NewRenderer(web.Templates, "http://cloudbyte.test", logger)
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}

	svc := auth.NewService(
		store.NewAccountStore(db),
		store.NewSessionStore(db),
		auth.NewTokenIssuer([]byte("test-secret"), "cloudbyte"),
		time.Hour,
		logger,
		auth.WithHashCost(bcrypt.MinCost),
	)

	return &testEnv{
		db:        db,
		svc:       svc,
		plans:     store.NewPlanStore(db),
		purchases: store.NewPurchaseStore(db),
		renderer:  renderer,
		mailer:    &fakeMailer{configured: true},
		logger:    logger,
	}
}

// signUp registers an account and returns its session.
func (e *testEnv) signUp(t *testing.T, email string) *model.Session {
	t.Helper()
	sess, err := e.svc.SignUp(context.Background(), email, "hunter22", auth.Profile{FullName: "Test User"})
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return sess
}

// insertPlan adds a plan to the catalog.
func (e *testEnv) insertPlan(t *testing.T, id, name string, price int64, featuresJSON string) {
	t.Helper()
	_, err := e.db.Exec(
		`INSERT INTO hosting_plans (id, name, price_inr, features) VALUES (?, ?, ?, ?)`,
		id, name, price, featuresJSON,
	)
	if err != nil {
		t.Fatalf("insert plan %s: %v", id, err)
	}
}

func withSession(req *http.Request, sess *model.Session) *http.Request {
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{
		UserID:    sess.UserID,
		Email:     sess.Email,
		SessionID: sess.ID,
	})
	return req.WithContext(ctx)
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
