package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/cloudbyte/internal/model"
	"github.com/dukerupert/cloudbyte/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

// EventKind names a session change.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
)

// Event is delivered to subscribers whenever a session starts or ends.
type Event struct {
	Kind    EventKind
	Session model.Session
}

// Profile carries the sign-up fields beyond credentials.
type Profile struct {
	FullName string
}

// Service is the session provider: it owns credentials, issues session
// tokens and notifies subscribers of session changes.
type Service struct {
	accounts *store.AccountStore
	sessions *store.SessionStore
	tokens   *TokenIssuer
	ttl      time.Duration
	hashCost int
	now      func() time.Time
	logger   *slog.Logger

	mu          sync.RWMutex
	subscribers map[int]func(Event)
	nextSubID   int
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func NewService(
	accounts *store.AccountStore,
	sessions *store.SessionStore,
	tokens *TokenIssuer,
	ttl time.Duration,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		accounts:    accounts,
		sessions:    sessions,
		tokens:      tokens,
		ttl:         ttl,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
		logger:      logger,
		subscribers: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string, profile Profile) (*model.Session, error) {
	email = normalizeEmail(email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.Create(ctx, email, strings.TrimSpace(profile.FullName), string(hash))
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	return s.startSession(ctx, account)
}

// dummyHash keeps sign-in for unknown emails as slow as for known ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cloudbyte-timing"), bcrypt.MinCost)

// SignIn checks credentials and starts a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if account == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, account)
}

func (s *Service) startSession(ctx context.Context, account *model.Account) (*model.Session, error) {
	now := s.now()
	sess, err := s.sessions.Create(ctx, account.ID, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	token, err := s.tokens.Issue(account.ID, account.Email, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	sess.Token = token

	s.publish(Event{Kind: EventSignedIn, Session: *sess})
	return sess, nil
}

// Current resolves token to a live session. Invalid, expired and revoked
// tokens all yield nil without an error.
func (s *Service) Current(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}
	return s.lookup(ctx, claims, token)
}

func (s *Service) lookup(ctx context.Context, claims *Claims, token string) (*model.Session, error) {
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if sess == nil || sess.UserID != claims.Subject || sess.Expired(s.now()) {
		return nil, nil
	}
	sess.Token = token
	return sess, nil
}

// SignOut revokes the session behind token. Signing out an unknown or
// already revoked token is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if sess == nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.publish(Event{Kind: EventSignedOut, Session: *sess})
	return nil
}

// ActiveSessions lists every unexpired session.
func (s *Service) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	return s.sessions.ListActive(ctx, s.now())
}

// Subscribe registers fn for session change events and returns a function
// that removes it. fn runs on the goroutine that caused the change and must
// not block.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Service) publish(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	s.logger.Debug("session event", "kind", ev.Kind, "user_id", ev.Session.UserID)
	for _, fn := range fns {
		fn(ev)
	}
}
