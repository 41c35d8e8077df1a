package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/cloudbyte/internal/model"
)

// Cache is a process-wide view of live sessions. It is filled once by Warm
// and kept current by the provider's change notifications, so resolving a
// session on each request does not hit the database.
type Cache struct {
	svc         *Service
	unsubscribe func()

	mu       sync.RWMutex
	sessions map[string]model.Session
	// revoked holds signed-out session IDs until they would have expired,
	// so a store read that raced the sign-out cannot re-add them.
	revoked map[string]time.Time
}

// NewCache subscribes a cache to svc. Call Close to detach it.
func NewCache(svc *Service) *Cache {
	c := &Cache{
		svc:      svc,
		sessions: make(map[string]model.Session),
		revoked:  make(map[string]time.Time),
	}
	c.unsubscribe = svc.Subscribe(c.handle)
	return c
}

// Warm loads every unexpired session from the provider.
func (c *Cache) Warm(ctx context.Context) error {
	sessions, err := c.svc.ActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("warm session cache: %w", err)
	}
	c.mu.Lock()
	for _, sess := range sessions {
		sess.Token = ""
		c.sessions[sess.ID] = sess
	}
	c.mu.Unlock()
	return nil
}

// Current resolves token like Service.Current, answering from memory when
// the session is known.
func (c *Cache) Current(ctx context.Context, token string) (*model.Session, error) {
	claims, err := c.svc.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}

	c.mu.RLock()
	sess, ok := c.sessions[claims.SessionID]
	c.mu.RUnlock()

	if ok {
		if sess.UserID != claims.Subject {
			return nil, nil
		}
		if sess.Expired(c.svc.now()) {
			c.evict(sess.ID)
			return nil, nil
		}
		sess.Token = token
		return &sess, nil
	}

	found, err := c.svc.lookup(ctx, claims, token)
	if err != nil || found == nil {
		return nil, err
	}
	if !c.fill(*found) {
		return nil, nil
	}
	return found, nil
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Prune drops sessions that have expired.
func (c *Cache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, sess := range c.sessions {
		if sess.Expired(now) {
			delete(c.sessions, id)
			n++
		}
	}
	for id, expiresAt := range c.revoked {
		if !now.Before(expiresAt) {
			delete(c.revoked, id)
		}
	}
	return n
}

// Close stops listening for session changes.
func (c *Cache) Close() {
	c.unsubscribe()
}

func (c *Cache) handle(ev Event) {
	switch ev.Kind {
	case EventSignedIn:
		c.put(ev.Session)
	case EventSignedOut:
		c.revoke(ev.Session)
	}
}

func (c *Cache) put(sess model.Session) {
	sess.Token = ""
	c.mu.Lock()
	c.sessions[sess.ID] = sess
	c.mu.Unlock()
}

// fill caches a session read from the store after a miss. It reports false
// when the session was signed out in the meantime.
func (c *Cache) fill(sess model.Session) bool {
	sess.Token = ""
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, gone := c.revoked[sess.ID]; gone {
		return false
	}
	c.sessions[sess.ID] = sess
	return true
}

func (c *Cache) revoke(sess model.Session) {
	c.mu.Lock()
	delete(c.sessions, sess.ID)
	c.revoked[sess.ID] = sess.ExpiresAt
	c.mu.Unlock()
}

func (c *Cache) evict(id string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}
