// Package auth keeps username sign-in sessions in an in-memory TTL cache.
package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"plantcare/internal/models"
	"plantcare/internal/util"
)

// CookieName is the session cookie set on login.
const CookieName = "session_id"

const sessionKeyPrefix = "session:"

// DefaultTTL bounds how long an idle session stays valid.
const DefaultTTL = 24 * time.Hour

// Session identifies a signed-in owner.
type Session struct {
	Token     string    `json:"-"`
	OwnerID   string    `json:"ownerId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sessions issues and resolves session tokens.
type Sessions struct {
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSessions creates a session store. Expired entries are purged every
// cleanup interval; zero disables the background purge.
func NewSessions(ttl, cleanup time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL reports the session lifetime.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// OwnerID derives the owner id for a username.
func OwnerID(username string) string {
	return util.Slugify(username)
}

// Create signs the username in and returns a new session.
func (s *Sessions) Create(username string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Session{}, models.NewValidationError("username", "is required")
	}
	if len(username) > 100 {
		return Session{}, models.NewValidationError("username", "must be at most 100 characters")
	}
	owner := OwnerID(username)
	if owner == "" {
		return Session{}, models.NewValidationError("username", "must contain letters or digits")
	}

	sess := Session{
		Token:     uuid.New().String(),
		OwnerID:   owner,
		Username:  username,
		CreatedAt: s.now(),
	}
	s.cache.Set(sessionKeyPrefix+sess.Token, sess, s.ttl)
	return sess, nil
}

// Lookup resolves a token. Unknown or expired tokens yield ErrUnauthenticated.
func (s *Sessions) Lookup(token string) (Session, error) {
	if token == "" {
		return Session{}, models.ErrUnauthenticated
	}
	v, ok := s.cache.Get(sessionKeyPrefix + token)
	if !ok {
		return Session{}, models.ErrUnauthenticated
	}
	sess, ok := v.(Session)
	if !ok {
		return Session{}, models.ErrUnauthenticated
	}
	return sess, nil
}

// Revoke drops a session. Unknown tokens are ignored.
func (s *Sessions) Revoke(token string) {
	s.cache.Delete(sessionKeyPrefix + token)
}

// Count reports live sessions, including expired ones not yet purged.
func (s *Sessions) Count() int {
	return s.cache.ItemCount()
}
