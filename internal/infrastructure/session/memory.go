package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/service"
	apperror "github.com/bravo68web/ghcrm/pkg/errors"
)

// MemoryStore keeps sessions in an expiring LRU. Sessions are lost on restart
// and not shared between processes, so it suits development and tests.
type MemoryStore struct {
	cache *expirable.LRU[string, *models.Session]
	now   func() time.Time
}

var _ service.SessionStore = (*MemoryStore)(nil)

// NewMemoryStore holds at most size sessions, each for at most ttl
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, *models.Session](size, nil, ttl),
		now:   time.Now,
	}
}

// Save implements service.SessionStore
func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	if session.Expired(s.now()) {
		return apperror.BadRequest("session already expired", apperror.ErrSessionExpired)
	}
	stored := *session
	s.cache.Add(session.ID, &stored)
	return nil
}

// Get implements service.SessionStore
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	session, ok := s.cache.Get(id)
	if !ok || session.Expired(s.now()) {
		return nil, apperror.NotFound("session", apperror.ErrSessionExpired)
	}
	found := *session
	return &found, nil
}

// Delete implements service.SessionStore
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

// DeleteByUser implements service.SessionStore
func (s *MemoryStore) DeleteByUser(_ context.Context, userID uint, keepID string) (int, error) {
	removed := 0
	for _, key := range s.cache.Keys() {
		if key == keepID || !models.SessionBelongsTo(key, userID) {
			continue
		}
		if s.cache.Remove(key) {
			removed++
		}
	}
	return removed, nil
}

// Ping implements service.SessionStore
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close implements service.SessionStore
func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
