package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned when a session ID is unknown or expired.
var ErrNoSession = errors.New("auth: no such session")

// Session is the server-side state behind a dispatcher's cookie. It carries
// the upstream tracker session cookie that every scope check forwards.
type Session struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	TrackerCookie string    `json:"trackerCookie"`
	CreatedAt     time.Time `json:"createdAt"`
	LastSeen      time.Time `json:"lastSeen"`
}

// SessionStore holds dispatcher sessions with an inactivity TTL.
type SessionStore interface {
	Create(ctx context.Context, email, trackerCookie string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	// Touch resets the inactivity clock.
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is the in-process SessionStore used when no REDIS_URL is set.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	byID map[string]Session
	stop chan struct{}
	once sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	s := &MemoryStore{ttl: ttl, byID: map[string]Session{}, stop: make(chan struct{})}
	go s.janitor()
	return s
}

func (s *MemoryStore) Create(ctx context.Context, email, trackerCookie string) (Session, error) {
	now := time.Now()
	sess := Session{ID: uuid.New().String(), Email: email, TrackerCookie: trackerCookie, CreatedAt: now, LastSeen: now}
	s.mu.Lock()
	s.byID[sess.ID] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok || time.Since(sess.LastSeen) > s.ttl {
		delete(s.byID, id)
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return ErrNoSession
	}
	sess.LastSeen = time.Now()
	s.byID[id] = sess
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.mu.Lock()
			for id, sess := range s.byID {
				if time.Since(sess.LastSeen) > s.ttl {
					delete(s.byID, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
