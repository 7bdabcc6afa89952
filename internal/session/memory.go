package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. A background janitor
// removes expired entries; call Close to stop it.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Session
	now   func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemoryStore starts a store whose janitor sweeps every interval
// (no janitor when interval <= 0).
func NewMemoryStore(interval time.Duration) *MemoryStore {
	return newMemoryStore(interval, time.Now)
}

func newMemoryStore(interval time.Duration, now func() time.Time) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]Session),
		now:   now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	if interval > 0 {
		go s.janitor(interval)
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[userID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.items, userID)
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Set(ctx context.Context, sess Session) error {
	s.mu.Lock()
	s.items[sess.UserID] = sess
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Take(ctx context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[userID]
	if !ok {
		return Session{}, ErrNotFound
	}
	delete(s.items, userID)
	if sess.Expired(s.now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.items, userID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.items {
		if v.Expired(now) {
			delete(s.items, k)
			n++
		}
	}
	return n
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
