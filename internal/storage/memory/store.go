// Package memory is a process-local Storage used by tests and by
// STORAGE_DRIVER=memory for throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	history  map[string][]core.Turn
	sessions map[string]core.Session
	now      func() time.Time
}

func New() *Store {
	return &Store{
		history:  make(map[string][]core.Turn),
		sessions: make(map[string]core.Session),
		now:      time.Now,
	}
}

func (s *Store) Read(ctx context.Context, sessionID string) ([]core.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.history[sessionID]), nil
}

func (s *Store) Append(ctx context.Context, sessionID string, turns ...core.Turn) ([]core.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	if len(turns) == 0 {
		return nil, nil
	}

	// Validate everything before touching the log.
	if _, err := storage.EncodeTurns(turns); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.history[sessionID]
	next := int64(len(existing)) + 1

	stored := make([]core.Turn, len(turns))
	for i, t := range turns {
		stored[i] = core.Turn{Role: t.Role, Content: t.Content, Seq: next + int64(i)}
	}
	s.history[sessionID] = append(existing, stored...)

	return slices.Clone(stored), nil
}

func (s *Store) CreateSession(ctx context.Context, userID string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = core.Session{ID: id, UserID: userID, CreatedAt: s.now().UTC()}
	return id, nil
}

func (s *Store) SessionExists(ctx context.Context, sessionID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	return ok && sess.UserID == userID, nil
}

func (s *Store) ListSessions(ctx context.Context, userID string) ([]core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}

	slices.SortFunc(out, func(a, b core.Session) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != userID {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}
	delete(s.sessions, sessionID)
	delete(s.history, sessionID)
	return nil
}

func (s *Store) Close() error {
	return nil
}
