package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"golang.org/x/sync/semaphore"
)

const (
	BusyPolicyQueue  = "queue"
	BusyPolicyReject = "reject"
)

// sessionState is the per-session exclusion token plus the model binding.
// invoker and model are only touched by the token holder; the remaining
// fields are guarded by Registry.mu.
type sessionState struct {
	id  string
	sem *semaphore.Weighted

	invoker core.ModelInvoker
	model   string

	refs     int
	busy     bool
	lastUsed time.Time
}

// Registry hands out per-session exclusion tokens. Distinct sessions never
// contend beyond the short map lookup.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	reject   bool
	now      func() time.Time
}

func NewRegistry(policy string) *Registry {
	return &Registry{
		sessions: make(map[string]*sessionState),
		reject:   policy == BusyPolicyReject,
		now:      time.Now,
	}
}

// Acquire takes sessionID's token under the busy policy: it queues in
// arrival order, or fails with ErrSessionBusy when the policy is reject.
// The returned release must be called; extra calls are no-ops.
func (r *Registry) Acquire(ctx context.Context, sessionID string) (*sessionState, func(), error) {
	return r.acquire(ctx, sessionID, !r.reject)
}

// Wait queues for sessionID's token regardless of the busy policy.
func (r *Registry) Wait(ctx context.Context, sessionID string) (*sessionState, func(), error) {
	return r.acquire(ctx, sessionID, true)
}

func (r *Registry) acquire(ctx context.Context, sessionID string, wait bool) (*sessionState, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}

	r.mu.Lock()
	st, ok := r.sessions[sessionID]
	if !ok {
		st = &sessionState{
			id:       sessionID,
			sem:      semaphore.NewWeighted(1),
			lastUsed: r.now(),
		}
		r.sessions[sessionID] = st
	}
	st.refs++
	r.mu.Unlock()

	if !wait {
		if !st.sem.TryAcquire(1) {
			r.unref(st)
			return nil, nil, fmt.Errorf("%w: %s", core.ErrSessionBusy, sessionID)
		}
	} else if err := st.sem.Acquire(ctx, 1); err != nil {
		r.unref(st)
		return nil, nil, fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}

	r.mu.Lock()
	st.busy = true
	r.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			st.busy = false
			st.lastUsed = r.now()
			st.refs--
			r.mu.Unlock()
			st.sem.Release(1)
		})
	}
	return st, release, nil
}

func (r *Registry) unref(st *sessionState) {
	r.mu.Lock()
	st.refs--
	r.mu.Unlock()
}

// Evict drops entries that nobody holds or waits for and that have been idle
// for at least idle. It returns how many were removed.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	evicted := 0
	for id, st := range r.sessions {
		if st.refs > 0 || st.busy || st.lastUsed.After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}

// Stats reports tracked and currently busy sessions.
func (r *Registry) Stats() (tracked, busy int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range r.sessions {
		if st.busy {
			busy++
		}
	}
	return len(r.sessions), busy
}
