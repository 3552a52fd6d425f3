package conversation

import (
	"context"
	"time"

	"github.com/sandevgo/tutorbot/pkg/log"
)

const (
	minJanitorInterval = time.Second
	maxJanitorInterval = 5 * time.Minute
)

// Janitor evicts idle registry entries so the registry does not grow with
// every session ever seen.
type Janitor struct {
	registry *Registry
	idle     time.Duration
	interval time.Duration
}

func NewJanitor(registry *Registry, idle time.Duration) *Janitor {
	interval := min(max(idle/2, minJanitorInterval), maxJanitorInterval)
	return &Janitor{
		registry: registry,
		idle:     idle,
		interval: interval,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "session_janitor").Logger()
	logger.Info().Dur("idle_timeout", j.idle).Msg("starting session janitor")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down session janitor")
			return nil
		case <-ticker.C:
			if n := j.registry.Evict(j.idle); n > 0 {
				tracked, _ := j.registry.Stats()
				logger.Debug().Int("evicted", n).Int("tracked", tracked).Msg("evicted idle sessions")
			}
		}
	}
}

func (j *Janitor) Shutdown(ctx context.Context) error {
	return nil
}
