// Package metrics exposes conversation metrics in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandevgo/tutorbot/pkg/log"
)

const namespace = "tutor"

var durationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// SessionStats reports tracked and busy sessions; the conversation registry
// satisfies it.
type SessionStats interface {
	Stats() (tracked, busy int)
}

type Metrics struct {
	registry     *prometheus.Registry
	turns        *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	windowTurns  prometheus.Histogram
	windowTokens prometheus.Histogram
	droppedTurns prometheus.Counter
}

func New(sessions SessionStats) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by outcome.",
		}, []string{"model", "status"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a turn, including waiting for the session.",
			Buckets:   durationBuckets,
		}, []string{"model"}),
		windowTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "window_turns",
			Help:      "History turns sent to the model per call.",
			Buckets:   prometheus.LinearBuckets(0, 4, 10),
		}),
		windowTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "window_tokens",
			Help:      "Token cost of the trimmed window including the new input.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),
		droppedTurns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trimmed_turns_total",
			Help:      "History turns left out of prompts by the token budget.",
		}),
	}

	m.registry.MustRegister(
		m.turns,
		m.turnDuration,
		m.windowTurns,
		m.windowTokens,
		m.droppedTurns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if sessions != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_tracked",
				Help:      "Sessions currently held in the in-process registry.",
			}, func() float64 {
				tracked, _ := sessions.Stats()
				return float64(tracked)
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_busy",
				Help:      "Sessions with a turn in flight.",
			}, func() float64 {
				_, busy := sessions.Stats()
				return float64(busy)
			}),
		)
	}
	return m
}

func (m *Metrics) ObserveTurn(model, status string, elapsed time.Duration) {
	if model == "" {
		model = "unbound"
	}
	m.turns.WithLabelValues(model, status).Inc()
	m.turnDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveWindow(historyTurns, windowTurns, windowTokens int) {
	m.windowTurns.Observe(float64(windowTurns))
	m.windowTokens.Observe(float64(windowTokens))
	if dropped := historyTurns - windowTurns; dropped > 0 {
		m.droppedTurns.Add(float64(dropped))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Server serves /metrics as a srv.Service.
type Server struct {
	http *http.Server
}

func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.http.Addr).Msg("serving metrics")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
