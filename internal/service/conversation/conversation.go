// Package conversation runs the per-session turn pipeline: read history,
// trim it to the token budget, assemble the prompt, invoke the model and
// append the exchange, one turn at a time per session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/pkg/log"
)

// InvokerFactory creates the model binding for a session on its first turn.
type InvokerFactory func(ctx context.Context) (core.ModelInvoker, error)

// Prompter renders the system instruction for one turn.
type Prompter interface {
	Render() string
}

// Recorder receives per-turn measurements.
type Recorder interface {
	ObserveTurn(model, status string, elapsed time.Duration)
	ObserveWindow(historyTurns, windowTurns, windowTokens int)
}

type Request struct {
	UserID    string
	SessionID string
	Text      string
}

type Reply struct {
	SessionID string
	Content   string
	// Created is set when a new session was opened for this turn, either
	// because none was given or the given one is unknown for the user.
	Created bool
	// Turns are the stored human and ai turns with their sequence indexes.
	Turns []core.Turn
}

// TurnError reports a turn that failed after its session was resolved. A
// session opened for the turn stays open, so callers retry against
// SessionID instead of starting yet another one.
type TurnError struct {
	SessionID string
	Created   bool
	Err       error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// SessionOf returns the session a failed turn ran against, if it got that far.
func SessionOf(err error) (sessionID string, created bool, ok bool) {
	var te *TurnError
	if errors.As(err, &te) {
		return te.SessionID, te.Created, true
	}
	return "", false, false
}

func failed(reply Reply, err error) (Reply, error) {
	return Reply{SessionID: reply.SessionID, Created: reply.Created}, &TurnError{
		SessionID: reply.SessionID,
		Created:   reply.Created,
		Err:       err,
	}
}

type Conversation struct {
	history  core.HistoryStore
	sessions core.SessionDirectory
	invokers InvokerFactory
	prompt   Prompter
	counter  core.TokenCounter
	budget   int
	registry *Registry
	recorder Recorder
}

func New(
	history core.HistoryStore,
	sessions core.SessionDirectory,
	invokers InvokerFactory,
	prompt Prompter,
	counter core.TokenCounter,
	cfg core.ConversationConfig,
) *Conversation {
	return &Conversation{
		history:  history,
		sessions: sessions,
		invokers: invokers,
		prompt:   prompt,
		counter:  counter,
		budget:   cfg.GetTokenBudget(),
		registry: NewRegistry(cfg.GetBusyPolicy()),
		recorder: nopRecorder{},
	}
}

func (c *Conversation) WithRecorder(r Recorder) *Conversation {
	c.recorder = r
	return c
}

func (c *Conversation) Registry() *Registry {
	return c.registry
}

// Send runs one full turn and returns the model's reply. Once the session
// is resolved, failures come back as *TurnError and the returned Reply still
// carries SessionID and Created.
func (c *Conversation) Send(ctx context.Context, req Request) (Reply, error) {
	start := time.Now()
	model := ""

	reply, err := func() (Reply, error) {
		st, release, reply, err := c.begin(ctx, req)
		if err != nil {
			return reply, err
		}
		defer release()

		ctx := log.WithSession(ctx, reply.SessionID)
		prompt, err := c.assemble(ctx, st.id, req.Text)
		if err != nil {
			return failed(reply, err)
		}

		invoker, err := c.bind(ctx, st)
		if err != nil {
			return failed(reply, err)
		}
		model = st.model

		answer, err := invoker.Invoke(ctx, prompt)
		if err != nil {
			return failed(reply, cancelled(ctx, err))
		}

		stored, err := c.commit(ctx, st.id, req.Text, answer)
		if err != nil {
			return failed(reply, err)
		}

		reply.Content = answer.Content
		reply.Turns = stored
		return reply, nil
	}()

	c.recorder.ObserveTurn(model, statusOf(err), time.Since(start))
	return reply, err
}

// begin resolves the session and takes its token.
func (c *Conversation) begin(ctx context.Context, req Request) (*sessionState, func(), Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, Reply{}, fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}
	if _, err := Build("", nil, req.Text); err != nil {
		return nil, nil, Reply{}, err
	}

	sessionID, created, err := c.resolve(ctx, req.UserID, req.SessionID)
	if err != nil {
		return nil, nil, Reply{}, cancelled(ctx, err)
	}

	reply := Reply{SessionID: sessionID, Created: created}
	st, release, err := c.registry.Acquire(ctx, sessionID)
	if err != nil {
		reply, err = failed(reply, err)
		return nil, nil, reply, err
	}
	return st, release, reply, nil
}

// resolve returns the session to use. An id the user does not own is not an
// error: a fresh session is opened and the caller learns about it through
// Reply.Created.
func (c *Conversation) resolve(ctx context.Context, userID, sessionID string) (string, bool, error) {
	if sessionID != "" {
		ok, err := c.sessions.SessionExists(ctx, sessionID, userID)
		if err != nil {
			return "", false, err
		}
		if ok {
			return sessionID, false, nil
		}
		log.FromCtx(ctx).Warn().
			Str("session_id", sessionID).
			Str("user_id", userID).
			Msg("unknown session, starting a new one")
	}

	id, err := c.sessions.CreateSession(ctx, userID)
	if err != nil {
		return "", false, err
	}
	log.FromCtx(ctx).Info().Str("session_id", id).Str("user_id", userID).Msg("session created")
	return id, true, nil
}

// assemble reads the history and builds the prompt. The new human turn is
// trimmed together with the history, so the window always ends on it and
// the exchange before it is kept whole.
func (c *Conversation) assemble(ctx context.Context, sessionID, text string) ([]core.Turn, error) {
	history, err := c.history.Read(ctx, sessionID)
	if err != nil {
		return nil, cancelled(ctx, err)
	}

	system := c.prompt.Render()
	budget := c.budget
	if system != "" {
		budget -= c.counter(core.SystemTurn(system))
	}

	candidate := append(slices.Clip(history), core.HumanTurn(text))
	window := Trim(candidate, budget, c.counter)

	var kept []core.Turn
	if len(window) > 0 {
		kept = window[:len(window)-1]
	} else {
		log.FromCtx(ctx).Warn().
			Int("budget", c.budget).
			Msg("input alone exceeds the token budget, sending it without history")
	}

	c.recorder.ObserveWindow(len(history), len(kept), Cost(window, c.counter))
	log.FromCtx(ctx).Debug().
		Int("history", len(history)).
		Int("window", len(kept)).
		Int("budget", budget).
		Msg("history trimmed")

	return Build(system, kept, text)
}

// bind lazily creates the session's model binding. Only the token holder
// calls it.
func (c *Conversation) bind(ctx context.Context, st *sessionState) (core.ModelInvoker, error) {
	if st.invoker != nil {
		return st.invoker, nil
	}
	inv, err := c.invokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create model invoker: %w", err)
	}
	st.invoker = inv
	st.model = inv.Model()
	return inv, nil
}

// commit appends the exchange. It is the point of no return, so it ignores
// cancellation of the caller's context.
func (c *Conversation) commit(ctx context.Context, sessionID, text string, answer core.Turn) ([]core.Turn, error) {
	stored, err := c.history.Append(context.WithoutCancel(ctx), sessionID, core.HumanTurn(text), core.AITurn(answer.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}
	return stored, nil
}

// History returns the stored turns of a session owned by userID.
func (c *Conversation) History(ctx context.Context, userID, sessionID string) ([]core.Turn, error) {
	ok, err := c.sessions.SessionExists(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}
	return c.history.Read(ctx, sessionID)
}

func (c *Conversation) NewSession(ctx context.Context, userID string) (string, error) {
	return c.sessions.CreateSession(ctx, userID)
}

func (c *Conversation) ListSessions(ctx context.Context, userID string) ([]core.Session, error) {
	return c.sessions.ListSessions(ctx, userID)
}

// DeleteSession waits for any in-flight turn of the session to finish
// before removing it, whatever the busy policy.
func (c *Conversation) DeleteSession(ctx context.Context, userID, sessionID string) error {
	_, release, err := c.registry.Wait(ctx, sessionID)
	if err != nil {
		return err
	}
	defer release()

	return c.sessions.DeleteSession(ctx, sessionID, userID)
}

// cancelled reclassifies failures caused by the caller giving up.
func cancelled(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, core.ErrCancelled) {
		return fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}
	return err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrCancelled):
		return "cancelled"
	case errors.Is(err, core.ErrSessionBusy):
		return "busy"
	case errors.Is(err, core.ErrEmptyInput), errors.Is(err, core.ErrInvalidTurn):
		return "invalid"
	case errors.Is(err, core.ErrUpstreamRejected):
		return "rejected"
	case errors.Is(err, core.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, core.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "error"
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveTurn(string, string, time.Duration) {}
func (nopRecorder) ObserveWindow(int, int, int)               {}
