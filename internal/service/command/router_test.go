package command

import (
	"context"
	"testing"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSessions adapts the memory store to Sessions without the conversation
// service.
type memSessions struct {
	*memory.Store
}

func (m memSessions) NewSession(ctx context.Context, userID string) (string, error) {
	return m.CreateSession(ctx, userID)
}

func (m memSessions) History(ctx context.Context, userID, sessionID string) ([]core.Turn, error) {
	ok, err := m.SessionExists(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return m.Read(ctx, sessionID)
}

func (m memSessions) DeleteSession(ctx context.Context, userID, sessionID string) error {
	return m.Store.DeleteSession(ctx, sessionID, userID)
}

type providerCfg struct{}

func (providerCfg) GetProvider() string { return "groq" }
func (providerCfg) GetModel() string    { return "llama-3.3-70b-versatile" }
func (providerCfg) GetAPIKey() string   { return "" }
func (providerCfg) GetBaseURL() string  { return "" }
func (providerCfg) GetMaxTokens() int   { return 0 }

func newRouter() (*Router, memSessions) {
	sessions := memSessions{memory.New()}
	return New(NewCommands(sessions, providerCfg{})), sessions
}

func TestRouter_PlainTextIsNotACommand(t *testing.T) {
	r, _ := newRouter()
	_, handled := r.Execute(context.Background(), core.CommandScope{UserID: "u"}, "what is a derivative?")
	assert.False(t, handled)
}

func TestRouter_UnknownCommand(t *testing.T) {
	r, _ := newRouter()
	res, handled := r.Execute(context.Background(), core.CommandScope{UserID: "u"}, "/teleport")
	assert.True(t, handled)
	assert.Contains(t, res.Text, "Unknown command: /teleport")
}

func TestRouter_Help(t *testing.T) {
	r, _ := newRouter()
	res, _ := r.Execute(context.Background(), core.CommandScope{}, "/help@tutor_bot")
	for _, name := range []string{"/new", "/session", "/sessions", "/history", "/delete", "/model", "/help"} {
		assert.Contains(t, res.Text, name)
	}
}

func TestRouter_SessionLifecycle(t *testing.T) {
	r, store := newRouter()
	ctx := context.Background()
	scope := core.CommandScope{UserID: "alice"}

	res, _ := r.Execute(ctx, scope, "/history")
	assert.Equal(t, "No active session yet.", res.Text)

	res, _ = r.Execute(ctx, scope, "/new")
	require.NotEmpty(t, res.SessionID)
	scope.SessionID = res.SessionID

	_, err := store.Append(ctx, scope.SessionID,
		core.HumanTurn("q1"), core.AITurn("a1"), core.HumanTurn("q2"), core.AITurn("a2"))
	require.NoError(t, err)

	res, _ = r.Execute(ctx, scope, "/history 2")
	assert.Contains(t, res.Text, "q2")
	assert.Contains(t, res.Text, "a2")
	assert.NotContains(t, res.Text, "q1")

	res, _ = r.Execute(ctx, scope, "/sessions")
	assert.Contains(t, res.Text, scope.SessionID+"` ")
	assert.Contains(t, res.Text, "(active)")

	res, _ = r.Execute(ctx, core.CommandScope{UserID: "bob"}, "/session "+scope.SessionID)
	assert.Empty(t, res.SessionID, "cannot switch into another user's session")
	assert.Contains(t, res.Text, "failed")

	res, _ = r.Execute(ctx, scope, "/delete "+scope.SessionID)
	assert.True(t, res.Detach)

	res, _ = r.Execute(ctx, scope, "/sessions")
	assert.Contains(t, res.Text, "No sessions yet")
}

func TestRouter_Model(t *testing.T) {
	r, _ := newRouter()
	res, _ := r.Execute(context.Background(), core.CommandScope{}, "/model")
	assert.Contains(t, res.Text, "llama-3.3-70b-versatile")
}
