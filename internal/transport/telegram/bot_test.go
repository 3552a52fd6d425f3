package telegram

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/service/command"
	"github.com/sandevgo/tutorbot/internal/service/conversation"
	"github.com/sandevgo/tutorbot/internal/storage/memory"
	"github.com/sandevgo/tutorbot/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type botConfig struct{}

func (botConfig) GetTokenBudget() int           { return 1000 }
func (botConfig) GetBusyPolicy() string         { return "queue" }
func (botConfig) GetIdleTimeout() time.Duration { return time.Minute }

type providerCfg struct{}

func (providerCfg) GetProvider() string { return "groq" }
func (providerCfg) GetModel() string    { return "test-model" }
func (providerCfg) GetAPIKey() string   { return "" }
func (providerCfg) GetBaseURL() string  { return "" }
func (providerCfg) GetMaxTokens() int   { return 0 }

type prompt string

func (p prompt) Render() string { return string(p) }

type echoInvoker struct{}

func (echoInvoker) Invoke(ctx context.Context, p []core.Turn) (core.Turn, error) {
	return core.AITurn("echo " + p[len(p)-1].Content), nil
}

func (echoInvoker) InvokeStreaming(context.Context, []core.Turn) (core.Stream, error) {
	return nil, core.ErrUpstreamRejected
}

func (echoInvoker) Model() string { return "test-model" }

// downInvoker always reports an unavailable upstream.
type downInvoker struct{ echoInvoker }

func (downInvoker) Invoke(context.Context, []core.Turn) (core.Turn, error) {
	return core.Turn{}, fmt.Errorf("%w: http 503", core.ErrUpstreamUnavailable)
}

func newTestBot() (*Bot, *memory.Store) {
	return newTestBotWith(echoInvoker{})
}

func newTestBotWith(inv core.ModelInvoker) (*Bot, *memory.Store) {
	store := memory.New()
	conv := conversation.New(store, store,
		func(context.Context) (core.ModelInvoker, error) { return inv, nil },
		prompt("be brief"),
		func(core.Turn) int { return 1 },
		botConfig{},
	)
	return newBot(conv, command.New(command.NewCommands(conv, providerCfg{})), 42), store
}

func TestBot_SessionPerChat(t *testing.T) {
	b, store := newTestBot()
	ctx := context.Background()

	assert.Equal(t, "echo hi", b.respond(ctx, 1, "42", "hi"))
	assert.Equal(t, "echo yo", b.respond(ctx, 2, "42", "yo"))
	b.respond(ctx, 1, "42", "again")

	first, second := b.session(1), b.session(2)
	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	turns, err := store.Read(ctx, first)
	require.NoError(t, err)
	assert.Len(t, turns, 4)
}

func TestBot_CommandsUpdateChatSession(t *testing.T) {
	b, _ := newTestBot()
	ctx := context.Background()

	b.respond(ctx, 1, "42", "hi")
	old := b.session(1)

	b.respond(ctx, 1, "42", "/new@tutor_bot")
	fresh := b.session(1)
	assert.NotEqual(t, old, fresh)

	b.respond(ctx, 1, "42", "/delete "+fresh)
	assert.Empty(t, b.session(1))

	text := b.respond(ctx, 1, "42", "/session "+old)
	assert.NotEmpty(t, text)
	assert.Equal(t, old, b.session(1))
}

func TestBot_RetriesStayInOneSession(t *testing.T) {
	b, store := newTestBotWith(downInvoker{})
	b.retrier = retry.NewRetrier(&retry.Config{
		MaxRetries:    2,
		BackoffFactor: 1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		Retryable:     core.IsRetryable,
	})
	ctx := context.Background()

	text := b.respond(ctx, 1, "42", "hi")
	assert.Contains(t, text, "upstream unavailable")

	sessions, err := store.ListSessions(ctx, "42")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sessions[0].ID, b.session(1))
}

func TestBot_EmptyInputIsReported(t *testing.T) {
	b, _ := newTestBot()
	text := b.respond(context.Background(), 1, "42", "   ")
	assert.Contains(t, text, core.ErrEmptyInput.Error())
	assert.Empty(t, b.session(1))
}
