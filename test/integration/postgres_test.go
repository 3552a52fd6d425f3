package integration

import (
	"fmt"
	"sync"
	"testing"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/service/conversation"
	"github.com/sandevgo/tutorbot/internal/storage/postgres"
	"github.com/sandevgo/tutorbot/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	store, err := postgres.Open(test.Context(t), test.PostgresDSN(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgres_SessionLifecycle(t *testing.T) {
	ctx := test.Context(t)
	store := openPostgres(t)

	id, err := store.CreateSession(ctx, "pg-alice")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteSession(ctx, id, "pg-alice") })

	ok, err := store.SessionExists(ctx, id, "pg-bob")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := store.Append(ctx, id, core.HumanTurn("hi"), core.AITurn("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored[0].Seq)
	assert.Equal(t, int64(2), stored[1].Seq)

	_, err = store.Append(ctx, id, core.HumanTurn("ok"), core.Turn{Role: "robot"})
	require.ErrorIs(t, err, core.ErrInvalidTurn)

	turns, err := store.Read(ctx, id)
	require.NoError(t, err)
	assert.Len(t, turns, 2)

	require.ErrorIs(t, store.DeleteSession(ctx, id, "pg-bob"), core.ErrSessionNotFound)
}

func TestPostgres_ConcurrentAppendsStayGapFree(t *testing.T) {
	ctx := test.Context(t)
	store := openPostgres(t)

	id, err := store.CreateSession(ctx, "pg-writer")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteSession(ctx, id, "pg-writer") })

	// Writers go straight to the store; the advisory lock alone keeps
	// sequence numbers dense.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Append(ctx, id, core.HumanTurn(fmt.Sprint(i)), core.AITurn("a")); err != nil {
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, err := store.Read(ctx, id)
	require.NoError(t, err)
	require.Len(t, turns, 16)
	for i, turn := range turns {
		assert.Equal(t, int64(i+1), turn.Seq)
	}
}

func TestPostgres_Pipeline(t *testing.T) {
	ctx := test.Context(t)
	store := openPostgres(t)
	model := test.NewFakeModel(t)

	conv := newPipeline(t, store, model, 1000)
	reply, err := conv.Send(ctx, conversation.Request{UserID: "pg-user", Text: "hello"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conv.DeleteSession(ctx, "pg-user", reply.SessionID) })

	assert.True(t, reply.Created)
	turns, err := conv.History(ctx, "pg-user", reply.SessionID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}
