package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	turns, err := s.Read(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, turns)

	stored, err := s.Append(ctx, "s1", core.HumanTurn("hi"), core.AITurn("hello"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, []int64{stored[0].Seq, stored[1].Seq})

	_, err = s.Append(ctx, "s1", core.HumanTurn("bad"), core.Turn{Role: "robot"})
	require.ErrorIs(t, err, core.ErrInvalidTurn)

	turns, err = s.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2, "failed append leaves history untouched")

	turns[0].Content = "mutated"
	again, _ := s.Read(ctx, "s1")
	assert.Equal(t, "hi", again[0].Content, "reads return copies")
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Append(ctx, "s1", core.HumanTurn("hi"))
	require.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestStore_Sessions(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := s.CreateSession(ctx, "alice")
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, "alice")
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, "bob")
	require.NoError(t, err)

	list, err := s.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)

	ok, _ := s.SessionExists(ctx, first, "bob")
	assert.False(t, ok)

	require.ErrorIs(t, s.DeleteSession(ctx, first, "bob"), core.ErrSessionNotFound)
	require.NoError(t, s.DeleteSession(ctx, first, "alice"))

	ok, _ = s.SessionExists(ctx, first, "alice")
	assert.False(t, ok)
}
