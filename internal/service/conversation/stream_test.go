package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(rs *ReplyStream) string {
	var sb strings.Builder
	for rs.Next() {
		sb.WriteString(rs.Fragment())
	}
	return sb.String()
}

func TestSendStream_AppendsAfterCompletion(t *testing.T) {
	f := newFixture(1000, BusyPolicyQueue)
	ctx := context.Background()

	rs, err := f.conv.SendStream(ctx, Request{UserID: "alice", Text: "hi"})
	require.NoError(t, err)
	assert.True(t, rs.Created)

	require.True(t, rs.Next())
	assert.Empty(t, f.history(rs.SessionID), "nothing is stored mid-stream")

	rest := collect(rs)
	require.NoError(t, rs.Err())
	require.NoError(t, rs.Close())

	assert.Equal(t, "re: hi", "re: "+rest)
	assert.Equal(t, "re: hi", rs.Content())
	assert.Equal(t, []core.Turn{
		{Role: core.RoleHuman, Content: "hi", Seq: 1},
		{Role: core.RoleAI, Content: "re: hi", Seq: 2},
	}, f.history(rs.SessionID))
	assert.Equal(t, f.history(rs.SessionID), rs.Turns())
}

func TestSendStream_EarlyCloseAppendsNothing(t *testing.T) {
	f := newFixture(1000, BusyPolicyQueue)
	ctx := context.Background()

	var upstream *fakeStream
	f.invoker.stream = func(context.Context, []core.Turn) (core.Stream, error) {
		upstream = &fakeStream{fragments: []string{"a", "b", "c"}}
		return upstream, nil
	}

	rs, err := f.conv.SendStream(ctx, Request{UserID: "alice", Text: "hi"})
	require.NoError(t, err)
	require.True(t, rs.Next())
	require.NoError(t, rs.Close())

	assert.True(t, upstream.closed, "transport is closed on early exit")
	assert.ErrorIs(t, rs.Err(), core.ErrCancelled)
	assert.False(t, rs.Next())
	assert.Empty(t, f.history(rs.SessionID))

	// The token was released.
	f.invoker.stream = nil
	reply, err := f.conv.Send(ctx, Request{UserID: "alice", SessionID: rs.SessionID, Text: "again"})
	require.NoError(t, err)
	assert.Len(t, reply.Turns, 2)
}

func TestSendStream_UpstreamErrorAppendsNothing(t *testing.T) {
	f := newFixture(1000, BusyPolicyQueue)
	f.invoker.stream = func(context.Context, []core.Turn) (core.Stream, error) {
		return &fakeStream{
			fragments: []string{"partial"},
			err:       fmt.Errorf("%w: stream ended before completion", core.ErrUpstreamUnavailable),
		}, nil
	}

	rs, err := f.conv.SendStream(context.Background(), Request{UserID: "alice", Text: "hi"})
	require.NoError(t, err)
	defer rs.Close()

	assert.Equal(t, "partial", collect(rs))
	require.ErrorIs(t, rs.Err(), core.ErrUpstreamUnavailable)
	assert.Empty(t, f.history(rs.SessionID))
}

func TestSendStream_OpenFailureReleasesSession(t *testing.T) {
	f := newFixture(1000, BusyPolicyReject)
	ctx := context.Background()

	first, err := f.conv.Send(ctx, Request{UserID: "alice", Text: "hi"})
	require.NoError(t, err)

	f.invoker.stream = func(context.Context, []core.Turn) (core.Stream, error) {
		return nil, fmt.Errorf("%w: http 401", core.ErrUpstreamRejected)
	}
	_, err = f.conv.SendStream(ctx, Request{UserID: "alice", SessionID: first.SessionID, Text: "x"})
	require.ErrorIs(t, err, core.ErrUpstreamRejected)

	_, busy := f.conv.Registry().Stats()
	assert.Zero(t, busy)
	assert.Len(t, f.history(first.SessionID), 2)
}
