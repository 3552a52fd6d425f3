package llm

import (
	"context"
	"net/http"
	"testing"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/stretchr/testify/require"
)

func TestDoRequest_UnencodableBodyIsRejected(t *testing.T) {
	b := newBaseProvider("http://127.0.0.1:1", "", "m", 0)

	_, err := b.doRequest(context.Background(), http.MethodPost, "/v1/chat/completions", map[string]any{"x": make(chan int)}, nil)
	require.ErrorIs(t, err, core.ErrUpstreamRejected)
	require.False(t, core.IsRetryable(err))
}
