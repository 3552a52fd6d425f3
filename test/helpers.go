package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
)

const PostgresDSNEnv = "TUTOR_TEST_POSTGRES_DSN"

// PostgresDSN skips the test unless a scratch database is configured.
func PostgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	return dsn
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FakeModel is an OpenAI-compatible chat endpoint that answers with the
// number of messages it received and records every request.
type FakeModel struct {
	*httptest.Server

	mu       sync.Mutex
	requests [][]ChatMessage
}

func NewFakeModel(t *testing.T) *FakeModel {
	t.Helper()
	m := &FakeModel{}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *FakeModel) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, req.Messages)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":"seen %d"}}]}`, len(req.Messages))
}

func (m *FakeModel) Requests() [][]ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ChatMessage(nil), m.requests...)
}

// Context returns a context cancelled with the test.
func Context(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
