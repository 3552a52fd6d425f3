package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sandevgo/tutorbot/internal/core"
)

// maxErrorBody caps how much of a failed response is copied into the error.
const maxErrorBody = 4096

type baseProvider struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// The client carries no timeout of its own: replies may stream for minutes,
// so deadlines come from the caller's context.
func newBaseProvider(baseURL, apiKey, model string, maxTokens int) baseProvider {
	return baseProvider{
		client:    &http.Client{},
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (b *baseProvider) Model() string {
	return b.model
}

func (b *baseProvider) doRequest(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request: %w", core.ErrUpstreamRejected, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", core.ErrUpstreamRejected, err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.TutorUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, classifyStatus(resp.StatusCode, data)
	}
	return resp, nil
}

// classifyTransport maps a failure that happened before or while reading a
// response. A done context always wins over the network error it caused.
func classifyTransport(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", core.ErrCancelled, ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", core.ErrCancelled, err)
	}
	return fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
}

// classifyStatus treats throttling and server faults as transient and every
// other non-2xx as a rejection whose body is surfaced verbatim.
func classifyStatus(status int, body []byte) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("%w: http %d: %s", core.ErrUpstreamUnavailable, status, string(body))
	}
	return fmt.Errorf("%w: http %d: %s", core.ErrUpstreamRejected, status, string(body))
}
