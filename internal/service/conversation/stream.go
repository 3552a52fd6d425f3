package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/pkg/log"
)

// ReplyStream delivers a reply fragment by fragment. It holds the session's
// token until it is drained or closed, so callers must always Close it. The
// exchange is appended only once the model reports completion.
type ReplyStream struct {
	SessionID string
	Created   bool

	conv    *Conversation
	ctx     context.Context
	stream  core.Stream
	release func()
	text    string
	model   string
	start   time.Time

	buf      strings.Builder
	fragment string
	stored   []core.Turn
	err      error
	done     bool
	once     sync.Once
}

// SendStream starts a streaming turn. Errors before the first fragment are
// returned directly and release the session.
func (c *Conversation) SendStream(ctx context.Context, req Request) (*ReplyStream, error) {
	start := time.Now()

	st, release, reply, err := c.begin(ctx, req)
	if err != nil {
		// begin already wrapped anything past session resolution.
		c.recorder.ObserveTurn("", statusOf(err), time.Since(start))
		return nil, err
	}

	stream, err := func() (core.Stream, error) {
		ctx := log.WithSession(ctx, reply.SessionID)
		prompt, err := c.assemble(ctx, st.id, req.Text)
		if err != nil {
			return nil, err
		}
		invoker, err := c.bind(ctx, st)
		if err != nil {
			return nil, err
		}
		stream, err := invoker.InvokeStreaming(ctx, prompt)
		if err != nil {
			return nil, cancelled(ctx, err)
		}
		return stream, nil
	}()
	if err != nil {
		release()
		c.recorder.ObserveTurn(st.model, statusOf(err), time.Since(start))
		_, err = failed(reply, err)
		return nil, err
	}

	return &ReplyStream{
		SessionID: reply.SessionID,
		Created:   reply.Created,
		conv:      c,
		ctx:       log.WithSession(ctx, reply.SessionID),
		stream:    stream,
		release:   release,
		text:      req.Text,
		model:     st.model,
		start:     start,
	}, nil
}

func (r *ReplyStream) Next() bool {
	if r.done {
		return false
	}

	if r.stream.Next() {
		r.fragment = r.stream.Fragment()
		r.buf.WriteString(r.fragment)
		return true
	}

	r.fragment = ""
	if err := r.stream.Err(); err != nil {
		r.err = cancelled(r.ctx, err)
	} else {
		r.stored, r.err = r.conv.commit(r.ctx, r.SessionID, r.text, core.AITurn(r.buf.String()))
	}
	r.finish()
	return false
}

func (r *ReplyStream) Fragment() string {
	return r.fragment
}

// Content is the reply accumulated so far.
func (r *ReplyStream) Content() string {
	return r.buf.String()
}

func (r *ReplyStream) Err() error {
	return r.err
}

// Turns returns the stored exchange after a successful drain.
func (r *ReplyStream) Turns() []core.Turn {
	return r.stored
}

// Close abandons an undrained stream without recording anything.
func (r *ReplyStream) Close() error {
	if !r.done && r.err == nil {
		r.err = core.ErrCancelled
	}
	r.finish()
	return nil
}

func (r *ReplyStream) finish() {
	r.once.Do(func() {
		r.done = true
		if err := r.stream.Close(); err != nil {
			log.FromCtx(r.ctx).Debug().Err(err).Msg("failed to close model stream")
		}
		r.release()
		r.conv.recorder.ObserveTurn(r.model, statusOf(r.err), time.Since(r.start))
	})
}
