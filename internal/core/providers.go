package core

import "context"

// ModelInvoker is the transport boundary to the language model. It performs
// no trimming, persistence or retries.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt []Turn) (Turn, error)
	InvokeStreaming(ctx context.Context, prompt []Turn) (Stream, error)
	Model() string
}

// Stream is a finite, non-restartable sequence of reply fragments.
// Consumers call Next until it returns false, then check Err. Close releases
// the underlying transport and is safe to call more than once.
type Stream interface {
	Next() bool
	Fragment() string
	Err() error
	Close() error
}
