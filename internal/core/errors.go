package core

import "errors"

var (
	ErrInvalidTurn         = errors.New("invalid turn")
	ErrEmptyInput          = errors.New("empty input")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamRejected    = errors.New("upstream rejected request")
	ErrSessionBusy         = errors.New("session busy")
	ErrCancelled           = errors.New("cancelled")
	ErrSessionNotFound     = errors.New("session not found")
)

// IsRetryable reports whether the caller may retry the operation that
// produced err. Only transient storage and upstream failures qualify.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrCancelled) {
		return false
	}
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrUpstreamUnavailable)
}
