package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "storage unavailable", err: ErrStorageUnavailable, want: true},
		{name: "wrapped storage", err: fmt.Errorf("read history: %w", ErrStorageUnavailable), want: true},
		{name: "upstream unavailable", err: fmt.Errorf("%w: http 503", ErrUpstreamUnavailable), want: true},
		{name: "upstream rejected", err: fmt.Errorf("%w: http 400", ErrUpstreamRejected), want: false},
		{name: "invalid turn", err: ErrInvalidTurn, want: false},
		{name: "session busy", err: ErrSessionBusy, want: false},
		{name: "cancelled wins", err: fmt.Errorf("%w: %w: %w", ErrCancelled, ErrUpstreamUnavailable, context.Canceled), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleHuman, RoleAI, RoleTool, RoleSystem} {
		assert.True(t, r.Valid(), string(r))
	}
	assert.False(t, Role("user").Valid())
	assert.False(t, Role("").Valid())
}
