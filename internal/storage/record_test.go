package storage

import (
	"testing"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTurn(t *testing.T) {
	tests := []struct {
		name    string
		turn    core.Turn
		want    string
		wantErr bool
	}{
		{
			name: "human",
			turn: core.HumanTurn("hi"),
			want: `{"type":"human","data":{"content":"hi"}}`,
		},
		{
			name: "ai with markdown",
			turn: core.AITurn("**x** = $y$"),
			want: `{"type":"ai","data":{"content":"**x** = $y$"}}`,
		},
		{
			name:    "unknown role",
			turn:    core.Turn{Role: "assistant", Content: "x"},
			wantErr: true,
		},
		{
			name:    "invalid utf8",
			turn:    core.HumanTurn(string([]byte{0xff, 0xfe})),
			wantErr: true,
		},
		{
			name:    "nul character",
			turn:    core.AITurn("a\x00b"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeTurn(tt.turn)
			if tt.wantErr {
				require.ErrorIs(t, err, core.ErrInvalidTurn)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestEncodeTurns_RejectsWholeBatch(t *testing.T) {
	_, err := EncodeTurns([]core.Turn{core.HumanTurn("ok"), {Role: "bogus"}})
	require.ErrorIs(t, err, core.ErrInvalidTurn)
	assert.Contains(t, err.Error(), "turn 1")
}

func TestDecodeTurn(t *testing.T) {
	turn, err := DecodeTurn(`{"type":"tool","data":{"content":"42"}}`, 7)
	require.NoError(t, err)
	assert.Equal(t, core.Turn{Role: core.RoleTool, Content: "42", Seq: 7}, turn)

	_, err = DecodeTurn(`{"type":"robot","data":{"content":"x"}}`, 1)
	assert.ErrorIs(t, err, core.ErrInvalidTurn)

	_, err = DecodeTurn(`not json`, 1)
	assert.ErrorIs(t, err, core.ErrInvalidTurn)
}
