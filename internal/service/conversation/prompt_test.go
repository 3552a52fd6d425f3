package conversation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	window := []core.Turn{
		{Role: core.RoleHuman, Content: "hi", Seq: 1},
		{Role: core.RoleAI, Content: "hello", Seq: 2},
	}

	tests := []struct {
		name    string
		system  string
		window  []core.Turn
		text    string
		want    []core.Turn
		wantErr error
	}{
		{
			name:   "system, history and new input",
			system: "sys",
			window: window,
			text:   "how are you",
			want: []core.Turn{
				core.SystemTurn("sys"),
				core.HumanTurn("hi"),
				core.AITurn("hello"),
				core.HumanTurn("how are you"),
			},
		},
		{
			name: "empty window",
			text: "hi",
			want: []core.Turn{core.HumanTurn("hi")},
		},
		{
			name:    "empty input",
			system:  "sys",
			text:    "",
			wantErr: core.ErrEmptyInput,
		},
		{
			name:    "whitespace input",
			text:    " \n\t",
			wantErr: core.ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.system, tt.window, tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type promptPath string

func (p promptPath) GetSystemPromptPath() string { return string(p) }

func TestSysPrompt_Render(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "SYSTEM.md")
	require.NoError(t, os.WriteFile(custom, []byte("Today is {{ currentDateTime }}.\n"), 0o644))
	blank := filepath.Join(dir, "BLANK.md")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o644))

	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "no path", path: "", want: DefaultInstruction},
		{name: "missing file", path: filepath.Join(dir, "nope.md"), want: DefaultInstruction},
		{name: "blank file", path: blank, want: DefaultInstruction},
		{name: "custom with placeholder", path: custom, want: "Today is Sat, 14 Mar 2026 15:09:26 UTC."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewSysPrompt(promptPath(tt.path))
			p.now = func() time.Time { return fixed }
			assert.Equal(t, tt.want, p.Render())
		})
	}
}
