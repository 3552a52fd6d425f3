package conversation

import (
	"os"
	"strings"
	"time"

	"github.com/sandevgo/tutorbot/internal/core"
)

// DefaultInstruction is used when no SYSTEM.md is configured.
const DefaultInstruction = "You are a helpful teacher. You always answer questions accurately, " +
	"and provide steps-by-steps explanation. You should always answer in English. " +
	"You should strictly and always answer in well-formatted Markdown format. " +
	"If there are any formula, you should use LaTeX to format them."

const dateTimePlaceholder = "{{ currentDateTime }}"

// Build emits [system] + window + [human: userText]. An empty system
// instruction is left out rather than sent as an empty message.
func Build(system string, window []core.Turn, userText string) ([]core.Turn, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, core.ErrEmptyInput
	}

	prompt := make([]core.Turn, 0, len(window)+2)
	if system != "" {
		prompt = append(prompt, core.SystemTurn(system))
	}
	for _, t := range window {
		prompt = append(prompt, core.Turn{Role: t.Role, Content: t.Content})
	}
	return append(prompt, core.HumanTurn(userText)), nil
}

// SysPrompt renders the system instruction. The file is re-read on every
// turn so edits apply without a restart.
type SysPrompt struct {
	cfg core.PromptConfig
	now func() time.Time
}

func NewSysPrompt(cfg core.PromptConfig) *SysPrompt {
	return &SysPrompt{
		cfg: cfg,
		now: time.Now,
	}
}

func (p *SysPrompt) Render() string {
	text := DefaultInstruction
	if path := p.cfg.GetSystemPromptPath(); path != "" {
		if content, err := os.ReadFile(path); err == nil && strings.TrimSpace(string(content)) != "" {
			text = strings.TrimSpace(string(content))
		}
	}
	return strings.ReplaceAll(text, dateTimePlaceholder, p.now().Format(time.RFC1123))
}
