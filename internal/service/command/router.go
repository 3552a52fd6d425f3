package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sandevgo/tutorbot/internal/core"
)

type Router struct {
	commands  map[string]core.Command
	formatter *ResponseFormatter
}

func New(commands []core.Command) *Router {
	c := &Router{
		commands:  make(map[string]core.Command),
		formatter: NewResponseFormatter(),
	}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	c.commands["help"] = NewHelpCommand(c.ListCommands)
	return c
}

// Execute runs input when it is a slash command. The bool is false for
// plain chat text, which the caller should send to the conversation.
func (c *Router) Execute(ctx context.Context, scope core.CommandScope, input string) (core.CommandResult, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return core.CommandResult{}, false
	}

	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	// Telegram appends the bot name in groups: /history@tutor_bot
	name, _, _ = strings.Cut(name, "@")
	args := parts[1:]

	cmd, ok := c.commands[name]
	if !ok {
		return core.CommandResult{Text: fmt.Sprintf("Unknown command: /%s. Try /help", name)}, true
	}

	result, err := cmd.Execute(ctx, scope, args)
	if err != nil {
		return core.CommandResult{Text: c.formatter.Error(name, err)}, true
	}
	return result, true
}

func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	slices.SortFunc(res, func(a, b core.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return res
}
