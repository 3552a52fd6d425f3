package command

import (
	"context"

	"github.com/sandevgo/tutorbot/internal/core"
)

type ModelCommand struct {
	cfg       core.ProviderConfig
	formatter *ResponseFormatter
}

func NewModelCommand(cfg core.ProviderConfig) *ModelCommand {
	return &ModelCommand{
		cfg:       cfg,
		formatter: NewResponseFormatter(),
	}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show the model answering your questions"
}

func (c *ModelCommand) Execute(ctx context.Context, scope core.CommandScope, args []string) (core.CommandResult, error) {
	return core.CommandResult{Text: c.formatter.Combine(
		c.formatter.Info("Current Model"),
		c.formatter.Label("Provider", c.cfg.GetProvider()),
		c.formatter.Label("Model", c.cfg.GetModel()),
	)}, nil
}
