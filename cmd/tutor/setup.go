package main

import (
	"context"
	"fmt"

	"github.com/sandevgo/tutorbot/internal/config"
	"github.com/sandevgo/tutorbot/internal/core"
	"github.com/sandevgo/tutorbot/internal/metrics"
	"github.com/sandevgo/tutorbot/internal/providers/llm"
	"github.com/sandevgo/tutorbot/internal/providers/tokenizer"
	"github.com/sandevgo/tutorbot/internal/service/command"
	"github.com/sandevgo/tutorbot/internal/service/conversation"
	"github.com/sandevgo/tutorbot/internal/storage/memory"
	"github.com/sandevgo/tutorbot/internal/storage/postgres"
	"github.com/sandevgo/tutorbot/internal/storage/sqlite"
	"github.com/sandevgo/tutorbot/pkg/log"
)

// app holds the wiring shared by every subcommand.
type app struct {
	cfg      *config.AppConfig
	provider *config.ProviderConfig
	store    core.Storage
	conv     *conversation.Conversation
	router   *command.Router
	metrics  *metrics.Metrics
}

// newApp wires storage and the conversation service. Commands that never
// call the model pass withModel=false and skip provider validation.
func newApp(ctx context.Context, withModel bool) (*app, error) {
	appCfg, err := config.ParseAppConfig()
	if err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}
	providerCfg := &config.ProviderConfig{}
	if withModel {
		if providerCfg, err = config.ParseProviderConfig(); err != nil {
			return nil, fmt.Errorf("provider config: %w", err)
		}
	}

	store, err := initStorage(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	conv := conversation.New(
		store,
		store,
		func(ctx context.Context) (core.ModelInvoker, error) {
			return llm.NewInvoker(ctx, providerCfg)
		},
		conversation.NewSysPrompt(appCfg),
		tokenizer.Default(ctx),
		appCfg,
	)
	m := metrics.New(conv.Registry())
	conv.WithRecorder(m)

	return &app{
		cfg:      appCfg,
		provider: providerCfg,
		store:    store,
		conv:     conv,
		router:   command.New(command.NewCommands(conv, providerCfg)),
		metrics:  m,
	}, nil
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (core.Storage, error) {
	logger := log.FromCtx(ctx)

	switch cfg.StorageDriver {
	case "postgres":
		pgCfg := config.NewPostgresConfig(ctx)
		logger.Debug().Msg("using postgres storage")
		return postgres.Open(ctx, pgCfg.DSN)
	case "memory":
		logger.Warn().Msg("using in-memory storage, history is lost on exit")
		return memory.New(), nil
	default:
		logger.Debug().Str("path", cfg.GetDatabasePath()).Msg("using sqlite storage")
		return sqlite.Open(ctx, cfg.GetDatabasePath())
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
