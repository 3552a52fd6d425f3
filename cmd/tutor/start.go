package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandevgo/tutorbot/internal/config"
	"github.com/sandevgo/tutorbot/internal/metrics"
	"github.com/sandevgo/tutorbot/internal/service/conversation"
	"github.com/sandevgo/tutorbot/internal/transport/telegram"
	"github.com/sandevgo/tutorbot/pkg/log"
	"github.com/sandevgo/tutorbot/pkg/srv"
	"github.com/spf13/cobra"
)

const shutdownGrace = 10 * time.Second

var startCmd = &cobra.Command{
	Use:          "start",
	Short:        "Start the TutorBot services",
	Long:         `Starts the enabled transports (Telegram), the metrics endpoint and the idle session janitor.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting tutorbot")

		services, err := NewServices(ctx)
		if err != nil {
			return err
		}

		srv.StartServices(ctx, services)

		srv.ShutdownServices(ctx, services, shutdownGrace)
		logger.Info().Msg("tutorbot has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func NewServices(ctx context.Context) ([]srv.Service, error) {
	logger := log.FromCtx(ctx)

	a, err := newApp(ctx, true)
	if err != nil {
		return nil, err
	}

	// Storage closes last.
	services := []srv.Service{
		srv.NewCleanup(a.Close),
		conversation.NewJanitor(a.conv.Registry(), a.cfg.GetIdleTimeout()),
	}

	if a.cfg.MetricsAddr != "" {
		services = append(services, metrics.NewServer(a.cfg.MetricsAddr, a.metrics))
	}

	if a.cfg.EnableTelegram {
		bot, err := telegram.NewBot(ctx, config.NewTelegramConfig(ctx), a.conv, a.router)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		services = append(services, bot)
	} else {
		logger.Warn().Msg("no transport enabled, set ENABLE_TELEGRAM or use 'tutor chat'")
	}

	return services, nil
}
