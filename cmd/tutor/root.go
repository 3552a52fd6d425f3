package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tutorbot/internal/config"
	"github.com/sandevgo/tutorbot/internal/transport/cli"
	"github.com/sandevgo/tutorbot/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "TutorBot - a conversational language tutor",
	Long:  `TutorBot keeps per-session conversations with a language model, trimmed to a token budget.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

// setupLogger loads the runtime .env first so TUTOR_DEBUG from it applies.
func setupLogger(ctx context.Context) (context.Context, func()) {
	envErr := loadEnv()

	ctx, flush := log.NewContextWithLogger(ctx, debug || config.IsDebug())
	logger := log.FromCtx(ctx)
	if envErr != nil {
		logger.Warn().Err(envErr).Str("path", config.GetEnvFilePath()).Msg("failed to load .env file")
	}
	return ctx, flush
}

func loadEnv() error {
	envFile := config.GetEnvFilePath()
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(envFile)
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return cli.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return cli.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return cli.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return cli.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces | StyleFlag}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
