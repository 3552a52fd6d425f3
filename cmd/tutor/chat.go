package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/tutorbot/internal/transport/cli"
	"github.com/sandevgo/tutorbot/pkg/log"
	"github.com/spf13/cobra"
)

var (
	chatSession string
	chatUser    string
	chatStream  bool
)

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Chat with the tutor in the terminal",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		user := chatUser
		if user == "" {
			user = a.cfg.DefaultUser
		}

		chat, err := cli.NewChat(a.conv, a.router, cli.Options{
			RuntimePath: a.cfg.GetRuntimePath(),
			UserID:      user,
			SessionID:   chatSession,
			Stream:      chatStream,
		})
		if err != nil {
			return err
		}
		defer chat.Close()

		err = chat.Run(ctx)
		if id := chat.SessionID(); id != "" {
			log.FromCtx(ctx).Info().Str("session_id", id).Msg("resume with: tutor chat --session " + id)
		}
		return err
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session to resume")
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user id (defaults to TUTOR_USER)")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "print the reply as it is generated")
	rootCmd.AddCommand(chatCmd)
}
