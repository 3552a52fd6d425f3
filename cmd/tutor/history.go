package main

import (
	"fmt"

	"github.com/sandevgo/tutorbot/internal/transport/cli"
	"github.com/spf13/cobra"
)

var historyUser string

var historyCmd = &cobra.Command{
	Use:          "history <session-id>",
	Short:        "Print the stored turns of a session",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		turns, err := a.conv.History(ctx, userOr(historyUser, a.cfg.DefaultUser), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, t := range turns {
			fmt.Fprintf(out, "%s %s\n%s\n\n",
				cli.DescStyle.Render(fmt.Sprintf("#%d", t.Seq)),
				cli.TitleStyle.UnsetMarginBottom().Render(string(t.Role)),
				t.Content,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "user id (defaults to TUTOR_USER)")
	rootCmd.AddCommand(historyCmd)
}
