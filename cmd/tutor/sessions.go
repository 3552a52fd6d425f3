package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var sessionsUser string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:          "ls",
	Short:        "List sessions, most recent first",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.conv.ListSessions(ctx, userOr(sessionsUser, a.cfg.DefaultUser))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\n", s.ID, s.CreatedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

var sessionsRemoveCmd = &cobra.Command{
	Use:          "rm <id>",
	Short:        "Delete a session and its history",
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

		if err := a.conv.DeleteSession(ctx, userOr(sessionsUser, a.cfg.DefaultUser), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func userOr(user, fallback string) string {
	if user != "" {
		return user
	}
	return fallback
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&sessionsUser, "user", "u", "", "user id (defaults to TUTOR_USER)")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsRemoveCmd)
	rootCmd.AddCommand(sessionsCmd)
}
