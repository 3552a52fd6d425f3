package main

import (
	"fmt"

	"github.com/sandevgo/tutorbot/internal/config"
	"github.com/sandevgo/tutorbot/pkg/env"
	"github.com/spf13/cobra"
)

var showSecrets bool

var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Print the effective configuration as .env lines",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		appCfg, err := config.ParseAppConfig()
		if err != nil {
			return err
		}
		providerCfg, err := config.ParseProviderConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, c := range []any{appCfg, providerCfg} {
			s, err := env.MarshalEnv(c, !showSecrets)
			if err != nil {
				return err
			}
			fmt.Fprint(out, s)
		}
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print API keys unmasked")
	rootCmd.AddCommand(configCmd)
}
