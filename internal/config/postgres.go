package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tutorbot/pkg/log"
)

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN,required,notEmpty" secret:"true"`
}

func NewPostgresConfig(ctx context.Context) *PostgresConfig {
	c := &PostgresConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Postgres config")
	}
	return c
}
