package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	RuntimePath string `env:"TUTOR_RUNTIME_PATH" envDefault:".tutorbot"`
	Debug       bool   `env:"TUTOR_DEBUG" envDefault:"false"`

	// Storage backend: sqlite, postgres or memory
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`

	// Conversation
	TokenBudget      int           `env:"TOKEN_BUDGET" envDefault:"1000"`
	IdleTimeout      time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	BusyPolicy       string        `env:"SESSION_BUSY_POLICY" envDefault:"queue"`
	SystemPromptPath string        `env:"SYSTEM_PROMPT_PATH"`
	DefaultUser      string        `env:"TUTOR_USER" envDefault:"local"`

	// Transport flags
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`
	MetricsAddr    string `env:"METRICS_ADDR"`
}

func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveHome(c.RuntimePath)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c AppConfig) Validate() error {
	switch c.StorageDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.BusyPolicy {
	case "queue", "reject":
	default:
		return fmt.Errorf("unknown SESSION_BUSY_POLICY %q", c.BusyPolicy)
	}
	if c.TokenBudget <= 0 {
		return fmt.Errorf("TOKEN_BUDGET must be positive, got %d", c.TokenBudget)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.IdleTimeout)
	}
	return nil
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetSystemPromptPath() string {
	if c.SystemPromptPath != "" {
		return c.SystemPromptPath
	}
	return filepath.Join(c.RuntimePath, "SYSTEM.md")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "tutorbot.db")
}

func (c AppConfig) GetTokenBudget() int {
	return c.TokenBudget
}

func (c AppConfig) GetBusyPolicy() string {
	return c.BusyPolicy
}

func (c AppConfig) GetIdleTimeout() time.Duration {
	return c.IdleTimeout
}
