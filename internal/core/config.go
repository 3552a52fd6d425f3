package core

import "time"

type PromptConfig interface {
	GetSystemPromptPath() string
}

type ConversationConfig interface {
	GetTokenBudget() int
	GetBusyPolicy() string
	GetIdleTimeout() time.Duration
}

type ProviderConfig interface {
	GetProvider() string
	GetModel() string
	GetAPIKey() string
	GetBaseURL() string
	GetMaxTokens() int
}
