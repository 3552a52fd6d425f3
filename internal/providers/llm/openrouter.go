package llm

import "github.com/sandevgo/tutorbot/internal/core"

// NewOpenRouter attaches the attribution headers OpenRouter uses for its
// app rankings.
func NewOpenRouter(baseURL, apiKey, model string, maxTokens int) *OpenAICompatible {
	return newBearer(orDefault(baseURL, openRouterBaseURL), apiKey, model, maxTokens, map[string]string{
		"HTTP-Referer": core.TutorRepositoryURL,
		"X-Title":      core.TutorName,
	})
}
