package llm

const (
	groqBaseURL       = "https://api.groq.com/openai"
	openAIBaseURL     = "https://api.openai.com"
	openRouterBaseURL = "https://openrouter.ai/api"
	ollamaBaseURL     = "http://localhost:11434"
)

// NewGroq is the default invoker; Groq hosts llama-3.3-70b-versatile behind
// an OpenAI-compatible endpoint.
func NewGroq(baseURL, apiKey, model string, maxTokens int) *OpenAICompatible {
	return newBearer(orDefault(baseURL, groqBaseURL), apiKey, model, maxTokens, nil)
}

func NewOpenAI(baseURL, apiKey, model string, maxTokens int) *OpenAICompatible {
	return newBearer(orDefault(baseURL, openAIBaseURL), apiKey, model, maxTokens, nil)
}

func NewOllama(baseURL, apiKey, model string, maxTokens int) *OpenAICompatible {
	return newBearer(orDefault(baseURL, ollamaBaseURL), apiKey, model, maxTokens, nil)
}

func NewCustomOpenAI(baseURL, apiKey, model string, maxTokens int) *OpenAICompatible {
	return newBearer(baseURL, apiKey, model, maxTokens, nil)
}

func newBearer(baseURL, apiKey, model string, maxTokens int, extra map[string]string) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		MaxTokens:    maxTokens,
		AuthHeader:   "Authorization",
		AuthPrefix:   "Bearer ",
		ExtraHeaders: extra,
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
