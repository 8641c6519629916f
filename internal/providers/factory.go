package providers

import (
	"fmt"
	"os"

	"github.com/ChamsBouzaiene/autodev/internal/config"
	"github.com/ChamsBouzaiene/autodev/internal/engine"
)

// openAICompatible lists providers reached through the OpenAI wire format.
var openAICompatible = map[string]struct {
	keyEnv, baseURLEnv, defaultBaseURL, defaultKey string
}{
	"ollama":   {"OLLAMA_API_KEY", "OLLAMA_BASE_URL", "http://localhost:11434/v1", "ollama"},
	"lmstudio": {"LMSTUDIO_API_KEY", "LMSTUDIO_BASE_URL", "http://localhost:1234/v1", "lm-studio"},
	"deepseek": {"DEEPSEEK_API_KEY", "", "https://api.deepseek.com/v1", ""},
	"groq":     {"GROQ_API_KEY", "", "https://api.groq.com/openai/v1", ""},
}

// NewLLMClient creates an engine.LLMClient from the llm config section.
// Empty fields fall back to the provider's usual environment variables.
// It returns the client and the model name requests should use.
func NewLLMClient(cfg config.LLMConfig) (engine.LLMClient, string, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	apiKey := cfg.APIKey.Value()
	model := cfg.Model

	switch provider {
	case "openai":
		apiKey = firstNonEmpty(apiKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		model = firstNonEmpty(model, os.Getenv("OPENAI_MODEL"), "gpt-4")
		baseURL := firstNonEmpty(cfg.BaseURL, os.Getenv("OPENAI_BASE_URL"))

		client, err := NewOpenAIClient(apiKey, model, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, model, nil

	case "azure":
		apiKey = firstNonEmpty(apiKey, os.Getenv("AZURE_OPENAI_GPT4_KEY"))
		if apiKey == "" {
			return nil, "", fmt.Errorf("AZURE_OPENAI_GPT4_KEY not set")
		}
		endpoint := firstNonEmpty(cfg.BaseURL, os.Getenv("AZURE_OPENAI_GPT4_ENDPOINT"))
		deployment := firstNonEmpty(cfg.AzureDeployment, os.Getenv("AZURE_OPENAI_GPT4_DEPLOYMENT"))
		apiVersion := firstNonEmpty(cfg.AzureAPIVersion, os.Getenv("AZURE_OPENAI_GPT4_API_VERSION"))

		client, err := NewAzureOpenAIClient(apiKey, endpoint, deployment, apiVersion)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Azure OpenAI client: %w", err)
		}
		return client, firstNonEmpty(model, deployment), nil

	case "anthropic":
		apiKey = firstNonEmpty(apiKey, os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		if model == "" || model == "gpt-4" {
			model = firstNonEmpty(os.Getenv("ANTHROPIC_MODEL"), "claude-3-5-sonnet-latest")
		}

		client, err := NewAnthropicClient(apiKey, model)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, model, nil
	}

	compat, ok := openAICompatible[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown llm provider: %s (supported: openai, azure, anthropic, ollama, lmstudio, deepseek, groq)", provider)
	}
	apiKey = firstNonEmpty(apiKey, os.Getenv(compat.keyEnv), compat.defaultKey)
	if apiKey == "" {
		return nil, "", fmt.Errorf("%s not set", compat.keyEnv)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" && compat.baseURLEnv != "" {
		baseURL = os.Getenv(compat.baseURLEnv)
	}
	baseURL = firstNonEmpty(baseURL, compat.defaultBaseURL)
	if model == "" {
		return nil, "", fmt.Errorf("llm.model is required for provider %s", provider)
	}

	client, err := NewOpenAIClient(apiKey, model, baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, model, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
