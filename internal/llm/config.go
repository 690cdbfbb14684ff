package llm

import (
	"fmt"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderNone       = "none"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Config selects and configures the narrative provider.
type Config struct {
	// Provider is one of the Provider* names. "none" or empty disables the
	// narrative.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one narrative including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig is the backoff schedule for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig has the narrative disabled and small, cheap models
// selected for each provider.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderNone,
		Anthropic:  AnthropicConfig{Model: "claude-haiku-4-5"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-2.0-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromLookup builds a Config from DIACHECK_* keys resolved through
// get, keeping defaults for unset keys.
func ConfigFromLookup(get func(string) string) Config {
	cfg := DefaultConfig()

	set := func(dst *string, key string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Provider, "DIACHECK_LLM_PROVIDER")

	set(&cfg.Anthropic.APIKey, "DIACHECK_ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.Model, "DIACHECK_ANTHROPIC_MODEL")
	set(&cfg.Anthropic.BaseURL, "DIACHECK_ANTHROPIC_BASE_URL")

	set(&cfg.OpenAI.APIKey, "DIACHECK_OPENAI_API_KEY")
	set(&cfg.OpenAI.Model, "DIACHECK_OPENAI_MODEL")
	set(&cfg.OpenAI.BaseURL, "DIACHECK_OPENAI_BASE_URL")

	set(&cfg.Gemini.APIKey, "DIACHECK_GEMINI_API_KEY")
	set(&cfg.Gemini.Model, "DIACHECK_GEMINI_MODEL")
	set(&cfg.Gemini.BaseURL, "DIACHECK_GEMINI_BASE_URL")

	set(&cfg.OpenRouter.APIKey, "DIACHECK_OPENROUTER_API_KEY")
	set(&cfg.OpenRouter.Model, "DIACHECK_OPENROUTER_MODEL")
	set(&cfg.OpenRouter.BaseURL, "DIACHECK_OPENROUTER_BASE_URL")

	if t := get("DIACHECK_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderNone, "":
		return nil
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("DIACHECK_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
