package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by ZUVY_LLM_PROVIDER.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures one provider.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig drives exponential backoff between attempts.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses Anthropic's small model. Feedback narratives are short,
// so the cheapest tier of each vendor is the default.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 45 * time.Second,
	}
}

// providerEnv lists, per provider, the ZUVY_* variables and the vendor's
// standard key variable. Order is the discovery priority.
var providerEnv = []struct {
	name      string
	key       string
	model     string
	baseURL   string
	vendorKey string
}{
	{ProviderGemini, "ZUVY_GEMINI_API_KEY", "ZUVY_GEMINI_MODEL", "", "GEMINI_API_KEY"},
	{ProviderOpenAI, "ZUVY_OPENAI_API_KEY", "ZUVY_OPENAI_MODEL", "ZUVY_OPENAI_BASE_URL", "OPENAI_API_KEY"},
	{ProviderAnthropic, "ZUVY_ANTHROPIC_API_KEY", "ZUVY_ANTHROPIC_MODEL", "", "ANTHROPIC_API_KEY"},
	{ProviderOpenRouter, "ZUVY_OPENROUTER_API_KEY", "ZUVY_OPENROUTER_MODEL", "ZUVY_OPENROUTER_BASE_URL", "OPENROUTER_API_KEY"},
}

// fields returns pointers to the key, model and base URL of provider name.
// baseURL is nil for providers without one.
func (c *Config) fields(name string) (key, model, baseURL *string) {
	switch name {
	case ProviderAnthropic:
		return &c.Anthropic.APIKey, &c.Anthropic.Model, nil
	case ProviderOpenAI:
		return &c.OpenAI.APIKey, &c.OpenAI.Model, &c.OpenAI.BaseURL
	case ProviderGemini:
		return &c.Gemini.APIKey, &c.Gemini.Model, nil
	case ProviderOpenRouter:
		return &c.OpenRouter.APIKey, &c.OpenRouter.Model, &c.OpenRouter.BaseURL
	}
	return nil, nil, nil
}

// ConfigFromEnv reads ZUVY_LLM_PROVIDER and the ZUVY_<VENDOR>_* variables.
// A vendor's standard key variable fills in a missing ZUVY_ key.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if p := os.Getenv("ZUVY_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	for _, e := range providerEnv {
		key, model, baseURL := cfg.fields(e.name)
		*key = firstEnv(e.key, e.vendorKey)
		if m := os.Getenv(e.model); m != "" {
			*model = m
		}
		if baseURL != nil && e.baseURL != "" {
			*baseURL = os.Getenv(e.baseURL)
		}
	}
	if v := os.Getenv("ZUVY_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// DiscoverConfig picks the first provider whose standard key variable is
// set (Gemini, OpenAI, Anthropic, OpenRouter). It reports false when none is.
func DiscoverConfig() (Config, bool) {
	for _, e := range providerEnv {
		k := os.Getenv(e.vendorKey)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = e.name
		key, _, _ := cfg.fields(e.name)
		*key = k
		return cfg, true
	}
	return Config{}, false
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	for _, e := range providerEnv {
		if e.name != c.Provider {
			continue
		}
		key, _, _ := c.fields(e.name)
		if *key == "" {
			return fmt.Errorf("%s (or %s) is required for the %s provider", e.key, e.vendorKey, e.name)
		}
		return nil
	}
	return fmt.Errorf("unknown LLM provider: %q", c.Provider)
}

// Model returns the configured model name of the selected provider.
func (c Config) Model() string {
	if c.Provider == ProviderMock {
		return "mock"
	}
	_, model, _ := c.fields(c.Provider)
	if model == nil {
		return ""
	}
	return *model
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
