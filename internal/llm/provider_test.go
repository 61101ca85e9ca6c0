package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func feedbackTestSchema() *Schema {
	return &Schema{
		Name:        "test-feedback",
		Description: "Narrative feedback",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":         map[string]any{"type": "string", "minLength": 1},
				"recommendations": map[string]any{"type": "string", "minLength": 1},
			},
			"required":             []any{"summary", "recommendations"},
			"additionalProperties": false,
		},
	}
}

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	first, err := mock.Generate(context.Background(), UserPrompt("", "first", nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first.Content) != `{"a":1}` || first.Usage.InputTokens != 10 || first.StopReason != "end" {
		t.Fatalf("unexpected first response %+v", first)
	}
	second, err := mock.Generate(context.Background(), UserPrompt("", "second", nil, 0))
	if err != nil || string(second.Content) != `{"b":2}` {
		t.Fatalf("unexpected second response %s (%v)", second.Content, err)
	}
	if mock.CallCount() != 2 || mock.Calls[1].Messages[0].Content != "second" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}
}

func TestMockProvider_EmptyQueue(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T", err)
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]string{"summary": "only"}))
	_, err := mock.Generate(context.Background(), UserPrompt("", "x", feedbackTestSchema(), 0))
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestDecode(t *testing.T) {
	type feedback struct {
		Summary         string `json:"summary"`
		Recommendations string `json:"recommendations"`
	}
	mock := NewMockProvider(MockJSON(feedback{Summary: "s", Recommendations: "r"}))
	resp, err := mock.Generate(context.Background(), UserPrompt("", "x", feedbackTestSchema(), 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Decode[feedback](resp)
	if err != nil || got.Summary != "s" || got.Recommendations != "r" {
		t.Fatalf("Decode = %+v (%v)", got, err)
	}

	if _, err := Decode[feedback](&Response{Content: json.RawMessage(`[1]`)}); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := Decode[feedback](nil); err == nil {
		t.Fatal("expected error for nil response")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if p := PurposeFrom(WithPurpose(ctx, PurposeFeedback)); p != "assessment-feedback" {
		t.Fatalf("expected 'assessment-feedback', got %q", p)
	}
}

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, e := range providerEnv {
		t.Setenv(e.key, "")
		t.Setenv(e.model, "")
		t.Setenv(e.vendorKey, "")
		if e.baseURL != "" {
			t.Setenv(e.baseURL, "")
		}
	}
	t.Setenv("ZUVY_LLM_PROVIDER", "")
	t.Setenv("ZUVY_LLM_TIMEOUT", "")
}

func TestConfigFromEnv(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("ZUVY_LLM_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")
	t.Setenv("ZUVY_OPENROUTER_MODEL", "openai/gpt-4o-mini")
	t.Setenv("ZUVY_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("ZUVY_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter {
		t.Fatalf("provider = %q", cfg.Provider)
	}
	if cfg.OpenRouter.APIKey != "sk-or" || cfg.Model() != "openai/gpt-4o-mini" {
		t.Fatalf("openrouter config = %+v", cfg.OpenRouter)
	}
	if cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("anthropic key not read")
	}
	if cfg.Timeout.Seconds() != 5 {
		t.Fatalf("timeout = %s", cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDiscoverConfig(t *testing.T) {
	clearLLMEnv(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-oai" {
		t.Fatalf("expected openai to win over anthropic, got %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"openrouter with key", Config{Provider: ProviderOpenRouter, OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"mock", Config{Provider: ProviderMock}, false},
		{"unknown", Config{Provider: "llama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model, got %q", p.ModelID())
	}

	cfg.Provider = ProviderOpenAI
	if _, err := NewProvider(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("expected error for openai without key")
	}
}

func TestCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	if !ok || math.Abs(cost-0.75) > 1e-9 {
		t.Fatalf("EstimateCost = %v, %v", cost, ok)
	}
	if c := LookupCost("google/gemini-2.0-flash-001"); c == nil || c.InputPerMTok != 0.1 {
		t.Fatalf("vendor prefix not stripped: %+v", c)
	}
	if _, ok := EstimateCost("mock", 10, 10); ok {
		t.Fatal("mock should not be priced")
	}
}
