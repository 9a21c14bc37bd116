package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakubGal/invoice-eval/internal/models"
)

func testConfig() models.LLMConfig {
	return models.LLMConfig{
		APIKey:       "sk-primary",
		BaseURL:      "https://api.primary.example/v1",
		GeminiKey:    "gm-key",
		AnthropicKey: "at-key",
		AltTokens:    []string{"mini", "local"},
		AltAPIKey:    "sk-alt",
		AltBaseURL:   "https://alt.example/v1",
		TimeoutSec:   5,
	}
}

func TestRouterProviderDispatch(t *testing.T) {
	router := NewRouter(testConfig())

	tests := []struct {
		model string
		want  any
	}{
		{"gemini-2.0-flash", &geminiClient{}},
		{"claude-sonnet-4-20250514", &anthropicClient{}},
		{"gpt-4o", &openAIClient{}},
		{"openrouter/gemini-pro", &openAIClient{}},
		{"vendor/claude-3", &openAIClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			client, err := router.ClientFor(tt.model)
			require.NoError(t, err)
			assert.IsType(t, tt.want, client)
		})
	}
}

func TestRouterMissingKeys(t *testing.T) {
	router := NewRouter(models.LLMConfig{})

	for _, model := range []string{"gemini-2.0-flash", "claude-3-haiku", "gpt-4o"} {
		_, err := router.ClientFor(model)
		f, ok := AsFailure(err)
		require.True(t, ok, model)
		assert.Equal(t, FailureAuth, f.Kind)
	}
}

func TestRouterAltCredentials(t *testing.T) {
	router := NewRouter(testConfig())

	key, baseURL := router.openAICredentials("gpt-4o-mini")
	assert.Equal(t, "sk-alt", key)
	assert.Equal(t, "https://alt.example/v1", baseURL)

	key, baseURL = router.openAICredentials("gpt-4o")
	assert.Equal(t, "sk-primary", key)
	assert.Equal(t, "https://api.primary.example/v1", baseURL)
}

func TestRouterAltCredentialsFallBackToPrimary(t *testing.T) {
	cfg := testConfig()
	cfg.AltAPIKey = ""
	cfg.AltBaseURL = ""
	router := NewRouter(cfg)

	key, baseURL := router.openAICredentials("local-llama")
	assert.Equal(t, "sk-primary", key)
	assert.Equal(t, "https://api.primary.example/v1", baseURL)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"unauthorized", errors.New("401 unauthorized"), FailureAuth},
		{"bad key", errors.New("incorrect API key provided"), FailureAuth},
		{"rate limit", errors.New("429 rate limit exceeded"), FailureRateLimited},
		{"quota", errors.New("insufficient_quota for this month"), FailureRateLimited},
		{"model missing", errors.New("model gpt-9 not found"), FailureUnavailable},
		{"overloaded", errors.New("server overloaded, try again"), FailureUnavailable},
		{"deadline", context.DeadlineExceeded, FailureUnavailable},
		{"unknown", errors.New("something odd happened"), FailureUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := classify("m", tt.err)
			assert.Equal(t, tt.want, f.Kind)
		})
	}
}

func TestClassifyPreservesExistingFailure(t *testing.T) {
	orig := malformed("m", "broken JSON")
	f := classify("m", orig)
	assert.Same(t, orig, f)
}
