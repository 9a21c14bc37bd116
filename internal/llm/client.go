package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// Request is one completion call. Images, when set, are PNG page
// renders attached alongside the prompt.
type Request struct {
	Model     string
	System    string
	Prompt    string
	Images    [][]byte
	MaxTokens int
	JSONMode  bool
}

// Client sends a completion request and returns the raw response text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Router picks a provider client per model name. Names starting with
// "gemini" or "claude" go to the Google and Anthropic backends; every
// other name, including vendor-prefixed ones like "openrouter/foo",
// goes to the OpenAI-compatible endpoint.
type Router struct {
	cfg     models.LLMConfig
	timeout time.Duration
}

func NewRouter(cfg models.LLMConfig) *Router {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Router{cfg: cfg, timeout: timeout}
}

func (r *Router) Timeout() time.Duration {
	return r.timeout
}

// ClientFor resolves the provider and credentials for a model name.
func (r *Router) ClientFor(model string) (Client, error) {
	vendorPrefixed := strings.Contains(model, "/")

	switch {
	case strings.HasPrefix(model, "gemini") && !vendorPrefixed:
		if r.cfg.GeminiKey == "" {
			return nil, &Failure{Kind: FailureAuth, Model: model, Message: "no Gemini API key configured"}
		}
		return newGeminiClient(r.cfg.GeminiKey), nil

	case strings.HasPrefix(model, "claude") && !vendorPrefixed:
		if r.cfg.AnthropicKey == "" {
			return nil, &Failure{Kind: FailureAuth, Model: model, Message: "no Anthropic API key configured"}
		}
		return newAnthropicClient(r.cfg.AnthropicKey), nil

	default:
		key, baseURL := r.openAICredentials(model)
		if key == "" {
			return nil, &Failure{Kind: FailureAuth, Model: model, Message: "no API key configured"}
		}
		return newOpenAIClient(key, baseURL), nil
	}
}

// openAICredentials returns the key and base URL for an
// OpenAI-compatible model, switching to the alternate credentials when
// the model name contains one of the configured alt tokens.
func (r *Router) openAICredentials(model string) (string, string) {
	lower := strings.ToLower(model)
	for _, token := range r.cfg.AltTokens {
		token = strings.TrimSpace(strings.ToLower(token))
		if token == "" {
			continue
		}
		if strings.Contains(lower, token) {
			key := r.cfg.AltAPIKey
			if key == "" {
				key = r.cfg.APIKey
			}
			baseURL := r.cfg.AltBaseURL
			if baseURL == "" {
				baseURL = r.cfg.BaseURL
			}
			return key, baseURL
		}
	}
	return r.cfg.APIKey, r.cfg.BaseURL
}

// Complete routes the request and classifies any provider error.
func (r *Router) Complete(ctx context.Context, req Request) (string, error) {
	client, err := r.ClientFor(req.Model)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := client.Complete(ctx, req)
	if err != nil {
		return "", classify(req.Model, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", malformed(req.Model, "empty completion")
	}
	return text, nil
}

func imageDataURI(png []byte) string {
	return fmt.Sprintf("data:image/png;base64,%s", encodeBase64(png))
}
