package models

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Known text sources and extraction method kinds, used by spec validation.
var (
	KnownSources = []string{"pdf-text", "tesseract", "easyocr", "ocr-json"}
	KnownMethods = []string{"regex", "kv", "pattern", "ensemble", "llm-text", "llm-text-patterns", "llm-vision"}
)

// RunSpec describes an evaluation run: which dataset, which text sources,
// which extraction methods, and which models to compare.
type RunSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	DatasetDir  string `yaml:"dataset"`
	Config      RunConfig `yaml:"config"`
	LLM         LLMConfig `yaml:"llm,omitempty"`
}

// RunConfig controls execution behavior.
type RunConfig struct {
	Sources     []string `yaml:"sources" json:"sources"`
	Methods     []string `yaml:"methods" json:"methods"`
	Models      []string `yaml:"models,omitempty" json:"models,omitempty"`
	Workers     int      `yaml:"max_workers,omitempty" json:"workers,omitempty"`
	SampleLimit int      `yaml:"sample_limit,omitempty" json:"sample_limit,omitempty"`
	Shuffle     bool     `yaml:"shuffle,omitempty" json:"shuffle,omitempty"`
	Seed        int64    `yaml:"seed,omitempty" json:"seed,omitempty"`
	VisibleOnly bool     `yaml:"visible_only,omitempty" json:"visible_only,omitempty"`

	// Scoring knobs. Zero values fall back to the defaults in Normalize.
	AmountTolerance float64 `yaml:"amount_tolerance,omitempty" json:"amount_tolerance,omitempty"`
	NumberTolerance float64 `yaml:"number_tolerance,omitempty" json:"number_tolerance,omitempty"`
	TextThreshold   float64 `yaml:"text_similarity_threshold,omitempty" json:"text_threshold,omitempty"`
	ItemThreshold   float64 `yaml:"item_match_threshold,omitempty" json:"item_threshold,omitempty"`
	WorstExamples   int     `yaml:"worst_examples,omitempty" json:"worst_examples,omitempty"`
}

// LLMConfig holds provider credentials and call limits. Keys left empty in
// the spec resolve from the environment once, at run start.
type LLMConfig struct {
	APIKey       string `yaml:"api_key,omitempty" json:"-"`
	BaseURL      string `yaml:"api_base_url,omitempty" json:"api_base_url,omitempty"`
	GeminiKey    string `yaml:"gemini_api_key,omitempty" json:"-"`
	AnthropicKey string `yaml:"anthropic_api_key,omitempty" json:"-"`

	// Models whose name contains one of AltTokens route to the alternate
	// OpenAI-compatible endpoint below.
	AltTokens  []string `yaml:"alt_model_tokens,omitempty" json:"alt_model_tokens,omitempty"`
	AltAPIKey  string   `yaml:"alt_api_key,omitempty" json:"-"`
	AltBaseURL string   `yaml:"alt_api_base_url,omitempty" json:"alt_api_base_url,omitempty"`

	MaxTokens  int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	TimeoutSec int `yaml:"timeout_seconds,omitempty" json:"timeout_sec,omitempty"`
}

// LoadRunSpec loads and validates a run spec from a YAML file.
func LoadRunSpec(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing run spec %s: %w", path, err)
	}

	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Normalize fills defaults and resolves credentials from the environment.
func (s *RunSpec) Normalize() {
	if len(s.Config.Sources) == 0 {
		s.Config.Sources = []string{"pdf-text"}
	}
	if len(s.Config.Methods) == 0 {
		s.Config.Methods = []string{"regex", "kv", "pattern", "ensemble"}
	}
	if s.Config.Workers <= 0 {
		s.Config.Workers = 4
	}
	if s.Config.AmountTolerance <= 0 {
		s.Config.AmountTolerance = 0.01
	}
	if s.Config.NumberTolerance <= 0 {
		s.Config.NumberTolerance = 0.5
	}
	if s.Config.TextThreshold <= 0 {
		s.Config.TextThreshold = 0.5
	}
	if s.Config.ItemThreshold <= 0 {
		s.Config.ItemThreshold = 0.5
	}
	if s.Config.WorstExamples <= 0 {
		s.Config.WorstExamples = 5
	}
	if s.LLM.MaxTokens <= 0 {
		s.LLM.MaxTokens = 2000
	}
	if s.LLM.TimeoutSec <= 0 {
		s.LLM.TimeoutSec = 120
	}
	if s.LLM.APIKey == "" {
		s.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if s.LLM.GeminiKey == "" {
		s.LLM.GeminiKey = os.Getenv("GEMINI_API_KEY")
	}
	if s.LLM.AnthropicKey == "" {
		s.LLM.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate checks that the spec names a dataset and only known sources
// and methods.
func (s *RunSpec) Validate() error {
	if s.DatasetDir == "" {
		return fmt.Errorf("run spec must name a dataset directory")
	}
	for _, src := range s.Config.Sources {
		if !contains(KnownSources, src) {
			return fmt.Errorf("unknown text source %q (known: %s)", src, strings.Join(KnownSources, ", "))
		}
	}
	needsModel := false
	for _, method := range s.Config.Methods {
		if !contains(KnownMethods, method) {
			return fmt.Errorf("unknown extraction method %q (known: %s)", method, strings.Join(KnownMethods, ", "))
		}
		if strings.HasPrefix(method, "llm-") {
			needsModel = true
		}
	}
	if needsModel && len(s.Config.Models) == 0 {
		return fmt.Errorf("llm methods configured but no models listed")
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}
