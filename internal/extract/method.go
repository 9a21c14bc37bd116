package extract

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/models"
)

type Kind string

const (
	KindRegex    Kind = "regex"
	KindKeyValue Kind = "kv"
	KindPattern  Kind = "pattern"
	KindEnsemble Kind = "ensemble"

	KindLLMText         Kind = "llm-text"
	KindLLMTextPatterns Kind = "llm-text-patterns"
	KindLLMVision       Kind = "llm-vision"
)

// IsLLM reports whether the method calls a model and therefore needs a
// model name and credentials.
func IsLLM(kind Kind) bool {
	switch kind {
	case KindLLMText, KindLLMTextPatterns, KindLLMVision:
		return true
	}
	return false
}

// IsVision reports whether the method consumes page images instead of
// extracted text.
func IsVision(kind Kind) bool {
	return kind == KindLLMVision
}

// Input carries everything a method may need for one sample. Lines is
// the assembled reading-order text; Images holds PNG page renders for
// vision methods.
type Input struct {
	Sample *models.Sample
	Lines  []string
	Model  string
	Images [][]byte
}

// Method extracts an invoice document from one sample.
type Method interface {
	Kind() Kind
	Extract(ctx context.Context, in Input) (invoice.Document, error)
}

// Create builds a method from its kind and decoded params. The client
// is only consulted for LLM-backed kinds.
func Create(kind Kind, client Completer, params map[string]any) (Method, error) {
	switch kind {
	case KindRegex:
		return &regexMethod{}, nil
	case KindKeyValue:
		return &kvMethod{}, nil
	case KindPattern:
		return &patternMethod{}, nil
	case KindEnsemble:
		return &ensembleMethod{}, nil
	case KindLLMText, KindLLMTextPatterns, KindLLMVision:
		var v struct {
			MaxTokens int `mapstructure:"max_tokens"`
			ClipChars int `mapstructure:"clip_chars"`
		}
		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}
		if client == nil {
			return nil, fmt.Errorf("method %q requires an LLM client", kind)
		}
		if v.MaxTokens <= 0 {
			v.MaxTokens = 2000
		}
		if v.ClipChars <= 0 {
			v.ClipChars = 12000
		}
		return &llmMethod{kind: kind, client: client, maxTokens: v.MaxTokens, clipChars: v.ClipChars}, nil
	default:
		return nil, fmt.Errorf("unknown extraction method %q", kind)
	}
}
