package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FailureKind buckets provider errors so the runner can report them
// uniformly regardless of which backend produced them.
type FailureKind string

const (
	FailureAuth        FailureKind = "auth_error"
	FailureRateLimited FailureKind = "rate_limited"
	FailureUnavailable FailureKind = "provider_unavailable"
	FailureMalformed   FailureKind = "malformed_response"
)

// Failure wraps a provider error with its classified kind.
type Failure struct {
	Kind    FailureKind
	Model   string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Model != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.Model, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure returns the classified failure if err carries one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func newFailure(kind FailureKind, model string, err error) *Failure {
	return &Failure{Kind: kind, Model: model, Message: err.Error(), Err: err}
}

func malformed(model, msg string) *Failure {
	return &Failure{Kind: FailureMalformed, Model: model, Message: msg}
}

// classify maps raw provider errors onto the failure taxonomy. Message
// matching is the only portable option here since each SDK wraps HTTP
// failures in its own error types.
func classify(model string, err error) *Failure {
	if f, ok := AsFailure(err); ok {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newFailure(FailureUnavailable, model, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key") ||
		strings.Contains(msg, "invalid x-api-key") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403"):
		return newFailure(FailureAuth, model, err)
	case strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429"):
		return newFailure(FailureRateLimited, model, err)
	case strings.Contains(msg, "not found") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "502") ||
		strings.Contains(msg, "503"):
		return newFailure(FailureUnavailable, model, err)
	default:
		return newFailure(FailureUnavailable, model, err)
	}
}
