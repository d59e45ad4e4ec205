// Package resilience implements the model fallback policy: an ordered list of
// candidate identifiers is tried one at a time, falling through on retryable
// failures and stopping on the first fatal one.
package resilience

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoCandidates is returned when Invoke is given an empty candidate list.
var ErrNoCandidates = eris.New("no model candidates configured")

// ExhaustedError is returned when every candidate failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Codes    []int // distinct status codes, in first-seen order
	Last     error
}

func (e *ExhaustedError) Error() string {
	codes := "none"
	if len(e.Codes) > 0 {
		parts := make([]string, len(e.Codes))
		for i, c := range e.Codes {
			parts[i] = strconv.Itoa(c)
		}
		codes = strings.Join(parts, ", ")
	}
	last := "<nil>"
	if e.Last != nil {
		last = e.Last.Error()
	}
	return fmt.Sprintf("no model reachable after %d attempts (codes: %s): %s", e.Attempts, codes, last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// FallbackConfig holds optional hooks for Invoke.
type FallbackConfig struct {
	// OnFallback is called after a retryable failure, before the next candidate.
	OnFallback func(candidate string, err error)
}

// Invoke calls op with each candidate in order and returns the first success
// together with the identifier that produced it. Candidates after a success
// are never called. A fatal error is returned immediately; if every candidate
// fails retryably the result is an *ExhaustedError.
func Invoke[T any](ctx context.Context, candidates []string, op func(ctx context.Context, candidate string) (T, error), opts ...FallbackConfig) (T, string, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, "", ErrNoCandidates
	}

	var cfg FallbackConfig
	if len(opts) > 0 {
		cfg = opts[0]
	}

	exhausted := &ExhaustedError{}
	seen := make(map[int]bool)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, "", eris.Wrap(err, "fallback: cancelled")
		}

		exhausted.Attempts++
		val, err := op(ctx, candidate)
		if err == nil {
			return val, candidate, nil
		}

		if Classify(err) == Fatal {
			return zero, "", eris.Wrapf(err, "fallback: %s", candidate)
		}

		if code := StatusCode(err); code != 0 && !seen[code] {
			seen[code] = true
			exhausted.Codes = append(exhausted.Codes, code)
		}
		exhausted.Last = err

		if cfg.OnFallback != nil {
			cfg.OnFallback(candidate, err)
		}
	}

	return zero, "", exhausted
}

// FallbackLogger returns an OnFallback hook that logs each skipped candidate.
func FallbackLogger(task string) func(string, error) {
	return func(candidate string, err error) {
		zap.L().Warn("model unavailable, trying next candidate",
			zap.String("task", task),
			zap.String("model", candidate),
			zap.Int("status", StatusCode(err)),
			zap.Error(err),
		)
	}
}
