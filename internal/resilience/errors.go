package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Class is the fallback classification of a failed model call.
type Class int

const (
	// Fatal aborts the fallback sequence immediately.
	Fatal Class = iota
	// Retryable moves on to the next candidate.
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

// ModelError is the provider-neutral failure returned by inference adapters.
type ModelError struct {
	Provider   string
	Model      string
	StatusCode int
	Status     string // provider status text, e.g. RESOURCE_EXHAUSTED
	Message    string
	Err        error
}

func (e *ModelError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	if e.Model != "" {
		fmt.Fprintf(&b, "model %s: ", e.Model)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "status %d", e.StatusCode)
		if e.Status != "" {
			fmt.Fprintf(&b, " %s", e.Status)
		}
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("model call failed")
	}
	return b.String()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// StatusCode returns the status code carried by err, or 0. It understands
// *ModelError and any error in the chain exposing StatusCode() int.
func StatusCode(err error) int {
	var me *ModelError
	if errors.As(err, &me) && me.StatusCode != 0 {
		return me.StatusCode
	}
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// retryablePatterns are lower-case message fragments signalling an unavailable
// model or an exhausted quota.
var retryablePatterns = []string{
	"not found",
	"quota",
	"exceeded",
	"rate limit",
}

// Classify decides whether a failed call should fall through to the next
// candidate. Only "model unavailable" (404) and "quota/rate exceeded" (429)
// conditions are retryable; everything else, including transport failures
// and bad credentials, is fatal.
func Classify(err error) Class {
	if err == nil {
		return Fatal
	}
	switch StatusCode(err) {
	case 404, 429:
		return Retryable
	}
	msg := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return Retryable
		}
	}
	return Fatal
}

// IsTransient returns true if the error matches common transient network
// patterns (timeouts, connection resets, DNS failures). Transport failures are
// not retried by the fallback policy; callers use this to report them as
// "try again" conditions.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
