package entity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"
)

// ErrorReason classifies why a provider request failed.
type ErrorReason int32

const (
	// ErrorReason_Unknown is the zero value for unclassified errors.
	ErrorReason_Unknown ErrorReason = 0
	// ErrorReason_Auth is a missing or rejected credential (HTTP 401/403, or no key configured).
	ErrorReason_Auth ErrorReason = 1
	// ErrorReason_RateLimit is provider throttling (HTTP 429, overloaded).
	ErrorReason_RateLimit ErrorReason = 2
	// ErrorReason_Network is a transport failure: DNS, refused or reset connections, timeouts, gateway errors.
	ErrorReason_Network ErrorReason = 3
	// ErrorReason_Format is a rejected request (HTTP 400).
	ErrorReason_Format ErrorReason = 4
	// ErrorReason_ServerError is an internal provider failure (HTTP 500).
	ErrorReason_ServerError ErrorReason = 5
)

func (r ErrorReason) String() string {
	switch r {
	case ErrorReason_Unknown:
		return "unknown"
	case ErrorReason_Auth:
		return "auth"
	case ErrorReason_RateLimit:
		return "rate_limit"
	case ErrorReason_Network:
		return "network"
	case ErrorReason_Format:
		return "format"
	case ErrorReason_ServerError:
		return "server_error"
	default:
		return fmt.Sprintf("ErrorReason(%d)", r)
	}
}

// IsRetryable reports whether backing off and resending the same request may succeed.
func (r ErrorReason) IsRetryable() bool {
	return r == ErrorReason_RateLimit || r == ErrorReason_Network
}

// ProviderError is the structured error returned by the provider adapter.
type ProviderError struct {
	Reason     ErrorReason `json:"reason"`
	Provider   string      `json:"provider,omitempty"`
	Model      string      `json:"model,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Message    string      `json:"message"`
	Cause      error       `json:"-"`
}

var (
	// ErrAuth matches any ProviderError with the auth reason via errors.Is.
	ErrAuth = &ProviderError{Reason: ErrorReason_Auth}
	// ErrRateLimit matches any ProviderError with the rate limit reason.
	ErrRateLimit = &ProviderError{Reason: ErrorReason_RateLimit}
	// ErrNetwork matches any ProviderError with the network reason.
	ErrNetwork = &ProviderError{Reason: ErrorReason_Network}
)

func (e *ProviderError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", e.Reason))
	if e.Provider != "" || e.Model != "" {
		sb.WriteString(fmt.Sprintf(" %s/%s:", e.Provider, e.Model))
	}
	sb.WriteString(" ")
	sb.WriteString(e.Message)
	if e.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf(" (HTTP %d)", e.StatusCode))
	}
	return sb.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches a target that only carries a Reason.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	if t.Provider == "" && t.Model == "" && t.Message == "" {
		return e.Reason == t.Reason
	}
	return false
}

func NewAuthError(provider, model, message string) *ProviderError {
	return &ProviderError{Reason: ErrorReason_Auth, Provider: provider, Model: model, Message: message}
}

func NewRateLimitError(provider, model, message string) *ProviderError {
	return &ProviderError{Reason: ErrorReason_RateLimit, Provider: provider, Model: model, StatusCode: http.StatusTooManyRequests, Message: message}
}

func NewNetworkError(provider, model string, cause error) *ProviderError {
	return &ProviderError{Reason: ErrorReason_Network, Provider: provider, Model: model, Message: cause.Error(), Cause: cause}
}

func IsAuthError(err error) bool      { return errors.Is(err, ErrAuth) }
func IsRateLimitError(err error) bool { return errors.Is(err, ErrRateLimit) }
func IsNetworkError(err error) bool   { return errors.Is(err, ErrNetwork) }

// IsRetryable reports whether err is a ProviderError worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason.IsRetryable()
	}
	return false
}

// WrapProviderError classifies a raw SDK error into a ProviderError.
func WrapProviderError(err error, provider, model string) *ProviderError {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Provider == "" {
			pe.Provider = provider
		}
		if pe.Model == "" {
			pe.Model = model
		}
		return pe
	}

	return &ProviderError{
		Reason:     ClassifyError(err),
		Provider:   provider,
		Model:      model,
		StatusCode: extractStatusCode(err),
		Message:    err.Error(),
		Cause:      err,
	}
}

// ClassifyError determines the ErrorReason of a raw error.
// Layers: already classified, HTTP status, Go network error types, message patterns.
func ClassifyError(err error) ErrorReason {
	if err == nil {
		return ErrorReason_Unknown
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason
	}

	if status := extractStatusCode(err); status != 0 {
		if reason := classifyFromStatus(status); reason != ErrorReason_Unknown {
			return reason
		}
	}

	if isTransportError(err) {
		return ErrorReason_Network
	}

	return classifyFromMessage(err.Error())
}

func classifyFromStatus(status int) ErrorReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorReason_Auth
	case status == http.StatusTooManyRequests || status == 529:
		return ErrorReason_RateLimit
	case status == http.StatusRequestTimeout ||
		status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout:
		return ErrorReason_Network
	case status == http.StatusBadRequest:
		return ErrorReason_Format
	case status >= 500:
		return ErrorReason_ServerError
	default:
		return ErrorReason_Unknown
	}
}

func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func classifyFromMessage(msg string) ErrorReason {
	lower := strings.ToLower(msg)

	rateLimitPatterns := []string{
		"rate limit", "rate_limit", "ratelimit",
		"too many requests", "quota exceeded", "resource_exhausted",
		"resource exhausted", "overloaded", "throttl",
	}
	for _, p := range rateLimitPatterns {
		if strings.Contains(lower, p) {
			return ErrorReason_RateLimit
		}
	}

	authPatterns := []string{
		"unauthorized", "authentication", "invalid api key", "api key not valid",
		"invalid_api_key", "incorrect api key", "permission_denied", "forbidden",
	}
	for _, p := range authPatterns {
		if strings.Contains(lower, p) {
			return ErrorReason_Auth
		}
	}

	networkPatterns := []string{
		"timeout", "timed out", "deadline exceeded", "connection refused",
		"connection reset", "no such host", "broken pipe", "eof",
		"tls handshake", "network is unreachable", "service unavailable", "bad gateway",
	}
	for _, p := range networkPatterns {
		if strings.Contains(lower, p) {
			return ErrorReason_Network
		}
	}

	serverPatterns := []string{"internal server error", "internal error"}
	for _, p := range serverPatterns {
		if strings.Contains(lower, p) {
			return ErrorReason_ServerError
		}
	}

	return ErrorReason_Unknown
}

type statusCodeCarrier interface {
	StatusCode() int
}

// SDK error strings that embed the HTTP status.
var statusPatterns = []*regexp.Regexp{
	regexp.MustCompile(`status code:\s*(\d{3})`),
	regexp.MustCompile(`Error (\d{3}),`),
	regexp.MustCompile(`": (\d{3}) [A-Z]`),
	regexp.MustCompile(`\bHTTP (\d{3})\b`),
}

func extractStatusCode(err error) int {
	var c statusCodeCarrier
	if errors.As(err, &c) {
		return c.StatusCode()
	}
	msg := err.Error()
	for _, re := range statusPatterns {
		if m := re.FindStringSubmatch(msg); len(m) == 2 {
			if code, convErr := strconv.Atoi(m[1]); convErr == nil {
				return code
			}
		}
	}
	return 0
}
