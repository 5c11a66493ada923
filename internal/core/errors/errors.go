// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Lookup errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrUserNotFound indicates the user has no settings row.
	ErrUserNotFound = errors.New("user not found")

	// ErrBridgeNotFound indicates the user has no bridge for the service.
	ErrBridgeNotFound = errors.New("bridge not found")

	// ErrBridgeNotConnected indicates the bridge exists but is not connected.
	ErrBridgeNotConnected = errors.New("bridge is not connected")
)

// Client and connection errors.
var (
	// ErrClientNotInitialized indicates a client has not been initialized.
	ErrClientNotInitialized = errors.New("client not initialized")

	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")
)

// LLM errors. Call errors and parse errors are kept apart so callers can pick
// different fallbacks for each.
var (
	// ErrLLMCall indicates the completion request itself failed.
	ErrLLMCall = errors.New("llm call failed")

	// ErrLLMParse indicates the response could not be decoded.
	ErrLLMParse = errors.New("llm response parse failed")

	// ErrSchemaViolation indicates a decoded tool call broke its schema.
	ErrSchemaViolation = errors.New("llm response violates schema")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDigestHour indicates a digest slot hour outside 0-23 or malformed.
	ErrInvalidDigestHour = errors.New("invalid digest hour")

	// ErrInvalidTimezone indicates an unknown timezone name.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Notification errors.
var (
	// ErrInsufficientCredits indicates the user cannot afford the notification.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrSendFailed indicates the provider rejected the notification.
	ErrSendFailed = errors.New("notification send failed")

	// ErrRateLimited indicates rate limiting was triggered.
	ErrRateLimited = errors.New("rate limited")
)

// Ingest errors.
var (
	// ErrUnauthorized indicates a missing or wrong ingest token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownService indicates a room or sender that maps to no bridge service.
	ErrUnknownService = errors.New("unknown bridge service")
)
