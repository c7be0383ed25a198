// Package gameerr provides the typed refusal errors returned by the game core.
//
// Every refusal carries a machine-readable Code and an in-fiction narrative
// that the chat layer can show to the player as-is.
package gameerr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an error that did not originate in the game core.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound covers unknown templates, unknown bosses and missing realm sessions.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidState covers actions the current player or session state forbids.
	CodeInvalidState Code = "INVALID_STATE"

	// CodeInsufficientResource covers gold or other funds running short.
	CodeInsufficientResource Code = "INSUFFICIENT_RESOURCE"

	// CodeInvalidInput covers out-of-range choice ids and unknown names.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeGenerationFailure covers empty template pools and failed instantiation.
	CodeGenerationFailure Code = "GENERATION_FAILURE"
)

// Error is a refusal raised by the game core.
type Error struct {
	Code      Code
	Narrative string
	Metadata  map[string]string
	Cause     error
}

// New creates a refusal with the given code and narrative.
func New(code Code, narrative string) *Error {
	return &Error{Code: code, Narrative: narrative}
}

// Newf creates a refusal with a formatted narrative.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Narrative: fmt.Sprintf(format, args...)}
}

// Wrap creates a refusal that keeps the underlying cause for errors.Is/As.
func Wrap(code Code, narrative string, cause error) *Error {
	return &Error{Code: code, Narrative: narrative, Cause: cause}
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *Error) WithMetadata(key, value string) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Narrative, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Narrative)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a game refusal.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Narrative returns the player-facing text for err. Errors that are not game
// refusals get a generic in-fiction apology so raw errors never leak to chat.
func Narrative(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Narrative
	}
	return "天地灵气紊乱，此番行动未能成功，请稍后再试。"
}
