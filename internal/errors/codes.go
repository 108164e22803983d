// Package errors provides structured error handling for the game domain.
package errors

import "net/http"

// Code is a machine-readable error code. The set is deliberately limited to
// codes the repo actually constructs; soft reducer rejections are surfaced
// as warn telemetry, not as coded errors.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Action errors, produced when decoding inbound envelopes.
	CodeActionUnknownType    Code = "ACTION_UNKNOWN_TYPE"
	CodeActionInvalidPayload Code = "ACTION_INVALID_PAYLOAD"

	// Rules errors, produced when loading a YAML preset.
	CodeRulesUnreadable Code = "RULES_UNREADABLE"
	CodeRulesInvalid    Code = "RULES_INVALID"

	// CodeSessionClosed wraps the transport error that ends a session.
	CodeSessionClosed Code = "SESSION_CLOSED"
)

// HTTPStatus maps domain codes to HTTP status codes for transport responses.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - malformed or invalid input documents
	case CodeActionUnknownType,
		CodeActionInvalidPayload,
		CodeRulesUnreadable,
		CodeRulesInvalid:
		return http.StatusBadRequest

	// Gone - the session existed but can no longer be used
	case CodeSessionClosed:
		return http.StatusGone

	default:
		return http.StatusInternalServerError
	}
}
