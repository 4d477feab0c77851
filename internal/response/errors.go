package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Client identity ───────────────────────────────────────────────
	ErrClientIDRequired ErrCode = "CLIENT_ID_REQUIRED"
	ErrInvalidClientID  ErrCode = "INVALID_CLIENT_ID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound    ErrCode = "NOT_FOUND"
	ErrSetNotFound ErrCode = "QUESTION_SET_NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Client identity ───────────────────────────────────────────────
	case ErrClientIDRequired:
		return "A client id is required (X-Client-ID header or client_id query)."
	case ErrInvalidClientID:
		return "Client id must be 8-64 letters, digits, '-' or '_'."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrSetNotFound:
		return "Question set not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}
