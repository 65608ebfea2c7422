package core

// Error codes surfaced to clients.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeInternal   = "internal_error"
	ErrCodeRateLimit  = "rate_limited"
)

// Error wraps a code and human-readable message delivered to one client.
type Error struct {
	Code    string
	Message string
	Event   string
}

func (e *Error) Error() string {
	return e.Message
}
