package constants

// Context keys shared between middleware and handlers.
const (
	ContextKeyUser   = "current_user"
	ContextKeyUserID = "user_id"
)

const MinPasswordLength = 8

// Pagination bounds for list endpoints.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
