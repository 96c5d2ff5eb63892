// Package apperror defines the sentinel errors the services return.
// HTTP handlers map them to status codes; everything else is a 500.
package apperror

import "errors"

var (
	// ErrNotFound covers missing chats and chats owned by someone else.
	// Handlers never distinguish the two cases.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded means a free-tier user already spent today's allowance.
	ErrQuotaExceeded = errors.New("daily message limit reached")

	// ErrInvalidInput covers missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCode covers unknown and already-used redeem codes alike.
	ErrInvalidCode = errors.New("invalid or already used code")

	// ErrGenerationFailed means the completion provider errored or returned
	// empty output. The round-trip persists nothing in this case.
	ErrGenerationFailed = errors.New("failed to generate chat response")
)
