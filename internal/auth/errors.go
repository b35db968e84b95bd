package auth

import (
	"fmt"

	"github.com/desertthunder/mcpspotify/internal/shared"
)

const maxErrorBody = 512

// TokenExchangeError is a non-2xx response to the authorization_code grant.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", shared.ErrTokenExchange, e.StatusCode, truncate(e.Body))
}

func (e *TokenExchangeError) Unwrap() error {
	return shared.ErrTokenExchange
}

// RefreshError is a non-2xx response to the refresh_token grant.
type RefreshError struct {
	StatusCode int
	Body       string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", shared.ErrRefreshFailed, e.StatusCode, truncate(e.Body))
}

func (e *RefreshError) Unwrap() error {
	return shared.ErrRefreshFailed
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
