package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authorization flow errors
	ErrBind                = fmt.Errorf("callback listener could not bind")
	ErrAuthorizationDenied = fmt.Errorf("authorization denied")
	ErrStateMismatch       = fmt.Errorf("state parameter mismatch")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Token errors
	ErrTokenExchange    = fmt.Errorf("token exchange failed")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Token store errors
	ErrRecordNotFound = fmt.Errorf("credential record not found")
	ErrCorruptRecord  = fmt.Errorf("credential record is corrupt")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNoMatch            = fmt.Errorf("no matching track")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
