package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// Credential is the token bundle persisted between runs.
//
// TokenType, Scope and ExpiresIn are passed through from the provider. ExpiresAt is derived locally
// from ExpiresIn (unix seconds, zero when unknown).
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// TokenResponse is the body of a refresh_token grant. Only AccessToken is guaranteed.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// WithRefresh returns a copy of c carrying the refreshed access token.
//
// The refresh token is kept unless the provider rotated it. TokenType and Scope are untouched.
// Expiry is replaced when the response reports one and cleared otherwise, since the old value
// described the old token.
func (c Credential) WithRefresh(r *TokenResponse, now time.Time) Credential {
	c.AccessToken = r.AccessToken
	if r.RefreshToken != "" {
		c.RefreshToken = r.RefreshToken
	}
	if r.ExpiresIn > 0 {
		c.ExpiresIn = r.ExpiresIn
		c.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second).Unix()
	} else {
		c.ExpiresIn = 0
		c.ExpiresAt = 0
	}
	return c
}

// stamp fills ExpiresAt from ExpiresIn.
func (c Credential) stamp(now time.Time) Credential {
	if c.ExpiresIn > 0 {
		c.ExpiresAt = now.Add(time.Duration(c.ExpiresIn) * time.Second).Unix()
	}
	return c
}

// Fresh reports whether the access token is known to outlive now+buffer.
// An unknown expiry is never fresh.
func (c Credential) Fresh(now time.Time, buffer time.Duration) bool {
	if c.AccessToken == "" || c.ExpiresAt == 0 {
		return false
	}
	return now.Add(buffer).Before(time.Unix(c.ExpiresAt, 0))
}

// OAuth2Token converts c for use with [oauth2.Transport].
func (c Credential) OAuth2Token() *oauth2.Token {
	tokenType := c.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	token := &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    tokenType,
		RefreshToken: c.RefreshToken,
	}
	if c.ExpiresAt > 0 {
		token.Expiry = time.Unix(c.ExpiresAt, 0)
	}
	return token
}
