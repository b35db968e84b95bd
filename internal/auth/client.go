package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/mcpspotify/internal/shared"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// DefaultScopes lets the MCP tools read the profile and write playlists.
var DefaultScopes = []string{
	"user-read-private",
	"playlist-modify-public",
	"playlist-modify-private",
}

// ClientConfig identifies the application to the authorization server.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// ClientConfigFrom builds a [ClientConfig] from the loaded configuration.
func ClientConfigFrom(cfg *shared.Config) ClientConfig {
	c := ClientConfig{
		ClientID:     cfg.Credentials.Spotify.ClientID,
		ClientSecret: cfg.Credentials.Spotify.ClientSecret,
		RedirectURI:  cfg.Credentials.Spotify.RedirectURI,
		AuthURL:      cfg.Auth.AuthorizeURL,
		TokenURL:     cfg.Auth.TokenURL,
		Scopes:       DefaultScopes,
	}
	if c.AuthURL == "" {
		c.AuthURL = SpotifyAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = SpotifyTokenURL
	}
	return c
}

// OAuth2 returns the equivalent [oauth2.Config]. It is used for URL building only;
// token requests go through [Client].
func (c ClientConfig) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthCodeURL returns the authorization URL the user visits to grant access.
func (c ClientConfig) AuthCodeURL(state string) string {
	return c.OAuth2().AuthCodeURL(state)
}

// ClientOpts configures optional [Client] dependencies.
type ClientOpts struct {
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to the token endpoint.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

// NewClient creates a token endpoint client.
func NewClient(config ClientConfig, opts ClientOpts) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Client{config: config, httpClient: httpClient, logger: logger, now: time.Now}
}

// Config returns the client identity.
func (c *Client) Config() ClientConfig {
	return c.config
}

// Exchange trades an authorization code for a credential.
func (c *Client) Exchange(ctx context.Context, code string) (Credential, error) {
	if code == "" {
		return Credential{}, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.config.RedirectURI)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	status, body, err := c.post(ctx, form)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", shared.ErrTokenExchange, err)
	}
	if status < 200 || status >= 300 {
		return Credential{}, &TokenExchangeError{StatusCode: status, Body: string(body)}
	}

	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: failed to decode token response: %w", shared.ErrTokenExchange, err)
	}
	if cred.AccessToken == "" {
		return Credential{}, fmt.Errorf("%w: token response has no access_token", shared.ErrTokenExchange)
	}
	if cred.RefreshToken == "" {
		c.logger.Warn("token response has no refresh_token; the session cannot be refreshed")
	}

	c.logger.Debug("exchanged authorization code", "token_type", cred.TokenType, "expires_in", cred.ExpiresIn)
	return cred.stamp(c.now()), nil
}

// Refresh obtains a new access token with the refresh_token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	status, body, err := c.post(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if status < 200 || status >= 300 {
		return nil, &RefreshError{StatusCode: status, Body: string(body)}
	}

	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode token response: %w", shared.ErrRefreshFailed, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response has no access_token", shared.ErrRefreshFailed)
	}

	c.logger.Debug("refreshed access token", "expires_in", resp.ExpiresIn, "rotated", resp.RefreshToken != "")
	return &resp, nil
}

func (c *Client) post(ctx context.Context, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
