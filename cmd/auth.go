package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mcpspotify/internal/auth"
	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin authorizes in the browser unless a credential is already stored.
// With --force the flow always runs and replaces the stored credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	a, err := r.authenticator(r.output)
	if err != nil {
		return err
	}

	var session *auth.Session
	if cmd.Bool("force") {
		session, err = a.Relogin(ctx)
	} else {
		session, err = a.Login(ctx)
	}
	if err != nil {
		return err
	}

	if !session.Authenticated() {
		return shared.ErrNotAuthenticated
	}
	r.writePlain("✓ Authenticated with Spotify\n")
	r.writePlain("Token file: %s\n", r.tokenStore().Path())
	return nil
}

// authStatus is the JSON shape of `auth status`. Token values are never included.
type authStatus struct {
	Authenticated   bool   `json:"authenticated"`
	TokenPath       string `json:"token_path"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	Expired         bool   `json:"expired"`
	Scope           string `json:"scope,omitempty"`
}

// AuthStatus reports whether a credential is stored, without refreshing it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()
	status := authStatus{TokenPath: store.Path()}

	cred, err := store.Load()
	switch {
	case err == nil:
		status.Authenticated = true
		status.HasRefreshToken = cred.RefreshToken != ""
		status.Scope = cred.Scope
		if cred.ExpiresAt > 0 {
			expires := time.Unix(cred.ExpiresAt, 0)
			status.ExpiresAt = expires.Format(time.RFC3339)
			status.Expired = !expires.After(time.Now())
		}
	case errors.Is(err, shared.ErrRecordNotFound):
	default:
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Spotify Authorization")
	if !status.Authenticated {
		r.writePlain("✗ Not authenticated\n")
		r.writePlain("Run 'mcpspotify auth login' to authorize.\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("Token file: %s\n", status.TokenPath)
	if status.HasRefreshToken {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: missing (re-run 'mcpspotify auth login --force')\n")
	}
	switch {
	case status.ExpiresAt == "":
		r.writePlain("Access token expiry: unknown\n")
	case status.Expired:
		r.writePlain("Access token expired at %s (refreshed on next use)\n", status.ExpiresAt)
	default:
		r.writePlain("Access token expires at %s\n", status.ExpiresAt)
	}
	if status.Scope != "" {
		r.writePlain("Scope: %s\n", status.Scope)
	}
	return nil
}

// AuthToken prints a usable access token, refreshing it according to auth.refresh_policy.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session(ctx, r.errOutput)
	if err != nil {
		return err
	}

	token, err := session.GetAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	return r.writePlain("%s\n", token)
}

// AuthLogout deletes the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store := r.tokenStore()
	if err := store.Delete(); err != nil {
		return err
	}
	r.logger.Info("credential removed", "path", store.Path())
	return r.writePlain("✓ Logged out\n")
}
