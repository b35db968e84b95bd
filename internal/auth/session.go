package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/mcpspotify/internal/shared"
)

// DefaultExpiryBuffer is how close to expiry a token may get before the expiry policy refreshes it.
const DefaultExpiryBuffer = 60 * time.Second

// Refresher performs the refresh_token grant.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// Saver persists a credential.
type Saver interface {
	Save(Credential) error
}

// SessionOpts configures a [Session].
type SessionOpts struct {
	// Policy is [shared.RefreshAlways] (default) or [shared.RefreshExpiry].
	Policy       string
	ExpiryBuffer time.Duration
	Logger       *log.Logger
	Now          func() time.Time
}

// Session owns the live credential and refreshes it before use.
//
// The read-refresh-persist sequence runs under a single-slot lock, so concurrent callers observe
// one refresh at a time and never send a refresh token the provider has already rotated. Callers
// waiting on that lock give up when their context ends.
type Session struct {
	sem    chan struct{}
	cred   *Credential
	client Refresher
	store  Saver
	policy string
	buffer time.Duration
	logger *log.Logger
	now    func() time.Time
}

// NewSession creates an unauthenticated session.
func NewSession(client Refresher, store Saver, opts SessionOpts) *Session {
	s := &Session{
		sem:    make(chan struct{}, 1),
		client: client,
		store:  store,
		policy: opts.Policy,
		buffer: opts.ExpiryBuffer,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if s.policy == "" {
		s.policy = shared.RefreshAlways
	}
	if s.buffer <= 0 {
		s.buffer = DefaultExpiryBuffer
	}
	if s.logger == nil {
		s.logger = shared.DiscardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Restore installs a previously issued credential.
func (s *Session) Restore(cred Credential) {
	s.sem <- struct{}{}
	defer s.unlock()
	s.cred = &cred
}

func (s *Session) Authenticated() bool {
	s.sem <- struct{}{}
	defer s.unlock()
	return s.cred != nil
}

// Credential returns a copy of the current credential.
func (s *Session) Credential() (Credential, bool) {
	s.sem <- struct{}{}
	defer s.unlock()
	if s.cred == nil {
		return Credential{}, false
	}
	return *s.cred, true
}

// GetAccessToken returns an access token that is safe to use now.
//
// Under the always policy every call refreshes. Under the expiry policy the cached token is
// returned while it is known to outlive the buffer.
func (s *Session) GetAccessToken(ctx context.Context) (string, error) {
	cred, err := s.current(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Token implements [oauth2.TokenSource].
func (s *Session) Token() (*oauth2.Token, error) {
	return s.TokenSource(context.Background()).Token()
}

// TokenSource returns an [oauth2.TokenSource] whose refreshes are bound to ctx.
//
// It is not wrapped in [oauth2.ReuseTokenSource]: every request goes through the session's
// refresh policy. The returned source also has a WithContext method so HTTP clients can bind
// each token fetch to the request being authorized.
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, session: s}
}

type tokenSource struct {
	ctx     context.Context
	session *Session
}

// WithContext returns a copy of the source whose refreshes are bound to ctx.
func (ts tokenSource) WithContext(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, session: ts.session}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	cred, err := ts.session.current(ts.ctx)
	if err != nil {
		return nil, err
	}
	return cred.OAuth2Token(), nil
}

func (s *Session) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for token refresh: %w", ctx.Err())
	}
}

func (s *Session) unlock() {
	<-s.sem
}

func (s *Session) current(ctx context.Context) (Credential, error) {
	if err := s.lock(ctx); err != nil {
		return Credential{}, err
	}
	defer s.unlock()

	if s.cred == nil {
		return Credential{}, shared.ErrNotAuthenticated
	}

	now := s.now()
	if s.policy == shared.RefreshExpiry && s.cred.Fresh(now, s.buffer) {
		return *s.cred, nil
	}

	if s.cred.RefreshToken == "" {
		return Credential{}, shared.ErrNoRefreshToken
	}

	resp, err := s.client.Refresh(ctx, s.cred.RefreshToken)
	if err != nil {
		return Credential{}, err
	}

	next := s.cred.WithRefresh(resp, now)
	if err := s.store.Save(next); err != nil {
		return Credential{}, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}
	s.cred = &next

	s.logger.Debug("access token refreshed", "policy", s.policy, "expires_at", next.ExpiresAt)
	return next, nil
}
