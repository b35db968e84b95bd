package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mcpspotify/internal/server"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

// CallbackListener receives the authorization code from the browser redirect.
type CallbackListener interface {
	Start() error
	Await(ctx context.Context) (string, error)
	Stop()
}

// ListenerFactory builds a listener expecting the given state.
type ListenerFactory func(state string) CallbackListener

// TokenClient is the token endpoint as seen by the [Authenticator].
type TokenClient interface {
	Refresher
	Exchange(ctx context.Context, code string) (Credential, error)
}

// AuthenticatorOpts wires an [Authenticator].
type AuthenticatorOpts struct {
	Config ClientConfig
	Client TokenClient
	Store  Store

	// ListenAddr, CallbackPath and CallbackTimeout configure the default listener.
	ListenAddr      string
	CallbackPath    string
	CallbackTimeout time.Duration

	// NewListener overrides the default [server.Listener].
	NewListener ListenerFactory
	OpenBrowser shared.BrowserOpener
	Output      io.Writer
	Session     SessionOpts
	Logger      *log.Logger
}

// Authenticator produces a ready [Session], running the authorization code flow when no
// credential is stored.
type Authenticator struct {
	config      ClientConfig
	client      TokenClient
	store       Store
	newListener ListenerFactory
	openBrowser shared.BrowserOpener
	output      io.Writer
	session     SessionOpts
	logger      *log.Logger
	newState    func() string
}

func NewAuthenticator(opts AuthenticatorOpts) *Authenticator {
	a := &Authenticator{
		config:      opts.Config,
		client:      opts.Client,
		store:       opts.Store,
		newListener: opts.NewListener,
		openBrowser: opts.OpenBrowser,
		output:      opts.Output,
		session:     opts.Session,
		logger:      opts.Logger,
		newState:    shared.GenerateID,
	}
	if a.logger == nil {
		a.logger = shared.DiscardLogger()
	}
	if a.session.Logger == nil {
		a.session.Logger = a.logger
	}
	if a.output == nil {
		a.output = os.Stdout
	}
	if a.openBrowser == nil {
		a.openBrowser = shared.OpenBrowser
	}
	if a.newListener == nil {
		a.newListener = func(state string) CallbackListener {
			return server.NewListener(server.ListenerOpts{
				Addr:    opts.ListenAddr,
				Path:    opts.CallbackPath,
				State:   state,
				Timeout: opts.CallbackTimeout,
				Logger:  a.logger,
			})
		}
	}
	return a
}

// AuthCodeURL returns the URL the user visits to authorize the application.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Login restores the stored credential, or authorizes when none exists.
// Any other load failure, such as a corrupt record, is returned.
func (a *Authenticator) Login(ctx context.Context) (*Session, error) {
	cred, err := a.store.Load()
	switch {
	case err == nil:
		a.logger.Debug("restored stored credential")
		return a.newSession(cred), nil
	case errors.Is(err, shared.ErrRecordNotFound):
		a.logger.Info("no stored credential, starting authorization")
		return a.Relogin(ctx)
	default:
		return nil, err
	}
}

// Relogin always runs the authorization flow, replacing any stored credential.
func (a *Authenticator) Relogin(ctx context.Context) (*Session, error) {
	cred, err := a.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return a.newSession(cred), nil
}

// Authorize runs the authorization code flow and persists the resulting credential.
//
// The listener is bound before the URL is shown so the redirect cannot arrive first.
// A failed exchange persists nothing.
func (a *Authenticator) Authorize(ctx context.Context) (Credential, error) {
	state := a.newState()
	authURL := a.AuthCodeURL(state)

	listener := a.newListener(state)
	if err := listener.Start(); err != nil {
		return Credential{}, err
	}
	defer listener.Stop()

	fmt.Fprintf(a.output, "Open this URL in your browser to authorize:\n\n%s\n\n", authURL)
	if err := a.openBrowser(authURL); err != nil {
		a.logger.Warn("could not open browser automatically", "error", err)
	}

	code, err := listener.Await(ctx)
	if err != nil {
		return Credential{}, err
	}

	cred, err := a.client.Exchange(ctx, code)
	if err != nil {
		return Credential{}, err
	}

	if err := a.store.Save(cred); err != nil {
		return Credential{}, fmt.Errorf("failed to save credential: %w", err)
	}

	a.logger.Info("authorization complete")
	return cred, nil
}

// Logout removes the stored credential.
func (a *Authenticator) Logout() error {
	return a.store.Delete()
}

// Status loads the stored credential without refreshing it.
func (a *Authenticator) Status() (Credential, error) {
	return a.store.Load()
}

func (a *Authenticator) newSession(cred Credential) *Session {
	s := NewSession(a.client, a.store, a.session)
	s.Restore(cred)
	return s
}
