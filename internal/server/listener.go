package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcpspotify/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// BindError reports that the callback listener could not bind its address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%v on %s: %v", shared.ErrBind, e.Addr, e.Err)
}

func (e *BindError) Unwrap() []error {
	return []error{shared.ErrBind, e.Err}
}

// ListenerOpts configures a [Listener].
type ListenerOpts struct {
	Addr    string        // host:port to bind, e.g. 127.0.0.1:8888
	Path    string        // callback path, e.g. /callback
	State   string        // expected state parameter; empty disables the check
	Timeout time.Duration // zero waits indefinitely
	Logger  *log.Logger
}

// Listener is a single-shot local HTTP server that captures the authorization code from one redirect.
type Listener struct {
	opts     ListenerOpts
	handler  *CallbackHandler
	server   *http.Server
	ln       net.Listener
	serveErr chan error
	stopOnce sync.Once
	logger   *log.Logger
}

// NewListener creates a listener. Nothing is bound until [Listener.Start].
func NewListener(opts ListenerOpts) *Listener {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Listener{
		opts:     opts,
		handler:  NewCallbackHandler(opts.Path, opts.State),
		serveErr: make(chan error, 1),
		logger:   opts.Logger,
	}
}

// Start binds the address and begins accepting requests.
//
// Returns a [*BindError] when the address is unavailable.
func (l *Listener) Start() error {
	if l.server != nil {
		return fmt.Errorf("callback listener already started")
	}

	ln, err := net.Listen("tcp", l.opts.Addr)
	if err != nil {
		return &BindError{Addr: l.opts.Addr, Err: err}
	}
	l.ln = ln

	router := NewBasicRouter()
	router.Use(LogRequests(l.logger), SecureHeaders)
	router.Handler(l.handler)

	l.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.serveErr <- err
		}
	}()

	l.logger.Info("waiting for authorization callback", "addr", ln.Addr().String(), "path", l.handler.path)
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (l *Listener) Addr() string {
	if l.ln != nil {
		return l.ln.Addr().String()
	}
	return l.opts.Addr
}

// RedirectURL returns the URL the provider should redirect to.
func (l *Listener) RedirectURL() string {
	return "http://" + l.Addr() + l.handler.path
}

// Await blocks until one callback arrives, ctx is done, or the optional timeout elapses.
//
// The listener is shut down before Await returns, whatever the outcome, so later connection
// attempts are refused.
func (l *Listener) Await(ctx context.Context) (string, error) {
	if l.server == nil {
		return "", fmt.Errorf("callback listener not started")
	}
	defer l.Stop()

	var timeout <-chan time.Time
	if l.opts.Timeout > 0 {
		timer := time.NewTimer(l.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case result := <-l.handler.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.Code, nil
	case err := <-l.serveErr:
		return "", fmt.Errorf("callback server failed: %w", err)
	case <-timeout:
		return "", fmt.Errorf("%w: no authorization callback after %s", shared.ErrTimeout, l.opts.Timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop shuts the server down. In-flight responses are allowed to finish. Safe to call more than once.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		if l.server == nil {
			return
		}
		l.server.SetKeepAlivesEnabled(false)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := l.server.Shutdown(ctx); err != nil {
			l.logger.Warn("error shutting down callback listener", "error", err)
			_ = l.server.Close()
		}
		l.logger.Debug("callback listener stopped", "addr", l.Addr())
	})
}
