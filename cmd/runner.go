package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcpspotify/internal/auth"
	"github.com/desertthunder/mcpspotify/internal/repositories"
	"github.com/desertthunder/mcpspotify/internal/services"
	"github.com/desertthunder/mcpspotify/internal/shared"
	"github.com/desertthunder/mcpspotify/internal/ui"
	"github.com/urfave/cli/v3"
)

// defaultHTTPTimeout bounds token endpoint calls made with the runner's own client.
const defaultHTTPTimeout = 30 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	preset      bool
	lookup      shared.LookupFunc
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	errOutput   io.Writer
	input       io.Reader
	openBrowser shared.BrowserOpener
	newListener auth.ListenerFactory
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config skips loading --config when set.
	Config *shared.Config
	// Lookup reads environment overrides; nil disables them.
	Lookup      shared.LookupFunc
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	ErrOutput   io.Writer
	Input       io.Reader
	OpenBrowser shared.BrowserOpener
	NewListener auth.ListenerFactory
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:      opts.Config,
		preset:      opts.Config != nil,
		lookup:      opts.Lookup,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		errOutput:   opts.ErrOutput,
		input:       opts.Input,
		openBrowser: opts.OpenBrowser,
		newListener: opts.NewListener,
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.errOutput == nil {
		r.errOutput = os.Stderr
	}
	if r.input == nil {
		r.input = os.Stdin
	}
	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, spotifyCommand, cacheCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration file, applies environment overrides and sets the log level.
//
// A missing config file is not an error: defaults apply and `setup` can create it.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !r.preset {
		path := cmd.String("config")
		config, err := shared.LoadConfig(path)
		switch {
		case err == nil:
			r.config = config
		case errors.Is(err, os.ErrNotExist):
			r.logger.Debug("config file not found, using defaults", "path", path)
		default:
			return ctx, err
		}
	}

	if r.lookup != nil {
		shared.ApplyEnv(r.config, r.lookup)
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	if err := shared.SetLogLevel(r.logger, level); err != nil {
		return ctx, fmt.Errorf("%w: log level %q", shared.ErrInvalidConfig, level)
	}
	return ctx, nil
}

// authenticator wires the OAuth client, token store and callback listener from the config.
//
// Prompts go to out; serve passes stderr so stdout stays reserved for the protocol.
func (r *Runner) authenticator(out io.Writer) (*auth.Authenticator, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	addr, err := r.config.ListenAddress()
	if err != nil {
		return nil, err
	}
	timeout, err := r.config.Auth.Timeout()
	if err != nil {
		return nil, err
	}

	clientConfig := auth.ClientConfigFrom(r.config)
	client := auth.NewClient(clientConfig, auth.ClientOpts{HTTPClient: r.httpClient, Logger: r.logger})

	return auth.NewAuthenticator(auth.AuthenticatorOpts{
		Config:          clientConfig,
		Client:          client,
		Store:           r.tokenStore(),
		ListenAddr:      addr,
		CallbackPath:    r.config.CallbackPath(),
		CallbackTimeout: timeout,
		NewListener:     r.newListener,
		OpenBrowser:     r.openBrowser,
		Output:          out,
		Session:         auth.SessionOpts{Policy: r.config.Auth.RefreshPolicy},
		Logger:          r.logger,
	}), nil
}

func (r *Runner) tokenStore() *auth.FileStore {
	return auth.NewFileStore(r.config.Auth.TokenPath)
}

// session returns an authenticated session, authorizing in the browser when nothing is stored.
func (r *Runner) session(ctx context.Context, out io.Writer) (*auth.Session, error) {
	a, err := r.authenticator(out)
	if err != nil {
		return nil, err
	}
	return a.Login(ctx)
}

// spotifyService builds the Web API client on top of session. cache may be nil.
func (r *Runner) spotifyService(ctx context.Context, session *auth.Session, cache services.TrackCacher) (*services.SpotifyService, error) {
	timeout, err := r.config.API.RequestTimeout()
	if err != nil {
		return nil, err
	}

	return services.NewSpotifyService(session.TokenSource(ctx), services.SpotifyOpts{
		BaseURL:   r.config.API.BaseURL,
		Market:    r.config.API.Market,
		RateLimit: r.config.API.RateLimit,
		Timeout:   timeout,
		Cache:     cache,
		Logger:    r.logger,
		Transport: r.httpClient.Transport,
	}), nil
}

// openCache opens the search cache. An empty database path disables caching and returns nils.
func (r *Runner) openCache() (*sql.DB, *repositories.SearchCacheRepository, error) {
	if r.config.Database.Path == "" {
		return nil, nil, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, repositories.NewSearchCacheRepository(db), nil
}

// connect authenticates and builds the Spotify service with the search cache attached when
// available. A cache that cannot be opened is logged and skipped. The returned cleanup closes
// the database.
func (r *Runner) connect(ctx context.Context, out io.Writer) (*services.SpotifyService, func(), error) {
	session, err := r.session(ctx, out)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var cache services.TrackCacher
	db, repo, err := r.openCache()
	switch {
	case err != nil:
		r.logger.Warn("search cache unavailable", "error", err)
	case repo != nil:
		cache = repositories.NewTrackCacheAdapter(repo)
		cleanup = func() { db.Close() }
	}

	svc, err := r.spotifyService(ctx, session, cache)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", ui.Styles().Header(title))
}
