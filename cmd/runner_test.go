package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mcpspotify/internal/auth"
	"github.com/desertthunder/mcpspotify/internal/shared"
	tu "github.com/desertthunder/mcpspotify/internal/testing"
)

// fakeListener hands the Authenticator a fixed authorization code.
type fakeListener struct {
	code string
}

func (f *fakeListener) Start() error                             { return nil }
func (f *fakeListener) Await(ctx context.Context) (string, error) { return f.code, nil }
func (f *fakeListener) Stop()                                    {}

// fakeSpotify serves the token endpoint and the Web API endpoints the CLI calls.
type fakeSpotify struct {
	*httptest.Server
	mu      sync.Mutex
	tracks  map[string]string
	grants  []string
	codes   []string
	created []string
	added   [][]string
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{tracks: map[string]string{
		"In The End":      "spotify:track:end",
		"Hanuman Chalisa": "spotify:track:chalisa",
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.grants = append(f.grants, r.PostForm.Get("grant_type"))
		f.codes = append(f.codes, r.PostForm.Get("code"))
		f.mu.Unlock()

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			writeTestJSON(w, http.StatusOK, map[string]any{
				"access_token": "A1", "refresh_token": "R1", "token_type": "Bearer", "expires_in": 3600,
			})
		case "refresh_token":
			writeTestJSON(w, http.StatusOK, map[string]any{
				"access_token": "B", "token_type": "Bearer", "expires_in": 3600,
			})
		default:
			writeTestJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		}
	})
	mux.HandleFunc("GET /v1/me", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeTestJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"message": "no token"}})
			return
		}
		writeTestJSON(w, http.StatusOK, map[string]any{
			"id": "user-1", "display_name": "Test User", "country": "IN", "followers": map[string]any{"total": 3},
		})
	})
	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		f.mu.Lock()
		uri, ok := f.tracks[q]
		f.mu.Unlock()

		items := []map[string]any{}
		if ok {
			items = append(items, map[string]any{
				"id":          uri,
				"name":        q,
				"uri":         uri,
				"duration_ms": 216880,
				"artists":     []map[string]any{{"name": "Linkin Park"}},
				"album":       map[string]any{"name": "Hybrid Theory"},
			})
		}
		writeTestJSON(w, http.StatusOK, map[string]any{"tracks": map[string]any{"items": items, "total": len(items)}})
	})
	mux.HandleFunc("POST /v1/users/{id}/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body.Name)
		f.mu.Unlock()
		writeTestJSON(w, http.StatusCreated, map[string]any{
			"id":            "pl-new",
			"name":          body.Name,
			"external_urls": map[string]any{"spotify": "https://open.spotify.com/playlist/pl-new"},
		})
	})
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.added = append(f.added, body.URIs)
		f.mu.Unlock()
		writeTestJSON(w, http.StatusCreated, map[string]any{"snapshot_id": "snap-1"})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSpotify) state() (grants []string, created []string, added [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.grants...), append([]string(nil), f.created...), append([][]string(nil), f.added...)
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type cliFixture struct {
	runner    *Runner
	config    *shared.Config
	spotify   *fakeSpotify
	output    *bytes.Buffer
	errOutput *bytes.Buffer
	opened    []string
	dir       string
}

// newCLIFixture builds a Runner with a preset config pointing at a fake Spotify.
func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	dir := t.TempDir()
	fake := newFakeSpotify(t)

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "client-id"
	config.Credentials.Spotify.ClientSecret = "client-secret"
	config.Credentials.Spotify.RedirectURI = "http://127.0.0.1:8888/callback"
	config.Auth.TokenPath = filepath.Join(dir, "tokens.json")
	config.Auth.TokenURL = fake.URL + "/api/token"
	config.API.BaseURL = fake.URL + "/v1"
	config.API.RateLimit = 0
	config.Database.Path = filepath.Join(dir, "cache.db")

	f := &cliFixture{
		config:    config,
		spotify:   fake,
		output:    &bytes.Buffer{},
		errOutput: &bytes.Buffer{},
		dir:       dir,
	}
	f.runner = NewRunner(RunnerOpts{
		Config:    config,
		Logger:    shared.DiscardLogger(),
		Output:    f.output,
		ErrOutput: f.errOutput,
		OpenBrowser: func(url string) error {
			f.opened = append(f.opened, url)
			return nil
		},
		NewListener: func(state string) auth.CallbackListener {
			return &fakeListener{code: "the-code"}
		},
	})
	return f
}

func (f *cliFixture) seedToken(t *testing.T) {
	t.Helper()
	cred := auth.Credential{AccessToken: "A0", RefreshToken: "R0", TokenType: "Bearer", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	if err := auth.NewFileStore(f.config.Auth.TokenPath).Save(cred); err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.output.Reset()
	f.errOutput.Reset()
	return newApp(f.runner).Run(context.Background(), append([]string{"mcpspotify"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config || !runner.preset {
				t.Error("expected preset config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil || runner.preset {
				t.Error("expected default, non-preset config")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout || runner.errOutput != os.Stderr || runner.input != os.Stdin {
				t.Error("expected standard streams")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout != defaultHTTPTimeout {
				t.Errorf("expected default http client with a %s timeout", defaultHTTPTimeout)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("Next steps:")
			if result := output.String(); result != "\nNext steps:\n" {
				t.Errorf("got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "auth", "spotify", "cache", "serve"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})
}

func TestBefore(t *testing.T) {
	writeConfig := func(t *testing.T, dir, body string) string {
		return tu.MustWriteFile(t, dir, "config.toml", body)
	}

	t.Run("loads config file and applies env overrides", func(t *testing.T) {
		dir := t.TempDir()
		tokenPath := filepath.Join(dir, "tokens.json")
		path := writeConfig(t, dir, "[api]\nmarket = \"US\"\n\n[auth]\ntoken_path = \""+filepath.ToSlash(tokenPath)+"\"\n")

		env := map[string]string{"CLIENT_ID": "env-id", "CLIENT_SECRET": "env-secret"}
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger: shared.DiscardLogger(),
			Output: output,
			Lookup: func(k string) (string, bool) { v, ok := env[k]; return v, ok },
		})

		if err := newApp(runner).Run(context.Background(), []string{"mcpspotify", "--config", path, "auth", "status", "--json"}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if runner.config.API.Market != "US" {
			t.Errorf("market = %q, want US", runner.config.API.Market)
		}
		if runner.config.Credentials.Spotify.ClientID != "env-id" {
			t.Errorf("client id = %q, want env override", runner.config.Credentials.Spotify.ClientID)
		}
		if runner.config.API.BaseURL == "" {
			t.Error("keys absent from the file should keep defaults")
		}

		var status authStatus
		if err := json.Unmarshal(output.Bytes(), &status); err != nil {
			t.Fatalf("invalid JSON %q: %v", output.String(), err)
		}
		if status.Authenticated || status.TokenPath != filepath.ToSlash(tokenPath) {
			t.Errorf("status = %+v", status)
		}
	})

	t.Run("missing config file uses defaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
		path := filepath.Join(t.TempDir(), "absent.toml")

		runner.config.Auth.TokenPath = filepath.Join(t.TempDir(), "tokens.json")
		if err := newApp(runner).Run(context.Background(), []string{"mcpspotify", "--config", path, "auth", "logout"}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	})

	t.Run("malformed config file is an error", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "[api\nmarket = ")
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})

		err := newApp(runner).Run(context.Background(), []string{"mcpspotify", "--config", path, "auth", "status"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid log level is an error", func(t *testing.T) {
		f := newCLIFixture(t)
		if err := f.run(t, "--log-level", "loud", "auth", "status"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	originalDir := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	defer tu.MustChdir(t, originalDir)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})

	if err := newApp(runner).Run(context.Background(), []string{"mcpspotify", "setup"}); err != nil {
		t.Fatalf("setup error = %v", err)
	}

	tu.AssertFileExists(t, "config.toml")
	tu.AssertFileExists(t, runner.config.Database.Path)
	for _, want := range []string{"Config file created", "Search cache ready", "Next steps"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("output missing %q:\n%s", want, output.String())
		}
	}

	t.Run("second run keeps the existing config", func(t *testing.T) {
		output.Reset()
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})
		if err := newApp(runner).Run(context.Background(), []string{"mcpspotify", "setup"}); err != nil {
			t.Fatalf("setup error = %v", err)
		}
		if strings.Contains(output.String(), "Config file created") {
			t.Error("existing config should not be recreated")
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login authorizes and stores the credential", func(t *testing.T) {
		f := newCLIFixture(t)

		if err := f.run(t, "auth", "login"); err != nil {
			t.Fatalf("login error = %v", err)
		}

		out := f.output.String()
		if !strings.Contains(out, "Open this URL in your browser") || !strings.Contains(out, "response_type=code") {
			t.Errorf("login output missing authorization URL:\n%s", out)
		}
		if !strings.Contains(out, "Authenticated with Spotify") {
			t.Errorf("login output missing confirmation:\n%s", out)
		}
		if len(f.opened) != 1 {
			t.Errorf("browser opened %d times, want 1", len(f.opened))
		}

		cred, err := auth.NewFileStore(f.config.Auth.TokenPath).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cred.AccessToken != "A1" || cred.RefreshToken != "R1" {
			t.Errorf("stored credential = %+v", cred)
		}
	})

	t.Run("login reuses a stored credential", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "auth", "login"); err != nil {
			t.Fatalf("login error = %v", err)
		}
		if len(f.opened) != 0 {
			t.Error("browser should not open when a credential is stored")
		}
		if grants, _, _ := f.spotify.state(); len(grants) != 0 {
			t.Errorf("token endpoint called: %v", grants)
		}
	})

	t.Run("login --force replaces a stored credential", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "auth", "login", "--force"); err != nil {
			t.Fatalf("login error = %v", err)
		}
		cred, _ := auth.NewFileStore(f.config.Auth.TokenPath).Load()
		if cred.AccessToken != "A1" {
			t.Errorf("AccessToken = %q, want A1", cred.AccessToken)
		}
	})

	t.Run("login without credentials fails", func(t *testing.T) {
		f := newCLIFixture(t)
		f.config.Credentials.Spotify.ClientSecret = ""

		if err := f.run(t, "auth", "login"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("status reports stored credential without tokens", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "auth", "status"); err != nil {
			t.Fatalf("status error = %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "✓ Authenticated") || !strings.Contains(out, "Refresh token: present") {
			t.Errorf("status output:\n%s", out)
		}
		if strings.Contains(out, "A0") || strings.Contains(out, "R0") {
			t.Error("status must not print token values")
		}
	})

	t.Run("status on corrupt record is an error", func(t *testing.T) {
		f := newCLIFixture(t)
		tu.MustWriteFile(t, f.dir, "tokens.json", "{not json")

		if err := f.run(t, "auth", "status"); !errors.Is(err, shared.ErrCorruptRecord) {
			t.Errorf("expected ErrCorruptRecord, got %v", err)
		}
	})

	t.Run("token refreshes and persists", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "auth", "token"); err != nil {
			t.Fatalf("token error = %v", err)
		}
		if got := f.output.String(); got != "B\n" {
			t.Errorf("output = %q, want B", got)
		}

		cred, _ := auth.NewFileStore(f.config.Auth.TokenPath).Load()
		if cred.AccessToken != "B" || cred.RefreshToken != "R0" {
			t.Errorf("stored credential = %+v, want {B, R0}", cred)
		}
	})

	t.Run("logout removes the credential", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "auth", "logout"); err != nil {
			t.Fatalf("logout error = %v", err)
		}
		if _, err := os.Stat(f.config.Auth.TokenPath); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("token file still present: %v", err)
		}
	})
}

func TestSpotifyCommands(t *testing.T) {
	t.Run("me", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "spotify", "me", "--json"); err != nil {
			t.Fatalf("me error = %v", err)
		}
		var user struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(f.output.Bytes(), &user); err != nil || user.ID != "user-1" {
			t.Errorf("me output = %q (%v)", f.output.String(), err)
		}
	})

	t.Run("search as csv", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "spotify", "search", "--format", "csv", "In The End"); err != nil {
			t.Fatalf("search error = %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "URI,Title,Artist,Album,Duration") || !strings.Contains(out, "spotify:track:end") {
			t.Errorf("search output:\n%s", out)
		}
	})

	t.Run("search rejects unknown format", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "spotify", "search", "--format", "xml", "In The End"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("create", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "spotify", "create", "--description", "evening", "Mix"); err != nil {
			t.Fatalf("create error = %v", err)
		}
		if !strings.Contains(f.output.String(), "ID: pl-new") {
			t.Errorf("create output:\n%s", f.output.String())
		}
		if _, created, _ := f.spotify.state(); len(created) != 1 || created[0] != "Mix" {
			t.Errorf("created = %v", created)
		}
	})

	t.Run("add resolves names in order and caches them", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		if err := f.run(t, "spotify", "add", "--playlist", "pl-9", "Hanuman Chalisa", "In The End"); err != nil {
			t.Fatalf("add error = %v", err)
		}
		_, _, added := f.spotify.state()
		if len(added) != 1 || strings.Join(added[0], ",") != "spotify:track:chalisa,spotify:track:end" {
			t.Errorf("added = %v", added)
		}

		if err := f.run(t, "cache", "stats"); err != nil {
			t.Fatalf("cache stats error = %v", err)
		}
		if !strings.Contains(f.output.String(), "Cached searches: 2") {
			t.Errorf("cache stats output:\n%s", f.output.String())
		}
	})

	t.Run("add fails on an unmatched name and adds nothing", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		err := f.run(t, "spotify", "add", "--playlist", "pl-9", "In The End", "zzzz-nothing")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
		if _, _, added := f.spotify.state(); len(added) != 0 {
			t.Errorf("added = %v, want none", added)
		}
	})

	t.Run("build from args and file", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)
		list := tu.MustWriteFile(t, f.dir, "songs.txt", "# evening\nHanuman Chalisa\n\nzzzz-nothing\n")

		if err := f.run(t, "spotify", "build", "--name", "Mix", "--file", list, "--skip-missing", "In The End"); err != nil {
			t.Fatalf("build error = %v", err)
		}
		_, created, added := f.spotify.state()
		if len(created) != 1 || len(added) != 1 || len(added[0]) != 2 {
			t.Fatalf("created = %v, added = %v", created, added)
		}
		if added[0][0] != "spotify:track:end" || added[0][1] != "spotify:track:chalisa" {
			t.Errorf("added order = %v", added[0])
		}

		out := f.output.String()
		if !strings.Contains(out, "Matched: 2/3") || !strings.Contains(out, "✗ zzzz-nothing") {
			t.Errorf("build report:\n%s", out)
		}
		if !strings.Contains(f.errOutput.String(), "Searching for 3 tracks") {
			t.Errorf("progress output:\n%s", f.errOutput.String())
		}
	})

	t.Run("build without skip-missing creates nothing", func(t *testing.T) {
		f := newCLIFixture(t)
		f.seedToken(t)

		err := f.run(t, "spotify", "build", "--name", "Mix", "In The End", "zzzz-nothing")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}
		if _, created, _ := f.spotify.state(); len(created) != 0 {
			t.Errorf("created = %v, want none", created)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	f := newCLIFixture(t)
	f.seedToken(t)

	if err := f.run(t, "spotify", "add", "--playlist", "pl-9", "In The End"); err != nil {
		t.Fatalf("add error = %v", err)
	}

	t.Run("list", func(t *testing.T) {
		if err := f.run(t, "cache", "list", "--json"); err != nil {
			t.Fatalf("cache list error = %v", err)
		}
		var entries []cachedSearch
		if err := json.Unmarshal(f.output.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 1 || entries[0].URI != "spotify:track:end" || entries[0].Query != "in the end" {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := f.run(t, "cache", "clear"); err != nil {
			t.Fatalf("cache clear error = %v", err)
		}
		if !strings.Contains(f.output.String(), "Cleared 1") {
			t.Errorf("clear output:\n%s", f.output.String())
		}
	})

	t.Run("disabled cache", func(t *testing.T) {
		f.config.Database.Path = ""
		if err := f.run(t, "cache", "stats"); err == nil {
			t.Error("expected error when the cache is disabled")
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		f := newCLIFixture(t)
		f.config.Credentials.Spotify.ClientID = ""

		if err := f.run(t, "serve"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if f.output.Len() != 0 {
			t.Errorf("stdout must stay clean, got %q", f.output.String())
		}
	})
}
