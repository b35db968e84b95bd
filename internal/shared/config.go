package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	RefreshAlways = "always"
	RefreshExpiry = "expiry"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Auth        AuthConfig        `toml:"auth"`
	API         APIConfig         `toml:"api"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// AuthConfig controls the authorization flow and where the credential is kept.
type AuthConfig struct {
	TokenPath       string `toml:"token_path"`
	ListenAddr      string `toml:"listen_addr"`
	CallbackTimeout string `toml:"callback_timeout"`
	RefreshPolicy   string `toml:"refresh_policy"`
	AuthorizeURL    string `toml:"authorize_url"`
	TokenURL        string `toml:"token_url"`
}

// APIConfig contains settings for the Spotify Web API client.
type APIConfig struct {
	BaseURL   string  `toml:"base_url"`
	Market    string  `toml:"market"`
	RateLimit float64 `toml:"rate_limit"`
	Timeout   string  `toml:"timeout"`
}

// DatabaseConfig contains database connection settings for the search cache.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate reports missing or placeholder Spotify credentials and malformed auth settings.
func (c *Config) Validate() error {
	s := c.Credentials.Spotify
	var missing []string
	for name, v := range map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	} {
		if v == "" || strings.HasPrefix(v, "your_") {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: set credentials.spotify %s in config.toml or the environment",
			ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if _, err := url.Parse(s.RedirectURI); err != nil {
		return fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
	}

	switch c.Auth.RefreshPolicy {
	case "", RefreshAlways, RefreshExpiry:
	default:
		return fmt.Errorf("%w: refresh_policy must be %q or %q", ErrInvalidConfig, RefreshAlways, RefreshExpiry)
	}

	if _, err := c.Auth.Timeout(); err != nil {
		return err
	}
	return nil
}

// ListenAddress returns the address the callback listener binds to.
//
// An explicit listen_addr wins; otherwise the host:port of the redirect URI is used.
func (c *Config) ListenAddress() (string, error) {
	if c.Auth.ListenAddr != "" {
		return c.Auth.ListenAddr, nil
	}

	u, err := url.Parse(c.Credentials.Spotify.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_uri: %v", ErrInvalidConfig, err)
	}
	if u.Port() == "" {
		return "", fmt.Errorf("%w: redirect_uri %q has no port", ErrInvalidConfig, c.Credentials.Spotify.RedirectURI)
	}
	return u.Host, nil
}

// CallbackPath returns the path component of the redirect URI, "/" when it has none.
func (c *Config) CallbackPath() string {
	u, err := url.Parse(c.Credentials.Spotify.RedirectURI)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// Timeout parses callback_timeout. Zero means wait indefinitely.
func (a AuthConfig) Timeout() (time.Duration, error) {
	return parseDuration("callback_timeout", a.CallbackTimeout)
}

// RequestTimeout parses the API timeout.
func (a APIConfig) RequestTimeout() (time.Duration, error) {
	return parseDuration("timeout", a.Timeout)
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, key)
	}
	return d, nil
}
