package shared

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LookupFunc matches [os.LookupEnv].
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads KEY=value pairs from the given files (default ".env") into the process
// environment without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment values on config.
//
// Only main calls this so that the rest of the program receives configuration explicitly.
func ApplyEnv(config *Config, lookup LookupFunc) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("CLIENT_ID", &config.Credentials.Spotify.ClientID)
	set("CLIENT_SECRET", &config.Credentials.Spotify.ClientSecret)
	set("REDIRECT_URI", &config.Credentials.Spotify.RedirectURI)
	set("TOKEN_PATH", &config.Auth.TokenPath)
}
