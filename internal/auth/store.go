package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/mcpspotify/internal/shared"
)

// Store persists a single credential.
type Store interface {
	Load() (Credential, error)
	Save(Credential) error
	Delete() error
}

// FileStore keeps the credential as one JSON object on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored credential.
//
// A missing file is [shared.ErrRecordNotFound]; an unparsable one is [shared.ErrCorruptRecord].
func (s *FileStore) Load() (Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credential{}, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, s.path)
		}
		return Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return Credential{}, fmt.Errorf("%w: %s: %w", shared.ErrCorruptRecord, s.path, err)
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		return Credential{}, fmt.Errorf("%w: %s: no tokens", shared.ErrCorruptRecord, s.path)
	}
	return cred, nil
}

// Save replaces the stored credential atomically.
//
// The record is written to a temporary file in the same directory, synced, restricted to 0600
// and renamed over the target, so readers see either the old or the new record.
func (s *FileStore) Save(cred Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync credential: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to set credential permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credential file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}

	committed = true
	return nil
}

// Delete removes the stored credential. A missing record is not an error.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
