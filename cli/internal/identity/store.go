// ABOUTME: Persists the identity key and current session token on disk
// ABOUTME: Stores a single JSON file under the XDG config directory with owner-only permissions

package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const identityFile = "identity.json"

// ErrNoKey is returned when no key pair has been stored yet.
var ErrNoKey = errors.New("no identity key stored")

// StoredSession is the persisted token for the last successful login.
type StoredSession struct {
	Principal string    `json:"principal"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type storedData struct {
	Seed    string         `json:"seed"`
	Session *StoredSession `json:"session,omitempty"`
}

// FileStore keeps the key seed and session token in identity.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultConfigDir returns the config directory following the XDG base directory layout.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crocheting-app")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "crocheting-app")
}

// Path returns the identity file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, identityFile)
}

func (s *FileStore) read() (*storedData, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return &storedData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}

	var stored storedData
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse identity file %s: %w", s.Path(), err)
	}
	return &stored, nil
}

func (s *FileStore) write(stored *storedData) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	return os.WriteFile(s.Path(), data, 0600)
}

// LoadKey returns the stored key pair or ErrNoKey.
func (s *FileStore) LoadKey() (*KeyPair, error) {
	stored, err := s.read()
	if err != nil {
		return nil, err
	}
	if stored.Seed == "" {
		return nil, ErrNoKey
	}
	seed, err := base64.StdEncoding.DecodeString(stored.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key seed: %w", err)
	}
	return KeyPairFromSeed(seed)
}

// LoadOrCreateKey returns the stored key pair, generating and saving one if none exists.
// The boolean reports whether a new key was created.
func (s *FileStore) LoadOrCreateKey() (*KeyPair, bool, error) {
	key, err := s.LoadKey()
	if err == nil {
		return key, false, nil
	}
	if !errors.Is(err, ErrNoKey) {
		return nil, false, err
	}

	key, err = GenerateKeyPair()
	if err != nil {
		return nil, false, err
	}
	if err := s.write(&storedData{Seed: base64.StdEncoding.EncodeToString(key.Seed())}); err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// LoadSession returns the persisted session, or nil if there is none.
func (s *FileStore) LoadSession() (*StoredSession, error) {
	stored, err := s.read()
	if err != nil {
		return nil, err
	}
	return stored.Session, nil
}

// SaveSession persists the session alongside the existing key.
func (s *FileStore) SaveSession(session StoredSession) error {
	stored, err := s.read()
	if err != nil {
		return err
	}
	stored.Session = &session
	return s.write(stored)
}

// DeleteSession forgets the session token but keeps the key. Deleting a
// missing session is not an error.
func (s *FileStore) DeleteSession() error {
	stored, err := s.read()
	if err != nil {
		return err
	}
	if stored.Session == nil {
		return nil
	}
	stored.Session = nil
	return s.write(stored)
}
