package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "mailchat"

// Keys under which secrets are stored.
const (
	KeyBearerToken  = "bearer-token"
	KeyIMAPPassword = "imap-password"
	KeyClaudeAPIKey = "claude-api-key"
)

// envFallback maps a key to the environment variable consulted when the
// keyring has no entry.
var envFallback = map[string]string{
	KeyBearerToken:  "MAILCHAT_TOKEN",
	KeyIMAPPassword: "MAILCHAT_IMAP_PASSWORD",
	KeyClaudeAPIKey: "ANTHROPIC_API_KEY",
}

// ErrNotFound is returned when neither the keyring nor the environment
// holds a value for the key.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes secrets in a keyring.
type Store struct {
	ring   keyring.Keyring
	getenv func(string) string
}

// Open returns a Store backed by the system keyring.
func Open() (*Store, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring, getenv: os.Getenv}
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(home, ".config", serviceName, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("mailchat-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential by key, falling back to its environment
// variable when the keyring has none.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err == nil && len(item.Data) > 0 {
		return string(item.Data), nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	if name, ok := envFallback[key]; ok {
		if v := s.getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Set stores a credential by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential. A missing key is not an error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
