// Package credential keeps the Jira password and Azure DevOps PAT in the OS keyring.
package credential

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "jira2ado"

// Store reads and writes secrets in a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open returns a store backed by the first available OS keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir(),
		FilePasswordFunc:         keyring.FixedStringPrompt("jira2ado-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// New returns a store over an existing keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func fileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".jira2ado-credentials")
	}
	return filepath.Join(home, ".config", "jira2ado", "credentials")
}

// Get retrieves a secret by name.
func (s *Store) Get(name string) (string, error) {
	item, err := s.ring.Get(name)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", name, err)
	}
	return string(item.Data), nil
}

// Set stores a secret by name.
func (s *Store) Set(name, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   name,
		Data:  []byte(value),
		Label: serviceName + " " + name,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", name, err)
	}
	return nil
}

// Delete removes a secret by name.
func (s *Store) Delete(name string) error {
	if err := s.ring.Remove(name); err != nil {
		return fmt.Errorf("deleting credential %q: %w", name, err)
	}
	return nil
}
