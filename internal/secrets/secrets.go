// Package secrets keeps the LLM API key in the operating system keyring.
package secrets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const (
	ServiceName  = "askdb"
	KeyLLMAPIKey = "llm_api_key"
)

// Store reads and writes askdb secrets. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// Open opens the OS keyring using native backends only; there is no
// encrypted-file fallback.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		PassPrefix:    ServiceName,
		WinCredPrefix: ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// LLMAPIKey returns the stored key, or "" when none is stored.
func (s *Store) LLMAPIKey() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, err := s.ring.Get(KeyLLMAPIKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading api key: %w", err)
	}
	return string(it.Data), nil
}

func (s *Store) SetLLMAPIKey(key string) error {
	if key == "" {
		return errors.New("api key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ring.Set(keyring.Item{
		Key:         KeyLLMAPIKey,
		Data:        []byte(key),
		Label:       "askdb LLM API key",
		Description: "API key for the OpenAI-compatible endpoint used by askdb",
	})
}

// ClearLLMAPIKey removes the key. Removing a missing key is not an error.
func (s *Store) ClearLLMAPIKey() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ring.Remove(KeyLLMAPIKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing api key: %w", err)
	}
	return nil
}
