package client

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "afriotv-cli"
	keyringKey     = "auth_tokens"
)

// KeyringStore keeps credentials in the OS keychain.
type KeyringStore struct {
	Service string
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: keyringService}
}

func (k *KeyringStore) Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(k.Service, keyringKey, string(data))
}

// Load returns nil credentials when nothing is stored.
func (k *KeyringStore) Load() (*Credentials, error) {
	value, err := keyring.Get(k.Service, keyringKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (k *KeyringStore) Clear() error {
	err := keyring.Delete(k.Service, keyringKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds *Credentials
}

func (m *MemoryStore) Save(creds *Credentials) error {
	c := *creds
	m.mu.Lock()
	m.creds = &c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load() (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	return nil
}
