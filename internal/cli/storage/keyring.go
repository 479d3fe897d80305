package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/gobarber/gobarber/internal/session"
)

const (
	keyringService = "gobarber-cli"
)

// Keyring persists session keys in the OS keychain/credential manager
type Keyring struct {
	service string
}

// NewKeyring returns a keyring store. An empty service uses the CLI default.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = keyringService
	}
	return &Keyring{service: service}
}

// Get retrieves a value from the OS keychain
func (k *Keyring) Get(ctx context.Context, key string) (string, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", session.ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return value, nil
}

// Set saves a value in the OS keychain, replacing any previous one
func (k *Keyring) Set(ctx context.Context, key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

// Remove deletes a value from the OS keychain
func (k *Keyring) Remove(ctx context.Context, key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
