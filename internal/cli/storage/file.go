package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gobarber/gobarber/internal/session"
)

const (
	configDirName   = "gobarber"
	sessionFileName = "session.json"
)

// File persists session keys in a JSON object on disk. Every write rewrites
// the whole file through a temp file and rename.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a file store at path
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultFilePath returns ~/.config/gobarber/session.json
func DefaultFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, sessionFileName), nil
}

// Path returns the file backing the store
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", err
	}
	value, ok := data[key]
	if !ok {
		return "", session.ErrNotFound
	}
	return value, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data[key] = value
	return f.save(data)
}

func (f *File) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.save(data)
}

// load reads the file; a missing file is an empty store
func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	data := make(map[string]string)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return data, nil
}

func (f *File) save(data map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, sessionFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
