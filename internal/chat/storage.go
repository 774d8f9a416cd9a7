package chat

import (
	"fmt"
	"os"
	"path/filepath"
)

// StorageKey is the fixed name the session blob is stored under.
const StorageKey = "techtranslator_chat_sessions"

// Storage is the durable home of the serialized session map. Implementations
// must treat the blob as opaque; the Store owns the format.
type Storage interface {
	// Read returns the stored blob. A missing blob is reported via
	// os.ErrNotExist so the caller can distinguish "first run" from failure.
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileStorage keeps the blob in a single JSON file under the data directory.
type FileStorage struct {
	path string
}

// DefaultDataDir returns ~/.local/share/techtranslator.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "techtranslator"), nil
}

// NewFileStorage creates the data directory and returns storage backed by
// <dir>/<StorageKey>.json.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStorage{path: filepath.Join(dir, StorageKey+".json")}, nil
}

func (f *FileStorage) Read() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *FileStorage) Write(data []byte) error {
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
