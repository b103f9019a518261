package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileBackend stores state as TOML in <dir>/searchState.toml.
type FileBackend struct {
	filePath string
}

// NewFileBackend creates a file backend rooted at dir.
// If dir is empty, defaults to ~/.moviesearch.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".moviesearch")
	}

	return &FileBackend{
		filePath: filepath.Join(dir, Namespace+".toml"),
	}, nil
}

// Path returns the state file path.
func (f *FileBackend) Path() string {
	return f.filePath
}

// Load reads the state file. A missing file yields an empty snapshot.
func (f *FileBackend) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, fmt.Errorf("read %s: %w", f.filePath, err)
	}

	if err := toml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", f.filePath, err)
	}

	return snap, nil
}

// Save writes the state file atomically via a temp file and rename.
func (f *FileBackend) Save(ctx context.Context, snap Snapshot) error {
	data, err := toml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, Namespace+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, f.filePath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Close is a no-op.
func (f *FileBackend) Close() error {
	return nil
}
