package fileslot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Dir string
}

// Slot stores each key as a file in a directory. Writes go through a temp
// file and rename so a crash never leaves a half-written blob.
type Slot struct {
	dir string
}

func New(config Config) (*Slot, error) {
	if config.Dir == "" {
		return nil, errors.New("file slot requires a directory")
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare slot directory %q: %w", config.Dir, err)
	}
	return &Slot{dir: config.Dir}, nil
}

func (s *Slot) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return string(data), true, nil
}

func (s *Slot) Set(_ context.Context, key string, value string) error {
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := os.Rename(name, s.path(key)); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *Slot) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

func (s *Slot) Close(_ context.Context) error {
	return nil
}

func (s *Slot) path(key string) string {
	// Keys are internal constants, but keep path separators out anyway.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}
