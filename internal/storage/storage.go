// Package storage keeps generated media, optionally encrypted at rest.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog/log"
)

// MediaStore persists generated media under flat names.
type MediaStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Load(ctx context.Context, name string) ([]byte, error)
}

var (
	ErrNotFound    = errors.New("media not found")
	ErrInvalidName = errors.New("invalid media name")

	validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)
)

// ValidName reports whether name is a flat, safe object name.
func ValidName(name string) bool { return validName.MatchString(name) }

// LocalStore writes media into a directory.
type LocalStore struct {
	dir      string
	password string
}

// NewLocalStore creates dir if needed. An empty password stores plaintext.
func NewLocalStore(dir, password string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join("uploads", "media")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{dir: dir, password: password}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	payload := data
	if s.password != "" {
		sealed, err := seal(data, s.password)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt media: %w", err)
		}
		payload = sealed
	}
	p := filepath.Join(s.dir, name)
	if err := os.WriteFile(p, payload, 0o644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	log.Debug().Str("path", p).Str("content_type", contentType).Bool("encrypted", s.password != "").Msg("saved media locally")
	return p, nil
}

func (s *LocalStore) Load(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	return open(data, s.password)
}
