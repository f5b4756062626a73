// Package local stores objects on the API host's disk and serves them under a
// public path prefix.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nafis5858/Krishak/pkg/config"
	"github.com/Nafis5858/Krishak/pkg/storage"
)

type Store struct {
	dir        string
	publicPath string
}

var _ storage.ObjectStore = (*Store)(nil)

// New creates the root directory when missing.
func New(cfg config.StorageConfig) (*Store, error) {
	dir := strings.TrimSpace(cfg.LocalDir)
	if dir == "" {
		return nil, errors.New("local storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	public := "/" + strings.Trim(strings.TrimSpace(cfg.LocalPublicPath), "/")
	return &Store{dir: dir, publicPath: public}, nil
}

// Dir is the directory served under PublicPath.
func (s *Store) Dir() string { return s.dir }

// PublicPath is the URL prefix for stored objects.
func (s *Store) PublicPath() string { return s.publicPath }

func (s *Store) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publish object: %w", err)
	}
	return s.publicPath + "/" + cleaned, nil
}

func (s *Store) Exists(_ context.Context, url string) (bool, error) {
	target, err := s.pathFor(url)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Delete(_ context.Context, url string) error {
	target, err := s.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) pathFor(url string) (string, error) {
	prefix := s.publicPath + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", storage.ErrForeignURL
	}
	cleaned, err := storage.CleanKey(strings.TrimPrefix(url, prefix))
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(cleaned)), nil
}
