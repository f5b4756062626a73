// Package storage defines where delivery photos are kept.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrForeignURL is returned when a URL was not produced by the store asked about it.
var ErrForeignURL = errors.New("url does not belong to this object store")

// ObjectStore persists uploaded objects and answers for the URLs it hands out.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Exists(ctx context.Context, url string) (bool, error)
	Delete(ctx context.Context, url string) error
}

// CleanKey normalises an object key and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") || cleaned != strings.TrimPrefix(key, "/") {
		return "", errors.New("invalid object key")
	}
	return cleaned, nil
}
