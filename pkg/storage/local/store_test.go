package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nafis5858/Krishak/pkg/config"
	"github.com/Nafis5858/Krishak/pkg/storage"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.StorageConfig{LocalDir: dir, LocalPublicPath: "/uploads/"})
	require.NoError(t, err)

	ctx := context.Background()
	url, err := store.Put(ctx, "deliveries/o1/p.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"), 10)
	require.NoError(t, err)
	require.Equal(t, "/uploads/deliveries/o1/p.jpg", url)

	raw, err := os.ReadFile(filepath.Join(dir, "deliveries", "o1", "p.jpg"))
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(raw))

	ok, err := store.Exists(ctx, url)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, url))
	ok, err = store.Exists(ctx, url)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, url), "deleting a missing object is not an error")
}

func TestStoreRejectsForeignAndTraversal(t *testing.T) {
	store, err := New(config.StorageConfig{LocalDir: t.TempDir(), LocalPublicPath: "/uploads"})
	require.NoError(t, err)

	_, err = store.Exists(context.Background(), "https://cdn.example.com/a.jpg")
	require.True(t, errors.Is(err, storage.ErrForeignURL))

	_, err = store.Put(context.Background(), "../escape.jpg", "image/jpeg", strings.NewReader("x"), 1)
	require.Error(t, err)
}
