package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	obj, err := store.Put(context.Background(), "products/a.png", Upload{Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/products/a.png", obj.URL)

	data, err := os.ReadFile(filepath.Join(root, "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	require.NoError(t, store.Delete(context.Background(), obj.Key))
	_, err = os.Stat(filepath.Join(root, "products", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalPutFailureLeavesNoObject(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "products/a.png", Upload{Body: strings.NewReader("old")})
	require.NoError(t, err)

	for _, key := range []string{"products/a.png", "products/b.png"} {
		broken := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(errors.New("connection reset")))
		_, err = store.Put(context.Background(), key, Upload{Body: broken})
		require.Error(t, err, key)
	}

	data, err := os.ReadFile(filepath.Join(root, "products", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "existing object untouched")

	entries, err := os.ReadDir(filepath.Join(root, "products"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.png", entries[0].Name())
}

func TestOpenReturnsStoredBytes(t *testing.T) {
	local, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	for name, store := range map[string]interface {
		Storage
		Opener
	}{"local": local, "memory": NewMemory("mem://")} {
		_, err := store.Put(context.Background(), "receipts/1.pdf", Upload{Body: strings.NewReader("%PDF")})
		require.NoError(t, err, name)

		body, err := store.Open(context.Background(), "receipts/1.pdf")
		require.NoError(t, err, name)
		data, err := io.ReadAll(body)
		require.NoError(t, body.Close())
		require.NoError(t, err, name)
		assert.Equal(t, "%PDF", string(data), name)

		_, err = store.Open(context.Background(), "receipts/2.pdf")
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestLocalKeysStayInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../../escape.txt", Upload{Body: strings.NewReader("x")})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory("mem://")

	obj, err := store.Put(context.Background(), "receipts/1.pdf", Upload{Body: strings.NewReader("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, "mem://receipts/1.pdf", obj.URL)

	data, ok := store.Get("receipts/1.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(data))

	require.NoError(t, store.Delete(context.Background(), "receipts/1.pdf"))
	assert.Zero(t, store.Len())
}

func TestNewKeyKeepsExtension(t *testing.T) {
	key := NewKey("categories", "Photo.JPG")

	assert.True(t, strings.HasPrefix(key, "categories/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}
