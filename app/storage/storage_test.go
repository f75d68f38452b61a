package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestCleanName(t *testing.T) {
	for _, name := range []string{"a.png", "3f0c-e1.jpg"} {
		got, err := CleanName(name)
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}
	for _, name := range []string{"", "../etc/passwd", "dir/a.png", `dir\a.png`, ".hidden", ".."} {
		_, err := CleanName(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("save open delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "card.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png"))

		ok, err := store.Exists(ctx, "card.png")
		require.NoError(t, err)
		assert.True(t, ok)

		obj, err := store.Open(ctx, "card.png")
		require.NoError(t, err)
		data, err := io.ReadAll(obj)
		obj.Close()
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
		assert.Equal(t, "image/png", obj.ContentType)
		assert.EqualValues(t, len(pngHeader), obj.Size)

		require.NoError(t, store.Delete(ctx, "card.png"))
		ok, err = store.Exists(ctx, "card.png")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing image", func(t *testing.T) {
		_, err := store.Open(ctx, "nope.png")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, store.Delete(ctx, "nope.png"))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "x.png", bytes.NewReader(pngHeader), 0, ""))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".upload-"), e.Name())
		}
	})

	t.Run("rejects traversal", func(t *testing.T) {
		err := store.Save(ctx, "../escape.png", bytes.NewReader(pngHeader), 0, "")
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}

func TestPrepareUpload(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		up, err := PrepareUpload(bytes.NewReader(pngHeader), 1<<20)
		require.NoError(t, err)
		assert.Equal(t, "image/png", up.ContentType)
		assert.True(t, strings.HasSuffix(up.Name, ".png"), up.Name)
		assert.EqualValues(t, len(pngHeader), up.Size())
	})

	t.Run("names are unique", func(t *testing.T) {
		a, err := PrepareUpload(bytes.NewReader(pngHeader), 1<<20)
		require.NoError(t, err)
		b, err := PrepareUpload(bytes.NewReader(pngHeader), 1<<20)
		require.NoError(t, err)
		assert.NotEqual(t, a.Name, b.Name)
	})

	t.Run("text is rejected", func(t *testing.T) {
		_, err := PrepareUpload(strings.NewReader("hello, not an image"), 1<<20)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("empty is rejected", func(t *testing.T) {
		_, err := PrepareUpload(strings.NewReader(""), 1<<20)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := PrepareUpload(bytes.NewReader(pngHeader), 4)
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}
