package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "complaints/c-1/note.txt", strings.NewReader("ingay"), 5, "text/plain"))

	obj, err := store.Get(ctx, "complaints/c-1/note.txt")
	require.NoError(t, err)
	defer obj.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "ingay", string(data))
	assert.Equal(t, int64(5), obj.Size)

	require.NoError(t, store.Delete(ctx, "complaints/c-1/note.txt"))
	_, err = store.Get(ctx, "complaints/c-1/note.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	require.NoError(t, store.Delete(ctx, "complaints/c-1/note.txt"))
}

func TestLocalStorageKeepsKeysInsideBase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.Path("../../etc/passwd"), dir))
	_, err = store.Get(context.Background(), "")
	require.Error(t, err)
}
