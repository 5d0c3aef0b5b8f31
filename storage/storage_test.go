package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"Playshare/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	key := NewKey(CoverPrefix, "Holiday.PNG")
	assert.True(t, strings.HasPrefix(key, CoverPrefix))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, NewKey(CoverPrefix, "Holiday.PNG"))

	assert.NotContains(t, NewKey(SongPrefix, "noext"), ".")
}

func TestMemoryStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "songs/a.mp3", strings.NewReader("abc"), 3, "audio/mpeg"))

	rc, info, err := store.Open(ctx, "songs/a.mp3")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, "audio/mpeg", info.ContentType)
	assert.Equal(t, int64(3), info.Size)

	require.NoError(t, store.Delete(ctx, "songs/a.mp3"))
	require.NoError(t, store.Delete(ctx, "songs/a.mp3"))
	_, _, err = store.Open(ctx, "songs/a.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "songs/b.mp3", strings.NewReader("12345"), 5, "audio/mpeg"))
	require.NoError(t, store.Put(ctx, "songs/a.bin", strings.NewReader("1"), 1, ""))
	require.NoError(t, store.Put(ctx, "playlist_covers/c.png", strings.NewReader("12"), 2, "image/png"))

	objects, stats, err := Stats(ctx, store, SongPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "songs/a.bin", objects[0].Key)
	assert.Equal(t, int64(2), stats.TotalObjects)
	assert.Equal(t, int64(6), stats.TotalSize)
	assert.Equal(t, int64(5), stats.SizeByKind["audio"])
	assert.Equal(t, int64(1), stats.SizeByKind["other"])
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KiB", FormatSize(1536))
	assert.Equal(t, "2.0 MiB", FormatSize(2<<20))
}

func TestNew_SelectsBackend(t *testing.T) {
	store, err := New(context.Background(), &config.Config{StorageBackend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = New(context.Background(), &config.Config{StorageBackend: "s3"})
	assert.Error(t, err)
}
