package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"Playshare/config"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Key prefixes for uploaded media.
const (
	CoverPrefix = "playlist_covers/"
	SongPrefix  = "songs/"
)

// ErrNotFound is returned by Open when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// BlobStore keeps uploaded files by key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Open returns the blob content; the caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// New builds the blob store selected by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.StorageBackend {
	case "memory":
		return NewMemoryStore(), nil
	case "minio", "":
		store, err := NewMinioStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx, cfg.MinioRegion); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewKey returns a fresh key under prefix that keeps filename's extension.
func NewKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return prefix + uuid.NewString() + ext
}

// BucketStats summarises the objects under a prefix.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	// SizeByKind maps "audio", "image" or "other" to bytes.
	SizeByKind map[string]int64
}

// Stats lists prefix and aggregates the result.
func Stats(ctx context.Context, store BlobStore, prefix string) ([]ObjectInfo, *BucketStats, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}

	stats := &BucketStats{SizeByKind: make(map[string]int64)}
	for _, obj := range objects {
		stats.TotalObjects++
		stats.TotalSize += obj.Size
		if obj.LastModified.After(stats.LastModified) {
			stats.LastModified = obj.LastModified
		}
		stats.SizeByKind[kindOf(obj)] += obj.Size
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, stats, nil
}

func kindOf(obj ObjectInfo) string {
	switch {
	case strings.HasPrefix(obj.ContentType, "audio/"):
		return "audio"
	case strings.HasPrefix(obj.ContentType, "image/"):
		return "image"
	}
	switch strings.ToLower(path.Ext(obj.Key)) {
	case ".mp3", ".wav", ".flac", ".m4a", ".ogg":
		return "audio"
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return "image"
	default:
		return "other"
	}
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}
