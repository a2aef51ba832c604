// Package storage keeps document and avatar blobs in an S3-compatible object store.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MetaOriginalFilename is the object metadata key holding the client's file name.
const MetaOriginalFilename = "original-filename"

const (
	documentPrefix = "documents"
	avatarPrefix   = "avatars"
)

// ErrObjectNotFound is returned by Get when the key has no object behind it.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions describe an upload. Size is the exact byte count, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage streams blobs in and out of the object store. Implementations never spool to local disk.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get returns the blob content; a missing object yields ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete succeeds for keys that are already gone.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that downloads the object without credentials until expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// DocumentKey returns a fresh key for a document blob, keeping fileName's extension.
func DocumentKey(fileName string) string {
	return path.Join(documentPrefix, uuid.NewString()+extension(fileName))
}

// AvatarKey returns a fresh key under the user's avatar prefix.
func AvatarKey(userID, fileName string) string {
	return path.Join(avatarPrefix, userID, uuid.NewString()+extension(fileName))
}

func extension(fileName string) string {
	// Browsers on Windows may send full paths.
	name := fileName[strings.LastIndexAny(fileName, `/\`)+1:]
	return strings.ToLower(path.Ext(name))
}
