// Package storage keeps uploaded post images in a local directory or an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // register decoder
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 << 20

// PostImagePrefix is the key namespace for post images.
const PostImagePrefix = "posts/"

var (
	// ErrNotImage is returned when the upload does not decode as a supported image.
	ErrNotImage = errors.New("upload a valid image")
	// ErrImageTooLarge is returned when the upload exceeds MaxImageBytes.
	ErrImageTooLarge = errors.New("image exceeds the 5 MiB limit")
	// ErrInvalidKey is returned for keys that escape the store namespace.
	ErrInvalidKey = errors.New("invalid object key")
)

// ImageStore persists image bytes under opaque keys.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Remove(ctx context.Context, key string) error
	// URL returns an address browsers can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}

var formats = map[string]struct {
	contentType string
	ext         string
}{
	"gif":  {"image/gif", ".gif"},
	"jpeg": {"image/jpeg", ".jpg"},
	"png":  {"image/png", ".png"},
	"webp": {"image/webp", ".webp"},
}

// DetectImage checks that data is a gif, jpeg, png or webp image within MaxImageBytes
// and returns its content type and file extension.
func DetectImage(data []byte) (contentType, ext string, err error) {
	if len(data) > MaxImageBytes {
		return "", "", ErrImageTooLarge
	}
	if len(data) == 0 {
		return "", "", ErrNotImage
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", "", ErrNotImage
	}
	f, ok := formats[format]
	if !ok {
		return "", "", ErrNotImage
	}
	return f.contentType, f.ext, nil
}

// NewObjectKey returns a fresh key for a post image with the given extension.
func NewObjectKey(ext string) string {
	return PostImagePrefix + uuid.NewString() + ext
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
