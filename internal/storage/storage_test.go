package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage()))
	return buf.Bytes()
}

func TestDetectImage(t *testing.T) {
	var jpg, gf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, sampleImage(), nil))
	require.NoError(t, gif.Encode(&gf, sampleImage(), nil))

	tests := []struct {
		name    string
		data    []byte
		ct, ext string
		err     error
	}{
		{"png", encodePNG(t), "image/png", ".png", nil},
		{"jpeg", jpg.Bytes(), "image/jpeg", ".jpg", nil},
		{"gif", gf.Bytes(), "image/gif", ".gif", nil},
		{"text", []byte("definitely not an image"), "", "", ErrNotImage},
		{"empty", nil, "", "", ErrNotImage},
		{"too large", make([]byte, MaxImageBytes+1), "", "", ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ext, err := DetectImage(tt.data)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ct, ct)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestNewObjectKey(t *testing.T) {
	a, b := NewObjectKey(".png"), NewObjectKey(".png")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, PostImagePrefix))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.True(t, validKey(a))
}

func TestValidKey(t *testing.T) {
	for _, bad := range []string{"", "/etc/passwd", "../x.png", "posts/../../x", "posts//x", `posts\x`} {
		assert.False(t, validKey(bad), bad)
	}
	assert.True(t, validKey("posts/abc.png"))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/media/")
	require.NoError(t, err)

	data := encodePNG(t)
	key := "posts/pic.png"
	require.NoError(t, store.Put(ctx, key, "image/png", data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "posts", "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	u, err := store.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/media/posts/pic.png", u)

	require.NoError(t, store.Remove(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "posts", "pic.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ctx, key), "removing a missing file is a no-op")
	assert.ErrorIs(t, store.Put(ctx, "../escape.png", "image/png", data), ErrInvalidKey)
}

func TestNewMinioStore(t *testing.T) {
	store, err := NewMinioStore(MinioConfig{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "yatube-media",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, store.cfg.URLTTL)

	// Invalid keys are rejected before any request is made.
	_, err = store.URL(context.Background(), "../bad")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
