package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"profile-service/pkg/xerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newUploads(t *testing.T, maxBytes int64) *UploadService {
	t.Helper()
	svc, err := NewUploadService(t.TempDir(), maxBytes, 1024, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestSaveKeepsSmallImage(t *testing.T) {
	svc := newUploads(t, 5<<20)
	data := pngBytes(t, 64, 32)

	f, err := svc.Save(context.Background(), "me.PNG", bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(f.URL, UploadURLPrefix))
	assert.True(t, strings.HasSuffix(f.Name, ".png"))
	assert.Equal(t, "image/png", f.ContentType)
	assert.False(t, f.Resized)

	onDisk, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestSaveDownscalesLargeImage(t *testing.T) {
	svc := newUploads(t, 5<<20)

	f, err := svc.Save(context.Background(), "wide.png", bytes.NewReader(pngBytes(t, 2048, 64)))
	require.NoError(t, err)
	assert.True(t, f.Resized)
	assert.True(t, strings.HasSuffix(f.Name, ".jpg"))
	assert.Equal(t, "image/jpeg", f.ContentType)

	raw, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestSaveRejectsNonImage(t *testing.T) {
	svc := newUploads(t, 5<<20)
	_, err := svc.Save(context.Background(), "notes.png", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, xerrors.ErrNotAnImage)
}

func TestSaveRejectsOversizeBeforeSniffing(t *testing.T) {
	svc := newUploads(t, 1024)
	_, err := svc.Save(context.Background(), "big.txt", strings.NewReader(strings.Repeat("a", 2048)))
	assert.ErrorIs(t, err, xerrors.ErrPhotoTooLarge)

	entries, err := os.ReadDir(svc.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsEmpty(t *testing.T) {
	svc := newUploads(t, 1024)
	_, err := svc.Save(context.Background(), "x.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, xerrors.ErrMissingFile)
}

func TestLocalStoreUploadReturnsAbsoluteURL(t *testing.T) {
	uploads := newUploads(t, 5<<20)
	store := NewLocalStore(newTestService(t, &capturePublisher{}), uploads, "http://cards.local")

	url, err := store.UploadPhoto(context.Background(), "me.png", "image/png", pngBytes(t, 8, 8))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cards.local/uploads/"))
}
