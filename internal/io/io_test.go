package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestResizeImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		w, h  int
		max   int
		wantW int
		wantH int
	}{
		{name: "landscape", w: 300, h: 200, max: 150, wantW: 150, wantH: 100},
		{name: "portrait", w: 200, h: 300, max: 150, wantW: 100, wantH: 150},
		{name: "already small", w: 80, h: 60, max: 150, wantW: 80, wantH: 60},
	}

	svc := NewImageService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := svc.ResizeImage(context.Background(), pngBytes(t, tt.w, tt.h), tt.max, tt.max)
			require.NoError(t, err)

			w, h := decodedSize(t, out)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestProcess(t *testing.T) {
	t.Parallel()

	svc := NewImageService()
	data := pngBytes(t, 40, 20)

	out, err := svc.Process(context.Background(), data, false, 10)
	require.NoError(t, err)
	w, h := decodedSize(t, out)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)

	out, err = svc.Process(context.Background(), data, true, 10)
	require.NoError(t, err)
	w, h = decodedSize(t, out)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)

	_, err = svc.Process(context.Background(), []byte("<html>not an image</html>"), true, 10)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	path := "/covers/nested/Artist - Title.jpg"

	require.NoError(t, WriteFile(fs, path, []byte("one")))
	require.NoError(t, WriteFile(fs, path, []byte("two")))

	got, err := ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
	assert.True(t, Exists(fs, path))

	tmpExists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, tmpExists)
}

func TestExists(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, EnsureDir(fs, "/dir"))
	require.NoError(t, afero.WriteFile(fs, "/empty.jpg", nil, 0o644))

	assert.False(t, Exists(fs, "/dir"))
	assert.False(t, Exists(fs, "/empty.jpg"))
	assert.False(t, Exists(fs, "/missing.jpg"))
}
