package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(filepath.Join(dir, "uploads"), "/uploads/")
	ctx := context.Background()

	url, err := l.Save(ctx, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	data, mime, err := l.Load(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "image/jpeg", mime)
}

func TestSaveSniffsType(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")

	url, err := l.Save(context.Background(), pngHeader, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestSaveRejectsUnknownType(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")

	_, err := l.Save(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedType))

	_, err = l.Save(context.Background(), nil, "image/png")
	require.Error(t, err)
}

func TestMediaType(t *testing.T) {
	m, err := MediaType(pngHeader, "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", m)

	m, err = MediaType([]byte("x"), "Image/JPG; q=1")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", m)

	_, err = MediaType([]byte("plain text, not a photo"), "application/octet-stream")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnsupportedType))
}

func TestLoadMissing(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")

	_, _, err := l.Load(context.Background(), "/uploads/nope.jpg")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestLoadStaysInsideDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.png"), pngHeader, 0o644))
	l := NewLocal(filepath.Join(root, "uploads"), "/uploads")

	_, _, err := l.Load(context.Background(), "/uploads/../secret.png")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}
