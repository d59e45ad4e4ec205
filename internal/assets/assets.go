// Package assets externalizes card images: binary payloads are written to a
// directory and referenced from cards by URL.
package assets

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrUnsupportedType is returned for payloads that are not a known image type.
var ErrUnsupportedType = eris.New("assets: unsupported image type")

// ErrNotFound is returned when a URL does not resolve to a stored asset.
var ErrNotFound = eris.New("assets: not found")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// Local stores assets on the local filesystem.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a Local store writing to dir and serving under baseURL.
func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: "/" + strings.Trim(baseURL, "/")}
}

// Dir returns the directory assets are written to.
func (l *Local) Dir() string { return l.dir }

// Save writes data under a fresh name and returns its URL. An empty mimeType
// is sniffed from the content.
func (l *Local) Save(_ context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", eris.New("assets: empty payload")
	}
	mimeType, err := MediaType(data, mimeType)
	if err != nil {
		return "", err
	}
	ext := extensions[mimeType]

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "assets: create dir")
	}
	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", eris.Wrap(err, "assets: write")
	}
	return path.Join(l.baseURL, name), nil
}

// MediaType resolves the image type of data, sniffing it when declared is
// empty or generic, and rejects anything Save would not store.
func MediaType(data []byte, declared string) (string, error) {
	m := normalizeMIME(declared)
	if m == "" || m == "application/octet-stream" {
		m = normalizeMIME(http.DetectContentType(data))
	}
	if _, ok := extensions[m]; !ok {
		return "", eris.Wrapf(ErrUnsupportedType, "assets: %s", m)
	}
	return m, nil
}

// Load reads the asset behind url and reports its media type.
func (l *Local) Load(_ context.Context, url string) ([]byte, string, error) {
	name := path.Base(strings.TrimPrefix(url, l.baseURL))
	if name == "." || name == "/" || name == "" {
		return nil, "", eris.Wrapf(ErrNotFound, "assets: %s", url)
	}

	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if os.IsNotExist(err) {
		return nil, "", eris.Wrapf(ErrNotFound, "assets: %s", url)
	}
	if err != nil {
		return nil, "", eris.Wrap(err, "assets: read")
	}
	return data, mimeFor(name, data), nil
}

func normalizeMIME(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" {
		m = "image/jpeg"
	}
	return m
}

func mimeFor(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	for m, e := range extensions {
		if e == ext {
			return m
		}
	}
	return normalizeMIME(http.DetectContentType(data))
}
