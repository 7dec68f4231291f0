package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ibeckermayer/walink/internal/config"
)

// ErrNotDataURL means the QR payload is not a base64 image data URL
var ErrNotDataURL = errors.New("not a base64 image data URL")

// QRCacheDir returns the directory QR images are written to
func QRCacheDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "qr"), nil
}

// SaveQRImage decodes a data:image/...;base64 URL and writes it to a
// timestamped file in dir. Returns the path to the saved file.
func SaveQRImage(dir, dataURL string) (string, error) {
	ext, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create QR dir: %w", err)
	}

	// Dashes instead of colons for filesystem compatibility
	path := filepath.Join(dir, time.Now().Format("2006-01-02T15-04-05")+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write QR image: %w", err)
	}

	return path, nil
}

// decodeDataURL returns the file extension and bytes of an image data URL
func decodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}

	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok || sub == "" {
		return "", nil, ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}

	ext := "." + sub
	if sub == "svg+xml" {
		ext = ".svg"
	}
	return ext, data, nil
}
