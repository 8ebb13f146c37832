// Package storage keeps achievement cover images on local disk or in an
// S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	// ErrUnsupportedType is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedType = errors.New("only JPEG and PNG images are allowed")
	// ErrInvalidKey is returned for keys that would escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Upload is an incoming image file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ImageStore persists images under caller chosen keys such as
// "achievements/<id>/cover.png".
type ImageStore interface {
	Store(ctx context.Context, key string, up *Upload) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func mediaType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
}

// CheckContentType accepts JPEG and PNG, ignoring parameters such as charset.
func CheckContentType(contentType string) error {
	if _, ok := allowedTypes[mediaType(contentType)]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

// SanitizeFilename reduces a client supplied name to a safe base name. When
// nothing usable is left it falls back to "cover" plus an extension for
// contentType.
func SanitizeFilename(name, contentType string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	clean := strings.TrimLeft(b.String(), ".")
	if clean == "" {
		return "cover" + allowedTypes[mediaType(contentType)]
	}
	return clean
}

// cleanKey rejects absolute keys and keys with parent references.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
