// Package storage keeps uploaded images on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL path the upload directory is served under.
const PublicPrefix = "/uploads/"

var (
	// ErrNotImage is returned when the uploaded bytes are not an image.
	ErrNotImage = errors.New("only image files are allowed")
	// ErrTooLarge is returned when a file exceeds the configured size limit.
	ErrTooLarge = errors.New("file is too large")
)

var allowedImages = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Uploads saves images into a directory under generated names.
type Uploads struct {
	dir      string
	maxBytes int64
}

// NewUploads creates the directory if needed.
func NewUploads(dir string, maxBytes int64) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Uploads{dir: dir, maxBytes: maxBytes}, nil
}

// Dir is the directory files are written to.
func (u *Uploads) Dir() string { return u.dir }

// SaveImage sniffs the content of fh, rejects anything that is not an image
// and stores it. It returns the public path, e.g. /uploads/<uuid>.png.
func (u *Uploads) SaveImage(fh *multipart.FileHeader) (string, error) {
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return "", fmt.Errorf("%s: %w", fh.Filename, ErrTooLarge)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", fh.Filename, err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedImages...) {
		return "", fmt.Errorf("%s is %s: %w", fh.Filename, mt.String(), ErrNotImage)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload %s: %w", fh.Filename, err)
	}

	name := uuid.NewString() + mt.Extension()
	dst, err := os.OpenFile(filepath.Join(u.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return PublicPrefix + name, nil
}

// Remove deletes a file previously returned by SaveImage. Paths outside the
// upload directory are ignored.
func (u *Uploads) Remove(publicPath string) error {
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	if name == publicPath || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(u.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
