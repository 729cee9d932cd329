package storage_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fwstore/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	u, err := storage.NewUploads(dir, 1<<20)
	require.NoError(t, err)

	path, err := u.SaveImage(fileHeader(t, "photo.txt", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, storage.PublicPrefix))
	assert.True(t, strings.HasSuffix(path, ".png"))

	stored := filepath.Join(dir, strings.TrimPrefix(path, storage.PublicPrefix))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, u.Remove(path))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveImage_RejectsNonImages(t *testing.T) {
	u, err := storage.NewUploads(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, err = u.SaveImage(fileHeader(t, "fake.png", []byte("just some text")))
	assert.ErrorIs(t, err, storage.ErrNotImage)
}

func TestSaveImage_RejectsLargeFiles(t *testing.T) {
	u, err := storage.NewUploads(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = u.SaveImage(fileHeader(t, "big.png", pngHeader))
	assert.ErrorIs(t, err, storage.ErrTooLarge)
}

func TestRemove_IgnoresForeignPaths(t *testing.T) {
	u, err := storage.NewUploads(t.TempDir(), 0)
	require.NoError(t, err)
	assert.NoError(t, u.Remove("/etc/passwd"))
	assert.NoError(t, u.Remove("/uploads/../secret"))
}
