// Package media moves uploaded files from local scratch storage to the
// S3-compatible media host and returns their durable URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Uploader pushes a local file to the media host and returns its URL.  The
// local file is removed whether or not the upload succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
	// Delete removes an object by the URL Upload returned for it.
	Delete(ctx context.Context, url string) error
}

// SaveMultipart copies an uploaded form file into dir as
// <unixnano>-<basename> and returns the local path.
func SaveMultipart(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open form file: %w", err)
	}
	defer src.Close()

	name := filepath.Base(filepath.Clean("/" + fh.Filename))
	if name == "/" || name == "." {
		name = "upload"
	}
	path := filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// videoTypes covers containers missing from the platform mime tables.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// detectContentType prefers the extension and falls back to sniffing the
// first 512 bytes of f.  f is rewound afterwards.
func detectContentType(f *os.File) string {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	buf := make([]byte, 512)
	n, _ := io.ReadFull(f, buf)
	_, _ = f.Seek(0, io.SeekStart)
	return http.DetectContentType(buf[:n])
}

// IsImage reports whether path has an image extension the resizer decodes.
func IsImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}
