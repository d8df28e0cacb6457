// Package media stores uploaded images and returns their public URL.
//
// Incoming multipart files are first staged to a temp directory by Stager.
// An Uploader then moves the staged file to its final home (S3/MinIO or a
// local directory) and always removes the staged copy.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10 MB
	StaticURLBase      = "/static/uploads"
)

var (
	ErrNoFile          = errors.New("no file to upload")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("file type is not allowed")
)

// AllowedMimeTypes lists the image types accepted for avatars and covers.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Uploader persists a staged local file and returns its public URL.
// The local file is removed whether or not the upload succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// detectMime sniffs the first 512 bytes of r and rewinds it.
func detectMime(r io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	mimeType := http.DetectContentType(buf[:n])
	return strings.Split(mimeType, ";")[0], nil
}

// datedName builds "YYYY/MM/DD/<uuid><ext>" for a new object.
func datedName(now time.Time, ext string) string {
	return fmt.Sprintf("%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}

func extFor(name, mimeType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		return ext
	}
	return mimeToExt(mimeType)
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

// Rejection reports whether err is a problem with the submitted file itself
// and returns a reason that is safe to show the client. Any other staging
// error is a server-side failure.
func Rejection(err error) (string, bool) {
	for _, target := range []error{ErrEmptyFile, ErrFileTooLarge, ErrInvalidMimeType} {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func removeStaged(path string) {
	_ = os.Remove(path)
}
