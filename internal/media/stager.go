package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Stager writes incoming form files to a temp directory.
type Stager struct {
	dir     string
	maxSize int64
}

func NewStager(dir string, maxSize int64) *Stager {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "vidtube")
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Stager{dir: dir, maxSize: maxSize}
}

// Stage validates fh and copies it into the temp directory, returning the
// staged path. The caller hands the path to an Uploader, which removes it.
func (s *Stager) Stage(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", ErrNoFile
	}
	if fh.Size == 0 {
		return "", ErrEmptyFile
	}
	if fh.Size > s.maxSize {
		return "", ErrFileTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	mimeType, err := detectMime(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if !AllowedMimeTypes[mimeType] {
		return "", ErrInvalidMimeType
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", uuid.NewString(), sanitizeName(fh.Filename), extFor(fh.Filename, mimeType))
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1)); err != nil {
		removeStaged(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// StageField stages the form file named field from r. A request without that
// file (or without a multipart body) yields ErrNoFile.
func (s *Stager) StageField(r *http.Request, field string) (string, error) {
	f, fh, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", ErrNoFile
		}
		return "", err
	}
	f.Close()
	return s.Stage(fh)
}

// Discard removes staged files an Uploader did not consume.
func Discard(paths ...string) {
	for _, p := range paths {
		if p != "" {
			removeStaged(p)
		}
	}
}
