package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DiskUploader moves staged files under baseDir and serves them from
// staticBase.
type DiskUploader struct {
	baseDir    string
	staticBase string
	now        func() time.Time
}

func NewDiskUploader(baseDir, staticBase string) *DiskUploader {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if staticBase == "" {
		staticBase = StaticURLBase
	}
	return &DiskUploader{baseDir: baseDir, staticBase: strings.TrimRight(staticBase, "/"), now: time.Now}
}

// BaseDir is the directory the router serves under StaticBase.
func (u *DiskUploader) BaseDir() string { return u.baseDir }

func (u *DiskUploader) StaticBase() string { return u.staticBase }

func (u *DiskUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", ErrNoFile
	}
	defer removeStaged(localPath)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open staged file: %w", err)
	}
	defer src.Close()

	rel := datedName(u.now(), strings.ToLower(filepath.Ext(localPath)))
	abs := filepath.Join(u.baseDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(abs)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(abs)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return u.staticBase + "/" + rel, nil
}
