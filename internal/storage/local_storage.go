package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// localStorage keeps uploaded images on the local filesystem. Keys are
// uuid-based so concurrent uploads of identically named files never collide.
type localStorage struct {
	dir string
}

// NewLocalStorage creates a disk-backed image store rooted at dir.
func NewLocalStorage(dir string) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &localStorage{dir: dir}, nil
}

func (s *localStorage) Save(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := uuid.NewString() + sanitizeExt(filename)
	dst := filepath.Join(s.dir, key)

	// Write to a temp file first so a crash mid-write leaves no partial object.
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalize image: %w", err)
	}
	return key, nil
}

func (s *localStorage) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if os.IsNotExist(err) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (s *localStorage) Path(key string) string {
	// Keys are generated server-side, but never trust them as paths.
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.Path(key))
	if os.IsNotExist(err) {
		return ErrObjectNotFound
	}
	return err
}

// sanitizeExt keeps a short, lowercase extension from the original filename.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
