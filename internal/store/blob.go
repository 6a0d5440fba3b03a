package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore stores media payloads as content-addressed files under
// a base directory. The returned reference is the absolute file path.
type FileBlobStore struct {
	baseDir string
}

// NewFileBlobStore creates a blob store rooted at baseDir
func NewFileBlobStore(baseDir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, &UploadError{Err: fmt.Errorf("failed to create blob directory: %w", err)}
	}
	return &FileBlobStore{baseDir: baseDir}, nil
}

// Upload writes payload under a content-hash filename and returns the
// durable reference. Uploading the same payload twice yields the same
// reference.
func (b *FileBlobStore) Upload(ctx context.Context, payload []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &UploadError{Err: err}
	}
	if len(payload) == 0 {
		return "", &UploadError{Err: fmt.Errorf("empty payload")}
	}

	hash := md5.Sum(payload)
	name := hex.EncodeToString(hash[:])
	if ext != "" {
		name += "." + strings.TrimPrefix(ext, ".")
	}
	path := filepath.Join(b.baseDir, name)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", &UploadError{Err: err}
	}
	return path, nil
}
