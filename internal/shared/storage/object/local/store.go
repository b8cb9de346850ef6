package local

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/internal/shared/storage/object"
)

// Store keeps objects as files under baseDir, one directory per namespace.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Put writes obj through a temp file in the target directory and renames it
// into place, so readers never observe a partial upload.
func (s *Store) Put(ctx context.Context, obj object.Object) (object.Stored, error) {
	if err := ctx.Err(); err != nil {
		return object.Stored{}, err
	}

	key := object.NewKey(obj.Namespace, obj.FileName)
	fullPath, err := s.resolve(key)
	if err != nil {
		return object.Stored{}, err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return object.Stored{}, fmt.Errorf("mkdir: %w", err)
	}

	body := bufio.NewReaderSize(obj.Body, 512)
	head, err := body.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return object.Stored{}, fmt.Errorf("read head: %w", err)
	}
	contentType := object.ContentType(obj.ContentType, obj.FileName, head)

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return object.Stored{}, fmt.Errorf("create temp: %w", err)
	}
	size, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), fullPath)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return object.Stored{}, fmt.Errorf("write %s: %w", key, err)
	}

	return object.Stored{Key: key, Size: size, ContentType: contentType}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
		}
		return nil, err
	}
	return f, nil
}

// Path returns the on-disk location of key.
func (s *Store) Path(key string) (string, error) {
	return s.resolve(key)
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
