package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage writes captures below a base directory. Pages are written to
// a temp file and renamed into place so a replay never sees a partial page.
type LocalStorage struct {
	baseDir string
}

func NewLocal(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

func (l *LocalStorage) Save(_ context.Context, key string, body io.Reader) error {
	target := l.pathForKey(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating capture dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".capture-*")
	if err != nil {
		return fmt.Errorf("creating capture file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing capture %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing capture %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), target)
}

func (l *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(l.pathForKey(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return file, err
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	if err := os.Remove(l.pathForKey(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// pathForKey cleans key as a rooted path first so ".." cannot climb out of
// the base directory.
func (l *LocalStorage) pathForKey(key string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(filepath.Clean("/"+key)))
}
