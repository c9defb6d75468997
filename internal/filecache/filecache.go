// Package filecache owns the directory of downloaded cover and page
// images. Files are written whole, never streamed, so a crash cannot
// leave a half-written image behind an index row.
package filecache

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Dir struct {
	path string
}

// New ensures the cache directory exists and returns a handle to it.
func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string { return d.path }

// Write stores one image under a fresh name and returns its full path.
// Names hash the nanosecond clock reading, which is collision-free in
// practice for a single-user, sequential downloader.
func (d *Dir) Write(data []byte) (string, error) {
	name := fmt.Sprintf("%x.png", md5.Sum([]byte(fmt.Sprintf("%d", time.Now().UnixNano()))))
	path := filepath.Join(d.path, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write cache file: %w", err)
	}
	return path, nil
}

// Clear removes every file in the cache directory. Deletion is
// best-effort: the first error is returned after attempting the rest.
func (d *Dir) Clear() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	var firstErr error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size sums the bytes of all cached files.
func (d *Dir) Size() (int64, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	var size int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		size += info.Size()
	}
	return size, nil
}
