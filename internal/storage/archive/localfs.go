// internal/storage/archive/localfs.go
package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// LocalFS implements Storage on a local directory
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a new LocalFS storage rooted at basePath
func NewLocalFS(basePath string) (*LocalFS, error) {
	if basePath == "" {
		return nil, fmt.Errorf("localfs archive requires a path")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolving base path: %w", err)
	}
	return &LocalFS{basePath: abs}, nil
}

// fullPath maps an archive path into the base directory. Leading slashes and
// ".." segments cannot escape it.
func (l *LocalFS) fullPath(p string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(path.Clean("/"+p)))
}

func (l *LocalFS) Write(ctx context.Context, p string, data []byte) error {
	full := l.fullPath(p)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	// Write through a temp file so readers never see a partial report
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

func (l *LocalFS) Read(ctx context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(p))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return data, err
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	paths := []string{}

	err := filepath.WalkDir(l.fullPath(prefix), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, err := filepath.Rel(l.basePath, p)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})

	if os.IsNotExist(err) {
		return []string{}, nil
	}
	sort.Strings(paths)
	return paths, err
}

func (l *LocalFS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := os.Stat(l.fullPath(p))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

func (l *LocalFS) Location(p string) string {
	return "file://" + filepath.ToSlash(l.fullPath(p))
}
