// internal/storage/archive/interface.go
package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/newthinker/quantbench/internal/config"
)

// ErrNotFound is returned by Read when no object exists at the path
var ErrNotFound = errors.New("archive: object not found")

// Storage stores run artifacts (report JSON, equity curves) under slash-separated paths
type Storage interface {
	// Write stores data at the given path, replacing any previous object
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Location returns a URI for the object, recorded in the results index
	Location(path string) string
}

// New builds the backend named by cfg.Type. An empty type means localfs.
func New(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
