// internal/storage/archive/s3_test.go
package archive

import (
	"testing"

	"github.com/newthinker/quantbench/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"", "/run/file.txt", "run/file.txt"},
		{"archive", "file.txt", "archive/file.txt"},
		{"archive/", "run/../file.txt", "archive/file.txt"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Prefix: tt.prefix})
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.key(tt.path), "prefix %q path %q", tt.prefix, tt.path)
	}
}

func TestS3Storage_LocationAndRelative(t *testing.T) {
	s, err := NewS3(S3Config{Bucket: "results", Prefix: "quantbench"})
	require.NoError(t, err)

	assert.Equal(t, "s3://results/quantbench/run/AAPL/report.json", s.Location("run/AAPL/report.json"))
	assert.Equal(t, "run/AAPL/report.json", s.relative("quantbench/run/AAPL/report.json"))
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(S3Config{})
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/report.json"))
	assert.Equal(t, "application/vnd.apache.parquet", contentType("a/equity.parquet"))
	assert.Equal(t, "text/csv", contentType("a/frame.csv"))
	assert.Equal(t, "application/octet-stream", contentType("a/blob"))
}

func TestNew(t *testing.T) {
	store, err := New(config.ArchiveConfig{Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalFS{}, store)

	store, err = New(config.ArchiveConfig{Type: "s3", S3: config.S3Config{Bucket: "b", Endpoint: "http://localhost:9000"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, store)

	_, err = New(config.ArchiveConfig{Type: "gcs"})
	assert.Error(t, err)
}
