// internal/storage/archive/localfs_test.go
package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestNewLocalFS_RequiresPath(t *testing.T) {
	_, err := NewLocalFS("")
	assert.Error(t, err)
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "run-1/AAPL/report.json", []byte(`{"a":1}`)))
	require.NoError(t, fs.Write(ctx, "run-1/AAPL/report.json", []byte(`{"a":2}`)))

	got, err := fs.Read(ctx, "run-1/AAPL/report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got), "second write replaces the first")
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	_, err := fs.Read(context.Background(), "missing.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, err := fs.Exists(ctx, "report.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.Write(ctx, "report.json", []byte("data")))
	exists, err = fs.Exists(ctx, "report.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalFS_List(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "run-1/MSFT/report.json", []byte("m")))
	require.NoError(t, fs.Write(ctx, "run-1/AAPL/report.json", []byte("a")))
	require.NoError(t, fs.Write(ctx, "run-2/AAPL/report.json", []byte("b")))

	paths, err := fs.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/AAPL/report.json", "run-1/MSFT/report.json"}, paths)

	paths, err = fs.List(ctx, "run-9")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalFS_PathsStayInsideBase(t *testing.T) {
	base := t.TempDir()
	fs, _ := NewLocalFS(filepath.Join(base, "archive"))
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "../../escape.txt", []byte("x")))

	_, err := os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	exists, _ := fs.Exists(ctx, "escape.txt")
	assert.True(t, exists)
}

func TestLocalFS_Location(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())

	loc := fs.Location("run-1/AAPL/equity.parquet")
	assert.True(t, strings.HasPrefix(loc, "file://"))
	assert.True(t, strings.HasSuffix(loc, "run-1/AAPL/equity.parquet"))
}
