package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacis-link/share-service/internal/domain"
)

func TestLocalStore_Write_Read_Roundtrip(t *testing.T) {
	req := require.New(t)
	s, err := NewLocalStore(t.TempDir())
	req.NoError(err)
	ctx := context.Background()

	req.NoError(s.Write(ctx, "key1", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := s.Read(ctx, "key1")
	req.NoError(err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	req.NoError(err)
	req.Equal("hello", string(data))
}

func TestLocalStore_Read_Missing_Key_Is_NotFound(t *testing.T) {
	req := require.New(t)
	s, err := NewLocalStore(t.TempDir())
	req.NoError(err)

	_, err = s.Read(context.Background(), "missing")

	req.ErrorIs(err, domain.ErrNotFound)
}

func TestLocalStore_Exists_And_Delete(t *testing.T) {
	req := require.New(t)
	s, err := NewLocalStore(t.TempDir())
	req.NoError(err)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "key1")
	req.NoError(err)
	req.False(ok)

	req.NoError(s.Write(ctx, "key1", strings.NewReader("x"), 1, "text/plain"))

	ok, err = s.Exists(ctx, "key1")
	req.NoError(err)
	req.True(ok)

	req.NoError(s.Delete(ctx, "key1"))

	ok, err = s.Exists(ctx, "key1")
	req.NoError(err)
	req.False(ok)
}

func TestLocalStore_Delete_Missing_Key_Is_Noop(t *testing.T) {
	req := require.New(t)
	s, err := NewLocalStore(t.TempDir())
	req.NoError(err)

	req.NoError(s.Delete(context.Background(), "missing"))
}

func TestLocalStore_Key_Cannot_Escape_Base_Dir(t *testing.T) {
	req := require.New(t)
	base := t.TempDir()
	outside := filepath.Join(base, "..", "escape.txt")
	s, err := NewLocalStore(filepath.Join(base, "blobs"))
	req.NoError(err)

	_ = s.Write(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "text/plain")

	_, statErr := os.Stat(outside)
	req.True(os.IsNotExist(statErr))
}

func TestLocalStore_Failed_Write_Leaves_No_Blob(t *testing.T) {
	req := require.New(t)
	s, err := NewLocalStore(t.TempDir())
	req.NoError(err)
	ctx := context.Background()

	err = s.Write(ctx, "key1", failingReader{}, 10, "text/plain")
	req.Error(err)

	ok, err := s.Exists(ctx, "key1")
	req.NoError(err)
	req.False(ok)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
