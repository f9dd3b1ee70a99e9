package fsblob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := NewAt(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "zlib/1.2.11/_/_/0/export/conanfile.py", []byte("recipe")))

	exists, err := s.Exists(ctx, "zlib/1.2.11/_/_/0/export/conanfile.py")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := s.Get(ctx, "zlib/1.2.11/_/_/0/export/conanfile.py")
	require.NoError(t, err)
	assert.Equal(t, "recipe", string(data))
}

func TestPutLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewAt(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b", []byte("x")))

	entries, err := os.ReadDir(filepath.Join(root, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Name())
}

func TestListWalksSubdirectories(t *testing.T) {
	s, err := NewAt(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "coord/0/export/conanfile.py", []byte("x")))
	require.NoError(t, s.Put(ctx, "coord/0/export/conanmanifest.txt", []byte("x")))

	keys, err := s.List(ctx, "coord")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestDeleteMissingIsNotError(t *testing.T) {
	s, err := NewAt(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	existed, err := s.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMoveRenamesFile(t *testing.T) {
	s, err := NewAt(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "src/file.txt", []byte("x")))
	require.NoError(t, s.Move(ctx, "src/file.txt", "dst/file.txt"))

	exists, err := s.Exists(ctx, "src/file.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = s.Exists(ctx, "dst/file.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}
