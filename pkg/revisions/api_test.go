package revisions

import (
	"context"
	"testing"

	"github.com/cs3conan/conan-server/pkg/blobstore/memblob"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBinary(t *testing.T, store *memblob.Store, coord conanpath.Coordinate, recipeRev int, hash string, binRev int) {
	t.Helper()
	ctx := context.Background()
	for _, f := range conanpath.PkgBinList {
		k, err := conanpath.BinaryKey(coord, recipeRev, hash, binRev, f)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, k, []byte("x")))
	}
}

func TestFullIndexUpdate(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "zmqpp", Version: "4.2.0", User: "acme1", Channel: "stable"}
	seedRecipe(t, store, coord, 0, true)
	seedBinary(t, store, coord, 0, "6af9cc7cb931c5ad942174fd7838eb655717c709", 0)

	api := New(store, coord)
	require.NoError(t, api.FullIndexUpdate(ctx))

	recipeRevs, err := api.GetRecipeRevisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, recipeRevs)

	binRevs, err := api.GetBinaryRevisions(ctx, 0, "6af9cc7cb931c5ad942174fd7838eb655717c709")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, binRevs)
}

func TestAddAndRemoveRecipeRevision(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "zmqpp", Version: "4.2.0", User: "acme2", Channel: "stable"}
	api := New(store, coord)

	require.NoError(t, api.AddRecipeRevision(ctx, 0))
	require.NoError(t, api.AddRecipeRevision(ctx, 1))

	revs, err := ReadIndex(ctx, store, conanpath.CoordRoot(coord))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, revs)

	existed, err := api.RemoveRecipeRevision(ctx, 0)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = api.RemoveRecipeRevision(ctx, 99)
	require.NoError(t, err)
	assert.False(t, existed)

	revs, err = ReadIndex(ctx, store, conanpath.CoordRoot(coord))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, revs)
}

func TestFullIndexUpdateIncompleteBinaryDoesNotAbortOthers(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "zmqpp", Version: "4.2.0", User: "acme3", Channel: "stable"}
	seedRecipe(t, store, coord, 0, true)
	// one complete binary, one incomplete: both get a revisions.txt, neither should abort the other.
	seedBinary(t, store, coord, 0, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 0)
	k, err := conanpath.BinaryKey(coord, 0, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", 0, "conaninfo.txt")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, k, []byte("x")))

	api := New(store, coord)
	require.NoError(t, api.FullIndexUpdate(ctx))

	completeRevs, err := api.GetBinaryRevisions(ctx, 0, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, completeRevs)

	incompleteRevs, err := api.GetBinaryRevisions(ctx, 0, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	require.NoError(t, err)
	assert.Empty(t, incompleteRevs)
}
