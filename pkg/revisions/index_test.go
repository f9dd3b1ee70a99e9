package revisions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cs3conan/conan-server/pkg/blobstore/memblob"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecipe(t *testing.T, store *memblob.Store, coord conanpath.Coordinate, rev int, withSources bool) {
	t.Helper()
	ctx := context.Background()
	files := []string{"conanmanifest.txt", "conan_export.tgz", "conanfile.py"}
	if withSources {
		files = append(files, "conan_sources.tgz")
	}
	for _, f := range files {
		k, err := conanpath.RecipeKey(coord, rev, f)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, k, []byte("x")))
	}
}

func TestBuildIndexCompletePackage(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "zlib", Version: "1.2.11", User: "_", Channel: "_"}
	seedRecipe(t, store, coord, 0, true)

	revs, err := BuildIndex(ctx, store, conanpath.CoordRoot(coord), conanpath.PkgSrcList, func(f string, r int) string {
		k, _ := conanpath.RecipeKey(coord, r, f)
		return k
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, revs)

	raw, err := store.Get(ctx, conanpath.RevisionsIndexKey(conanpath.CoordRoot(coord)))
	require.NoError(t, err)
	var idx Index
	require.NoError(t, json.Unmarshal(raw, &idx))
	require.Len(t, idx.Revisions, 1)
	assert.Equal(t, "0", idx.Revisions[0].Revision)

	parsedTime, err := time.Parse("2006-01-02T15:04:05.000Z", idx.Revisions[0].Time)
	require.NoError(t, err)
	assert.True(t, parsedTime.Unix() > 0)
}

func TestBuildIndexExcludesIncompleteRevision(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "zlib", Version: "1.2.11", User: "_", Channel: "_"}
	seedRecipe(t, store, coord, 0, true)
	seedRecipe(t, store, coord, 1, false) // missing conan_sources.tgz

	revs, err := BuildIndex(ctx, store, conanpath.CoordRoot(coord), conanpath.PkgSrcList, func(f string, r int) string {
		k, _ := conanpath.RecipeKey(coord, r, f)
		return k
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, revs)
}

func TestBuildIndexIgnoresNonNumericSubdirs(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "zlib", Version: "1.2.11", User: "_", Channel: "_"}
	seedRecipe(t, store, coord, 0, true)
	require.NoError(t, store.Put(ctx, conanpath.CoordRoot(coord)+"/export/stray.txt", []byte("x")))

	revs, err := BuildIndex(ctx, store, conanpath.CoordRoot(coord), conanpath.PkgSrcList, func(f string, r int) string {
		k, _ := conanpath.RecipeKey(coord, r, f)
		return k
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, revs)
}

func TestBuildIndexEmptyStorage(t *testing.T) {
	store := memblob.NewStore()
	ctx := context.Background()
	coord := conanpath.Coordinate{Name: "nothing", Version: "0.0.0", User: "_", Channel: "_"}

	revs, err := BuildIndex(ctx, store, conanpath.CoordRoot(coord), conanpath.PkgSrcList, func(f string, r int) string {
		k, _ := conanpath.RecipeKey(coord, r, f)
		return k
	})
	require.NoError(t, err)
	assert.Empty(t, revs)

	raw, err := store.Get(ctx, conanpath.RevisionsIndexKey(conanpath.CoordRoot(coord)))
	require.NoError(t, err)
	var idx Index
	require.NoError(t, json.Unmarshal(raw, &idx))
	assert.Empty(t, idx.Revisions)
}

func TestReadIndexToleratesAbsence(t *testing.T) {
	store := memblob.NewStore()
	revs, err := ReadIndex(context.Background(), store, "nope/0.0.0/_/_")
	require.NoError(t, err)
	assert.Empty(t, revs)
}
