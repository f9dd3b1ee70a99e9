package revisions

import (
	"context"
	"fmt"

	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/cs3conan/conan-server/pkg/errtypes"
	"github.com/cs3conan/conan-server/pkg/storelock"
)

// API is the public facade over the revision indexer. It is the only
// entry point other packages (notably the HTTP handlers in
// internal/http/services/conanserver) should use to read or mutate
// revision state.
type API struct {
	store blobstore.Store
	coord conanpath.Coordinate
}

// New builds an API bound to one package coordinate.
func New(store blobstore.Store, coord conanpath.Coordinate) *API {
	return &API{store: store, coord: coord}
}

func (a *API) recipeDir() string {
	return conanpath.CoordRoot(a.coord)
}

func (a *API) withCoordLock(ctx context.Context, fn func(ctx context.Context) error) error {
	lock, err := storelock.Acquire(ctx, a.store, conanpath.CoordRoot(a.coord), storelock.DefaultTTL)
	if err != nil {
		return errtypes.StoreFault("acquiring coordinate lock", err)
	}
	defer lock.Release(ctx)
	return fn(ctx)
}

// GetRecipeRevisions parses the recipe revisions.txt and returns integers
// in file order, or an empty list if the index is absent. Every call
// reads straight from the store: handlers are stateless, and a separate
// reindex process (cmd/conan-server's "reindex" subcommand) can rewrite
// revisions.txt at any time, so nothing here may cache it in memory.
func (a *API) GetRecipeRevisions(ctx context.Context) ([]int, error) {
	return ReadIndex(ctx, a.store, a.recipeDir())
}

// GetBinaryRevisions parses the binary revisions.txt for (recipeRev,
// hash) and returns integers in file order, or an empty list if absent.
func (a *API) GetBinaryRevisions(ctx context.Context, recipeRev int, hash string) ([]int, error) {
	dir := conanpath.PackageHashDir(a.coord, recipeRev, hash)
	return ReadIndex(ctx, a.store, dir)
}

// LatestRecipeEntry returns the highest recipe revision recorded in
// revisions.txt along with its timestamp, and false if none exists.
func (a *API) LatestRecipeEntry(ctx context.Context) (Entry, bool, error) {
	return LatestEntry(ctx, a.store, a.recipeDir())
}

// LatestBinaryEntry is the binary-level sibling of LatestRecipeEntry.
func (a *API) LatestBinaryEntry(ctx context.Context, recipeRev int, hash string) (Entry, bool, error) {
	return LatestEntry(ctx, a.store, conanpath.PackageHashDir(a.coord, recipeRev, hash))
}

// AddRecipeRevision appends rev to the recipe index without scanning
// files, used after a successful recipe upload.
func (a *API) AddRecipeRevision(ctx context.Context, rev int) error {
	return a.withCoordLock(ctx, func(ctx context.Context) error {
		revs, err := ReadIndex(ctx, a.store, a.recipeDir())
		if err != nil {
			return err
		}
		for _, r := range revs {
			if r == rev {
				return nil
			}
		}
		return WriteIndex(ctx, a.store, a.recipeDir(), append(revs, rev))
	})
}

// RemoveRecipeRevision removes rev if present, reporting whether it
// existed.
func (a *API) RemoveRecipeRevision(ctx context.Context, rev int) (bool, error) {
	var existed bool
	err := a.withCoordLock(ctx, func(ctx context.Context) error {
		revs, err := ReadIndex(ctx, a.store, a.recipeDir())
		if err != nil {
			return err
		}
		out := revs[:0]
		for _, r := range revs {
			if r == rev {
				existed = true
				continue
			}
			out = append(out, r)
		}
		return WriteIndex(ctx, a.store, a.recipeDir(), out)
	})
	return existed, err
}

// UpdateRecipeIndex invokes the indexer at the coordinate root against
// PkgSrcList, under the coordinate lock.
func (a *API) UpdateRecipeIndex(ctx context.Context) ([]int, error) {
	var revs []int
	err := a.withCoordLock(ctx, func(ctx context.Context) error {
		dir := a.recipeDir()
		r, err := BuildIndex(ctx, a.store, dir, conanpath.PkgSrcList, func(f string, rev int) string {
			k, _ := conanpath.RecipeKey(a.coord, rev, f)
			return k
		})
		revs = r
		return err
	})
	return revs, err
}

// UpdateBinaryIndex invokes the indexer at the binary dir against
// PkgBinList, under the coordinate lock (not a lock on the binary dir
// itself, so it serializes with recipe rebuilds for the same
// coordinate).
func (a *API) UpdateBinaryIndex(ctx context.Context, recipeRev int, hash string) ([]int, error) {
	var revs []int
	err := a.withCoordLock(ctx, func(ctx context.Context) error {
		dir := conanpath.PackageHashDir(a.coord, recipeRev, hash)
		r, err := BuildIndex(ctx, a.store, dir, conanpath.PkgBinList, func(f string, rev int) string {
			k, _ := conanpath.BinaryKey(a.coord, recipeRev, hash, rev, f)
			return k
		})
		revs = r
		return err
	})
	return revs, err
}

// FullIndexUpdate updates the recipe index, then for every recipe
// revision lists all binary hashes present and updates each binary
// index. Errors in one binary do not abort the others; every error
// encountered is collected and returned together.
func (a *API) FullIndexUpdate(ctx context.Context) error {
	recipeRevs, err := a.UpdateRecipeIndex(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, rr := range recipeRevs {
		hashes, err := a.listBinaryHashes(ctx, rr)
		if err != nil {
			errs = append(errs, fmt.Errorf("recipe rev %d: listing binary hashes: %w", rr, err))
			continue
		}
		for _, hash := range hashes {
			if _, err := a.UpdateBinaryIndex(ctx, rr, hash); err != nil {
				errs = append(errs, fmt.Errorf("recipe rev %d, hash %s: %w", rr, hash, err))
			}
		}
	}
	if len(errs) > 0 {
		return aggregateError(errs)
	}
	return nil
}

func (a *API) listBinaryHashes(ctx context.Context, recipeRev int) ([]string, error) {
	packageDir := fmt.Sprintf("%s/package", conanpath.RecipeRevDir(a.coord, recipeRev))
	keys, err := a.store.List(ctx, packageDir)
	if err != nil {
		return nil, errtypes.IndexFault("listing "+packageDir, err)
	}
	prefix := packageDir + "/"
	seen := map[string]bool{}
	var hashes []string
	for _, k := range keys {
		rest := k
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			rest = k[len(prefix):]
		} else {
			continue
		}
		var hash string
		for i, c := range rest {
			if c == '/' {
				hash = rest[:i]
				break
			}
		}
		if hash == "" || seen[hash] {
			continue
		}
		seen[hash] = true
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// aggregatedError collects the independent failures of FullIndexUpdate
// so callers see every broken binary, not just the first.
type aggregatedError struct {
	errs []error
}

func aggregateError(errs []error) error {
	return &aggregatedError{errs: errs}
}

func (e *aggregatedError) Error() string {
	msg := fmt.Sprintf("%d index update(s) failed", len(e.errs))
	for _, err := range e.errs {
		msg += "; " + err.Error()
	}
	return msg
}

// Errors returns the individual per-binary failures.
func (e *aggregatedError) Errors() []error { return e.errs }
