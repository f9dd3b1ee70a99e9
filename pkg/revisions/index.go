// Package revisions implements the lock-guarded revision-index builder
// and the public facade over it.
//
// Grounded on reva's pkg/storage/utils/decomposedfs/revisions.go and
// pkg/storage/fs/ocis/revisions.go: both walk a glob of revision entries
// beneath a resource and validate each one before reporting it as a
// usable version. This package generalizes that walk from "does this
// revision directory have valid metadata xattrs" to "does every
// canonical file in the given set exist beneath this revision directory",
// and adds the atomic revisions.txt document in place of reva's per-file
// glob.
package revisions

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/cs3conan/conan-server/pkg/conanpath"
	"github.com/cs3conan/conan-server/pkg/errtypes"
)

// Entry is one row of a revisions.txt document.
type Entry struct {
	Revision string `json:"revision"`
	Time     string `json:"time"`
}

// Index is the full JSON document written to "<dir>/revisions.txt".
type Index struct {
	Revisions []Entry `json:"revisions"`
}

// KeyOf builds the storage key for file f at revision r beneath dir.
// Callers pass a closure that knows whether dir is a recipe root (so
// files live under "<dir>/<r>/export/<f>") or a binary hash dir
// ("<dir>/<r>/<f>").
type KeyOf func(f string, r int) string

// BuildIndex rebuilds the revisions.txt at dir.
//
// It lists dir, extracts immediate child directory names that parse as
// non-negative integers (candidate revisions), tests the existence of
// every canonicalFiles entry beneath each candidate via keyOf, and
// writes a revisions.txt listing exactly the valid ones in ascending
// numeric order. The final write goes through blobstore.Store.Put,
// which callers (fsblob, s3blob, memblob) implement so that readers
// never observe a partial document.
//
// BuildIndex does not itself take a lock; callers (see api.go) must hold
// the coordinate-root lock before calling it — binary rebuilds also lock
// at the coordinate root, not dir, to avoid interleaving with recipe
// rebuilds for the same package. Nothing here retains the result beyond
// the call: every reader goes back to the store, since a separate
// process (cmd/conan-server's "reindex" subcommand) can rewrite
// revisions.txt out from under a running server at any time.
func BuildIndex(ctx context.Context, store blobstore.Store, dir string, canonicalFiles []string, keyOf KeyOf) ([]int, error) {
	keys, err := store.List(ctx, dir)
	if err != nil {
		return nil, errtypes.IndexFault("listing "+dir, err)
	}

	candidates := candidateRevisions(dir, keys)

	var valid []int
	for _, r := range candidates {
		ok, err := revisionIsValid(ctx, store, canonicalFiles, keyOf, r)
		if err != nil {
			return nil, errtypes.IndexFault("checking revision files", err)
		}
		if ok {
			valid = append(valid, r)
		}
	}
	sort.Ints(valid)

	idx := Index{Revisions: make([]Entry, 0, len(valid))}
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	for _, r := range valid {
		idx.Revisions = append(idx.Revisions, Entry{Revision: strconv.Itoa(r), Time: now})
	}

	data, err := json.Marshal(idx)
	if err != nil {
		return nil, errtypes.IndexFault("marshaling index", err)
	}
	if err := store.Put(ctx, conanpath.RevisionsIndexKey(dir), data); err != nil {
		return nil, errtypes.IndexFault("writing revisions.txt", err)
	}

	return valid, nil
}

// candidateRevisions extracts the immediate child directory names of dir
// from a flat key listing and keeps the ones that parse as non-negative
// integers.
func candidateRevisions(dir string, keys []string) []int {
	seen := map[int]bool{}
	var out []int
	prefix := dir + "/"
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		child := rest
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			child = rest[:idx]
		}
		r, ok := conanpath.ParseRevisionDirName(child)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// revisionIsValid reports whether every canonical file exists beneath
// revision r. A missing file is not an error; only a blob-store fault
// during the check is.
func revisionIsValid(ctx context.Context, store blobstore.Store, canonicalFiles []string, keyOf KeyOf, r int) (bool, error) {
	for _, f := range canonicalFiles {
		exists, err := store.Exists(ctx, keyOf(f, r))
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}

// ReadIndex parses the revisions.txt at dir into ascending integers, in
// file order. A missing revisions.txt is not an error: readers must
// tolerate its transient absence, so this yields an empty list instead.
func ReadIndex(ctx context.Context, store blobstore.Store, dir string) ([]int, error) {
	key := conanpath.RevisionsIndexKey(dir)
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return nil, errtypes.StoreFault("checking "+key, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, errtypes.StoreFault("reading "+key, err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errtypes.StoreFault("parsing "+key, err)
	}
	out := make([]int, 0, len(idx.Revisions))
	for _, e := range idx.Revisions {
		n, ok := conanpath.ParseRevisionDirName(e.Revision)
		if !ok {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// WriteIndex overwrites dir's revisions.txt with exactly the given
// revisions, each timestamped "now". Used by AddRecipeRevision/
// RemoveRecipeRevision, which mutate the index without a file rescan.
func WriteIndex(ctx context.Context, store blobstore.Store, dir string, revs []int) error {
	sort.Ints(revs)
	idx := Index{Revisions: make([]Entry, 0, len(revs))}
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	for _, r := range revs {
		idx.Revisions = append(idx.Revisions, Entry{Revision: strconv.Itoa(r), Time: now})
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return errtypes.StoreFault("marshaling index", err)
	}
	if err := store.Put(ctx, conanpath.RevisionsIndexKey(dir), data); err != nil {
		return errtypes.StoreFault("writing "+conanpath.RevisionsIndexKey(dir), err)
	}
	return nil
}

// LatestEntry returns the revisions.txt row with the highest numeric
// revision beneath dir, and false if the index is absent or empty. Used
// by the v2 "latest" endpoints, which need the recorded timestamp
// alongside the revision number rather than just the integer ReadIndex
// yields.
func LatestEntry(ctx context.Context, store blobstore.Store, dir string) (Entry, bool, error) {
	key := conanpath.RevisionsIndexKey(dir)
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return Entry{}, false, errtypes.StoreFault("checking "+key, err)
	}
	if !exists {
		return Entry{}, false, nil
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		return Entry{}, false, errtypes.StoreFault("reading "+key, err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Entry{}, false, errtypes.StoreFault("parsing "+key, err)
	}
	var best Entry
	bestRev := -1
	found := false
	for _, e := range idx.Revisions {
		n, ok := conanpath.ParseRevisionDirName(e.Revision)
		if !ok {
			continue
		}
		if n > bestRev {
			bestRev = n
			best = e
			found = true
		}
	}
	return best, found, nil
}

