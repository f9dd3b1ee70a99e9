// Package fsblob is a filesystem-rooted blobstore.Store implementation,
// the default backend for cmd/conan-server. It mirrors the plain os/
// path-filepath tree walking reva's pkg/storage/fs/posix backend uses for
// its on-disk layout; no third-party library covers "walk a directory
// tree as a key/value store" better than the standard library here (see
// DESIGN.md).
package fsblob

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

func init() {
	blobstore.Register("fs", New)
}

type config struct {
	Root string `mapstructure:"root"`
}

// Store roots a blobstore.Store at a directory on the local filesystem.
// Keys are slash-separated paths relative to Root.
type Store struct {
	root string
}

// New builds a filesystem-backed store from a {"root": "<path>"} config map.
func New(m map[string]interface{}) (blobstore.Store, error) {
	var c config
	if err := mapstructure.Decode(m, &c); err != nil {
		return nil, errors.Wrap(err, "fsblob: error decoding config")
	}
	if c.Root == "" {
		return nil, errors.New("fsblob: root is required")
	}
	if err := os.MkdirAll(c.Root, 0755); err != nil {
		return nil, errors.Wrap(err, "fsblob: could not create root")
	}
	return &Store{root: c.Root}, nil
}

// NewAt builds a filesystem-backed store rooted at root directly, without
// going through the config-map registry. Used by tests.
func NewAt(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "fsblob: could not create root")
	}
	return &Store{root: root}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// List implements blobstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	base := s.path(prefix)
	info, err := os.Stat(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "fsblob: stat %q", prefix)
	}
	if !info.IsDir() {
		return []string{prefix}, nil
	}
	var keys []string
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fsblob: list %q", prefix)
	}
	return keys, nil
}

// Exists implements blobstore.Store.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "fsblob: stat %q", key)
}

// Get implements blobstore.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "fsblob: %q not found", key)
		}
		return nil, errors.Wrapf(err, "fsblob: read %q", key)
	}
	return data, nil
}

// Put implements blobstore.Store.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return errors.Wrapf(err, "fsblob: mkdir for %q", key)
	}
	// write to a temp file in the same directory, then rename: the
	// rename is atomic within one filesystem, giving revisions.txt
	// readers either the old or the full new content, never a partial
	// write.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "fsblob: tempfile for %q", key)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "fsblob: write %q", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "fsblob: close %q", key)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "fsblob: rename into %q", key)
	}
	return nil
}

// Delete implements blobstore.Store.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	existed, err := s.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}
	if err := os.RemoveAll(s.path(key)); err != nil {
		return false, errors.Wrapf(err, "fsblob: delete %q", key)
	}
	return true, nil
}

// Move implements blobstore.Store.
func (s *Store) Move(ctx context.Context, src, dst string) error {
	dstPath := s.path(dst)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return errors.Wrapf(err, "fsblob: mkdir for %q", dst)
	}
	if err := os.Rename(s.path(src), dstPath); err != nil {
		return errors.Wrapf(err, "fsblob: move %q -> %q", src, dst)
	}
	return nil
}

var _ blobstore.Store = (*Store)(nil)
