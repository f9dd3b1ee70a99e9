// Package blobstore defines the abstract byte-addressable key/value store
// the conan server core consumes. The core never assumes a particular
// backend; concrete implementations live in sibling packages
// (fsblob, s3blob, memblob) and register themselves through Register so
// that cmd/conan-server can select one by config string, the same way
// reva's user/manager/registry picks a user manager implementation.
package blobstore

import (
	"context"
	"fmt"
	"sync"
)

// Store is the blob store contract consumed by every other module.
// Every method is a suspension point; implementations must be safe to
// call from concurrent handlers.
type Store interface {
	// List returns every key beneath prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Get returns the bytes stored at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes (overwriting) the bytes at key.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key, reporting whether it had existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Move renames src to dst. Backends that cannot rename atomically
	// may implement this as copy-then-delete; callers that need an
	// atomic swap use Put directly (see pkg/revisions).
	Move(ctx context.Context, src, dst string) error
}

// Constructor builds a Store from a component config map, mirroring the
// mapstructure-decoded config maps reva's manager constructors take.
type Constructor func(m map[string]interface{}) (Store, error)

var (
	mu       sync.Mutex
	registry = map[string]Constructor{}
)

// Register adds a named backend constructor. Backend packages call this
// from an init function, e.g. fsblob.init() calls
// blobstore.Register("fs", fsblob.New).
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// New builds the named backend from its config map.
func New(name string, m map[string]interface{}) (Store, error) {
	mu.Lock()
	ctor, ok := registry[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blobstore: unknown backend %q", name)
	}
	return ctor(m)
}
