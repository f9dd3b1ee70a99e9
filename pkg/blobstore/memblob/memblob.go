// Package memblob is an in-memory blobstore.Store, used by the revisions
// and conanserver test suites the way reva's manager tests keep an
// in-memory fixture instead of touching disk or a network backend.
package memblob

import (
	"context"
	"strings"
	"sync"

	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/pkg/errors"
)

func init() {
	blobstore.Register("memory", New)
}

// Store is a mutex-guarded map[string][]byte.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New builds an empty in-memory store. The config map is ignored; memory
// backends take no configuration.
func New(map[string]interface{}) (blobstore.Store, error) {
	return NewStore(), nil
}

// NewStore builds an empty in-memory store directly.
func NewStore() *Store {
	return &Store{data: map[string][]byte{}}
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if prefix == "" || k == prefix || strings.HasPrefix(k, prefix+"/") {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, errors.Errorf("memblob: %q not found", key)
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[key] = cp
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

func (s *Store) Move(ctx context.Context, src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[src]
	if !ok {
		return errors.Errorf("memblob: %q not found", src)
	}
	s.data[dst] = v
	delete(s.data, src)
	return nil
}

var _ blobstore.Store = (*Store)(nil)
