// Package storelock implements a named, TTL-bounded advisory lock: a
// sentinel blob written under "<key>/.lock" holding a unique owner tag
// and an expiry, stealable once
// expired. It is a write-only convention layered entirely on top of
// blobstore.Store, grounded on the way reva's decomposedfs revisions
// code serializes concurrent writers through a lockfile before mutating
// shared on-disk state (pkg/storage/utils/decomposedfs/revisions.go's use
// of lockedfile.OpenFile around RestoreRevision).
package storelock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/cs3conan/conan-server/pkg/blobstore"
	"github.com/cs3conan/conan-server/pkg/errtypes"
	"github.com/google/uuid"
)

// DefaultTTL is the lock lifetime used when callers don't specify one.
const DefaultTTL = time.Hour

const sentinelSuffix = "/.lock"

type sentinel struct {
	Owner   string    `json:"owner"`
	Expires time.Time `json:"expires"`
}

// Lock is a held advisory lock; Release removes its sentinel blob.
type Lock struct {
	store   blobstore.Store
	key     string
	owner   string
	expires time.Time
}

// Key returns the coordinate key the lock guards.
func (l *Lock) Key() string { return l.key }

// Release removes the lock's sentinel blob. Releasing a lock that was
// stolen by another acquirer (because this one overran its TTL) is a
// no-op: the sentinel no longer belongs to us.
func (l *Lock) Release(ctx context.Context) error {
	cur, ok, err := readSentinel(ctx, l.store, l.key)
	if err != nil {
		return errtypes.StoreFault("reading sentinel on release", err)
	}
	if !ok || cur.Owner != l.owner {
		return nil
	}
	if _, err := l.store.Delete(ctx, sentinelKey(l.key)); err != nil {
		return errtypes.StoreFault("deleting sentinel", err)
	}
	return nil
}

func sentinelKey(key string) string { return key + sentinelSuffix }

func readSentinel(ctx context.Context, store blobstore.Store, key string) (*sentinel, bool, error) {
	exists, err := store.Exists(ctx, sentinelKey(key))
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	data, err := store.Get(ctx, sentinelKey(key))
	if err != nil {
		return nil, false, err
	}
	var s sentinel
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// Acquire attempts to take the lock on key. If a live (non-expired)
// sentinel already exists, Acquire retries once through an exponential
// backoff in case it expires mid-flight, using github.com/cenkalti/backoff
// the same way reva wires retry-style control flow around flaky
// collaborators, and fails with errtypes.StoreFault if the lock is still
// held afterward.
func Acquire(ctx context.Context, store blobstore.Store, key string, ttl time.Duration) (*Lock, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	owner := uuid.NewString()

	attempt := func() (*Lock, error) {
		cur, ok, err := readSentinel(ctx, store, key)
		if err != nil {
			return nil, errtypes.StoreFault("reading sentinel", err)
		}
		if ok && time.Now().Before(cur.Expires) {
			return nil, errtypes.StoreFault("lock held by "+cur.Owner, nil)
		}
		s := sentinel{Owner: owner, Expires: time.Now().Add(ttl)}
		data, err := json.Marshal(s)
		if err != nil {
			return nil, errtypes.StoreFault("marshaling sentinel", err)
		}
		if err := store.Put(ctx, sentinelKey(key), data); err != nil {
			return nil, errtypes.StoreFault("writing sentinel", err)
		}
		return &Lock{store: store, key: key, owner: owner, expires: s.Expires}, nil
	}

	// backoff.Retry makes its first call at once; WithMaxRetries(b, 1)
	// allows exactly one more call, after one backoff interval.
	var lock *Lock
	err := backoff.Retry(func() error {
		var attemptErr error
		lock, attemptErr = attempt()
		return attemptErr
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1))
	if err != nil {
		return nil, err
	}
	return lock, nil
}
