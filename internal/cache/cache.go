// Package cache stores retrieval results and final answers under TTL.
// Entries expire lazily on read; SweepExpired reclaims space in bulk.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCacheUnavailable signals a backend failure. Callers treat it as a miss
// so a broken cache never blocks answering.
var ErrCacheUnavailable = eris.New("cache: backend unavailable")

// ErrNotFound is returned on a cache miss or a lazily-expired entry.
var ErrNotFound = eris.New("cache: not found")

// Cache is the storage interface shared by the SQLite and Postgres backends.
type Cache interface {
	// Get returns the payload for key, or ErrNotFound when absent or
	// expired. Expired rows are deleted on read.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores payload under key with the given TTL, replacing any
	// existing entry.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// SweepExpired removes all expired rows and returns how many went.
	SweepExpired(ctx context.Context) (int64, error)
	Close() error
}

// Fingerprint returns the SHA-256 hex of an operation name and its
// normalized arguments. Identical logical requests always map to the same
// key; the operation name keeps retrieval and answer entries from colliding.
func Fingerprint(operation string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, operation)
	for _, a := range args {
		parts = append(parts, strings.ToLower(strings.TrimSpace(a)))
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", h)
}
