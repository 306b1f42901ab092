// Package cache stores fetched fund documents so repeated runs on the same
// day do not re-hit the source site. A layered memory+disk cache is used:
// memory within one process, disk across CLI invocations.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage contract shared by the memory and disk layers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a fund source URL.
func Key(source string) string {
	hash := sha256.Sum256([]byte(source))
	return "fundlens:v1:" + hex.EncodeToString(hash[:])
}
