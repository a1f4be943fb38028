package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for candidate caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CandidateKey generates a cache key for a gazetteer candidate query.
// The limit is part of the key: a truncated list must not satisfy a
// larger request.
func CandidateKey(name string, limit int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", name, limit)))
	return "geoparse:v1:" + hex.EncodeToString(hash[:])
}
