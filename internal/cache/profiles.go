package cache

import (
	"time"

	"vaultscore/internal/core"
)

// NewProfileCache returns an LRU cache of vault profiles. Profiles are cloned
// going in and coming out, so a caller that edits the deposits of a profile it
// got from the cache cannot change what the next reader sees.
func NewProfileCache(maxSize int, ttl time.Duration) *LRUCache[core.VaultProfile] {
	c := NewLRUCache[core.VaultProfile](maxSize, ttl)
	c.clone = core.VaultProfile.Clone
	return c
}
