package cache

import (
	"strconv"
	"time"

	"fintrack/internal/core"
)

// StatusCache keeps each user's budget status report until it expires or a
// write to the user's ledger invalidates it.
type StatusCache struct {
	lru *LRUCache[[]core.StatusRow]
}

func NewStatusCache(maxUsers int, ttl time.Duration) *StatusCache {
	return &StatusCache{lru: NewLRUCache[[]core.StatusRow](maxUsers, ttl)}
}

func statusKey(userID int64) string {
	return "status:" + strconv.FormatInt(userID, 10)
}

func (c *StatusCache) Get(userID int64) ([]core.StatusRow, bool) {
	return c.lru.Get(statusKey(userID))
}

func (c *StatusCache) Set(userID int64, rows []core.StatusRow) {
	c.lru.Set(statusKey(userID), rows)
}

func (c *StatusCache) Invalidate(userID int64) {
	c.lru.Delete(statusKey(userID))
}

func (c *StatusCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *StatusCache) Size() int {
	return c.lru.Size()
}
