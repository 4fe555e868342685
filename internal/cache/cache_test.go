package cache

import (
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCacheInvalidate(t *testing.T) {
	c := NewStatusCache(8, time.Minute)
	rows := []core.StatusRow{{CategoryID: 1, Name: "Food", Percentage: decimal.NewFromInt(90), Status: core.StatusWarning}}

	c.Set(1, rows)
	c.Set(2, nil)

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	c.Invalidate(1)
	_, ok = c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(2)
	assert.True(t, ok, "other users are untouched")
}

func TestManagerCleanAll(t *testing.T) {
	status := NewStatusCache(4, time.Minute)
	now := time.Now()
	status.lru.now = func() time.Time { return now }
	status.Set(1, nil)

	m := NewManager()
	m.Register(status)
	assert.Equal(t, 0, m.CleanAll())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.CleanAll())

	m.StartCleanup(time.Hour)
	m.Stop()
}
