// Package cache keeps recently fetched bar series so repeated requests within the
// TTL skip the remote provider.
package cache

import (
	"time"

	"MacdView/internal/model"
	"MacdView/internal/timeframe"
)

// Key identifies one fetched series.
type Key struct {
	Symbol   string
	Interval timeframe.BaseInterval
}

// Entry is a fetched series with the range it was requested for.
type Entry struct {
	Bars      model.Series
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
}

// Covers reports whether the entry was fetched for a range reaching back to start.
func (e *Entry) Covers(start time.Time) bool {
	return !e.Start.After(start)
}

// Cache stores entries for a bounded time.
type Cache interface {
	// Get returns the entry for key, or ok=false if absent or expired.
	Get(key Key) (entry *Entry, ok bool, err error)
	Put(key Key, entry *Entry) error
	// Clear drops every entry.
	Clear() error
	Close() error
}

func expired(fetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(fetchedAt) >= ttl
}
