// Package cache memoizes parsed schedules per address identifier with a
// bounded freshness window and a stale fallback served on upstream failure.
package cache
