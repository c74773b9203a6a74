package util

import (
	"sync/atomic"
)

// SafeCounter defines a thread safe counter.
type SafeCounter struct {
	val int64
}

// Get returns value of the counter.
func (c *SafeCounter) Get() int64 {
	return atomic.LoadInt64(&c.val)
}

// Set sets value of the counter.
func (c *SafeCounter) Set(v int64) {
	atomic.StoreInt64(&c.val, v)
}

// Add adds delta to current counter.
func (c *SafeCounter) Add(delta int64) int64 {
	return atomic.AddInt64(&c.val, delta)
}
