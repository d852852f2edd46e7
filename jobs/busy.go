package jobs

import "sync"

// BusyCounter is a reference-counted busy indication. Overlapping jobs
// each engage it once; the OnIdle hook fires only when the last one
// releases. It is owned by the composition root and passed by handle to
// whichever code needs it.
type BusyCounter struct {
	mu    sync.Mutex
	count int

	// OnBusy fires on the 0→1 transition, OnIdle on 1→0. Both may be
	// nil. Called outside the lock.
	OnBusy func()
	OnIdle func()
}

// Engage increments the counter.
func (b *BusyCounter) Engage() {
	b.mu.Lock()
	b.count++
	first := b.count == 1
	b.mu.Unlock()
	if first && b.OnBusy != nil {
		b.OnBusy()
	}
}

// Release decrements the counter, never below zero.
func (b *BusyCounter) Release() {
	b.mu.Lock()
	last := false
	if b.count > 0 {
		b.count--
		last = b.count == 0
	}
	b.mu.Unlock()
	if last && b.OnIdle != nil {
		b.OnIdle()
	}
}

// Active reports whether at least one job holds the counter.
func (b *BusyCounter) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count > 0
}
