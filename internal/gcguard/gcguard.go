// Package gcguard implements the cooperative GC suppressor described in
// spec.md §5 and §9: while any Reader/Writer/Combiner context is open,
// background GC is disabled; when the last one closes, it resumes.
//
// This is a throughput optimization, not a correctness requirement (spec.md
// §9). It mirrors the original's module-level increment_gc_counter /
// decrement_gc_counter reference count, realized in Go via
// runtime/debug.SetGCPercent instead of Python's gc.disable/gc.enable.
package gcguard

import (
	"runtime/debug"
	"sync"
)

var (
	mu           sync.Mutex
	refCount     int
	prevGCPercent int
)

// Acquire increments the reference count and disables GC if this is the
// first active guard. It is a no-op when enabled is false, so callers can
// unconditionally write defer gcguard.Acquire(cfg.DisableGC)(); the returned
// release func is safe to call more than once.
func Acquire(enabled bool) (release func()) {
	if !enabled {
		return func() {}
	}

	mu.Lock()
	if refCount == 0 {
		prevGCPercent = debug.SetGCPercent(-1)
	}
	refCount++
	mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()

			refCount--
			if refCount == 0 {
				debug.SetGCPercent(prevGCPercent)
			}
		})
	}
}
