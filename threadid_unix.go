//go:build unix

package slabmem

import "golang.org/x/sys/unix"

// currentThreadID returns the OS thread id. Go goroutines have no
// public, stable identifier of their own, so the OS thread id is used
// as the closest available per-call provenance marker.
func currentThreadID() int {
	return unix.Gettid()
}
