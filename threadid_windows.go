//go:build windows

package slabmem

import "golang.org/x/sys/windows"

// currentThreadID returns the OS thread id. Go goroutines have no
// public, stable identifier of their own, so the OS thread id is used
// as the closest available per-call provenance marker.
func currentThreadID() int {
	return int(windows.GetCurrentThreadId())
}
