package slabmem

import (
	"runtime"
	"sort"
	"unsafe"
)

// LeakRecord describes one still-live debug-mode allocation, as
// reported by Allocator.Leaks / PrintLeakInfo.
type LeakRecord struct {
	Size      int
	File      string
	Function  string
	Line      int
	ThreadID  int
	Timestamp int64
}

// debugTracker records call-site provenance for every live debug-mode
// allocation, keyed by the block's address. It exists purely to answer
// "what's still allocated and where did it come from" — the allocation
// and freeing of the underlying bytes is still done by the normal
// classDirectory/slabPage path; debugTracker only shadows it.
type debugTracker struct {
	live map[uintptr]debugEntry
}

type debugEntry struct {
	size int
	info debugInfo
}

func newDebugTracker() *debugTracker {
	return &debugTracker{live: make(map[uintptr]debugEntry)}
}

// blockKey identifies block by the address of its backing array, not
// by indexing its first element — a ZERO-class block is a valid
// zero-length slice, and two distinct zero-length allocations must
// still produce distinct keys.
func blockKey(block []byte) uintptr {
	p := unsafe.SliceData(block)
	if p == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(p))
}

func (t *debugTracker) record(block []byte, size int, info debugInfo) {
	t.live[blockKey(block)] = debugEntry{size: size, info: info}
}

func (t *debugTracker) forget(block []byte) {
	delete(t.live, blockKey(block))
}

// rekey moves a block's tracked entry to newBlock's address after
// Reallocate, carrying its provenance forward and updating the recorded
// size to len(newBlock).
func (t *debugTracker) rekey(oldBlock, newBlock []byte) {
	oldKey := blockKey(oldBlock)
	entry, ok := t.live[oldKey]
	if !ok {
		return
	}
	delete(t.live, oldKey)
	entry.size = len(newBlock)
	t.live[blockKey(newBlock)] = entry
}

// leaks returns every still-live allocation, ordered by address for
// deterministic output (print_leak_info walks the page/block arrays in
// a fixed order; the tracker is a map keyed by block address, so
// sorting by that address gives this package an equivalent fixed
// order).
func (t *debugTracker) leaks() []LeakRecord {
	keys := make([]uintptr, 0, len(t.live))
	for k := range t.live {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]LeakRecord, 0, len(keys))
	for _, k := range keys {
		e := t.live[k]
		out = append(out, LeakRecord{
			Size:      e.size,
			File:      e.info.file,
			Function:  e.info.function,
			Line:      e.info.line,
			ThreadID:  e.info.threadID,
			Timestamp: e.info.timestamp,
		})
	}
	return out
}

// callerInfo captures the immediate caller of the exported AllocateDbg/
// CallocDbg entry point (skip=2: this function, the AllocateDbg or
// CallocDbg wrapper calling it).
func callerInfo(skip int, threadID int, now int64) debugInfo {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return newDebugInfo("unknown", "unknown", 0, threadID, now)
	}
	fn := runtime.FuncForPC(pc)
	name := "unknown"
	if fn != nil {
		name = fn.Name()
	}
	return newDebugInfo(file, name, line, threadID, now)
}
