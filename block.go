package slabmem

import "unsafe"

// blockStatus marks a block as free or allocated. Blocks carry no
// header inside a slab page: slabPage keeps one blockStatus per block
// in its status slice, and a free block's intrusive singly-linked
// pointer to the next free block is written directly into the block's
// own (otherwise unused) data bytes via unsafe.Pointer, the way the C
// original overlays a `next` pointer onto unused block storage.
type blockStatus uint8

const (
	blockFree blockStatus = iota
	blockUsed
)

// blockFreeNext reads the intrusive next-free-block pointer stored at
// the start of a free block's data region.
func blockFreeNext(data []byte) unsafe.Pointer {
	if len(data) < int(unsafe.Sizeof(uintptr(0))) {
		return nil
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&data[0]))
}

// setBlockFreeNext writes the intrusive next-free-block pointer into
// the start of a free block's data region.
func setBlockFreeNext(data []byte, next unsafe.Pointer) {
	if len(data) < int(unsafe.Sizeof(uintptr(0))) {
		return
	}
	*(*unsafe.Pointer)(unsafe.Pointer(&data[0])) = next
}

// debugInfo is the call-site provenance recorded for a debug-mode
// allocation. file and function are truncated to at most fileInfoLen/
// funcInfoLen bytes.
type debugInfo struct {
	file      string
	function  string
	line      int
	threadID  int
	timestamp int64
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func newDebugInfo(file, function string, line int, threadID int, timestamp int64) debugInfo {
	return debugInfo{
		file:      truncate(file, fileInfoLen),
		function:  truncate(function, funcInfoLen),
		line:      line,
		threadID:  threadID,
		timestamp: timestamp,
	}
}
