package slabmem

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/cznic/mathutil"
)

// Option configures an Allocator at construction.
type Option func(*allocatorConfig)

type allocatorConfig struct {
	arena  Arena
	debug  bool
	output io.Writer
}

// WithArena overrides the backing Arena pages are drawn from. Default
// is HeapArena.
func WithArena(a Arena) Option {
	return func(c *allocatorConfig) { c.arena = a }
}

// WithDebug enables call-site provenance tracking for leak reporting
// (AllocateDbg/ReallocateDbg/FreeDbg/CallocDbg, PrintLeakInfo, Leaks).
func WithDebug(debug bool) Option {
	return func(c *allocatorConfig) { c.debug = debug }
}

// WithOutput stores w as the Allocator's output writer (default
// os.Stdout). PrintInfo, PrintBlockList and PrintLeakInfo write only to
// the writer passed to them and do not read this setting.
func WithOutput(w io.Writer) Option {
	return func(c *allocatorConfig) { c.output = w }
}

// Allocator is a size-classed slab allocator. The zero value is not
// usable; construct one with New. All exported methods are safe for
// concurrent use — a single sync.Mutex serializes every operation.
type Allocator struct {
	mu sync.Mutex

	arena Arena
	dirs  [largeClassIndex - 1]*classDirectory // classes 1..13, index class-1
	pages *pageIndex

	debug    bool
	tracker  *debugTracker
	external map[uintptr]externalEntry
	output   io.Writer
	closed   bool
}

type externalEntry struct {
	buf   []byte
	class int
}

// New creates an Allocator. With no options it uses a HeapArena and
// plain (non-debug) allocation.
func New(opts ...Option) *Allocator {
	cfg := allocatorConfig{arena: HeapArena{}, output: os.Stdout}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Allocator{
		arena:    cfg.arena,
		debug:    cfg.debug,
		pages:    newPageIndex(),
		external: make(map[uintptr]externalEntry),
		output:   cfg.output,
	}
	for class := 1; class < largeClassIndex; class++ {
		a.dirs[class-1] = newClassDirectory(class, a.arena, a.pages)
	}
	if a.debug {
		a.tracker = newDebugTracker()
	}
	return a
}

func (a *Allocator) dirFor(class int) *classDirectory {
	return a.dirs[class-1]
}

// Close releases every page this Allocator holds back to its Arena.
// After Close, the allocate, calloc, reallocate and free methods
// (including their Dbg variants) and PrintLeakInfo return ErrClosed,
// and Leaks returns nil.
func (a *Allocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	for _, d := range a.dirs {
		if err := d.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, e := range a.external {
		if err := a.arena.Free(e.buf); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.external = nil
	a.tracker = nil

	if closer, ok := a.arena.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Allocate returns a zero-filled buffer of n bytes, served from a
// shared slab page for n in [1, MaxReusableLen] or from a dedicated
// external buffer for n == 0 or n > MaxReusableLen.
func (a *Allocator) Allocate(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocateLocked(n)
}

// AllocateDbg behaves like Allocate and additionally records the
// caller's file/function/line/thread/timestamp for leak reporting.
// Debug provenance is only recorded when the Allocator was built with
// WithDebug(true); otherwise it behaves exactly like Allocate.
func (a *Allocator) AllocateDbg(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	blk, err := a.allocateLocked(n)
	if err != nil {
		return nil, err
	}
	if a.debug {
		info := callerInfo(2, currentThreadID(), time.Now().UnixNano())
		a.tracker.record(blk, n, info)
	}
	return blk, nil
}

func (a *Allocator) allocateLocked(n int) ([]byte, error) {
	if a.closed {
		return nil, NewError(ErrClosed, "allocate after Close")
	}
	class, err := classOfLength(n)
	if err != nil {
		return nil, err
	}

	if class == 0 {
		buf, err := a.arena.Alloc(classTable[0].blockSize)
		if err != nil {
			return nil, err
		}
		a.external[blockKey(buf)] = externalEntry{buf: buf, class: 0}
		return buf[:n], nil
	}
	if class == largeClassIndex {
		size := roundUp(n, Align)
		buf, err := a.arena.Alloc(size)
		if err != nil {
			return nil, err
		}
		a.external[blockKey(buf)] = externalEntry{buf: buf, class: largeClassIndex}
		return buf[:n], nil
	}

	blk, err := a.dirFor(class).alloc()
	if err != nil {
		return nil, err
	}
	return blk[:n], nil
}

// Calloc allocates num*size zero-filled bytes, erroring on
// multiplication overflow. Since Allocate already zero-fills, Calloc
// is just the overflow-checked multiply in front of it.
func (a *Allocator) Calloc(num, size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.callocLocked(num, size)
}

// CallocDbg behaves like Calloc with provenance recording, as AllocateDbg
// does for Allocate.
func (a *Allocator) CallocDbg(num, size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	total, err := callocSize(num, size)
	if err != nil {
		return nil, err
	}
	blk, err := a.allocateLocked(total)
	if err != nil {
		return nil, err
	}
	if a.debug {
		info := callerInfo(2, currentThreadID(), time.Now().UnixNano())
		a.tracker.record(blk, total, info)
	}
	return blk, nil
}

func (a *Allocator) callocLocked(num, size int) ([]byte, error) {
	total, err := callocSize(num, size)
	if err != nil {
		return nil, err
	}
	return a.allocateLocked(total)
}

func callocSize(num, size int) (int, error) {
	if num < 0 || size < 0 {
		return 0, NewError(ErrBadArg, "calloc: negative count or size")
	}
	if num == 0 || size == 0 {
		return 0, nil
	}
	total := num * size
	if total/size != num {
		return 0, NewError(ErrBadArg, "calloc: size overflow")
	}
	return total, nil
}

// Free returns block to the allocator. Returns ErrBadArg if block was
// not obtained from this Allocator (or was already freed).
func (a *Allocator) Free(block []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.freeLocked(block)
}

// FreeDbg behaves like Free and forgets block's leak-tracking entry.
func (a *Allocator) FreeDbg(block []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.debug && !a.closed {
		a.tracker.forget(block)
	}
	return a.freeLocked(block)
}

func (a *Allocator) freeLocked(block []byte) error {
	if a.closed {
		return NewError(ErrClosed, "free after Close")
	}

	key := blockKey(block)
	if e, ok := a.external[key]; ok {
		delete(a.external, key)
		return a.arena.Free(e.buf)
	}

	if p, ok := a.pages.lookup(block); ok {
		return a.dirFor(classOfPage(p)).free(block)
	}
	return NewError(ErrBadArg, "free: pointer not tracked by this allocator")
}

// Reallocate resizes block to newLen, reusing the existing storage in
// place when the current size class already has room for it, and
// otherwise allocating fresh storage, copying the overlap, and
// freeing the old block. If the fresh
// allocation fails, block is left untouched and the error is returned —
// Reallocate never silently drops a live allocation.
func (a *Allocator) Reallocate(block []byte, newLen int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reallocateLocked(block, newLen)
}

// ReallocateDbg behaves like Reallocate, carrying the block's
// provenance record forward to its new address if it moved and
// updating the record's size to newLen.
func (a *Allocator) ReallocateDbg(block []byte, newLen int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	newBlock, err := a.reallocateLocked(block, newLen)
	if err != nil {
		return nil, err
	}
	if a.debug {
		a.tracker.rekey(block, newBlock)
	}
	return newBlock, nil
}

func (a *Allocator) reallocateLocked(block []byte, newLen int) ([]byte, error) {
	if a.closed {
		return nil, NewError(ErrClosed, "reallocate after Close")
	}

	oldClass, isExternal, err := a.classOfLocked(block)
	if err != nil {
		return nil, err
	}
	newClass, err := classOfLength(newLen)
	if err != nil {
		return nil, err
	}

	if !isExternal && newClass != 0 && newClass != largeClassIndex &&
		oldClass <= newClass && classTable[oldClass].blockSize >= newLen {
		return block[:newLen], nil
	}

	newBlock, err := a.allocateLocked(newLen)
	if err != nil {
		return nil, err
	}

	copyLen := mathutil.Min(len(block), newLen)
	copy(newBlock, block[:copyLen])

	if err := a.freeLocked(block); err != nil {
		return newBlock, err
	}
	return newBlock, nil
}

// classOfLocked identifies which class currently owns block.
func (a *Allocator) classOfLocked(block []byte) (class int, isExternal bool, err error) {
	key := blockKey(block)
	if e, ok := a.external[key]; ok {
		return e.class, true, nil
	}
	if p, ok := a.pages.lookup(block); ok {
		return classOfPage(p), false, nil
	}
	return 0, false, NewError(ErrBadArg, "pointer not tracked by this allocator")
}

// UsableSize returns the usable size of block: its class's fixed block
// size for a slab block (always >= the length originally requested),
// or the requested length itself for a zero-length or LARGE block.
// Returns 0 if block is not tracked by this Allocator.
func (a *Allocator) UsableSize(block []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	class, isExternal, err := a.classOfLocked(block)
	if err != nil {
		return 0
	}
	if isExternal {
		return len(block)
	}
	return classTable[class].blockSize
}

// Zero overwrites every byte of block with zero. Useful for scrubbing
// sensitive data before a block is returned to a shared freelist.
func Zero(block []byte) {
	for i := range block {
		block[i] = 0
	}
}
