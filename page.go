package slabmem

import "unsafe"

// slabPage is one physical page (1K/2K/4K) carved into blocksTotal
// fixed-size blocks for a single size class. It doubles as a node in
// an intrusive pageList (prev/next): the page descriptor and the link
// node are the same struct.
//
// Free blocks are threaded through an intrusive singly-linked list
// whose "next" pointer is written directly into the free block's own
// data area (blockFreeNext/setBlockFreeNext in block.go) — there is no
// separate bookkeeping array for the freelist itself, only the
// status slice below, which exists so PrintBlockList and double-free
// detection don't have to walk the freelist to answer "is block i
// free?".
type slabPage struct {
	prev, next *slabPage

	kind        pageKind
	buf         []byte
	blockSize   int
	blocksTotal int
	status      []blockStatus
	freeHead    unsafe.Pointer
	freeCount   int

	arena Arena
}

// newSlabPage draws a fresh page of the given class's page kind from
// arena, zero-fills it to InitPadding and threads every block onto the
// free list. class must be a shared-page class (1..13); ZERO and LARGE
// are backed by per-allocation external buffers and never form a
// slabPage (see allocateLocked in alloc.go).
func newSlabPage(class int, arena Arena) (*slabPage, error) {
	if class <= 0 || class >= largeClassIndex {
		return nil, NewError(ErrBadArg, "newSlabPage: class is not a shared-page class")
	}

	cls := classTable[class]
	total := cls.kind.pageBytes()
	buf, err := arena.Alloc(total)
	if err != nil {
		return nil, wrapError(ErrNoMem, "allocate slab page", err)
	}
	for i := range buf {
		buf[i] = InitPadding
	}

	p := &slabPage{
		kind:        cls.kind,
		buf:         buf,
		blockSize:   cls.blockSize,
		blocksTotal: cls.blocksPerPage,
		status:      make([]blockStatus, cls.blocksPerPage),
		arena:       arena,
	}
	p.prev = p
	p.next = p
	p.initFreelist()
	return p, nil
}

func (p *slabPage) initFreelist() {
	p.freeHead = nil
	for i := p.blocksTotal - 1; i >= 0; i-- {
		blk := p.blockAt(i)
		setBlockFreeNext(blk, p.freeHead)
		p.freeHead = unsafe.Pointer(&blk[0])
	}
	p.freeCount = p.blocksTotal
}

func (p *slabPage) blockAt(i int) []byte {
	off := i * p.blockSize
	return p.buf[off : off+p.blockSize]
}

func (p *slabPage) full() bool  { return p.freeCount == 0 }
func (p *slabPage) empty() bool { return p.freeCount == p.blocksTotal }

// indexOf maps a pointer back to its block index within this page, or
// -1 if it doesn't belong here. This is the Go stand-in for the C
// original's `page.head_addr == page` self-pointer assertion: instead
// of a header back-pointer, bounds arithmetic on the page's own buf
// slice answers the same "does this address genuinely belong to this
// page" question.
func (p *slabPage) indexOf(ptr unsafe.Pointer) int {
	if len(p.buf) == 0 {
		return -1
	}
	base := uintptr(unsafe.Pointer(&p.buf[0]))
	target := uintptr(ptr)
	if target < base {
		return -1
	}
	off := int(target - base)
	if off >= len(p.buf) {
		return -1
	}
	idx := off / p.blockSize
	if idx < 0 || idx >= p.blocksTotal {
		return -1
	}
	return idx
}

// alloc pops the head of the free list and returns its data region,
// zero-filled. Returns ErrNoMem if the page is full.
func (p *slabPage) alloc() ([]byte, error) {
	if p.freeHead == nil {
		return nil, NewError(ErrNoMem, "slab page has no free blocks")
	}

	idx := p.indexOf(p.freeHead)
	if idx < 0 {
		corruptionPanic("slabPage.alloc")
	}

	blk := p.blockAt(idx)
	p.freeHead = blockFreeNext(blk)
	p.status[idx] = blockUsed
	p.freeCount--

	for i := range blk {
		blk[i] = 0
	}
	return blk, nil
}

// free returns block to this page's free list. Returns ErrBadArg if
// block doesn't belong to this page or is already free (a double
// free) rather than silently ignoring the misuse.
func (p *slabPage) free(block []byte) error {
	if len(block) == 0 {
		return NewError(ErrBadArg, "free: nil block")
	}

	idx := p.indexOf(unsafe.Pointer(&block[0]))
	if idx < 0 {
		return NewError(ErrBadArg, "free: block does not belong to this page")
	}
	if p.status[idx] == blockFree {
		return NewError(ErrBadArg, "free: double free")
	}

	p.status[idx] = blockFree
	blk := p.blockAt(idx)
	setBlockFreeNext(blk, p.freeHead)
	p.freeHead = unsafe.Pointer(&blk[0])
	p.freeCount++
	return nil
}

// terminate returns this page's backing bytes to the arena it was
// drawn from. It does not check that the page is empty: directory.go's
// free terminates only idle pages, while its close terminates every
// page, used or not.
func (p *slabPage) terminate() error {
	return p.arena.Free(p.buf)
}
