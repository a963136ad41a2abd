package slabmem

import "unsafe"

// pageIndex maps a block's own address back to the slabPage it was
// carved from. Every block address a page serves is registered once,
// when the page is drawn from the arena, and unregistered once, when
// the page is terminated — not on every alloc/free, since a block's
// address never moves while its page lives. This is what lets free,
// owns and Allocator.classOfLocked answer "which page (and therefore
// which class) does this block belong to" in O(1) instead of walking
// every page in every class.
type pageIndex struct {
	byAddr map[uintptr]*slabPage
}

func newPageIndex() *pageIndex {
	return &pageIndex{byAddr: make(map[uintptr]*slabPage)}
}

func (x *pageIndex) register(p *slabPage) {
	for i := 0; i < p.blocksTotal; i++ {
		blk := p.blockAt(i)
		x.byAddr[uintptr(unsafe.Pointer(&blk[0]))] = p
	}
}

func (x *pageIndex) unregister(p *slabPage) {
	for i := 0; i < p.blocksTotal; i++ {
		blk := p.blockAt(i)
		delete(x.byAddr, uintptr(unsafe.Pointer(&blk[0])))
	}
}

func (x *pageIndex) lookup(block []byte) (*slabPage, bool) {
	if len(block) == 0 {
		return nil, false
	}
	p, ok := x.byAddr[uintptr(unsafe.Pointer(&block[0]))]
	return p, ok
}

// classDirectory owns every slabPage currently backing one size class:
// a single intrusive pageList plus an idle-page count. A class has a
// usable page iff its list is non-empty and head is not full — every
// page that becomes non-full (freshly drawn, or freed into) is
// promoted to head, and every page that becomes full is demoted to
// tail, so head alone always answers "is there room" without scanning
// the rest of the list. A page that just became completely empty is
// promoted to head too (most recently freed-from, most likely to be
// reused next) and is only returned to the arena once more than
// MaxIdlePages pages are sitting empty at once.
type classDirectory struct {
	class     int
	pages     pageList
	idleCount int
	arena     Arena
	index     *pageIndex
}

func newClassDirectory(class int, arena Arena, index *pageIndex) *classDirectory {
	return &classDirectory{class: class, arena: arena, index: index}
}

// alloc returns a zero-filled block from this class, drawing a fresh
// page from the arena only when head is full (or there is no page
// yet) — per the class's own serving-selection rule, any other page
// behind head is full too.
func (d *classDirectory) alloc() ([]byte, error) {
	if d.pages.count > 0 && !d.pages.head.full() {
		head := d.pages.head
		wasEmpty := head.empty()
		blk, err := head.alloc()
		if err != nil {
			return nil, err
		}
		if wasEmpty {
			d.idleCount--
		}
		if head.full() {
			d.pages.removeForce(head)
			d.pages.push(head)
		}
		return blk, nil
	}

	newPage, err := newSlabPage(d.class, d.arena)
	if err != nil {
		return nil, err
	}
	d.index.register(newPage)
	d.pages.insert(0, newPage)
	return newPage.alloc()
}

// free locates the page owning block via the shared index, returns the
// block to it, and applies the hot/idle discipline described above.
// Returns ErrBadArg if block isn't owned by a page of this class.
func (d *classDirectory) free(block []byte) error {
	p, ok := d.index.lookup(block)
	if !ok || classOfPage(p) != d.class {
		return NewError(ErrBadArg, "free: block not owned by this size class")
	}

	wasEmpty := p.empty()
	if err := p.free(block); err != nil {
		return err
	}

	d.pages.removeForce(p)
	d.pages.insert(0, p)

	if p.empty() && !wasEmpty {
		d.idleCount++
		if d.idleCount > MaxIdlePages {
			d.pages.removeForce(p)
			d.idleCount--
			d.index.unregister(p)
			return p.terminate()
		}
	}
	return nil
}

// owns reports whether block belongs to some page currently held by
// this directory, without mutating any state. Allocator does not call
// it; it routes Free through the shared pageIndex directly.
func (d *classDirectory) owns(block []byte) bool {
	p, ok := d.index.lookup(block)
	return ok && classOfPage(p) == d.class
}

// close terminates every page this directory holds, returning their
// buffers to the arena. Called from Allocator.Close.
func (d *classDirectory) close() error {
	var firstErr error
	for d.pages.count > 0 {
		p := d.pages.remove(0)
		d.index.unregister(p)
		if err := p.terminate(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.idleCount = 0
	return firstErr
}
