package slabmem

import (
	"math/bits"
	"sync"
	"unsafe"

	"github.com/kelindar/slabmem/internal/mmap"
)

// Arena is the backing allocator slab pages are drawn from. It is the
// "out of scope... only noted" external collaborator: the allocator
// itself only ever asks for whole pages and returns them whole, never
// sub-allocating across Arena boundaries.
type Arena interface {
	// Alloc returns a freshly zeroed buffer of exactly n bytes.
	Alloc(n int) ([]byte, error)
	// Free returns a buffer previously obtained from Alloc.
	Free(b []byte) error
}

// HeapArena is the default Arena: every page is a plain make([]byte,
// n), reclaimed by the garbage collector once Free drops the last
// reference. No syscalls, safe under -race, and what New uses when no
// Option overrides it.
type HeapArena struct{}

// Alloc implements Arena.
func (HeapArena) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, NewError(ErrBadArg, "HeapArena.Alloc: non-positive size")
	}
	return make([]byte, n), nil
}

// Free implements Arena. HeapArena has nothing to do beyond letting
// the slice become garbage.
func (HeapArena) Free(b []byte) error {
	return nil
}

// mmapSegmentBytes is the size of each OS mapping MmapArena requests
// from the kernel in bulk; individual slab pages (at most 4096 bytes)
// are carved out of these segments via the slot bitmap.
const mmapSegmentBytes = 1 << 20 // 1 MiB

// MmapArena draws memory in mmapSegmentBytes-sized OS mappings and
// hands out page-kind-sized slots from them, tracked with a bitmap.
// Slot size is fixed per arena at construction, and Alloc/Free reject
// any other size, so one MmapArena serves requests of that single size
// only. The allocator does not create MmapArenas itself; WithArena
// installs one Arena for every class.
type MmapArena struct {
	mu       sync.Mutex
	slotSize int

	segments []*mmap.Mapping
	bitmaps  []*bitmap
}

// NewMmapArena creates an arena whose slots are slotSize bytes each
// (the page-kind size a directory needs, e.g. 4096 for the FOUR_K
// classes).
func NewMmapArena(slotSize int) (*MmapArena, error) {
	if slotSize <= 0 {
		return nil, NewError(ErrBadArg, "NewMmapArena: non-positive slot size")
	}
	return &MmapArena{slotSize: slotSize}, nil
}

// Alloc implements Arena. n must equal the arena's slot size.
func (a *MmapArena) Alloc(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n != a.slotSize {
		return nil, NewError(ErrBadArg, "MmapArena.Alloc: size does not match slot size")
	}

	for i, bm := range a.bitmaps {
		if slot, ok := bm.allocate(); ok {
			seg := a.segments[i].Data()
			off := slot * uint32(a.slotSize)
			buf := seg[off : off+uint32(a.slotSize)]
			for j := range buf {
				buf[j] = 0
			}
			return buf, nil
		}
	}

	if err := a.addSegment(); err != nil {
		return nil, err
	}
	return a.Alloc(n)
}

func (a *MmapArena) addSegment() error {
	slotsPerSegment := mmapSegmentBytes / a.slotSize
	if slotsPerSegment == 0 {
		slotsPerSegment = 1
	}
	segBytes := slotsPerSegment * a.slotSize

	m, err := mmap.New(segBytes)
	if err != nil {
		return wrapError(ErrNoMem, "MmapArena: map new segment", err)
	}

	a.segments = append(a.segments, m)
	a.bitmaps = append(a.bitmaps, newBitmap(uint32(slotsPerSegment)))
	return nil
}

// Free implements Arena, returning b's slot to whichever segment it
// came from.
func (a *MmapArena) Free(b []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(b) != a.slotSize {
		return NewError(ErrBadArg, "MmapArena.Free: size does not match slot size")
	}

	for i, m := range a.segments {
		seg := m.Data()
		if addrWithin(seg, b) {
			off := addrOffset(seg, b)
			slot := uint32(off) / uint32(a.slotSize)
			a.bitmaps[i].free(slot)
			return nil
		}
	}
	return NewError(ErrBadArg, "MmapArena.Free: buffer not owned by this arena")
}

// Close unmaps every segment. Not part of Arena; Allocator.Close calls
// it on any arena that has a Close method.
func (a *MmapArena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for _, m := range a.segments {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.segments = nil
	a.bitmaps = nil
	return firstErr
}

// bitmap tracks slot allocation within one mmap segment with a
// word-at-a-time scan for the first free bit.
type bitmap struct {
	words    []uint64
	numSlots uint32
	freeHint uint32
}

func newBitmap(numSlots uint32) *bitmap {
	numWords := (numSlots + 63) / 64
	return &bitmap{words: make([]uint64, numWords), numSlots: numSlots}
}

func (b *bitmap) allocate() (uint32, bool) {
	numWords := uint32(len(b.words))
	if numWords == 0 {
		return 0, false
	}

	startWord := b.freeHint / 64
	for i := uint32(0); i < numWords; i++ {
		wordIdx := (startWord + i) % numWords
		word := b.words[wordIdx]
		if word == ^uint64(0) {
			continue
		}

		bitPos := bits.TrailingZeros64(^word)
		slot := wordIdx*64 + uint32(bitPos)
		if slot >= b.numSlots {
			continue
		}

		b.words[wordIdx] |= 1 << bitPos
		b.freeHint = slot + 1
		return slot, true
	}
	return 0, false
}

func (b *bitmap) free(slot uint32) {
	if slot >= b.numSlots {
		return
	}
	wordIdx := slot / 64
	bitPos := slot % 64
	b.words[wordIdx] &^= 1 << bitPos
	if slot < b.freeHint {
		b.freeHint = slot
	}
}

func addrWithin(seg, b []byte) bool {
	if len(seg) == 0 || len(b) == 0 {
		return false
	}
	segStart := uintptr(unsafe.Pointer(&seg[0]))
	segEnd := segStart + uintptr(len(seg))
	target := uintptr(unsafe.Pointer(&b[0]))
	return target >= segStart && target < segEnd
}

func addrOffset(seg, b []byte) int {
	segStart := uintptr(unsafe.Pointer(&seg[0]))
	target := uintptr(unsafe.Pointer(&b[0]))
	return int(target - segStart)
}
