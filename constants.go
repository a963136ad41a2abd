package slabmem

// Tunables. The size-class table and the small handful of knobs below
// are fixed at build time; there is no runtime resizing of the
// size-class table.
const (
	// MaxReusableLen is the largest request size served by a shared
	// slab page. Requests above this are LARGE: one external buffer
	// per allocation.
	MaxReusableLen = 512

	// MaxIdlePages is the number of fully-empty pages a class directory
	// keeps on hand before returning pages to the backing arena.
	MaxIdlePages = 2

	// Align is the byte alignment every request length is rounded up
	// to before size-class lookup.
	Align = 8

	// InitPadding is the fill byte written into a slab page's data
	// region on initialization, before any block is carved out of it.
	InitPadding byte = 0x00

	// fileInfoLen and funcInfoLen bound the call-site strings recorded
	// by debug allocations, one byte short of a round 64 to leave room
	// for a NUL terminator's worth of accounting.
	fileInfoLen = 63
	funcInfoLen = 63
)
