package slabmem

// pageKind identifies the physical page size a size class is carved
// from.
type pageKind int

const (
	kindZero pageKind = iota
	kindOneK
	kindTwoK
	kindFourK
	kindLarge
)

// pageBytes returns the raw page allocation size for a page kind, or 0
// for kindZero/kindLarge which are backed by a per-allocation external
// buffer rather than a shared page.
func (k pageKind) pageBytes() int {
	switch k {
	case kindOneK:
		return 1024
	case kindTwoK:
		return 2048
	case kindFourK:
		return 4096
	default:
		return 0
	}
}

// sizeClass describes one row of the size-class table: the fixed block
// size it serves, how many such blocks fit in one page of its kind,
// and which kind of page it's carved from. Some rows deliberately leave
// a few bytes of a page unused where blockSize*blocksPerPage falls
// short of the page kind's nominal byte count.
type sizeClass struct {
	kind          pageKind
	blockSize     int
	blocksPerPage int
}

// classTable is the 15-entry size-class table: index 0 is the
// zero-length class, indices 1..13 are the reusable slab classes from
// 8 to 512 bytes, index 14 is LARGE (one external buffer per
// allocation, blockSize/blocksPerPage unused).
var classTable = [15]sizeClass{
	0:  {kind: kindZero, blockSize: 8, blocksPerPage: 1},
	1:  {kind: kindOneK, blockSize: 8, blocksPerPage: 128},
	2:  {kind: kindOneK, blockSize: 16, blocksPerPage: 64},
	3:  {kind: kindOneK, blockSize: 32, blocksPerPage: 32},
	4:  {kind: kindOneK, blockSize: 64, blocksPerPage: 16},
	5:  {kind: kindOneK, blockSize: 96, blocksPerPage: 10},
	6:  {kind: kindOneK, blockSize: 128, blocksPerPage: 8},
	7:  {kind: kindTwoK, blockSize: 160, blocksPerPage: 12},
	8:  {kind: kindTwoK, blockSize: 192, blocksPerPage: 10},
	9:  {kind: kindTwoK, blockSize: 256, blocksPerPage: 8},
	10: {kind: kindFourK, blockSize: 320, blocksPerPage: 12},
	11: {kind: kindFourK, blockSize: 384, blocksPerPage: 10},
	12: {kind: kindFourK, blockSize: 448, blocksPerPage: 9},
	13: {kind: kindFourK, blockSize: 512, blocksPerPage: 8},
	14: {kind: kindLarge, blockSize: 0, blocksPerPage: 1},
}

const largeClassIndex = 14

// classLookup is the 65-entry lookup table keyed by (aligned length >>
// 3), i.e. one entry per 8-byte step from 0 to 512 inclusive.
var classLookup = [65]int{
	0,
	1, 2, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 6, 6, 6,
	6, 7, 7, 7, 7, 8, 8, 8, 8, 9, 9, 9, 9, 9, 9, 9,
	9, 10, 10, 10, 10, 10, 10, 10, 10, 11, 11, 11, 11, 11, 11, 11,
	11, 12, 12, 12, 12, 12, 12, 12, 12, 13, 13, 13, 13, 13, 13, 13,
	13,
}

// classOfLength returns the index into classTable serving a request of
// n bytes. n == 0 maps to the ZERO class and n > MaxReusableLen maps to
// largeClassIndex; only a negative n is an error.
func classOfLength(n int) (int, error) {
	if n < 0 {
		return 0, NewError(ErrBadArg, "negative length")
	}
	if n == 0 {
		return 0, nil
	}
	if n > MaxReusableLen {
		return largeClassIndex, nil
	}

	aligned := roundUp(n, Align)
	return classLookup[aligned>>3], nil
}

// roundUp rounds n up to the next multiple of align, which must be a
// power of two.
func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// classOfPage returns the classTable index of p, letting a page
// identify its own class from its kind and block size instead of
// caching the index on the struct. ZERO has no physical page and maps
// to 0; LARGE has no physical page either and maps to the last table
// entry; every other page recomputes its index from blockSize, which
// is unique per reusable class.
func classOfPage(p *slabPage) int {
	switch p.kind {
	case kindZero:
		return 0
	case kindLarge:
		return largeClassIndex
	}
	for i, cls := range classTable {
		if cls.kind == p.kind && cls.blockSize == p.blockSize {
			return i
		}
	}
	return -1
}
