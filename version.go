package slabmem

// Version constants for this module, kept as a small const block rather
// than a compatibility struct — there's no on-disk format or C library
// to report ABI compatibility against here.
const (
	Major = 0
	Minor = 1
	Patch = 0
)

// Version returns the version string of this module.
func Version() string {
	return "slabmem 0.1.0"
}
