// Package mmap provides anonymous memory mapping for slabmem's
// MmapArena. It has no file behind it at all — it only needs "give me
// N bytes of OS-backed, page-aligned memory" and "give them back."
package mmap

// Mapping is a single anonymous memory mapping.
type Mapping struct {
	data []byte
}

// Data returns the mapped region.
func (m *Mapping) Data() []byte {
	return m.data
}

// Len returns the size of the mapped region in bytes.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Error wraps a failure from the underlying mapping syscall.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "mmap: " + e.Op + ": " + e.Err.Error()
	}
	return "mmap: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}
