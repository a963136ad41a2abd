//go:build unix

package mmap

import "golang.org/x/sys/unix"

// New maps size bytes of anonymous, zero-filled, read-write memory.
func New(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, &Error{Op: "invalid size"}
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, &Error{Op: "mmap", Err: err}
	}
	return &Mapping{data: data}, nil
}

// Close unmaps the region.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	if err != nil {
		return &Error{Op: "munmap", Err: err}
	}
	return nil
}
