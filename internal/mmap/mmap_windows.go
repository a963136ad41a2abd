//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// New maps size bytes of anonymous, zero-filled, read-write memory via
// VirtualAlloc (there is no file mapping involved, so no
// CreateFileMapping handle is needed).
func New(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, &Error{Op: "invalid size"}
	}

	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, &Error{Op: "VirtualAlloc", Err: err}
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return &Mapping{data: data}, nil
}

// Close releases the region back to the OS.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&m.data[0]))
	m.data = nil
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return &Error{Op: "VirtualFree", Err: err}
	}
	return nil
}
