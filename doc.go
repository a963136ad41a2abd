// Package slabmem implements a size-classed slab allocator with per-class
// freelists and an optional debug mode that records the call-site
// provenance (file, function, line, thread, timestamp) of every live
// allocation for leak reporting.
//
// It is meant as a drop-in replacement for the ambient Go allocator in
// long-running processes that churn through many small, same-sized
// objects and want deterministic reuse plus inline leak diagnostics,
// not as a general substitute for make()/new() throughout a program.
//
// slabmem carves memory into fixed-size blocks drawn from pages (slabs)
// of 1K/2K/4K, chosen by a static size-class table keyed off the
// requested length. Requests of zero bytes and requests over 512 bytes
// are each served by a fresh buffer drawn from the backing arena per
// allocation instead of a shared slab.
//
// Basic usage:
//
//	a := slabmem.New()
//	defer a.Close()
//
//	p, err := a.Allocate(24)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... use p ...
//	a.Free(p)
//
// Debug mode tags every allocation with its call site:
//
//	d := slabmem.New(slabmem.WithDebug(true))
//	defer d.Close()
//
//	p, _ := d.AllocateDbg(24)
//	d.PrintLeakInfo(os.Stdout) // reports p until it's freed
package slabmem
