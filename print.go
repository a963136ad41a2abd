package slabmem

import (
	"fmt"
	"io"
)

// PrintInfo writes a basic-info summary of every size class to w: for
// each class, its block size, blocks per page, live page count and
// idle page count.
func (a *Allocator) PrintInfo(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	fmt.Fprintf(w, "<============================basic check============================>\n")
	for class := 1; class < largeClassIndex; class++ {
		cls := classTable[class]
		d := a.dirFor(class)
		fmt.Fprintf(w, "--- block[%d] block size = %d ---\n", class, cls.blockSize)
		fmt.Fprintf(w, "blocks per page = %d, pages = %d, idle pages = %d\n",
			cls.blocksPerPage, d.pages.count, d.idleCount)
	}
	return nil
}

// PrintBlockList writes the status of every block in every page of
// every class to w, framing each class's page list with a "link NN"
// header.
func (a *Allocator) PrintBlockList(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for class := 1; class < largeClassIndex; class++ {
		d := a.dirFor(class)
		fmt.Fprintf(w, "<----------------------link %02d---------------------->\n", class)

		p := d.pages.head
		for i := 0; i < d.pages.count; i++ {
			for b := 0; b < p.blocksTotal; b++ {
				status := "free"
				if p.status[b] == blockUsed {
					status = "used"
				}
				fmt.Fprintf(w, "--- block[%d] block size = %d status = %s ---\n", b, p.blockSize, status)
			}
			p = p.next
		}
	}
	return nil
}

// PrintLeakInfo writes every still-live debug-mode allocation to w, or
// "No leak!\n" if none remain. Recorded file and function names are
// truncated to 63 bytes. Returns ErrBadArg if the Allocator was not
// built with WithDebug(true), and ErrClosed after Close.
func (a *Allocator) PrintLeakInfo(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return NewError(ErrClosed, "PrintLeakInfo after Close")
	}
	if !a.debug {
		return NewError(ErrBadArg, "PrintLeakInfo: allocator was not built with WithDebug(true)")
	}

	leaks := a.tracker.leaks()
	if len(leaks) == 0 {
		fmt.Fprintf(w, "No leak!\n")
		return nil
	}

	total := 0
	for i, l := range leaks {
		fmt.Fprintf(w, "--- block[%d] block size = %d ---\n", i, l.Size)
		fmt.Fprintf(w, "    time = %d\n", l.Timestamp)
		fmt.Fprintf(w, "    file = %s\n", l.File)
		fmt.Fprintf(w, "    line = %d\n", l.Line)
		fmt.Fprintf(w, "    func = %s\n", l.Function)
		fmt.Fprintf(w, "    tid  = 0x%X\n", l.ThreadID)
		total += l.Size
	}
	fmt.Fprintf(w, "--- allocated size = %d byte ---\n", total)
	return nil
}

// Leaks returns a snapshot of every still-live debug-mode allocation.
// Recorded file and function names are truncated to 63 bytes. Returns
// nil if the Allocator was not built with WithDebug(true) or has been
// closed.
func (a *Allocator) Leaks() []LeakRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.debug || a.closed {
		return nil
	}
	return a.tracker.leaks()
}
