// Command slabmemdemo exercises an Allocator with a growing run of
// allocate/free pairs followed by one deliberately unfreed allocation,
// then prints an info and leak report.
package main

import (
	"fmt"
	"os"

	"github.com/kelindar/slabmem"
)

func main() {
	a := slabmem.New(slabmem.WithDebug(true))
	defer a.Close()

	for i := 0; i < 1024; i++ {
		p, err := a.AllocateDbg(i * 4)
		if err != nil {
			fmt.Fprintf(os.Stderr, "allocate %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("-->%d\n", i)
		if err := a.FreeDbg(p); err != nil {
			fmt.Fprintf(os.Stderr, "free %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	// Deliberately leaked: never freed, so it shows up below.
	if _, err := a.AllocateDbg(10); err != nil {
		fmt.Fprintf(os.Stderr, "allocate leak: %v\n", err)
		os.Exit(1)
	}

	a.PrintInfo(os.Stdout)
	a.PrintLeakInfo(os.Stdout)
}
