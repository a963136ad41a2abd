package slabmem

import "testing"

func TestClassOfLengthBoundaries(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{8, 1},
		{9, 2},
		{16, 2},
		{17, 3},
		{32, 3},
		{33, 4},
		{64, 4},
		{65, 5},
		{96, 5},
		{97, 6},
		{128, 6},
		{129, 7},
		{160, 7},
		{192, 8},
		{256, 9},
		{320, 10},
		{384, 11},
		{448, 12},
		{512, 13},
		{513, largeClassIndex},
		{4096, largeClassIndex},
	}

	for _, c := range cases {
		got, err := classOfLength(c.n)
		if err != nil {
			t.Fatalf("classOfLength(%d): %v", c.n, err)
		}
		if got != c.want {
			t.Errorf("classOfLength(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestClassOfLengthNegative(t *testing.T) {
	if _, err := classOfLength(-1); err == nil {
		t.Fatalf("classOfLength(-1) should error")
	}
}

func TestClassTableMonotonicBlockSize(t *testing.T) {
	for i := 2; i < largeClassIndex; i++ {
		if classTable[i].blockSize <= classTable[i-1].blockSize {
			t.Fatalf("class %d block size %d not greater than class %d's %d",
				i, classTable[i].blockSize, i-1, classTable[i-1].blockSize)
		}
	}
}

func TestClassTableFitsPage(t *testing.T) {
	for i := 1; i < largeClassIndex; i++ {
		cls := classTable[i]
		total := cls.blockSize * cls.blocksPerPage
		if total > cls.kind.pageBytes() {
			t.Errorf("class %d: %d*%d = %d exceeds page size %d",
				i, cls.blockSize, cls.blocksPerPage, total, cls.kind.pageBytes())
		}
	}
}

func TestRoundUp(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 16: 16, 17: 24}
	for n, want := range cases {
		if got := roundUp(n, Align); got != want {
			t.Errorf("roundUp(%d, %d) = %d, want %d", n, Align, got, want)
		}
	}
}
