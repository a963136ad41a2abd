package slabmem

import "testing"

func newTestPages(n int) []*slabPage {
	pages := make([]*slabPage, n)
	for i := range pages {
		pages[i] = &slabPage{blockSize: i}
	}
	return pages
}

func TestPageListPushAndOrder(t *testing.T) {
	var l pageList
	pages := newTestPages(3)
	for _, p := range pages {
		l.push(p)
	}
	if l.count != 3 {
		t.Fatalf("count = %d, want 3", l.count)
	}
	if l.head != pages[0] || l.tail != pages[2] {
		t.Fatalf("unexpected head/tail after push")
	}
	// circularity
	if l.tail.next != l.head || l.head.prev != l.tail {
		t.Fatalf("list is not circular")
	}
}

func TestPageListInsertAtHeadAndTail(t *testing.T) {
	var l pageList
	pages := newTestPages(3)
	l.push(pages[1])
	if !l.insert(0, pages[0]) {
		t.Fatalf("insert at head failed")
	}
	if l.head != pages[0] {
		t.Fatalf("insert(0, ...) did not become new head")
	}
	if !l.insert(l.count, pages[2]) {
		t.Fatalf("insert at tail failed")
	}
	if l.tail != pages[2] {
		t.Fatalf("insert(count, ...) did not become new tail")
	}
	if l.count != 3 {
		t.Fatalf("count = %d, want 3", l.count)
	}
}

func TestPageListPop(t *testing.T) {
	var l pageList
	pages := newTestPages(2)
	l.push(pages[0])
	l.push(pages[1])

	got := l.pop()
	if got != pages[1] {
		t.Fatalf("pop returned wrong node")
	}
	if l.count != 1 || l.tail != pages[0] {
		t.Fatalf("pop left list in bad state")
	}

	got = l.pop()
	if got != pages[0] {
		t.Fatalf("pop returned wrong final node")
	}
	if l.count != 0 || l.head != nil || l.tail != nil {
		t.Fatalf("pop did not empty the list")
	}
	if l.pop() != nil {
		t.Fatalf("pop on empty list should return nil")
	}
}

func TestPageListRemoveByIndex(t *testing.T) {
	var l pageList
	pages := newTestPages(4)
	for _, p := range pages {
		l.push(p)
	}

	mid := l.remove(1)
	if mid != pages[1] {
		t.Fatalf("remove(1) returned wrong node")
	}
	if l.count != 3 {
		t.Fatalf("count = %d, want 3", l.count)
	}

	// remaining order should be pages[0], pages[2], pages[3]
	want := []*slabPage{pages[0], pages[2], pages[3]}
	n := l.head
	for i, w := range want {
		if n != w {
			t.Fatalf("position %d = %v, want %v", i, n, w)
		}
		n = n.next
	}
}

func TestPageListRemoveForce(t *testing.T) {
	var l pageList
	pages := newTestPages(3)
	for _, p := range pages {
		l.push(p)
	}

	l.removeForce(pages[1])
	if l.count != 2 {
		t.Fatalf("count = %d, want 2", l.count)
	}
	if pages[0].next != pages[2] || pages[2].prev != pages[0] {
		t.Fatalf("removeForce did not relink neighbors")
	}
}

func TestPageListRemoveNode(t *testing.T) {
	var l pageList
	pages := newTestPages(3)
	for _, p := range pages {
		l.push(p)
	}

	notMember := &slabPage{}
	if l.removeNode(notMember) {
		t.Fatalf("removeNode should fail for a non-member")
	}
	if !l.removeNode(pages[0]) {
		t.Fatalf("removeNode should succeed for head member")
	}
	if l.head != pages[1] {
		t.Fatalf("removeNode(head) did not advance head")
	}
}
