package slabmem

// pageList is an intrusive, circular doubly linked list of *slabPage.
// Nodes carry their own prev/next pointers (set on slabPage); the list
// itself only tracks head, tail and count. On a non-empty list
// head.prev == tail and tail.next == head.
//
// Every method assumes the caller already holds the owning Allocator's
// mutex; there is no internal locking here.
type pageList struct {
	head  *slabPage
	tail  *slabPage
	count int
}

// reset clears head/tail/count without touching any node. Intended only
// for a freshly-zeroed list (mirrors link_reset).
func (l *pageList) reset() {
	l.head = nil
	l.tail = nil
	l.count = 0
}

// push appends node at the tail. O(1).
func (l *pageList) push(node *slabPage) {
	if l.head == nil {
		l.head = node
		l.tail = node
		node.next = node
		node.prev = node
	} else {
		insertAfter(l.tail, node)
		l.tail = node
	}
	l.count++
}

// insert places node at position index, where index ∈ [0, count].
// index == 0 replaces head, index == count behaves like push,
// otherwise node is inserted before the node currently at index. O(index).
func (l *pageList) insert(index int, node *slabPage) bool {
	if index < 0 || index > l.count {
		return false
	}

	switch {
	case l.count == 0:
		l.head = node
		l.tail = node
		node.next = node
		node.prev = node
	case index == 0:
		insertBefore(l.head, node)
		l.head = node
	case index == l.count:
		insertAfter(l.tail, node)
		l.tail = node
	default:
		target := l.head
		for i := 0; i < index; i++ {
			target = target.next
		}
		insertBefore(target, node)
	}

	l.count++
	return true
}

// insertBefore inserts node immediately before target, which must
// already be a member of some list. Updates head if target was head.
func (l *pageList) insertBefore(target, node *slabPage) {
	insertBefore(target, node)
	if target == l.head {
		l.head = node
	}
}

// insertAfter inserts node immediately after target, which must already
// be a member of some list. Updates tail if target was tail.
func (l *pageList) insertAfter(target, node *slabPage) {
	insertAfter(target, node)
	if target == l.tail {
		l.tail = node
	}
}

// pop removes and returns the tail node, or nil if the list is empty.
func (l *pageList) pop() *slabPage {
	node := l.tail
	if node == nil {
		return nil
	}

	if l.head != node {
		unlink(node)
		l.tail = node.prev
	} else {
		l.head = nil
		l.tail = nil
	}
	l.count--
	return node
}

// remove removes and returns the node at position index, or nil if out
// of range. O(index).
func (l *pageList) remove(index int) *slabPage {
	if index < 0 || index >= l.count {
		return nil
	}

	var node *slabPage
	switch {
	case l.count == 1:
		node = l.head
		l.head = nil
		l.tail = nil
	case index == 0:
		node = l.head
		unlink(node)
		l.head = node.next
	case index == l.count-1:
		node = l.tail
		unlink(node)
		l.tail = node.prev
	default:
		node = l.head
		for i := 0; i < index; i++ {
			node = node.next
		}
		unlink(node)
	}

	l.count--
	return node
}

// removeNode removes target after confirming membership by a linear
// scan. Returns false if target is not found. O(n).
func (l *pageList) removeNode(target *slabPage) bool {
	if l.count == 0 {
		return false
	}

	switch {
	case l.count == 1:
		if l.head != target {
			return false
		}
		unlink(target)
		l.head = nil
		l.tail = nil
	case l.head == target:
		unlink(target)
		l.head = target.next
	case l.tail == target:
		unlink(target)
		l.tail = target.prev
	default:
		found := false
		for n := l.head.next; n != l.head; n = n.next {
			if n == target {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		unlink(target)
	}

	l.count--
	return true
}

// removeForce removes target in O(1). The caller guarantees target is
// a member of this list — the hot allocate/free path uses this and
// nothing else, exactly as the source's link_remove_force does.
func (l *pageList) removeForce(target *slabPage) {
	unlink(target)

	switch {
	case l.count == 1:
		l.head = nil
		l.tail = nil
	case l.head == target:
		l.head = target.next
	case l.tail == target:
		l.tail = target.prev
	}

	l.count--
}

func insertBefore(target, node *slabPage) {
	target.prev.next = node
	node.prev = target.prev
	node.next = target
	target.prev = node
}

func insertAfter(target, node *slabPage) {
	target.next.prev = node
	node.prev = target
	node.next = target.next
	target.next = node
}

func unlink(node *slabPage) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
