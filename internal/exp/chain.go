package exp

// Chains are arena-backed: every loaded entry becomes a node in a growable
// slice owned by the Book, and same-key siblings link to each other by arena
// index. Index links stay valid when the arena reallocates on growth.

const nilNode = int32(-1)

type node struct {
	Entry
	next int32
}

// Compare reports the ordering of e against other, both candidates for the
// same position: >0 when e ranks higher. Deeper searches rank first; at equal
// depth the value more favorable to the side to move ranks first.
func (e *Entry) Compare(other *Entry) int {
	switch {
	case e.Depth > other.Depth:
		return 1
	case e.Depth < other.Depth:
		return -1
	case e.Value > other.Value:
		return 1
	case e.Value < other.Value:
		return -1
	}
	return 0
}

// Merge folds other, an entry for the same key and move, into e. The deeper
// entry wins wholesale; at equal depth the values are averaged, so repeated
// merges of the same inputs converge.
func (e *Entry) Merge(other *Entry) {
	if other.Depth > e.Depth {
		e.Value = other.Value
		e.Depth = other.Depth
		return
	}
	if other.Depth == e.Depth && other.Value != e.Value {
		e.Value = (e.Value + other.Value) / 2
	}
}

// linkEntry adds one entry to the index. It is the single point of
// deduplication: an entry for a (key, move) already present merges into the
// existing node, anything else inserts keeping the chain sorted best-first.
// It reports whether a node was inserted (false means merged).
func (b *Book) linkEntry(e Entry) bool {
	head, ok := b.index[e.Key]
	if !ok {
		b.index[e.Key] = b.alloc(e)
		return true
	}

	// Same move already recorded: merge in place.
	for i := head; i != nilNode; i = b.arena[i].next {
		if b.arena[i].Move == e.Move {
			b.arena[i].Merge(&e)
			return false
		}
	}

	// New move for a known position: insert preserving descending quality.
	idx := b.alloc(e)
	if b.arena[idx].Compare(&b.arena[head].Entry) > 0 {
		b.arena[idx].next = head
		b.index[e.Key] = idx
		return true
	}
	prev := head
	for {
		next := b.arena[prev].next
		if next == nilNode || b.arena[idx].Compare(&b.arena[next].Entry) > 0 {
			b.arena[idx].next = next
			b.arena[prev].next = idx
			return true
		}
		prev = next
	}
}

func (b *Book) alloc(e Entry) int32 {
	b.arena = append(b.arena, node{Entry: e, next: nilNode})
	return int32(len(b.arena) - 1)
}

// ChainIterator walks the recorded moves for one position, best first.
type ChainIterator struct {
	book *Book
	next int32
}

// Next returns the next entry in the chain, or nil when exhausted. The
// returned pointer remains valid until the next load on the owning Book.
func (it *ChainIterator) Next() *Entry {
	if it.next == nilNode {
		return nil
	}
	n := &it.book.arena[it.next]
	it.next = n.next
	return &n.Entry
}
