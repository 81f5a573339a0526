package hashseq

import "fmt"

// chunkCap bounds how many visible ids live in one chunk of the position
// index. Kept as a plain constant rather than tuned, since this index is
// rebuilt wholesale rather than incrementally spliced (see
// Cursor.ensureFresh).
const chunkCap = 256

// fenwick is a binary indexed tree over chunk sizes, giving O(log C)
// prefix sums and rank lookups where C is the chunk count.
type fenwick struct{ tree []int }

func newFenwickFromSizes(sizes []int) *fenwick {
	f := &fenwick{tree: make([]int, len(sizes)+1)}
	for i, v := range sizes {
		f.add(i, v)
	}
	return f
}

func (f *fenwick) add(i, delta int) {
	for i += 1; i < len(f.tree); i += i & -i {
		f.tree[i] += delta
	}
}

func (f *fenwick) prefixSum(i int) int {
	if i < 0 {
		return 0
	}
	s := 0
	for i += 1; i > 0; i -= i & -i {
		s += f.tree[i]
	}
	return s
}

func (f *fenwick) total() int {
	if len(f.tree) == 0 {
		return 0
	}
	return f.prefixSum(len(f.tree) - 2)
}

// findChunkByIndex returns the chunk index whose range covers global
// index i, and i's offset within that chunk.
func (f *fenwick) findChunkByIndex(i int) (chunk, offset int) {
	sum, idx := 0, 0
	bit := 1
	for bit<<1 < len(f.tree) {
		bit <<= 1
	}
	for bit > 0 {
		next := idx + bit
		if next < len(f.tree) && sum+f.tree[next] <= i {
			sum += f.tree[next]
			idx = next
		}
		bit >>= 1
	}
	return idx, i - f.prefixSum(idx-1)
}

// PositionIndex maps visible position to Id and back. It is rebuilt
// wholesale from a freshly filtered linearization whenever it is stale,
// then answers IDAt in O(log n) and PosOf in O(1) until the next
// mutation invalidates it.
type PositionIndex struct {
	chunks [][]ID
	sizes  []int
	fw     *fenwick
	pos    map[ID]int
}

func newPositionIndex() *PositionIndex {
	return &PositionIndex{pos: make(map[ID]int)}
}

// rebuild repopulates the index from a freshly computed visible sequence.
func (p *PositionIndex) rebuild(visible []ID) {
	p.chunks = p.chunks[:0]
	p.sizes = p.sizes[:0]
	p.pos = make(map[ID]int, len(visible))

	for start := 0; start < len(visible); start += chunkCap {
		end := start + chunkCap
		if end > len(visible) {
			end = len(visible)
		}
		chunk := visible[start:end]
		p.chunks = append(p.chunks, chunk)
		p.sizes = append(p.sizes, len(chunk))
	}
	p.fw = newFenwickFromSizes(p.sizes)
	for i, id := range visible {
		p.pos[id] = i
	}
}

// Len returns the number of visible positions.
func (p *PositionIndex) Len() int {
	return len(p.pos)
}

// IDAt returns the Id visible at pos, if pos is in range.
func (p *PositionIndex) IDAt(pos int) (ID, bool) {
	if pos < 0 || pos >= p.Len() {
		return Zero, false
	}
	c, off := p.fw.findChunkByIndex(pos)
	return p.chunks[c][off], true
}

// PosOf returns the visible position of id, if it is currently visible.
func (p *PositionIndex) PosOf(id ID) (int, bool) {
	pos, ok := p.pos[id]
	return pos, ok
}

// Cursor is the position-addressed editing surface over a Store and
// RemoveSet: IDAt, PosOf, and building the HashNode an insert/remove at a
// given position requires. It keeps its PositionIndex fresh by comparing
// against Store.Version().
type Cursor struct {
	store   *Store
	removed *RemoveSet
	index   *PositionIndex
	seenAt  uint64 // store.Version() as of the last rebuild
	tsSeen  int    // removed.Len() as of the last rebuild
}

func newCursor(store *Store, removed *RemoveSet) *Cursor {
	return &Cursor{store: store, removed: removed, index: newPositionIndex()}
}

func (c *Cursor) ensureFresh() {
	if c.seenAt == c.store.Version() && c.tsSeen == c.removed.Len() {
		return
	}
	order := Linearize(c.store)
	visible := Filter(order, c.store, c.removed)
	c.index.rebuild(visible)
	c.seenAt = c.store.Version()
	c.tsSeen = c.removed.Len()
}

// Len returns the number of currently visible characters.
func (c *Cursor) Len() int {
	c.ensureFresh()
	return c.index.Len()
}

// IDAt returns the Id of the visible character at pos.
func (c *Cursor) IDAt(pos int) (ID, bool) {
	c.ensureFresh()
	return c.index.IDAt(pos)
}

// PosOf returns the visible position of id, or false if it is tombstoned
// or not installed.
func (c *Cursor) PosOf(id ID) (int, bool) {
	c.ensureFresh()
	return c.index.PosOf(id)
}

// BuildInsert constructs the HashNode for inserting ch at pos: InsertRoot
// if the sequence is empty, InsertBefore(id_at(0)) at pos 0, otherwise
// InsertAfter(id_at(pos-1)). The store's current frontier, minus the
// anchor the op already references, is used as extra_dependencies, which
// is always a safe choice.
func (c *Cursor) BuildInsert(pos int, ch rune) (HashNode, error) {
	c.ensureFresh()
	n := c.index.Len()
	if pos < 0 || pos > n {
		return HashNode{}, fmt.Errorf("%w: insert at %d, length %d", ErrPositionOutOfRange, pos, n)
	}

	var op Op
	var anchor ID
	hasAnchor := false
	switch {
	case n == 0:
		op = InsertRoot(ch)
	case pos == 0:
		anchor, _ = c.index.IDAt(0)
		op = InsertBefore(anchor, ch)
		hasAnchor = true
	default:
		anchor, _ = c.index.IDAt(pos - 1)
		op = InsertAfter(anchor, ch)
		hasAnchor = true
	}

	deps := c.store.Frontier()
	if hasAnchor {
		deps = deps.Remove(anchor)
	}
	return HashNode{ExtraDependencies: deps, Op: op}, nil
}

// BuildRemove constructs the HashNode for removing the visible character
// at pos.
func (c *Cursor) BuildRemove(pos int) (HashNode, error) {
	c.ensureFresh()
	n := c.index.Len()
	if pos < 0 || pos >= n {
		return HashNode{}, fmt.Errorf("%w: remove at %d, length %d", ErrPositionOutOfRange, pos, n)
	}
	target, _ := c.index.IDAt(pos)
	deps := c.store.Frontier().Remove(target)
	return HashNode{ExtraDependencies: deps, Op: Remove(NewIDSet(target))}, nil
}
