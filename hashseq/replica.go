package hashseq

import "fmt"

// Replica is the public surface of this package: a single-owner,
// single-threaded sequence of characters backed by a causal tree store, a
// tombstone set, and a position-indexed cursor. Concurrent mutation of one
// Replica is not supported — callers must serialize their own access — but
// independent Replica values in the same process don't share any state.
type Replica struct {
	store   *Store
	removed *RemoveSet
	cursor  *Cursor

	// outbox is a best-effort, non-blocking broadcast of every HashNode
	// this Replica produces locally via Insert/Remove. It is nil until
	// Listen is called; sends never block (a full or absent channel just
	// drops the event), so a slow consumer can never stall a mutation.
	outbox chan HashNode
}

// New returns an empty Replica.
func New() *Replica {
	store := NewStore()
	removed := NewRemoveSet()
	return &Replica{
		store:   store,
		removed: removed,
		cursor:  newCursor(store, removed),
	}
}

// Listen returns a channel that receives every HashNode this Replica
// produces locally from then on, and arms outbox delivery. The channel
// should be drained by the caller (e.g. to broadcast to peers); a slow or
// abandoned consumer only loses events, it never blocks mutations.
func (r *Replica) Listen(buffer int) <-chan HashNode {
	ch := make(chan HashNode, buffer)
	r.outbox = ch
	return ch
}

func (r *Replica) publish(node HashNode) {
	if r.outbox == nil {
		return
	}
	select {
	case r.outbox <- node:
	default:
	}
}

// Len returns the number of currently visible characters.
func (r *Replica) Len() int {
	return r.cursor.Len()
}

// Get returns the visible character at pos, or false if pos is out of
// range.
func (r *Replica) Get(pos int) (rune, bool) {
	id, ok := r.cursor.IDAt(pos)
	if !ok {
		return 0, false
	}
	node, ok := r.store.Get(id)
	if !ok {
		return 0, false
	}
	ch, _ := node.Op.Char()
	return ch, true
}

// Iter returns a fresh, restartable iterator over the visible sequence in
// canonical order. Calling Iter again — even mid-iteration — always
// starts from position 0 against a new snapshot; it never observes a
// mutation made after it was created.
func (r *Replica) Iter() *Iterator {
	r.cursor.ensureFresh()
	ids := make([]ID, r.cursor.index.Len())
	for i := range ids {
		ids[i], _ = r.cursor.index.IDAt(i)
	}
	return &Iterator{store: r.store, ids: ids}
}

// Text materializes the full visible sequence as a string. A convenience
// wrapper over Iter, for callers (and tests) that don't need to stream.
func (r *Replica) Text() string {
	runes := make([]rune, 0, r.Len())
	it := r.Iter()
	for {
		ch, ok := it.Next()
		if !ok {
			break
		}
		runes = append(runes, ch)
	}
	return string(runes)
}

// Iterator is a restartable cursor over a snapshot of a Replica's visible
// sequence, taken at the moment Iter was called.
type Iterator struct {
	store *Store
	ids   []ID
	i     int
}

// Next returns the next character and true, or (0, false) once exhausted.
func (it *Iterator) Next() (rune, bool) {
	if it.i >= len(it.ids) {
		return 0, false
	}
	node, _ := it.store.Get(it.ids[it.i])
	it.i++
	ch, _ := node.Op.Char()
	return ch, true
}

// Insert builds and installs the HashNode for inserting ch at pos,
// publishes it on the Listen channel, and returns it so the caller can broadcast it
// to other replicas.
func (r *Replica) Insert(pos int, ch rune) (HashNode, error) {
	node, err := r.cursor.BuildInsert(pos, ch)
	if err != nil {
		return HashNode{}, err
	}
	if err := r.install(node); err != nil {
		return HashNode{}, err
	}
	r.publish(node)
	return node, nil
}

// Remove builds and installs the HashNode for removing the visible
// character at pos, publishes it on the Listen channel, and returns it.
func (r *Replica) Remove(pos int) (HashNode, error) {
	node, err := r.cursor.BuildRemove(pos)
	if err != nil {
		return HashNode{}, err
	}
	if err := r.install(node); err != nil {
		return HashNode{}, err
	}
	r.publish(node)
	return node, nil
}

// Apply validates and installs a remote HashNode. If node's dependency
// closure isn't satisfied yet, it is buffered and Apply returns nil —
// buffering is not an error, it resolves itself once the dependency
// arrives. Apply never publishes to outbox: re-broadcasting nodes a
// Replica merely received, rather than authored, is a gossip-layer
// concern outside this package's scope.
func (r *Replica) Apply(node HashNode) error {
	return r.install(node)
}

// ApplyWire decodes and validates encoded bytes against claimedID before
// installing, for ingesting nodes received as length-prefixed wire
// payloads from an untrusted peer that might claim an Id its bytes don't
// actually hash to.
func (r *Replica) ApplyWire(claimedID ID, encoded []byte) error {
	node, err := Validate(claimedID, encoded)
	if err != nil {
		return err
	}
	return r.install(node)
}

// install installs node and applies tombstone side effects for every
// node that became installed as a result — including ones that were
// merely buffered until now and got flushed by this call.
func (r *Replica) install(node HashNode) error {
	_, installedIDs, err := r.store.Install(node)
	if err != nil {
		return err
	}
	for _, id := range installedIDs {
		installedNode, ok := r.store.Get(id)
		if !ok {
			continue
		}
		if installedNode.Op.Tag() == TagRemove {
			r.removed.Add(installedNode.Op.Targets())
		}
	}
	return nil
}

// Tips returns the Replica's current causal frontier: installed Ids that
// nothing else installed depends on. This is what BuildInsert/BuildRemove
// use as extra_dependencies for freshly authored ops.
func (r *Replica) Tips() IDSet {
	return r.store.Frontier()
}

// String implements fmt.Stringer for debugging/logging.
func (r *Replica) String() string {
	return fmt.Sprintf("Replica{len=%d}", r.Len())
}
