package hashseq

// Linearize produces the canonical, totally-ordered list of every
// installed Id via a depth-first, hash-biased traversal: for each anchor,
// visit all "before" children ascending, then the anchor itself, then all
// "after" children ascending. Roots are visited in ascending Id order.
// The result contains every installed insertion node (including tombstoned
// ones); Remove nodes are not linked into the tree and never appear in it.
// Callers that want the visible sequence filter it through a RemoveSet
// (see Filter).
//
// The traversal is iterative, driven by an explicit stack, rather than
// recursive, because history length — and therefore recursion depth for a
// long, branch-free run — is unbounded.
func Linearize(s *Store) []ID {
	order := make([]ID, 0, len(s.nodes))
	var stack []*frame

	push := func(id ID) {
		lefts, rights := s.ChildrenOf(id)
		stack = append(stack, &frame{id: id, lefts: lefts, rights: rights})
	}

	for _, root := range s.roots {
		push(root)
		drain(&stack, &order, push)
	}

	return order
}

// frame is one node's position in the iterative depth-first walk: which
// of its "before" children have been pushed, whether it has been emitted
// itself, and which of its "after" children have been pushed.
type frame struct {
	id     ID
	lefts  IDSet
	rights IDSet
	li     int
	ri     int
	self   bool
}

// drain runs the explicit-stack DFS until the stack (which push may grow)
// empties out again. Called once per root so that Linearize's for-loop
// above can push roots one at a time in ascending order and let drain
// process each to completion before the next root starts — preserving
// root-ascending order without needing to seed the whole stack up front.
func drain(stack *[]*frame, order *[]ID, push func(ID)) {
	for len(*stack) > 0 {
		f := (*stack)[len(*stack)-1]

		if f.li < len(f.lefts) {
			child := f.lefts[f.li]
			f.li++
			push(child)
			continue
		}
		if !f.self {
			f.self = true
			*order = append(*order, f.id)
			continue
		}
		if f.ri < len(f.rights) {
			child := f.rights[f.ri]
			f.ri++
			push(child)
			continue
		}
		*stack = (*stack)[:len(*stack)-1]
	}
}

// Filter returns the subsequence of order whose Ids are insertions not
// present in removed — the visible sequence.
func Filter(order []ID, s *Store, removed *RemoveSet) []ID {
	visible := make([]ID, 0, len(order))
	for _, id := range order {
		node, ok := s.Get(id)
		if !ok || !node.Op.IsInsert() {
			continue
		}
		if removed.Contains(id) {
			continue
		}
		visible = append(visible, id)
	}
	return visible
}
