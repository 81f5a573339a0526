package hashseq

import "fmt"

// checkWellFormed rejects a node for reasons that don't depend on the
// store at all and so can run before dependency resolution. It never
// returns a "buffer this" signal — that is installOne's job once
// well-formedness has passed.
func checkWellFormed(node HashNode) error {
	if node.Op.Tag() == TagRemove && len(node.Op.Targets()) == 0 {
		return fmt.Errorf("%w: remove op has no targets", ErrEmptyRemove)
	}
	return nil
}

// checkAgainstStore rejects a node for reasons that require its
// dependency closure to already be installed: a Remove targeting
// something that isn't an insertion op. By the time this runs, every
// dependency is known to be present, so lookups never fail.
func checkAgainstStore(s *Store, node HashNode) error {
	if node.Op.Tag() != TagRemove {
		return nil
	}
	for _, target := range node.Op.Targets() {
		targetNode, ok := s.Get(target)
		if !ok {
			// Unreachable given installOne's dependency gate, but kept
			// as a defensive, typed failure rather than a panic.
			return fmt.Errorf("%w: remove target %s not installed", ErrMalformedOp, target)
		}
		if !targetNode.Op.IsInsert() {
			return fmt.Errorf("%w: remove target %s is not an insertion", ErrMalformedOp, target)
		}
	}
	return nil
}

// Validate checks an incoming (claimedID, encoded) pair the way an
// untrusted peer's wire payload must be checked before it is decoded and
// installed: the decoded node's own Id must match what the peer claimed
// it to be, which rules out a peer asserting a false Id for bytes that
// hash to something else. It returns the decoded node on success.
//
// Structural and store-dependent well-formedness are deliberately not
// re-checked here: Store.Install performs those as part of installation,
// since a node missing dependencies must be buffered, not rejected, and
// only Install has visibility into what's currently buffered.
func Validate(claimedID ID, encoded []byte) (HashNode, error) {
	node, err := Decode(encoded)
	if err != nil {
		return HashNode{}, xerrorsWrap("hashseq: validate: decode", err)
	}
	if node.ID() != claimedID {
		return HashNode{}, fmt.Errorf("%w: claimed %s, computed %s", ErrHashMismatch, claimedID, node.ID())
	}
	return node, nil
}
