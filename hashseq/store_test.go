package hashseq

import "testing"

func mustInstall(t *testing.T, s *Store, node HashNode) ID {
	t.Helper()
	status, _, err := s.Install(node)
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if status != Installed {
		t.Fatalf("expected Installed, got %v", status)
	}
	return node.ID()
}

func TestInstallRootThenChild(t *testing.T) {
	s := NewStore()
	rootNode := HashNode{Op: InsertRoot('h')}
	root := mustInstall(t, s, rootNode)

	childNode := HashNode{Op: InsertAfter(root, 'i'), ExtraDependencies: NewIDSet(root)}
	mustInstall(t, s, childNode)

	if !s.Roots().Contains(root) {
		t.Fatalf("expected root in Roots()")
	}
	_, rights := s.ChildrenOf(root)
	if len(rights) != 1 {
		t.Fatalf("expected one right child of root, got %d", len(rights))
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	s := NewStore()
	node := HashNode{Op: InsertRoot('a')}
	status1, _, err := s.Install(node)
	if err != nil || status1 != Installed {
		t.Fatalf("first install: status=%v err=%v", status1, err)
	}
	before := s.Version()

	status2, installed2, err := s.Install(node)
	if err != nil {
		t.Fatalf("second install errored: %v", err)
	}
	if status2 != AlreadyInstalled {
		t.Fatalf("expected AlreadyInstalled, got %v", status2)
	}
	if installed2 != nil {
		t.Fatalf("expected no newly-installed ids on a repeat install")
	}
	if s.Version() != before {
		t.Fatalf("version changed on a no-op install")
	}
}

func TestInstallBuffersOnMissingDependency(t *testing.T) {
	s := NewStore()
	root := HashNode{Op: InsertRoot('a')}
	rootID := root.ID()

	child := HashNode{Op: InsertAfter(rootID, 'b')}
	status, installed, err := s.Install(child)
	if err != nil {
		t.Fatalf("unexpected error buffering: %v", err)
	}
	if status != Buffered {
		t.Fatalf("expected Buffered, got %v", status)
	}
	if installed != nil {
		t.Fatalf("expected no installed ids while buffered")
	}
	if s.Contains(child.ID()) {
		t.Fatalf("buffered node must not be visible yet")
	}

	status, installed, err = s.Install(root)
	if err != nil {
		t.Fatalf("installing root failed: %v", err)
	}
	if status != Installed {
		t.Fatalf("expected root to install, got %v", status)
	}
	if len(installed) != 2 {
		t.Fatalf("expected root install to cascade-flush the waiting child, got %v", installed)
	}
	if !s.Contains(child.ID()) {
		t.Fatalf("expected buffered child to have been flushed once its dependency arrived")
	}
}

func TestInstallOutOfOrderConvergesRegardlessOfArrivalOrder(t *testing.T) {
	root := HashNode{Op: InsertRoot('a')}
	rootID := root.ID()
	mid := HashNode{Op: InsertAfter(rootID, 'b'), ExtraDependencies: NewIDSet(rootID)}
	midID := mid.ID()
	tail := HashNode{Op: InsertAfter(midID, 'c'), ExtraDependencies: NewIDSet(midID)}

	forward := NewStore()
	for _, n := range []HashNode{root, mid, tail} {
		mustInstall(t, forward, n)
	}

	reverse := NewStore()
	for _, n := range []HashNode{tail, mid, root} {
		if _, _, err := reverse.Install(n); err != nil {
			t.Fatalf("install errored: %v", err)
		}
	}

	forwardOrder := Linearize(forward)
	reverseOrder := Linearize(reverse)
	if len(forwardOrder) != len(reverseOrder) {
		t.Fatalf("different number of installed nodes: %d vs %d", len(forwardOrder), len(reverseOrder))
	}
	for i := range forwardOrder {
		if forwardOrder[i] != reverseOrder[i] {
			t.Fatalf("linearizations diverge at %d regardless of arrival order", i)
		}
	}
}

func TestInstallRejectsMalformedRemove(t *testing.T) {
	s := NewStore()
	_, _, err := s.Install(HashNode{Op: Remove(nil)})
	if err == nil {
		t.Fatalf("expected error installing an empty remove")
	}
}

func TestInstallRejectsRemoveOfNonInsertion(t *testing.T) {
	s := NewStore()
	a := HashNode{Op: InsertRoot('a')}
	aID := mustInstall(t, s, a)
	rm := HashNode{Op: Remove(NewIDSet(aID)), ExtraDependencies: NewIDSet(aID)}
	rmID := mustInstall(t, s, rm)

	// Removing a Remove node is structurally malformed.
	rm2 := HashNode{Op: Remove(NewIDSet(rmID)), ExtraDependencies: NewIDSet(rmID)}
	_, _, err := s.Install(rm2)
	if err == nil {
		t.Fatalf("expected error removing a non-insertion node")
	}
}

func TestFrontierTracksTips(t *testing.T) {
	s := NewStore()
	root := HashNode{Op: InsertRoot('a')}
	rootID := mustInstall(t, s, root)

	if !s.Frontier().Contains(rootID) {
		t.Fatalf("root should be the sole frontier member after its own install")
	}

	child := HashNode{Op: InsertAfter(rootID, 'b'), ExtraDependencies: NewIDSet(rootID)}
	childID := mustInstall(t, s, child)

	f := s.Frontier()
	if f.Contains(rootID) {
		t.Fatalf("root should have left the frontier once something depends on it")
	}
	if !f.Contains(childID) {
		t.Fatalf("child should be the new frontier tip")
	}
}
