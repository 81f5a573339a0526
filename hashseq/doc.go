// Package hashseq implements a content-addressed sequence CRDT for
// collaborative text editing.
//
// Every edit is a HashNode: an Op plus the causal predecessors its author
// observed, hashed together into an Id. Replicas exchange HashNodes in any
// order, over any transport; any two replicas that have installed the same
// set of HashNodes converge to byte-identical text, because the
// canonicalization in Linearize depends only on the installed node set and
// tombstones, never on arrival order or per-author metadata.
//
// There is no site identifier, no vector clock, no Lamport timestamp
// anywhere in this package: merge order is decided purely by content
// hashes, which is what makes it safe against a participant that forges
// identity to bias ordering.
package hashseq
