package hashseq

import (
	"encoding/binary"
	"fmt"
)

// HashNode is the unit of causal history exchanged between replicas: an Op
// plus the extra causal predecessors the author observed that aren't
// otherwise captured by the op itself. Its Id is the hash of its own
// canonical encoding, which is why it can never reference its own Id and
// why the causal graph it forms is acyclic by construction.
type HashNode struct {
	ExtraDependencies IDSet
	Op                Op
}

// ID computes the content-addressed identifier of n. This is always a
// pure function of n's fields — no state outside n participates.
func (n HashNode) ID() ID {
	return Hash(Encode(n))
}

// Dependencies returns every Id n's causal history requires to already be
// present: its op's anchor or remove-targets, plus ExtraDependencies.
func (n HashNode) Dependencies() IDSet {
	deps := n.ExtraDependencies.Clone()
	if anchor, ok := n.Op.dependency(); ok {
		deps = deps.Insert(anchor)
	}
	for _, target := range n.Op.Targets() {
		deps = deps.Insert(target)
	}
	return deps
}

// Encode produces the canonical, bit-exact byte encoding of n. It is
// bijective: Decode(Encode(n)) reconstructs n exactly, and two HashNodes
// encode identically iff they are equal. Field order and widths are fixed
// and must never change without changing every Id in existence.
func Encode(n HashNode) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(n.Op.tag))

	switch n.Op.tag {
	case TagInsertRoot:
		buf = appendRune(buf, n.Op.ch)
	case TagInsertAfter, TagInsertBefore:
		buf = append(buf, n.Op.anchor[:]...)
		buf = appendRune(buf, n.Op.ch)
	case TagRemove:
		buf = appendIDSet(buf, n.Op.targets)
	default:
		panic(fmt.Sprintf("hashseq: encode: unknown op tag %v", n.Op.tag))
	}

	buf = appendIDSet(buf, n.ExtraDependencies)
	return buf
}

func appendRune(buf []byte, r rune) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(r))
	return append(buf, tmp[:]...)
}

func appendIDSet(buf []byte, ids IDSet) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(ids)))
	buf = append(buf, tmp[:]...)
	for _, id := range ids {
		buf = append(buf, id[:]...)
	}
	return buf
}

// Decode parses the canonical encoding produced by Encode. It does not
// verify the resulting node's Id against any claim — callers that receive
// a node alongside a claimed Id should compare HashNode.ID() against it
// themselves (see Validate), so that hash-mismatch is reported as a
// distinct, typed condition rather than a decode failure.
func Decode(data []byte) (HashNode, error) {
	r := byteReader{data: data}

	tagByte, err := r.byte_()
	if err != nil {
		return HashNode{}, xerrorsWrap("hashseq: decode: op tag", err)
	}
	tag := OpTag(tagByte)

	var op Op
	switch tag {
	case TagInsertRoot:
		ch, err := r.rune_()
		if err != nil {
			return HashNode{}, xerrorsWrap("hashseq: decode: InsertRoot char", err)
		}
		op = InsertRoot(ch)
	case TagInsertAfter, TagInsertBefore:
		anchor, err := r.id()
		if err != nil {
			return HashNode{}, xerrorsWrap("hashseq: decode: anchor", err)
		}
		ch, err := r.rune_()
		if err != nil {
			return HashNode{}, xerrorsWrap("hashseq: decode: char", err)
		}
		if tag == TagInsertAfter {
			op = InsertAfter(anchor, ch)
		} else {
			op = InsertBefore(anchor, ch)
		}
	case TagRemove:
		targets, err := r.idSet()
		if err != nil {
			return HashNode{}, xerrorsWrap("hashseq: decode: remove targets", err)
		}
		op = Remove(targets)
	default:
		return HashNode{}, fmt.Errorf("hashseq: decode: unknown op tag 0x%02x", tagByte)
	}

	extraDeps, err := r.idSet()
	if err != nil {
		return HashNode{}, xerrorsWrap("hashseq: decode: extra_dependencies", err)
	}
	if !r.exhausted() {
		return HashNode{}, fmt.Errorf("hashseq: decode: %d trailing bytes", r.remaining())
	}

	return HashNode{ExtraDependencies: extraDeps, Op: op}, nil
}

// byteReader is a minimal cursor over the wire bytes, kept deliberately
// small rather than pulling in a general binary-reader dependency for a
// single, bespoke, fixed-shape format.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) remaining() int { return len(r.data) - r.pos }
func (r *byteReader) exhausted() bool { return r.remaining() == 0 }

func (r *byteReader) byte_() (byte, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("unexpected end of input")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) uint32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("unexpected end of input")
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *byteReader) rune_() (rune, error) {
	v, err := r.uint32()
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}

func (r *byteReader) id() (ID, error) {
	if r.remaining() < IDSize {
		return Zero, fmt.Errorf("unexpected end of input")
	}
	var id ID
	copy(id[:], r.data[r.pos:r.pos+IDSize])
	r.pos += IDSize
	return id, nil
}

func (r *byteReader) idSet() (IDSet, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	ids := make([]ID, 0, n)
	for i := uint32(0); i < n; i++ {
		id, err := r.id()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return NewIDSet(ids...), nil
}
