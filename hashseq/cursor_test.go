package hashseq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorBuildInsertOnEmptySequenceUsesInsertRoot(t *testing.T) {
	s := NewStore()
	removed := NewRemoveSet()
	c := newCursor(s, removed)

	node, err := c.BuildInsert(0, 'a')
	require.NoError(t, err)
	require.Equal(t, TagInsertRoot, node.Op.Tag())
}

func TestCursorBuildInsertAtFrontUsesInsertBefore(t *testing.T) {
	s := NewStore()
	removed := NewRemoveSet()
	c := newCursor(s, removed)

	root := install(t, s, HashNode{Op: InsertRoot('b')})

	node, err := c.BuildInsert(0, 'a')
	require.NoError(t, err)
	require.Equal(t, TagInsertBefore, node.Op.Tag())
	anchor, ok := node.Op.Anchor()
	require.True(t, ok)
	require.Equal(t, root, anchor)
}

func TestCursorBuildInsertMidSequenceUsesInsertAfterPredecessor(t *testing.T) {
	s := NewStore()
	removed := NewRemoveSet()
	c := newCursor(s, removed)

	root := install(t, s, HashNode{Op: InsertRoot('a')})
	b := install(t, s, HashNode{Op: InsertAfter(root, 'c'), ExtraDependencies: NewIDSet(root)})

	node, err := c.BuildInsert(1, 'b')
	require.NoError(t, err)
	require.Equal(t, TagInsertAfter, node.Op.Tag())
	anchor, _ := node.Op.Anchor()
	require.Equal(t, root, anchor)
	_ = b
}

func TestCursorBuildInsertRejectsOutOfRange(t *testing.T) {
	s := NewStore()
	c := newCursor(s, NewRemoveSet())
	_, err := c.BuildInsert(5, 'x')
	require.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestCursorBuildRemoveRejectsOutOfRange(t *testing.T) {
	s := NewStore()
	c := newCursor(s, NewRemoveSet())
	_, err := c.BuildRemove(0)
	require.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestCursorIDAtAndPosOfAgreeAfterMutation(t *testing.T) {
	s := NewStore()
	removed := NewRemoveSet()
	c := newCursor(s, removed)

	var ids []ID
	prev := ID{}
	for i, ch := range "hello" {
		var node HashNode
		if i == 0 {
			node = HashNode{Op: InsertRoot(ch)}
		} else {
			node = HashNode{Op: InsertAfter(prev, ch), ExtraDependencies: NewIDSet(prev)}
		}
		prev = install(t, s, node)
		ids = append(ids, prev)
	}

	require.Equal(t, len(ids), c.Len())
	for i, id := range ids {
		got, ok := c.IDAt(i)
		require.True(t, ok)
		require.Equal(t, id, got)

		pos, ok := c.PosOf(id)
		require.True(t, ok)
		require.Equal(t, i, pos)
	}
}

func TestCursorIndexRebuildsAcrossManyChunks(t *testing.T) {
	// chunkCap is 256; exercise the multi-chunk Fenwick path explicitly.
	s := NewStore()
	c := newCursor(s, NewRemoveSet())

	var prev ID
	for i := 0; i < chunkCap*2+17; i++ {
		ch := rune('a' + (i % 26))
		var node HashNode
		if i == 0 {
			node = HashNode{Op: InsertRoot(ch)}
		} else {
			node = HashNode{Op: InsertAfter(prev, ch), ExtraDependencies: NewIDSet(prev)}
		}
		prev = install(t, s, node)
	}

	require.Equal(t, chunkCap*2+17, c.Len())
	last, ok := c.IDAt(c.Len() - 1)
	require.True(t, ok)
	require.Equal(t, prev, last)
}
