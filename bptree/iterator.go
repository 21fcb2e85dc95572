package bptree

import (
	"github.com/wifi32767/cmu15445fall2024/bufferpool"
	"github.com/wifi32767/cmu15445fall2024/replacer"
)

// Iterator walks a tree's leaves in key order. It holds no latch between
// calls: each method takes a single read latch on the current leaf, reads
// what it needs, and releases it before returning. This means concurrent
// inserts and deletes may shift which entries a long-lived iterator visits;
// an iterator only guarantees to observe a consistent snapshot of the one
// leaf it is currently positioned in.
type Iterator struct {
	tree   *Tree
	leafID bufferpool.PageID
	pos    int
}

// Begin returns an iterator positioned at the tree's first entry, or at End
// if the tree is empty.
func (t *Tree) Begin() (*Iterator, error) {
	root, err := t.GetRootPageId()
	if err != nil {
		return nil, err
	}
	if root == bufferpool.INVALID_PAGE_ID {
		return t.End(), nil
	}

	leafID, err := t.leftmostLeaf(root)
	if err != nil {
		return nil, err
	}
	return &Iterator{tree: t, leafID: leafID, pos: 0}, nil
}

// BeginAt returns an iterator positioned at the first entry whose key is
// greater than or equal to key, or at End if no such entry exists.
func (t *Tree) BeginAt(key Key) (*Iterator, error) {
	root, err := t.GetRootPageId()
	if err != nil {
		return nil, err
	}
	if root == bufferpool.INVALID_PAGE_ID {
		return t.End(), nil
	}

	cur, err := t.pool.ReadPageAs(root, replacer.AccessScan)
	if err != nil {
		return nil, err
	}
	for readKind(cur.Contents()) != kindLeaf {
		ip := newInternalPage(cur.Contents(), t.keySize)
		childID := ip.ValueAt(ip.Lookup(t.cmp, key))
		child, err := t.pool.ReadPageAs(childID, replacer.AccessScan)
		cur.Drop()
		if err != nil {
			return nil, err
		}
		cur = child
	}

	lp := newLeafPage(cur.Contents(), t.keySize)
	pos, _ := lp.find(t.cmp, key)
	leafID := cur.PageID()
	cur.Drop()

	it := &Iterator{tree: t, leafID: leafID, pos: pos}
	if err := it.skipToLiveEntry(); err != nil {
		return nil, err
	}
	return it, nil
}

// End returns the sentinel past-the-end iterator.
func (t *Tree) End() *Iterator {
	return &Iterator{tree: t, leafID: bufferpool.INVALID_PAGE_ID}
}

func (t *Tree) leftmostLeaf(pageID bufferpool.PageID) (bufferpool.PageID, error) {
	cur, err := t.pool.ReadPageAs(pageID, replacer.AccessScan)
	if err != nil {
		return bufferpool.INVALID_PAGE_ID, err
	}
	for readKind(cur.Contents()) != kindLeaf {
		ip := newInternalPage(cur.Contents(), t.keySize)
		childID := ip.ValueAt(0)
		child, err := t.pool.ReadPageAs(childID, replacer.AccessScan)
		cur.Drop()
		if err != nil {
			return bufferpool.INVALID_PAGE_ID, err
		}
		cur = child
	}
	leafID := cur.PageID()
	cur.Drop()
	return leafID, nil
}

// skipToLiveEntry advances it past the end of its current leaf (possibly
// repeatedly, across empty leaves) until it rests on a live entry or End.
func (it *Iterator) skipToLiveEntry() error {
	for {
		if it.IsEnd() {
			return nil
		}
		guard, err := it.tree.pool.ReadPageAs(it.leafID, replacer.AccessScan)
		if err != nil {
			return err
		}
		lp := newLeafPage(guard.Contents(), it.tree.keySize)
		size, next := lp.Size(), lp.Next()
		guard.Drop()

		if it.pos < size {
			return nil
		}
		it.leafID = next
		it.pos = 0
	}
}

// IsEnd reports whether it has advanced past the tree's last entry.
func (it *Iterator) IsEnd() bool {
	return it.leafID == bufferpool.INVALID_PAGE_ID
}

// Next advances it to the following entry. Calling Next on an iterator that
// IsEnd is a programmer error and panics, matching the rest of this
// package's posture on misuse of exhausted cursors.
func (it *Iterator) Next() error {
	if it.IsEnd() {
		panic("bptree: Next called on an iterator already at End")
	}
	it.pos++
	return it.skipToLiveEntry()
}

// Key returns the key at it's current position.
func (it *Iterator) Key() (Key, error) {
	k, _, err := it.entry()
	return k, err
}

// Value returns the RID at it's current position.
func (it *Iterator) Value() (RID, error) {
	_, v, err := it.entry()
	return v, err
}

func (it *Iterator) entry() (Key, RID, error) {
	if it.IsEnd() {
		panic("bptree: Key/Value called on an iterator at End")
	}
	guard, err := it.tree.pool.ReadPageAs(it.leafID, replacer.AccessScan)
	if err != nil {
		return nil, RID{}, err
	}
	defer guard.Drop()
	lp := newLeafPage(guard.Contents(), it.tree.keySize)
	return lp.KeyAt(it.pos), lp.ValueAt(it.pos), nil
}

// Equal reports whether it and other are positioned at the same entry.
func (it *Iterator) Equal(other *Iterator) bool {
	return it.leafID == other.leafID && it.pos == other.pos
}
