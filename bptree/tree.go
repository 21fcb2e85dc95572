package bptree

import (
	"fmt"

	"github.com/wifi32767/cmu15445fall2024/bufferpool"
	"github.com/wifi32767/cmu15445fall2024/errors"
	"github.com/wifi32767/cmu15445fall2024/logger"
	"github.com/wifi32767/cmu15445fall2024/replacer"
)

const (
	// ErrCorruptTree is raised when a page's contents contradict an
	// invariant the tree relies on internally, such as a parent no longer
	// pointing at a child it just descended through.
	ErrCorruptTree errors.Code = "CorruptTree"
)

// Tree is a disk-resident, paged B+Tree index. Every structural operation
// crabs latches down from a single header page that durably records the
// root page id, so the tree survives process restarts as long as its
// BufferPool's DiskManager does.
type Tree struct {
	pool            *bufferpool.BufferPool
	cmp             Comparator
	keySize         int
	leafMaxSize     int
	internalMaxSize int
	headerPageID    bufferpool.PageID
	log             logger.Logger
}

// New allocates a fresh, empty tree backed by pool. leafMaxSize and
// internalMaxSize bound the live entry count of their respective page
// kinds; keySize is the fixed byte width of every key this tree will ever
// store. New fails if a page of pool's content size cannot hold even one
// page of either kind at this key width.
func New(pool *bufferpool.BufferPool, cmp Comparator, keySize, leafMaxSize, internalMaxSize int) (*Tree, error) {
	if err := checkCapacity(bufferpool.PAGE_CONTENT_SIZE, keySize, leafMaxSize, internalMaxSize); err != nil {
		return nil, err
	}

	guard, err := pool.NewPageGuarded()
	if err != nil {
		return nil, err
	}
	hp := newHeaderPage(guard.Contents())
	hp.Init()
	headerPageID := guard.PageID()
	guard.Drop()

	return &Tree{
		pool:            pool,
		cmp:             cmp,
		keySize:         keySize,
		leafMaxSize:     leafMaxSize,
		internalMaxSize: internalMaxSize,
		headerPageID:    headerPageID,
		log:             logger.NopLogger,
	}, nil
}

// WithLogger swaps in a logger; by default the tree logs nothing.
func (t *Tree) WithLogger(log logger.Logger) *Tree {
	t.log = log
	return t
}

// GetRootPageId returns the tree's current root page id, or
// bufferpool.INVALID_PAGE_ID if the tree is empty.
func (t *Tree) GetRootPageId() (bufferpool.PageID, error) {
	guard, err := t.pool.ReadPage(t.headerPageID)
	if err != nil {
		return bufferpool.INVALID_PAGE_ID, err
	}
	defer guard.Drop()
	return newHeaderPage(guard.Contents()).RootPageID(), nil
}

// IsEmpty reports whether the tree currently holds no entries.
func (t *Tree) IsEmpty() (bool, error) {
	root, err := t.GetRootPageId()
	if err != nil {
		return false, err
	}
	return root == bufferpool.INVALID_PAGE_ID, nil
}

// GetValue looks up key, returning its RID and true if present. Readers
// crab down the tree holding at most two read latches (parent, child) at
// any instant: a child's latch is taken before its parent's is released.
func (t *Tree) GetValue(key Key) (RID, bool, error) {
	headerGuard, err := t.pool.ReadPage(t.headerPageID)
	if err != nil {
		return RID{}, false, err
	}
	root := newHeaderPage(headerGuard.Contents()).RootPageID()
	if root == bufferpool.INVALID_PAGE_ID {
		headerGuard.Drop()
		return RID{}, false, nil
	}

	cur, err := t.pool.ReadPageAs(root, replacer.AccessLookup)
	headerGuard.Drop()
	if err != nil {
		return RID{}, false, err
	}

	for {
		kind := readKind(cur.Contents())
		if kind == kindLeaf {
			lp := newLeafPage(cur.Contents(), t.keySize)
			pos, found := lp.find(t.cmp, key)
			var rid RID
			if found {
				rid = lp.ValueAt(pos)
			}
			cur.Drop()
			return rid, found, nil
		}

		ip := newInternalPage(cur.Contents(), t.keySize)
		childID := ip.ValueAt(ip.Lookup(t.cmp, key))
		child, err := t.pool.ReadPageAs(childID, replacer.AccessLookup)
		cur.Drop()
		if err != nil {
			return RID{}, false, err
		}
		cur = child
	}
}

// pushWriteLatch write-latches pageID and appends it to stack, returning the
// new stack. Guards are heap-allocated one at a time so pointers into the
// slice stay valid even as it grows.
func (t *Tree) pushWriteLatch(stack []*bufferpool.WritePageGuard, pageID bufferpool.PageID, kind replacer.AccessType) ([]*bufferpool.WritePageGuard, error) {
	g, err := t.pool.WritePageAs(pageID, kind)
	if err != nil {
		return stack, err
	}
	return append(stack, &g), nil
}

func dropAll(stack []*bufferpool.WritePageGuard) {
	for _, g := range stack {
		g.Drop()
	}
}

// Insert adds (key, value) to the tree. It reports false without modifying
// the tree if key is already present. The writer holds the header page's
// write latch for the whole operation (it may need to install a new root)
// and retains every ancestor write latch down the path stack until the leaf
// insert is known not to overflow, or until overflow has been fully
// resolved up to the root.
func (t *Tree) Insert(key Key, value RID) (bool, error) {
	headerGuard, err := t.pool.WritePage(t.headerPageID)
	if err != nil {
		return false, err
	}
	defer headerGuard.Drop()
	hp := newHeaderPage(headerGuard.Contents())

	root := hp.RootPageID()
	if root == bufferpool.INVALID_PAGE_ID {
		leafGuard, err := t.pool.NewPageGuarded()
		if err != nil {
			return false, err
		}
		lp := newLeafPage(leafGuard.Contents(), t.keySize)
		lp.Init(t.leafMaxSize)
		lp.Insert(0, key, value)
		hp.SetRootPageID(leafGuard.PageID())
		leafGuard.Drop()
		return true, nil
	}

	var stack []*bufferpool.WritePageGuard
	defer func() { dropAll(stack) }()

	curID := root
	for {
		stack, err = t.pushWriteLatch(stack, curID, replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		cur := stack[len(stack)-1]
		if readKind(cur.Contents()) == kindLeaf {
			break
		}
		ip := newInternalPage(cur.Contents(), t.keySize)
		curID = ip.ValueAt(ip.Lookup(t.cmp, key))
	}

	leaf := stack[len(stack)-1]
	lp := newLeafPage(leaf.Contents(), t.keySize)
	pos, found := lp.find(t.cmp, key)
	if found {
		return false, nil
	}
	lp.Insert(pos, key, value)

	if lp.Size() <= lp.MaxSize() {
		return true, nil
	}
	return true, t.splitUpward(stack, hp)
}

// splitUpward resolves an overflow at the bottom of stack, splitting pages
// and promoting a separator into the parent as long as the parent itself
// overflows, and installing a new root if the overflow reaches the top.
func (t *Tree) splitUpward(stack []*bufferpool.WritePageGuard, hp headerPage) error {
	idx := len(stack) - 1
	for {
		cur := stack[idx]
		kind := readKind(cur.Contents())

		var promotedKey Key
		var rightID bufferpool.PageID

		if kind == kindLeaf {
			lp := newLeafPage(cur.Contents(), t.keySize)
			if lp.Size() <= lp.MaxSize() {
				return nil
			}

			rightGuard, err := t.pool.NewPageGuarded()
			if err != nil {
				return err
			}
			rp := newLeafPage(rightGuard.Contents(), t.keySize)
			rp.Init(lp.MaxSize())

			minSize := (lp.MaxSize() + 1) / 2
			keys, values := lp.GetKeys(), lp.GetValues()
			rp.SetKVs(keys[minSize:], values[minSize:])
			rp.SetNext(lp.Next())
			lp.SetKVs(keys[:minSize], values[:minSize])
			lp.SetNext(rightGuard.PageID())

			promotedKey = rp.KeyAt(0)
			rightID = rightGuard.PageID()
			rightGuard.Drop()
		} else {
			ip := newInternalPage(cur.Contents(), t.keySize)
			if ip.Size() <= ip.MaxSize() {
				return nil
			}

			rightGuard, err := t.pool.NewPageGuarded()
			if err != nil {
				return err
			}
			rp := newInternalPage(rightGuard.Contents(), t.keySize)
			rp.Init(ip.MaxSize())

			size := ip.Size()
			minSize := (ip.MaxSize() + 1) / 2
			keys, children := ip.GetKeys(), ip.GetValues()

			promotedKey = keys[minSize-1]
			rp.SetValues(children[minSize:size])
			rp.SetKeys(keys[minSize : size-1])
			ip.SetValues(children[:minSize])
			ip.SetKeys(keys[:minSize-1])

			rightID = rightGuard.PageID()
			rightGuard.Drop()
		}

		if idx == 0 {
			newRootGuard, err := t.pool.NewPageGuarded()
			if err != nil {
				return err
			}
			nrp := newInternalPage(newRootGuard.Contents(), t.keySize)
			nrp.Init(t.internalMaxSize)
			nrp.SetValues([]bufferpool.PageID{cur.PageID(), rightID})
			nrp.SetKeys([]Key{promotedKey})
			hp.SetRootPageID(newRootGuard.PageID())
			newRootGuard.Drop()
			return nil
		}

		parent := stack[idx-1]
		pip := newInternalPage(parent.Contents(), t.keySize)
		childPos, ok := pip.ValueIndex(cur.PageID())
		if !ok {
			t.log.Warnf("bptree: split child %d missing from parent %d", cur.PageID(), parent.PageID())
			return errors.New(ErrCorruptTree, "split child missing from parent")
		}
		pip.InsertChildAt(childPos+1, rightID, promotedKey)
		idx--
	}
}

// Remove deletes key from the tree, a no-op if key is absent. The writer
// holds the header page's write latch for the whole operation and retains
// every ancestor write latch down the path stack, since a merge may need to
// remove a child pointer from any ancestor on the way back up.
func (t *Tree) Remove(key Key) error {
	headerGuard, err := t.pool.WritePage(t.headerPageID)
	if err != nil {
		return err
	}
	defer headerGuard.Drop()
	hp := newHeaderPage(headerGuard.Contents())

	root := hp.RootPageID()
	if root == bufferpool.INVALID_PAGE_ID {
		return nil
	}

	var stack []*bufferpool.WritePageGuard
	defer func() { dropAll(stack) }()

	curID := root
	for {
		stack, err = t.pushWriteLatch(stack, curID, replacer.AccessIndex)
		if err != nil {
			return err
		}
		cur := stack[len(stack)-1]
		if readKind(cur.Contents()) == kindLeaf {
			break
		}
		ip := newInternalPage(cur.Contents(), t.keySize)
		curID = ip.ValueAt(ip.Lookup(t.cmp, key))
	}

	leaf := stack[len(stack)-1]
	lp := newLeafPage(leaf.Contents(), t.keySize)
	pos, found := lp.find(t.cmp, key)
	if !found {
		return nil
	}
	lp.Remove(pos)

	return t.rebalanceUpward(stack, hp)
}

// rebalanceUpward resolves an underflow at the bottom of stack: it borrows
// an entry from a sibling if one has room to spare, otherwise merges with a
// sibling (preferring the left one) and recurses upward, since a merge
// shrinks the parent's child count by one and may itself underflow it.
func (t *Tree) rebalanceUpward(stack []*bufferpool.WritePageGuard, hp headerPage) error {
	idx := len(stack) - 1
	for {
		cur := stack[idx]
		kind := readKind(cur.Contents())

		if idx == 0 {
			if kind == kindLeaf {
				lp := newLeafPage(cur.Contents(), t.keySize)
				if lp.Size() == 0 {
					hp.SetRootPageID(bufferpool.INVALID_PAGE_ID)
					cur.Drop()
					return t.pool.DeletePage(cur.PageID())
				}
				return nil
			}
			ip := newInternalPage(cur.Contents(), t.keySize)
			if ip.Size() == 1 {
				onlyChild := ip.ValueAt(0)
				hp.SetRootPageID(onlyChild)
				cur.Drop()
				return t.pool.DeletePage(cur.PageID())
			}
			return nil
		}

		parent := stack[idx-1]
		pip := newInternalPage(parent.Contents(), t.keySize)
		childPos, ok := pip.ValueIndex(cur.PageID())
		if !ok {
			t.log.Warnf("bptree: child %d missing from parent %d during rebalance", cur.PageID(), parent.PageID())
			return errors.New(ErrCorruptTree, "child missing from parent during rebalance")
		}

		var merged bool
		var err error
		if kind == kindLeaf {
			merged, err = t.rebalanceLeaf(cur, pip, childPos)
		} else {
			merged, err = t.rebalanceInternal(cur, pip, childPos)
		}
		if err != nil {
			return err
		}
		if !merged {
			return nil
		}
		idx--
	}
}

// rebalanceLeaf fixes an underflowing leaf at childPos of parent, borrowing
// from a sibling if possible. It reports whether it merged with a sibling
// instead, in which case the caller must re-examine parent.
func (t *Tree) rebalanceLeaf(cur *bufferpool.WritePageGuard, pip internalPage, childPos int) (merged bool, err error) {
	lp := newLeafPage(cur.Contents(), t.keySize)
	minSize := (lp.MaxSize() + 1) / 2
	if lp.Size() >= minSize {
		return false, nil
	}

	if childPos > 0 {
		leftGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos-1), replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		leftLP := newLeafPage(leftGuard.Contents(), t.keySize)
		if leftLP.Size() > minSize {
			last := leftLP.Size() - 1
			k, v := leftLP.KeyAt(last), leftLP.ValueAt(last)
			leftLP.Remove(last)
			lp.Insert(0, k, v)
			pip.SetKeyAt(childPos, k)
			leftGuard.Drop()
			return false, nil
		}
		leftGuard.Drop()
	}

	if childPos < pip.Size()-1 {
		rightGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos+1), replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		rightLP := newLeafPage(rightGuard.Contents(), t.keySize)
		if rightLP.Size() > minSize {
			k, v := rightLP.KeyAt(0), rightLP.ValueAt(0)
			rightLP.Remove(0)
			lp.Insert(lp.Size(), k, v)
			pip.SetKeyAt(childPos+1, rightLP.KeyAt(0))
			rightGuard.Drop()
			return false, nil
		}
		rightGuard.Drop()
	}

	if childPos > 0 {
		leftGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos-1), replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		leftLP := newLeafPage(leftGuard.Contents(), t.keySize)
		leftLP.SetKVs(append(leftLP.GetKeys(), lp.GetKeys()...), append(leftLP.GetValues(), lp.GetValues()...))
		leftLP.SetNext(lp.Next())
		leftGuard.Drop()

		pip.RemoveChildAt(childPos)
		curID := cur.PageID()
		cur.Drop()
		return true, t.pool.DeletePage(curID)
	}

	rightGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos+1), replacer.AccessIndex)
	if err != nil {
		return false, err
	}
	rightLP := newLeafPage(rightGuard.Contents(), t.keySize)
	lp.SetKVs(append(lp.GetKeys(), rightLP.GetKeys()...), append(lp.GetValues(), rightLP.GetValues()...))
	lp.SetNext(rightLP.Next())
	rightID := rightGuard.PageID()
	rightGuard.Drop()

	pip.RemoveChildAt(childPos + 1)
	return true, t.pool.DeletePage(rightID)
}

// rebalanceInternal is rebalanceLeaf's mirror for internal pages: the same
// borrow-then-merge policy, but moving (child, key) pairs instead of leaf
// entries and demoting/promoting the parent separator as the routing key
// transfers between levels.
func (t *Tree) rebalanceInternal(cur *bufferpool.WritePageGuard, pip internalPage, childPos int) (merged bool, err error) {
	ip := newInternalPage(cur.Contents(), t.keySize)
	minSize := (ip.MaxSize() + 1) / 2
	if ip.Size() >= minSize {
		return false, nil
	}

	if childPos > 0 {
		leftGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos-1), replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		leftIP := newInternalPage(leftGuard.Contents(), t.keySize)
		if leftIP.Size() > minSize {
			last := leftIP.Size() - 1
			movedChild := leftIP.ValueAt(last)
			movedKey := leftIP.KeyAt(last)
			oldSeparator := pip.KeyAt(childPos)
			leftIP.RemoveChildAt(last)
			ip.InsertChildAt(0, movedChild, oldSeparator)
			pip.SetKeyAt(childPos, movedKey)
			leftGuard.Drop()
			return false, nil
		}
		leftGuard.Drop()
	}

	if childPos < pip.Size()-1 {
		rightGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos+1), replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		rightIP := newInternalPage(rightGuard.Contents(), t.keySize)
		if rightIP.Size() > minSize {
			movedChild := rightIP.ValueAt(0)
			oldSeparator := pip.KeyAt(childPos + 1)
			newSeparator := rightIP.KeyAt(1)
			rightIP.RemoveChildAt(0)
			ip.InsertChildAt(ip.Size(), movedChild, oldSeparator)
			pip.SetKeyAt(childPos+1, newSeparator)
			rightGuard.Drop()
			return false, nil
		}
		rightGuard.Drop()
	}

	if childPos > 0 {
		leftGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos-1), replacer.AccessIndex)
		if err != nil {
			return false, err
		}
		leftIP := newInternalPage(leftGuard.Contents(), t.keySize)
		demoted := pip.KeyAt(childPos)
		mergedKeys := append(append(leftIP.GetKeys(), demoted), ip.GetKeys()...)
		mergedChildren := append(leftIP.GetValues(), ip.GetValues()...)
		leftIP.SetValues(mergedChildren)
		leftIP.SetKeys(mergedKeys)
		leftGuard.Drop()

		pip.RemoveChildAt(childPos)
		curID := cur.PageID()
		cur.Drop()
		return true, t.pool.DeletePage(curID)
	}

	rightGuard, err := t.pool.WritePageAs(pip.ValueAt(childPos+1), replacer.AccessIndex)
	if err != nil {
		return false, err
	}
	rightIP := newInternalPage(rightGuard.Contents(), t.keySize)
	demoted := pip.KeyAt(childPos + 1)
	mergedKeys := append(append(ip.GetKeys(), demoted), rightIP.GetKeys()...)
	mergedChildren := append(ip.GetValues(), rightIP.GetValues()...)
	ip.SetValues(mergedChildren)
	ip.SetKeys(mergedKeys)
	rightID := rightGuard.PageID()
	rightGuard.Drop()

	pip.RemoveChildAt(childPos + 1)
	return true, t.pool.DeletePage(rightID)
}

// DebugString renders the tree's page structure top-down, one line per
// page, for use in test failure output; it is not part of the tree's
// concurrency-safe public surface and takes no latches beyond a single
// read pass.
func (t *Tree) DebugString() (string, error) {
	root, err := t.GetRootPageId()
	if err != nil {
		return "", err
	}
	if root == bufferpool.INVALID_PAGE_ID {
		return "<empty>\n", nil
	}

	out := ""
	type item struct {
		id    bufferpool.PageID
		depth int
	}
	queue := []item{{root, 0}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		guard, err := t.pool.ReadPage(it.id)
		if err != nil {
			return "", err
		}
		indent := ""
		for i := 0; i < it.depth; i++ {
			indent += "  "
		}
		switch readKind(guard.Contents()) {
		case kindLeaf:
			lp := newLeafPage(guard.Contents(), t.keySize)
			out += indent + leafDebugLine(lp)
		case kindInternal:
			ip := newInternalPage(guard.Contents(), t.keySize)
			out += indent + internalDebugLine(ip)
			for i := 0; i < ip.Size(); i++ {
				queue = append(queue, item{ip.ValueAt(i), it.depth + 1})
			}
		}
		guard.Drop()
	}
	return out, nil
}

func leafDebugLine(lp leafPage) string {
	line := fmt.Sprintf("leaf(size=%d/%d, next=%d)", lp.Size(), lp.MaxSize(), lp.Next())
	for i := 0; i < lp.Size(); i++ {
		line += fmt.Sprintf(" %x", []byte(lp.KeyAt(i)))
	}
	return line + "\n"
}

func internalDebugLine(ip internalPage) string {
	line := fmt.Sprintf("internal(size=%d/%d)", ip.Size(), ip.MaxSize())
	for i := 0; i < ip.Size(); i++ {
		if i > 0 {
			line += fmt.Sprintf(" |%x|", []byte(ip.KeyAt(i)))
		}
		line += fmt.Sprintf(" c%d", ip.ValueAt(i))
	}
	return line + "\n"
}
