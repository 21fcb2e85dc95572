package bptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wifi32767/cmu15445fall2024/bufferpool"
)

func newTestLeaf(t *testing.T, keySize, maxSize int) leafPage {
	buf := make([]byte, leafCapacity(keySize, maxSize))
	lp := newLeafPage(buf, keySize)
	lp.Init(maxSize)
	return lp
}

func TestLeafPage_InsertKeepsSortedOrder(t *testing.T) {
	lp := newTestLeaf(t, 4, 4)

	lp.Insert(0, IntKey(10, 4), RID{PageID: 1, SlotNum: 0})
	pos, found := lp.find(IntComparator(4), IntKey(5, 4))
	require.False(t, found)
	require.Equal(t, 0, pos)
	lp.Insert(pos, IntKey(5, 4), RID{PageID: 2, SlotNum: 0})

	pos, found = lp.find(IntComparator(4), IntKey(20, 4))
	require.False(t, found)
	require.Equal(t, 2, pos)
	lp.Insert(pos, IntKey(20, 4), RID{PageID: 3, SlotNum: 0})

	assert.Equal(t, 3, lp.Size())
	assert.Equal(t, IntKey(5, 4), lp.KeyAt(0))
	assert.Equal(t, IntKey(10, 4), lp.KeyAt(1))
	assert.Equal(t, IntKey(20, 4), lp.KeyAt(2))
}

func TestLeafPage_FindLocatesExistingKey(t *testing.T) {
	lp := newTestLeaf(t, 4, 4)
	cmp := IntComparator(4)
	for _, v := range []int32{1, 3, 5, 7} {
		pos, _ := lp.find(cmp, IntKey(v, 4))
		lp.Insert(pos, IntKey(v, 4), RID{PageID: bufferpool.PageID(v)})
	}

	pos, found := lp.find(cmp, IntKey(5, 4))
	require.True(t, found)
	assert.Equal(t, RID{PageID: 5}, lp.ValueAt(pos))

	_, found = lp.find(cmp, IntKey(4, 4))
	assert.False(t, found)
}

func TestLeafPage_RemoveShiftsSubsequentEntries(t *testing.T) {
	lp := newTestLeaf(t, 4, 4)
	cmp := IntComparator(4)
	for _, v := range []int32{1, 2, 3} {
		pos, _ := lp.find(cmp, IntKey(v, 4))
		lp.Insert(pos, IntKey(v, 4), RID{PageID: bufferpool.PageID(v)})
	}

	lp.Remove(0)

	require.Equal(t, 2, lp.Size())
	assert.Equal(t, IntKey(2, 4), lp.KeyAt(0))
	assert.Equal(t, IntKey(3, 4), lp.KeyAt(1))
}

func TestLeafPage_NextPointerRoundTrips(t *testing.T) {
	lp := newTestLeaf(t, 4, 4)
	assert.Equal(t, bufferpool.INVALID_PAGE_ID, lp.Next())
	lp.SetNext(bufferpool.PageID(7))
	assert.Equal(t, bufferpool.PageID(7), lp.Next())
}

func TestLeafPage_SetKVsOverwritesWholeContents(t *testing.T) {
	lp := newTestLeaf(t, 4, 4)
	lp.Insert(0, IntKey(99, 4), RID{PageID: 1})

	keys := []Key{IntKey(1, 4), IntKey(2, 4)}
	values := []RID{{PageID: 10}, {PageID: 20}}
	lp.SetKVs(keys, values)

	require.Equal(t, 2, lp.Size())
	assert.Equal(t, keys, lp.GetKeys())
	assert.Equal(t, values, lp.GetValues())
}
