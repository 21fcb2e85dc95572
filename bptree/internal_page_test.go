package bptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wifi32767/cmu15445fall2024/bufferpool"
)

func newTestInternal(t *testing.T, keySize, maxSize int) internalPage {
	buf := make([]byte, internalCapacity(keySize, maxSize))
	ip := newInternalPage(buf, keySize)
	ip.Init(maxSize)
	return ip
}

// buildInternal3 constructs a 3-child internal page c0 | k1 | c1 | k2 | c2.
func buildInternal3(t *testing.T) internalPage {
	ip := newTestInternal(t, 4, 4)
	ip.SetValues([]bufferpool.PageID{10, 11, 12})
	ip.SetKeys([]Key{IntKey(5, 4), IntKey(10, 4)})
	return ip
}

func TestInternalPage_LookupDescentRule(t *testing.T) {
	ip := buildInternal3(t)
	cmp := IntComparator(4)

	assert.Equal(t, 0, ip.Lookup(cmp, IntKey(1, 4)), "below every key routes to child 0")
	assert.Equal(t, 1, ip.Lookup(cmp, IntKey(5, 4)), "equal to a key routes to that key's child")
	assert.Equal(t, 1, ip.Lookup(cmp, IntKey(7, 4)))
	assert.Equal(t, 2, ip.Lookup(cmp, IntKey(10, 4)))
	assert.Equal(t, 2, ip.Lookup(cmp, IntKey(100, 4)))
}

func TestInternalPage_SetKeysWritesIntoSlotsOneThroughN(t *testing.T) {
	ip := newTestInternal(t, 4, 4)
	ip.SetValues([]bufferpool.PageID{1, 2, 3})
	ip.SetKeys([]Key{IntKey(2, 4), IntKey(4, 4)})

	assert.Equal(t, []Key{IntKey(2, 4), IntKey(4, 4)}, ip.GetKeys())
}

func TestInternalPage_InsertChildAtFront(t *testing.T) {
	ip := buildInternal3(t)

	ip.InsertChildAt(0, bufferpool.PageID(9), IntKey(1, 4))

	require.Equal(t, 4, ip.Size())
	assert.Equal(t, []bufferpool.PageID{9, 10, 11, 12}, ip.GetValues())
	assert.Equal(t, []Key{IntKey(1, 4), IntKey(5, 4), IntKey(10, 4)}, ip.GetKeys())
}

func TestInternalPage_InsertChildAtMiddle(t *testing.T) {
	ip := buildInternal3(t)

	ip.InsertChildAt(2, bufferpool.PageID(9), IntKey(7, 4))

	require.Equal(t, 4, ip.Size())
	assert.Equal(t, []bufferpool.PageID{10, 11, 9, 12}, ip.GetValues())
	assert.Equal(t, []Key{IntKey(5, 4), IntKey(7, 4), IntKey(10, 4)}, ip.GetKeys())
}

func TestInternalPage_RemoveChildAtFront(t *testing.T) {
	ip := buildInternal3(t)

	ip.RemoveChildAt(0)

	require.Equal(t, 2, ip.Size())
	assert.Equal(t, []bufferpool.PageID{11, 12}, ip.GetValues())
	assert.Equal(t, []Key{IntKey(10, 4)}, ip.GetKeys())
}

func TestInternalPage_RemoveChildAtTail(t *testing.T) {
	ip := buildInternal3(t)

	ip.RemoveChildAt(2)

	require.Equal(t, 2, ip.Size())
	assert.Equal(t, []bufferpool.PageID{10, 11}, ip.GetValues())
	assert.Equal(t, []Key{IntKey(5, 4)}, ip.GetKeys())
}

func TestInternalPage_RemoveChildAtMiddle(t *testing.T) {
	ip := buildInternal3(t)

	ip.RemoveChildAt(1)

	require.Equal(t, 2, ip.Size())
	assert.Equal(t, []bufferpool.PageID{10, 12}, ip.GetValues())
	assert.Equal(t, []Key{IntKey(10, 4)}, ip.GetKeys())
}

func TestInternalPage_ValueIndex(t *testing.T) {
	ip := buildInternal3(t)

	idx, ok := ip.ValueIndex(11)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = ip.ValueIndex(999)
	assert.False(t, ok)
}
