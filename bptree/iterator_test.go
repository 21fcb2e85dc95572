package bptree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wifi32767/cmu15445fall2024/bufferpool"
)

func TestIterator_EmptyTreeBeginIsEnd(t *testing.T) {
	tree := newTestTree(t, 4, 4)

	it, err := tree.Begin()
	require.NoError(t, err)
	assert.True(t, it.IsEnd())
	assert.True(t, it.Equal(tree.End()))
}

func TestIterator_BeginAtLandsOnLowerBound(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for _, v := range []int32{10, 20, 30, 40} {
		_, err := tree.Insert(IntKey(v, 4), RID{PageID: bufferpool.PageID(v)})
		require.NoError(t, err)
	}

	it, err := tree.BeginAt(IntKey(25, 4))
	require.NoError(t, err)
	require.False(t, it.IsEnd())
	k, err := it.Key()
	require.NoError(t, err)
	assert.Equal(t, IntKey(30, 4), k)

	it, err = tree.BeginAt(IntKey(20, 4))
	require.NoError(t, err)
	k, err = it.Key()
	require.NoError(t, err)
	assert.Equal(t, IntKey(20, 4), k, "BeginAt an exact key lands on that key")

	it, err = tree.BeginAt(IntKey(1000, 4))
	require.NoError(t, err)
	assert.True(t, it.IsEnd(), "BeginAt past every key lands at End")
}

func TestIterator_NextCrossesLeafBoundaries(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	for i := int32(1); i <= 20; i++ {
		_, err := tree.Insert(IntKey(i, 4), RID{PageID: bufferpool.PageID(i)})
		require.NoError(t, err)
	}

	it, err := tree.Begin()
	require.NoError(t, err)

	count := 0
	for !it.IsEnd() {
		count++
		require.NoError(t, it.Next())
	}
	assert.Equal(t, 20, count)
}

func TestIterator_NextPastEndPanics(t *testing.T) {
	tree := newTestTree(t, 4, 4)
	it, err := tree.Begin()
	require.NoError(t, err)
	require.True(t, it.IsEnd())

	assert.Panics(t, func() { _ = it.Next() })
}
