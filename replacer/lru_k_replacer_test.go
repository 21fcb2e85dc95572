package replacer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wifi32767/cmu15445fall2024/replacer"
)

func TestLRUKReplacer_EvictsLoneAccessFrame(t *testing.T) {
	// K=2, frames {0,1,2} (standing in for A,B,C); access A,B,C,A,B leaves C
	// with only one access, so it is the victim.
	r := replacer.NewLRUKReplacer(3, 2)
	for _, f := range []replacer.FrameID{0, 1, 2, 0, 1} {
		r.RecordAccess(f, replacer.AccessLookup)
	}
	for _, f := range []replacer.FrameID{0, 1, 2} {
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(2), victim)
}

func TestLRUKReplacer_TiesBrokenByEarliestTimestamp(t *testing.T) {
	// K=2, sequence A,B,C,D: every frame has <K accesses, so the tie is
	// broken by the oldest single timestamp, which belongs to A.
	r := replacer.NewLRUKReplacer(4, 2)
	for _, f := range []replacer.FrameID{0, 1, 2, 3} {
		r.RecordAccess(f, replacer.AccessLookup)
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(0), victim)
}

func TestLRUKReplacer_SetEvictableGatesVictimSelection(t *testing.T) {
	r := replacer.NewLRUKReplacer(2, 2)
	r.RecordAccess(0, replacer.AccessLookup)
	r.SetEvictable(0, true)
	r.SetEvictable(0, false)

	_, ok := r.Evict()
	assert.False(t, ok)

	r.SetEvictable(0, true)
	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(0), victim)
}

func TestLRUKReplacer_RemovePinnedIsNoOp(t *testing.T) {
	r := replacer.NewLRUKReplacer(2, 2)
	r.RecordAccess(0, replacer.AccessLookup)
	// frame 0 is known but not evictable: Remove must not touch Size().
	r.Remove(0)
	assert.Equal(t, 0, r.Size())

	r.SetEvictable(0, true)
	assert.Equal(t, 1, r.Size())
	r.Remove(0)
	assert.Equal(t, 0, r.Size())
}

func TestLRUKReplacer_SevenFrameTwoApieceSequence(t *testing.T) {
	r := replacer.NewLRUKReplacer(7, 2)
	for _, f := range []replacer.FrameID{1, 2, 3, 4, 1, 2, 3, 4} {
		r.RecordAccess(f, replacer.AccessLookup)
	}
	for _, f := range []replacer.FrameID{1, 2, 3, 4} {
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(1), victim)

	victim, ok = r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(2), victim)
}

func TestLRUKReplacer_SevenFrameSingleAccessSequence(t *testing.T) {
	r := replacer.NewLRUKReplacer(7, 2)
	for _, f := range []replacer.FrameID{1, 2, 3, 4, 5} {
		r.RecordAccess(f, replacer.AccessLookup)
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(1), victim)

	r.RecordAccess(2, replacer.AccessLookup)

	victim, ok = r.Evict()
	require.True(t, ok)
	assert.Equal(t, replacer.FrameID(3), victim)
}

func TestLRUKReplacer_KnownFrameStillTrackedWhenUniverseFull(t *testing.T) {
	r := replacer.NewLRUKReplacer(1, 2)
	r.RecordAccess(0, replacer.AccessLookup)
	// universe size is 1 and frame 0 is already tracked, so there is no
	// other valid frame id to probe the ignore rule with; instead confirm
	// that a further access to the known frame is accepted and the frame
	// stays tracked (it can still be made evictable).
	r.RecordAccess(0, replacer.AccessLookup)
	r.SetEvictable(0, true)
	assert.Equal(t, 1, r.Size())
}

func TestLRUKReplacer_InvalidFrameIDPanics(t *testing.T) {
	r := replacer.NewLRUKReplacer(2, 2)
	assert.Panics(t, func() {
		r.RecordAccess(-1, replacer.AccessLookup)
	})
	assert.Panics(t, func() {
		r.RecordAccess(2, replacer.AccessLookup)
	})
}
