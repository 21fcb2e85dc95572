// Package bptree implements a disk-resident, paged, latch-crabbed B+Tree
// index on top of a bufferpool.BufferPool.
package bptree

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/exp/constraints"
)

// Key is a fixed-width, opaque comparable value. Every key handled by a
// single Tree has the same width; the Tree never inspects key bytes itself,
// it only ever calls the injected Comparator.
type Key []byte

// Comparator imposes a total order over Keys of a fixed width. It returns
// <0, 0 or >0 as a sorts before, equal to or after b; the order need not be
// byte order (IntComparator orders signed values numerically).
type Comparator func(a, b Key) int

// BytesComparator returns a Comparator that orders keys lexicographically
// by byte value — the natural choice for opaque fixed-width keys (hashes,
// UUIDs) where no numeric interpretation is meaningful.
func BytesComparator() Comparator {
	return func(a, b Key) int {
		return bytes.Compare(a, b)
	}
}

// IntKey encodes v as a big-endian Key of the given byte width. Width must
// be large enough to hold v; this is a constructor precondition and panics
// rather than truncating silently, matching the programmer-error posture of
// the rest of this package.
func IntKey[T constraints.Integer](v T, width int) Key {
	k := make(Key, width)
	switch width {
	case 4:
		if T(int32(v)) != v && T(uint32(v)) != v {
			panic("bptree: IntKey value does not fit in 4 bytes")
		}
		binary.BigEndian.PutUint32(k, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(k, uint64(v))
	default:
		panic("bptree: IntKey only supports 4 or 8 byte widths")
	}
	return k
}

// IntComparator orders keys produced by IntKey numerically rather than by
// raw byte value. Widths of 4 and 8 bytes encode unsigned-preserving
// big-endian integers, so byte-lexicographic order already matches numeric
// order for non-negative values; this comparator exists to make that
// relationship explicit and to give signed callers a correct comparator
// rather than relying on byte order happening to agree.
func IntComparator(width int) Comparator {
	switch width {
	case 4:
		return func(a, b Key) int {
			av := int32(binary.BigEndian.Uint32(a))
			bv := int32(binary.BigEndian.Uint32(b))
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	case 8:
		return func(a, b Key) int {
			av := int64(binary.BigEndian.Uint64(a))
			bv := int64(binary.BigEndian.Uint64(b))
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
	default:
		panic("bptree: IntComparator only supports 4 or 8 byte widths")
	}
}
