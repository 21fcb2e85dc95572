package bptree

import (
	"encoding/binary"

	"github.com/wifi32767/cmu15445fall2024/bufferpool"
	"github.com/wifi32767/cmu15445fall2024/errors"
)

// pageKind tags the three page layouts this package writes. It occupies the
// first 4 bytes of every page's common header.
type pageKind uint32

const (
	kindInvalid  pageKind = 0
	kindLeaf     pageKind = 1
	kindInternal pageKind = 2
	kindHeader   pageKind = 3
)

// Common header, present at the front of every page kind: page_kind (u32),
// size (u32), max_size (u32).
const (
	offKind          = 0
	offSize          = 4
	offMaxSize       = 8
	commonHeaderSize = 12
)

// Leaf pages append a next-leaf-id field after the common header.
const (
	offLeafNext    = commonHeaderSize
	leafHeaderSize = commonHeaderSize + 4
)

// Internal pages carry no extra header fields beyond the common one.
const internalHeaderSize = commonHeaderSize

// Header pages store a single root page id after the common header.
const (
	offHeaderRoot  = commonHeaderSize
	headerPageSize = commonHeaderSize + 4
)

const (
	ErrKeyTooWideForPage errors.Code = "KeyTooWideForPage"
)

func readKind(buf []byte) pageKind {
	return pageKind(binary.BigEndian.Uint32(buf[offKind:]))
}

func writeKind(buf []byte, k pageKind) {
	binary.BigEndian.PutUint32(buf[offKind:], uint32(k))
}

func readU32(buf []byte, off int) int {
	return int(binary.BigEndian.Uint32(buf[off:]))
}

func writeU32(buf []byte, off int, v int) {
	binary.BigEndian.PutUint32(buf[off:], uint32(v))
}

func readPageID(buf []byte, off int) bufferpool.PageID {
	return bufferpool.PageID(int32(binary.BigEndian.Uint32(buf[off:])))
}

func writePageID(buf []byte, off int, id bufferpool.PageID) {
	binary.BigEndian.PutUint32(buf[off:], uint32(int32(id)))
}

// leafCapacity returns the byte width needed to hold a leaf page with room
// for maxSize entries plus one transient overflow slot used mid-split.
func leafCapacity(keySize, maxSize int) int {
	slotWidth := keySize + RIDSize
	return leafHeaderSize + (maxSize+1)*slotWidth
}

// internalCapacity is internalCapacity for an internal page: maxSize+1 key
// slots (slot 0 unused) and maxSize+1 child slots.
func internalCapacity(keySize, maxSize int) int {
	return internalHeaderSize + (maxSize+1)*keySize + (maxSize+1)*4
}

// checkCapacity validates that a page of the given physical content size
// can hold maxSize leaf/internal entries of the given key width, including
// the one transient overflow slot used while a split is pending.
func checkCapacity(contentSize, keySize, leafMaxSize, internalMaxSize int) error {
	if need := leafCapacity(keySize, leafMaxSize); need > contentSize {
		return errors.New(ErrKeyTooWideForPage, "leaf_max_size does not fit in a page of this size at this key width")
	}
	if need := internalCapacity(keySize, internalMaxSize); need > contentSize {
		return errors.New(ErrKeyTooWideForPage, "internal_max_size does not fit in a page of this size at this key width")
	}
	return nil
}
