package bptree

import "github.com/wifi32767/cmu15445fall2024/bufferpool"

// leafPage is a typed view over a leaf page's bytes: a common header, a
// next-leaf-id field, then a row-packed key array followed by a row-packed
// RID array, both with capacity for max_size+1 entries (the extra slot
// absorbs the overflow entry transiently present mid-split).
type leafPage struct {
	buf     []byte
	keySize int
}

func newLeafPage(buf []byte, keySize int) leafPage {
	return leafPage{buf: buf, keySize: keySize}
}

func (p leafPage) keysOffset() int {
	return leafHeaderSize
}

func (p leafPage) valuesOffset(maxSize int) int {
	return leafHeaderSize + (maxSize+1)*p.keySize
}

// Init formats the page as an empty leaf with the given capacity.
func (p leafPage) Init(maxSize int) {
	writeKind(p.buf, kindLeaf)
	writeU32(p.buf, offSize, 0)
	writeU32(p.buf, offMaxSize, maxSize)
	writePageID(p.buf, offLeafNext, bufferpool.INVALID_PAGE_ID)
}

func (p leafPage) Size() int     { return readU32(p.buf, offSize) }
func (p leafPage) MaxSize() int  { return readU32(p.buf, offMaxSize) }
func (p leafPage) setSize(n int) { writeU32(p.buf, offSize, n) }

func (p leafPage) Next() bufferpool.PageID        { return readPageID(p.buf, offLeafNext) }
func (p leafPage) SetNext(id bufferpool.PageID)   { writePageID(p.buf, offLeafNext, id) }

func (p leafPage) KeyAt(i int) Key {
	off := p.keysOffset() + i*p.keySize
	k := make(Key, p.keySize)
	copy(k, p.buf[off:off+p.keySize])
	return k
}

func (p leafPage) setKeyAt(i int, k Key) {
	off := p.keysOffset() + i*p.keySize
	copy(p.buf[off:off+p.keySize], k)
}

func (p leafPage) ValueAt(i int) RID {
	off := p.valuesOffset(p.MaxSize()) + i*RIDSize
	return decodeRID(p.buf[off : off+RIDSize])
}

func (p leafPage) setValueAt(i int, r RID) {
	off := p.valuesOffset(p.MaxSize()) + i*RIDSize
	encodeRID(p.buf[off:off+RIDSize], r)
}

// Insert shifts slots [pos, size) right by one and writes (key, value) at
// pos. Precondition: 0 <= pos <= size.
func (p leafPage) Insert(pos int, key Key, value RID) {
	size := p.Size()
	for i := size; i > pos; i-- {
		p.setKeyAt(i, p.KeyAt(i-1))
		p.setValueAt(i, p.ValueAt(i-1))
	}
	p.setKeyAt(pos, key)
	p.setValueAt(pos, value)
	p.setSize(size + 1)
}

// Remove shifts slots (pos, size) left by one, dropping slot pos.
func (p leafPage) Remove(pos int) {
	size := p.Size()
	for i := pos; i < size-1; i++ {
		p.setKeyAt(i, p.KeyAt(i+1))
		p.setValueAt(i, p.ValueAt(i+1))
	}
	p.setSize(size - 1)
}

// SetKVs overwrites the page's contents with exactly n (key, value) pairs.
func (p leafPage) SetKVs(keys []Key, values []RID) {
	for i := range keys {
		p.setKeyAt(i, keys[i])
		p.setValueAt(i, values[i])
	}
	p.setSize(len(keys))
}

func (p leafPage) GetKeys() []Key {
	size := p.Size()
	out := make([]Key, size)
	for i := 0; i < size; i++ {
		out[i] = p.KeyAt(i)
	}
	return out
}

func (p leafPage) GetValues() []RID {
	size := p.Size()
	out := make([]RID, size)
	for i := 0; i < size; i++ {
		out[i] = p.ValueAt(i)
	}
	return out
}

// find returns the position of key if present, and the position it would
// be inserted at (the first slot whose key is >= key) otherwise.
func (p leafPage) find(cmp Comparator, key Key) (pos int, found bool) {
	size := p.Size()
	lo, hi := 0, size
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(p.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < size && cmp(p.KeyAt(lo), key) == 0 {
		return lo, true
	}
	return lo, false
}
