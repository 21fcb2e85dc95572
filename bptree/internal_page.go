package bptree

import "github.com/wifi32767/cmu15445fall2024/bufferpool"

// internalPage is a typed view over an internal page's bytes: a common
// header, then a row-packed key array and a row-packed child-id array, each
// with capacity for max_size+1 entries. An internal page with n children
// has n-1 live keys occupying slots 1..n-1; slot 0 is never read.
type internalPage struct {
	buf     []byte
	keySize int
}

func newInternalPage(buf []byte, keySize int) internalPage {
	return internalPage{buf: buf, keySize: keySize}
}

func (p internalPage) keysOffset() int {
	return internalHeaderSize
}

func (p internalPage) childrenOffset(maxSize int) int {
	return internalHeaderSize + (maxSize+1)*p.keySize
}

// Init formats the page as an empty internal page with the given capacity.
func (p internalPage) Init(maxSize int) {
	writeKind(p.buf, kindInternal)
	writeU32(p.buf, offSize, 0)
	writeU32(p.buf, offMaxSize, maxSize)
}

func (p internalPage) Size() int     { return readU32(p.buf, offSize) }
func (p internalPage) MaxSize() int  { return readU32(p.buf, offMaxSize) }
func (p internalPage) setSize(n int) { writeU32(p.buf, offSize, n) }

func (p internalPage) KeyAt(i int) Key {
	off := p.keysOffset() + i*p.keySize
	k := make(Key, p.keySize)
	copy(k, p.buf[off:off+p.keySize])
	return k
}

func (p internalPage) SetKeyAt(i int, k Key) {
	off := p.keysOffset() + i*p.keySize
	copy(p.buf[off:off+p.keySize], k)
}

func (p internalPage) ValueAt(i int) bufferpool.PageID {
	off := p.childrenOffset(p.MaxSize()) + i*4
	return readPageID(p.buf, off)
}

func (p internalPage) SetValueAt(i int, child bufferpool.PageID) {
	off := p.childrenOffset(p.MaxSize()) + i*4
	writePageID(p.buf, off, child)
}

// InsertValue shifts children [pos, size) right by one, writes child at
// pos, and grows size by one. Precondition: 0 <= pos <= size.
func (p internalPage) InsertValue(pos int, child bufferpool.PageID) {
	size := p.Size()
	for i := size; i > pos; i-- {
		p.SetValueAt(i, p.ValueAt(i-1))
	}
	p.SetValueAt(pos, child)
	p.setSize(size + 1)
}

// InsertKey shifts keys [pos, size-1) right by one and writes k at pos. It
// does not touch size: callers always call InsertValue first so that
// size-1 already reflects the post-insert key count. Precondition: pos >= 1.
func (p internalPage) InsertKey(pos int, k Key) {
	size := p.Size()
	for i := size - 1; i > pos; i-- {
		p.SetKeyAt(i, p.KeyAt(i-1))
	}
	p.SetKeyAt(pos, k)
}

// RemoveValue shifts children (pos, size) left by one and shrinks size.
func (p internalPage) RemoveValue(pos int) {
	size := p.Size()
	for i := pos; i < size-1; i++ {
		p.SetValueAt(i, p.ValueAt(i+1))
	}
	p.setSize(size - 1)
}

// RemoveKey shifts keys (pos, size-1] left by one, dropping slot pos (or, if
// pos is 0, the unused slot 0 is harmlessly rewritten along with it — the
// live key actually discarded is whichever slot held the separator for the
// removed child). Callers call RemoveValue separately, with the same pos,
// to shrink size; RemoveKey must run first since it reads the pre-removal
// size to find the shift's upper bound.
func (p internalPage) RemoveKey(pos int) {
	size := p.Size()
	for i := pos; i < size-1; i++ {
		p.SetKeyAt(i, p.KeyAt(i+1))
	}
}

// SetKeys overwrites the page's live keys with the n keys given, placing
// them in slots 1..n (slot 0 stays unused). This fixes the historical
// off-by-one that copied into slots 1..n inclusive of an out-of-bounds read.
func (p internalPage) SetKeys(keys []Key) {
	for i, k := range keys {
		p.SetKeyAt(i+1, k)
	}
}

// SetValues overwrites the page's children with the given slice and sets
// size accordingly.
func (p internalPage) SetValues(children []bufferpool.PageID) {
	for i, c := range children {
		p.SetValueAt(i, c)
	}
	p.setSize(len(children))
}

func (p internalPage) GetKeys() []Key {
	size := p.Size()
	if size == 0 {
		return nil
	}
	out := make([]Key, size-1)
	for i := 1; i < size; i++ {
		out[i-1] = p.KeyAt(i)
	}
	return out
}

func (p internalPage) GetValues() []bufferpool.PageID {
	size := p.Size()
	out := make([]bufferpool.PageID, size)
	for i := 0; i < size; i++ {
		out[i] = p.ValueAt(i)
	}
	return out
}

// InsertChildAt inserts child at position pos together with the key that
// separates it from its new left neighbor, handling the key-slot-0-unused
// offset uniformly: a front insertion (pos 0) writes its separator into
// slot 1 since slot 0 is never read.
func (p internalPage) InsertChildAt(pos int, child bufferpool.PageID, separator Key) {
	p.InsertValue(pos, child)
	keyPos := pos
	if keyPos == 0 {
		keyPos = 1
	}
	p.InsertKey(keyPos, separator)
}

// RemoveChildAt removes the child at pos together with its associated key,
// correct for front, interior, and tail removal alike.
func (p internalPage) RemoveChildAt(pos int) {
	p.RemoveKey(pos)
	p.RemoveValue(pos)
}

// ValueIndex returns the index of child in this page's child array, used
// during delete to locate a merged or borrowed-from child's slot.
func (p internalPage) ValueIndex(child bufferpool.PageID) (int, bool) {
	size := p.Size()
	for i := 0; i < size; i++ {
		if p.ValueAt(i) == child {
			return i, true
		}
	}
	return 0, false
}

// Lookup returns the largest index i (i >= 1) such that key[i] <= k, or 0
// if k is less than every live key (i.e. k belongs under child[0]).
func (p internalPage) Lookup(cmp Comparator, k Key) int {
	size := p.Size()
	lo, hi := 1, size
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(p.KeyAt(mid), k) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}
