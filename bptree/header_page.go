package bptree

import "github.com/wifi32767/cmu15445fall2024/bufferpool"

// headerPage is a typed view over the single page each Tree allocates at
// construction to durably hold its root page id.
type headerPage struct {
	buf []byte
}

func newHeaderPage(buf []byte) headerPage {
	return headerPage{buf: buf}
}

func (p headerPage) Init() {
	writeKind(p.buf, kindHeader)
	writeU32(p.buf, offSize, 1)
	writeU32(p.buf, offMaxSize, 1)
	writePageID(p.buf, offHeaderRoot, bufferpool.INVALID_PAGE_ID)
}

func (p headerPage) RootPageID() bufferpool.PageID {
	return readPageID(p.buf, offHeaderRoot)
}

func (p headerPage) SetRootPageID(id bufferpool.PageID) {
	writePageID(p.buf, offHeaderRoot, id)
}
