package bufferpool

// ReadPageGuard is a scoped, shared-latch handle on a pinned page. Dropping
// it releases the latch and the pin, exactly once. A ReadPageGuard is
// movable but not copyable: copying one and dropping both copies would
// double-release the underlying pin.
type ReadPageGuard struct {
	pool    *BufferPool
	page    *Page
	dropped bool
}

func newReadPageGuard(pool *BufferPool, page *Page) ReadPageGuard {
	page.TakeReadLatch()
	return ReadPageGuard{pool: pool, page: page}
}

// PageID returns the id of the guarded page.
func (g *ReadPageGuard) PageID() PageID {
	return g.page.ID()
}

// Contents returns the page's readable bytes. Callers must not retain the
// slice past Drop.
func (g *ReadPageGuard) Contents() []byte {
	return g.page.Contents()
}

// Drop releases the latch and unpins the page. It is safe to call more than
// once; only the first call has an effect.
func (g *ReadPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.page.ReleaseReadLatch()
	g.pool.Unpin(g.page.ID(), false)
}

// WritePageGuard is a scoped, exclusive-latch handle on a pinned page.
// Mutating Contents() implicitly dirties the page; Drop flushes that
// dirtiness into the page's bookkeeping (not to disk — that's the buffer
// pool's eviction/flush policy) and releases the latch and pin.
type WritePageGuard struct {
	pool    *BufferPool
	page    *Page
	dropped bool
}

func newWritePageGuard(pool *BufferPool, page *Page) WritePageGuard {
	page.TakeWriteLatch()
	return WritePageGuard{pool: pool, page: page}
}

// PageID returns the id of the guarded page.
func (g *WritePageGuard) PageID() PageID {
	return g.page.ID()
}

// Contents returns the page's mutable bytes.
func (g *WritePageGuard) Contents() []byte {
	g.page.MarkDirty()
	return g.page.Contents()
}

// Drop releases the latch and unpins the page.
func (g *WritePageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.page.ReleaseWriteLatch()
	g.pool.Unpin(g.page.ID(), g.page.IsDirty())
}
