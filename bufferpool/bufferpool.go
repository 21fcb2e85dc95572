package bufferpool

import (
	"sync"

	"github.com/wifi32767/cmu15445fall2024/errors"
	"github.com/wifi32767/cmu15445fall2024/logger"
	"github.com/wifi32767/cmu15445fall2024/replacer"
)

const (
	ErrPoolExhausted   errors.Code = "PoolExhausted"
	ErrPagePinned      errors.Code = "PagePinned"
	ErrPageNotResident errors.Code = "PageNotResident"
)

// BufferPool manages a fixed-size, in-memory window over a set of pages
// durably owned by a DiskManager, evicting frames via a Replacer when full.
type BufferPool struct {
	mu sync.Mutex

	diskManager DiskManager
	replacer    replacer.Replacer
	log         logger.Logger

	pages     []*Page
	freeList  []FrameID
	pageTable map[PageID]FrameID
}

// NewBufferPool returns a buffer pool of poolSize frames backed by diskManager.
func NewBufferPool(poolSize int, diskManager DiskManager) *BufferPool {
	return NewBufferPoolWithReplacer(poolSize, diskManager, replacer.NewLRUKReplacer(poolSize, 2))
}

// NewBufferPoolWithReplacer is NewBufferPool with an explicit replacer, for
// tests that want to control eviction order directly.
func NewBufferPoolWithReplacer(poolSize int, diskManager DiskManager, r replacer.Replacer) *BufferPool {
	freeList := make([]FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		freeList[i] = FrameID(i)
	}
	return &BufferPool{
		diskManager: diskManager,
		replacer:    r,
		log:         logger.NopLogger,
		pages:       make([]*Page, poolSize),
		freeList:    freeList,
		pageTable:   make(map[PageID]FrameID),
	}
}

// WithLogger swaps in a logger; by default the pool logs nothing.
func (b *BufferPool) WithLogger(log logger.Logger) *BufferPool {
	b.log = log
	return b
}

// NewPage allocates a fresh page on disk, installs it resident and pinned
// in the pool, and returns its id.
func (b *BufferPool) NewPage() (PageID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, err := b.evictOrFreeLocked()
	if err != nil {
		return INVALID_PAGE_ID, err
	}

	pageID, err := b.diskManager.AllocatePage()
	if err != nil {
		b.freeList = append(b.freeList, frameID)
		return INVALID_PAGE_ID, errors.Wrap(err, "allocating page")
	}

	page := NewPage(pageID)
	b.pages[frameID] = page
	b.pageTable[pageID] = frameID
	b.replacer.RecordAccess(replacer.FrameID(frameID), replacer.AccessIndex)
	b.replacer.SetEvictable(replacer.FrameID(frameID), false)

	return pageID, nil
}

// NewPageGuarded allocates a page exactly as NewPage does and returns it
// already write-latched, for callers that are about to initialize it.
func (b *BufferPool) NewPageGuarded() (WritePageGuard, error) {
	pageID, err := b.NewPage()
	if err != nil {
		return WritePageGuard{}, err
	}
	b.mu.Lock()
	page := b.pages[b.pageTable[pageID]]
	b.mu.Unlock()
	return newWritePageGuard(b, page), nil
}

// ReadPage pins and shared-latches a page for reading.
func (b *BufferPool) ReadPage(pageID PageID) (ReadPageGuard, error) {
	return b.ReadPageAs(pageID, replacer.AccessLookup)
}

// ReadPageAs is ReadPage with an explicit access kind, for callers (like the
// iterator) whose access pattern differs from a point lookup.
func (b *BufferPool) ReadPageAs(pageID PageID, kind replacer.AccessType) (ReadPageGuard, error) {
	page, err := b.fetch(pageID, kind)
	if err != nil {
		return ReadPageGuard{}, err
	}
	return newReadPageGuard(b, page), nil
}

// WritePage pins and exclusively latches a page for writing.
func (b *BufferPool) WritePage(pageID PageID) (WritePageGuard, error) {
	return b.WritePageAs(pageID, replacer.AccessIndex)
}

// WritePageAs is WritePage with an explicit access kind.
func (b *BufferPool) WritePageAs(pageID PageID, kind replacer.AccessType) (WritePageGuard, error) {
	page, err := b.fetch(pageID, kind)
	if err != nil {
		return WritePageGuard{}, err
	}
	return newWritePageGuard(b, page), nil
}

// fetch resolves pageID to a resident, pinned *Page, bringing it in from
// disk (evicting a victim frame if necessary) if it isn't already resident.
func (b *BufferPool) fetch(pageID PageID, kind replacer.AccessType) (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		page := b.pages[frameID]
		page.IncPinCount()
		b.replacer.RecordAccess(replacer.FrameID(frameID), kind)
		b.replacer.SetEvictable(replacer.FrameID(frameID), false)
		return page, nil
	}

	frameID, err := b.evictOrFreeLocked()
	if err != nil {
		return nil, err
	}

	page, err := b.diskManager.ReadPage(pageID)
	if err != nil {
		b.freeList = append(b.freeList, frameID)
		return nil, errors.Wrap(err, "reading page from disk")
	}
	page.pinCount = 1

	b.pages[frameID] = page
	b.pageTable[pageID] = frameID
	b.replacer.RecordAccess(replacer.FrameID(frameID), kind)
	b.replacer.SetEvictable(replacer.FrameID(frameID), false)

	return page, nil
}

// evictOrFreeLocked returns a frame ready to be assigned a new page, either
// from the free list or by evicting a victim, flushing it first if dirty.
// Callers must hold b.mu.
func (b *BufferPool) evictOrFreeLocked() (FrameID, error) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		return frameID, nil
	}

	victim, ok := b.replacer.Evict()
	if !ok {
		return 0, errors.New(ErrPoolExhausted, "no evictable frame available")
	}
	frameID := FrameID(victim)

	old := b.pages[frameID]
	if old != nil {
		if old.IsDirty() {
			stampChecksum(old)
			if err := b.diskManager.WritePage(old); err != nil {
				b.log.Warnf("bufferpool: flushing evicted page %d: %v", old.ID(), err)
			}
		}
		delete(b.pageTable, old.ID())
	}

	return frameID, nil
}

// Unpin releases a pin on pageID, making the owning frame evictable once its
// pin count reaches zero. Guards call this on Drop; a caller holding a bare
// page id from NewPage (rather than a guard) calls it directly.
func (b *BufferPool) Unpin(pageID PageID, isDirty bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return
	}
	page := b.pages[frameID]
	if isDirty {
		page.MarkDirty()
	}
	page.DecPinCount()
	if page.PinCount() <= 0 {
		b.replacer.SetEvictable(replacer.FrameID(frameID), true)
	}
}

// FlushPage writes a resident page to disk regardless of pin count.
func (b *BufferPool) FlushPage(pageID PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return errors.New(ErrPageNotResident, "page not resident")
	}
	page := b.pages[frameID]
	if err := b.diskManager.WritePage(page); err != nil {
		return errors.Wrap(err, "flushing page")
	}
	page.ClearDirty()
	return nil
}

// FlushAllPages writes every resident page to disk.
func (b *BufferPool) FlushAllPages() {
	b.mu.Lock()
	pageIDs := make([]PageID, 0, len(b.pageTable))
	for pageID := range b.pageTable {
		pageIDs = append(pageIDs, pageID)
	}
	b.mu.Unlock()

	for _, pageID := range pageIDs {
		if err := b.FlushPage(pageID); err != nil {
			b.log.Warnf("bufferpool: flushing page %d: %v", pageID, err)
		}
	}
}

// DeletePage deallocates pageID. It is the caller's responsibility to ensure
// the page is unpinned first; a pinned page cannot be deleted.
func (b *BufferPool) DeletePage(pageID PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return nil
	}
	page := b.pages[frameID]
	if page.PinCount() > 0 {
		return errors.New(ErrPagePinned, "page is pinned")
	}

	delete(b.pageTable, pageID)
	b.replacer.Remove(replacer.FrameID(frameID))
	b.pages[frameID] = nil
	b.freeList = append(b.freeList, frameID)

	return b.diskManager.DeallocatePage(pageID)
}

// OnDiskSize exposes the on-disk size of the backing store.
func (b *BufferPool) OnDiskSize() int64 {
	return b.diskManager.FileSize()
}

// Close closes the underlying disk manager.
func (b *BufferPool) Close() {
	b.diskManager.Close()
}
