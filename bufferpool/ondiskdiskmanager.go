package bufferpool

import (
	"os"
	"sync"

	"github.com/wifi32767/cmu15445fall2024/errors"
)

// OnDiskManager is a DiskManager backed by a single file. Page 0's offset is
// the base of the file; AllocatePage grows the file by one page at a time.
type OnDiskManager struct {
	mu       sync.Mutex
	fd       *os.File
	numPages int64
}

// NewOnDiskManager opens (creating if necessary) the file at path and
// returns a disk manager backed by it.
func NewOnDiskManager(path string) (*OnDiskManager, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	info, err := fd.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "statting disk file")
	}
	return &OnDiskManager{
		fd:       fd,
		numPages: info.Size() / int64(PAGE_SIZE),
	}, nil
}

func (d *OnDiskManager) ReadPage(pageID PageID) (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pageID < 0 || int64(pageID) >= d.numPages {
		return nil, errors.New(ErrPageNotFound, "page out of range")
	}
	offset := int64(pageID) * int64(PAGE_SIZE)

	page := NewPage(pageID)
	page.pinCount = 0
	if _, err := d.fd.ReadAt(page.rawData(), offset); err != nil {
		return nil, errors.Wrap(err, "reading page")
	}
	if !verifyChecksum(page) {
		return nil, errors.New(ErrChecksumMismatch, "page failed checksum verification")
	}
	return page, nil
}

func (d *OnDiskManager) WritePage(page *Page) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if page.ID() < 0 || int64(page.ID()) >= d.numPages {
		return errors.New(ErrPageNotFound, "page out of range")
	}
	stampChecksum(page)
	offset := int64(page.ID()) * int64(PAGE_SIZE)
	if _, err := d.fd.WriteAt(page.rawData(), offset); err != nil {
		return errors.Wrap(err, "writing page")
	}
	return nil
}

func (d *OnDiskManager) AllocatePage() (PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pageID := PageID(d.numPages)
	d.numPages++
	size := d.numPages * int64(PAGE_SIZE)
	if _, err := d.fd.WriteAt([]byte{0}, size-1); err != nil {
		return INVALID_PAGE_ID, errors.Wrap(err, "growing backing file")
	}
	return pageID, nil
}

func (d *OnDiskManager) DeallocatePage(pageID PageID) error {
	// The space is never reclaimed from the file; a higher layer is free to
	// reuse the id.
	return nil
}

func (d *OnDiskManager) FileSize() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numPages * int64(PAGE_SIZE)
}

func (d *OnDiskManager) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.fd.Close()
}

var _ DiskManager = (*OnDiskManager)(nil)
