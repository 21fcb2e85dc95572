package bufferpool

import (
	"fmt"
	"os"

	uuid "github.com/satori/go.uuid"

	"github.com/wifi32767/cmu15445fall2024/errors"
	"github.com/wifi32767/cmu15445fall2024/logger"
)

const (
	ErrPageNotFound     errors.Code = "PageNotFound"
	ErrOffsetOutOfRange errors.Code = "OffsetOutOfRange"
	ErrChecksumMismatch errors.Code = "ChecksumMismatch"
)

// InMemDiskSpillingDiskManager is an in-memory DiskManager that spills to a
// temp file once it grows past a page-count threshold, so small trees never
// touch disk but large ones don't blow the heap.
type InMemDiskSpillingDiskManager struct {
	numPages       int
	onDiskPages    int
	thresholdPages int
	hasSpilled     bool
	fd             *os.File
	data           []byte
	log            logger.Logger
}

// NewInMemDiskSpillingDiskManager returns an in-memory disk manager that
// spills to disk after thresholdPages pages have been allocated.
func NewInMemDiskSpillingDiskManager(thresholdPages int) *InMemDiskSpillingDiskManager {
	return &InMemDiskSpillingDiskManager{
		thresholdPages: thresholdPages,
		data:           make([]byte, 0),
		log:            logger.NopLogger,
	}
}

// WithLogger swaps in a logger; by default the manager logs nothing.
func (d *InMemDiskSpillingDiskManager) WithLogger(log logger.Logger) *InMemDiskSpillingDiskManager {
	d.log = log
	return d
}

func (d *InMemDiskSpillingDiskManager) ReadPage(pageID PageID) (*Page, error) {
	if pageID < 0 || int(pageID) >= d.numPages {
		return nil, errors.New(ErrPageNotFound, fmt.Sprintf("page %d not found", pageID))
	}
	offset := int(pageID) * PAGE_SIZE

	page := NewPage(pageID)
	page.pinCount = 0

	if !d.hasSpilled {
		if offset+PAGE_SIZE > len(d.data) {
			return nil, errors.New(ErrOffsetOutOfRange, "offset out of range")
		}
		copy(page.rawData(), d.data[offset:offset+PAGE_SIZE])
	} else {
		if offset+PAGE_SIZE > d.numPages*PAGE_SIZE {
			return nil, errors.New(ErrOffsetOutOfRange, "offset out of range")
		}
		if _, err := d.fd.ReadAt(page.rawData(), int64(offset)); err != nil {
			return nil, errors.Wrap(err, "reading spilled page")
		}
	}

	if !verifyChecksum(page) {
		d.log.Warnf("bufferpool: checksum mismatch reading page %d", pageID)
		return nil, errors.New(ErrChecksumMismatch, fmt.Sprintf("page %d failed checksum verification", pageID))
	}

	return page, nil
}

func (d *InMemDiskSpillingDiskManager) WritePage(page *Page) error {
	offset := int(page.ID()) * PAGE_SIZE
	stampChecksum(page)

	if !d.hasSpilled {
		if offset+PAGE_SIZE > len(d.data) {
			return errors.New(ErrOffsetOutOfRange, "offset out of range")
		}
		copy(d.data[offset:], page.rawData())
	} else {
		if offset+PAGE_SIZE > d.numPages*PAGE_SIZE {
			return errors.New(ErrOffsetOutOfRange, "offset out of range")
		}
		if _, err := d.fd.WriteAt(page.rawData(), int64(offset)); err != nil {
			return errors.Wrap(err, "writing spilled page")
		}
	}
	return nil
}

func (d *InMemDiskSpillingDiskManager) AllocatePage() (PageID, error) {
	d.numPages++
	pageID := PageID(d.numPages - 1)

	if !d.hasSpilled {
		d.data = append(d.data, make([]byte, PAGE_SIZE)...)

		if d.numPages > d.thresholdPages {
			fileUUID, err := uuid.NewV4()
			if err != nil {
				return INVALID_PAGE_ID, errors.Wrap(err, "generating spill file name")
			}
			d.fd, err = os.CreateTemp("", fmt.Sprintf("bptree-spill-%s", fileUUID.String()))
			if err != nil {
				return INVALID_PAGE_ID, errors.Wrap(err, "creating spill file")
			}
			if _, err := d.fd.WriteAt(d.data, 0); err != nil {
				return INVALID_PAGE_ID, errors.Wrap(err, "spilling in-memory pages")
			}
			d.onDiskPages = d.numPages
			d.data = nil
			d.hasSpilled = true
			d.log.Debugf("bufferpool: spilled to disk at %s after %d pages", d.fd.Name(), d.numPages)
		}
	} else {
		if d.numPages >= d.onDiskPages {
			d.onDiskPages += 512
			size := int64(d.onDiskPages) * int64(PAGE_SIZE)
			if _, err := d.fd.WriteAt([]byte{0}, size-1); err != nil {
				return INVALID_PAGE_ID, errors.Wrap(err, "growing spill file")
			}
		}
	}

	return pageID, nil
}

func (d *InMemDiskSpillingDiskManager) DeallocatePage(pageID PageID) error {
	// Pages are never reclaimed from the backing store; the freed id can be
	// reissued by a higher layer but its storage stays allocated. Matches
	// the no-op deallocation the on-disk manager also performs.
	return nil
}

func (d *InMemDiskSpillingDiskManager) FileSize() int64 {
	if d.hasSpilled {
		return int64(d.onDiskPages) * int64(PAGE_SIZE)
	}
	return int64(len(d.data))
}

func (d *InMemDiskSpillingDiskManager) Close() {
	if d.fd != nil {
		_ = d.fd.Close()
		_ = os.Remove(d.fd.Name())
	}
}

var _ DiskManager = (*InMemDiskSpillingDiskManager)(nil)
