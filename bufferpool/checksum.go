package bufferpool

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// stampChecksum fills a page's trailing checksum bytes from its content.
// Disk managers call this immediately before a page hits disk.
func stampChecksum(page *Page) {
	sum := xxhash.Sum64(page.data[:PAGE_CONTENT_SIZE])
	binary.BigEndian.PutUint64(page.checksumTrailer(), sum)
}

// verifyChecksum reports whether a page's stamped checksum matches its
// content. Disk managers call this immediately after a page is read back.
func verifyChecksum(page *Page) bool {
	want := binary.BigEndian.Uint64(page.checksumTrailer())
	got := xxhash.Sum64(page.data[:PAGE_CONTENT_SIZE])
	return want == got
}
