package bptree

import (
	"encoding/binary"

	"github.com/wifi32767/cmu15445fall2024/bufferpool"
)

// RIDSize is the on-page width of an encoded RID.
const RIDSize = 8

// RID is a record identifier: an opaque (page id, slot) pair treated as a
// unit everywhere in this package.
type RID struct {
	PageID  bufferpool.PageID
	SlotNum uint32
}

func encodeRID(buf []byte, r RID) {
	binary.BigEndian.PutUint32(buf[0:4], uint32(r.PageID))
	binary.BigEndian.PutUint32(buf[4:8], r.SlotNum)
}

func decodeRID(buf []byte) RID {
	return RID{
		PageID:  bufferpool.PageID(int32(binary.BigEndian.Uint32(buf[0:4]))),
		SlotNum: binary.BigEndian.Uint32(buf[4:8]),
	}
}
