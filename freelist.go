// ABOUTME: Page allocator: LIFO reuse of released pages plus a high-water mark
// ABOUTME: Serialized as a single page alongside the node and meta pages

package pagedb

import "encoding/binary"

// freeListHeaderSize is the u16 maxPage + u16 count prefix (spec.md §4.1).
const freeListHeaderSize = 4

// freeList is the allocator of page numbers. Page 0 is reserved for Meta,
// so maxPage starts at 0 and the first allocation (page 1) bumps it to 1.
// Reuse is LIFO: released pages are popped from the tail of released.
//
// The on-disk max_page/count fields are u16, capping a single file's
// lifetime allocations at 65535 pages (spec.md §4.1, §9) — a declared
// format limit kept as-is rather than silently widened to u64.
type freeList struct {
	maxPage  uint64
	released []uint64
}

func (fl *freeList) getNextPage() uint64 {
	if n := len(fl.released); n > 0 {
		p := fl.released[n-1]
		fl.released = fl.released[:n-1]
		return p
	}
	fl.maxPage++
	return fl.maxPage
}

func (fl *freeList) releasePage(p uint64) {
	fl.released = append(fl.released, p)
}

// serialize writes big-endian u16 maxPage, u16 count, then count big-endian
// u64 page numbers into buf.
func (fl *freeList) serialize(buf []byte) {
	binary.BigEndian.PutUint16(buf[0:2], uint16(fl.maxPage))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(fl.released)))
	pos := freeListHeaderSize
	for _, p := range fl.released {
		binary.BigEndian.PutUint64(buf[pos:pos+8], p)
		pos += 8
	}
}

func (fl *freeList) deserialize(buf []byte) {
	fl.maxPage = uint64(binary.BigEndian.Uint16(buf[0:2]))
	count := int(binary.BigEndian.Uint16(buf[2:4]))
	fl.released = make([]uint64, count)
	pos := freeListHeaderSize
	for i := 0; i < count; i++ {
		fl.released[i] = binary.BigEndian.Uint64(buf[pos : pos+8])
		pos += 8
	}
}

func (fl *freeList) serializedSize() int {
	return freeListHeaderSize + 8*len(fl.released)
}
