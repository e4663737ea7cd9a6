// ABOUTME: Tests for free list page allocation and reuse
// ABOUTME: Verifies LIFO reuse and the serialized header/entry layout

package pagedb

import "testing"

func TestFreeListAllocatesSequentially(t *testing.T) {
	fl := &freeList{}
	for want := uint64(1); want <= 5; want++ {
		if got := fl.getNextPage(); got != want {
			t.Fatalf("getNextPage() = %d, want %d", got, want)
		}
	}
}

func TestFreeListReusesReleasedPagesLIFO(t *testing.T) {
	fl := &freeList{}
	fl.getNextPage() // 1
	fl.getNextPage() // 2
	p3 := fl.getNextPage()

	fl.releasePage(2)
	fl.releasePage(p3)

	if got := fl.getNextPage(); got != p3 {
		t.Fatalf("getNextPage() after release = %d, want %d (LIFO)", got, p3)
	}
	if got := fl.getNextPage(); got != 2 {
		t.Fatalf("getNextPage() after release = %d, want 2", got)
	}
	if got := fl.getNextPage(); got != 4 {
		t.Fatalf("getNextPage() after exhausting released = %d, want 4", got)
	}
}

func TestFreeListSerializeRoundTrip(t *testing.T) {
	fl := &freeList{maxPage: 42, released: []uint64{7, 9, 100}}
	buf := make([]byte, fl.serializedSize())
	fl.serialize(buf)

	got := &freeList{}
	got.deserialize(buf)

	if got.maxPage != fl.maxPage {
		t.Errorf("maxPage = %d, want %d", got.maxPage, fl.maxPage)
	}
	if len(got.released) != len(fl.released) {
		t.Fatalf("released len = %d, want %d", len(got.released), len(fl.released))
	}
	for i := range fl.released {
		if got.released[i] != fl.released[i] {
			t.Errorf("released[%d] = %d, want %d", i, got.released[i], fl.released[i])
		}
	}
}
