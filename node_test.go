// ABOUTME: Tests for node (de)serialization and in-node key search
// ABOUTME: Tree-level split/rotate/merge behavior is covered in collection_test.go

package pagedb

import (
	"bytes"
	"testing"
)

func TestNodeSerializeRoundTripLeaf(t *testing.T) {
	n := &Node{
		pageNum: 5,
		items: []Item{
			{Key: []byte("aa"), Value: []byte("1")},
			{Key: []byte("bb"), Value: []byte("22")},
			{Key: []byte("cc"), Value: []byte("333")},
		},
	}

	buf := make([]byte, 4096)
	n.serialize(buf)

	got := &Node{pageNum: n.pageNum}
	got.deserialize(buf)

	if !got.isLeaf() {
		t.Fatal("deserialized node should be a leaf")
	}
	if len(got.items) != len(n.items) {
		t.Fatalf("item count = %d, want %d", len(got.items), len(n.items))
	}
	for i, it := range n.items {
		if !bytes.Equal(got.items[i].Key, it.Key) {
			t.Errorf("items[%d].Key = %q, want %q", i, got.items[i].Key, it.Key)
		}
		if !bytes.Equal(got.items[i].Value, it.Value) {
			t.Errorf("items[%d].Value = %q, want %q", i, got.items[i].Value, it.Value)
		}
	}
}

func TestNodeSerializeRoundTripInternal(t *testing.T) {
	n := &Node{
		pageNum: 1,
		items: []Item{
			{Key: []byte("m"), Value: []byte("mid")},
		},
		children: []uint64{10, 20},
	}

	buf := make([]byte, 4096)
	n.serialize(buf)

	got := &Node{}
	got.deserialize(buf)

	if got.isLeaf() {
		t.Fatal("deserialized node should not be a leaf")
	}
	if len(got.children) != 2 || got.children[0] != 10 || got.children[1] != 20 {
		t.Fatalf("children = %v, want [10 20]", got.children)
	}
	if !bytes.Equal(got.items[0].Key, []byte("m")) {
		t.Errorf("items[0].Key = %q, want \"m\"", got.items[0].Key)
	}
}

func TestFindKeyInNode(t *testing.T) {
	n := &Node{items: []Item{
		{Key: []byte("b")},
		{Key: []byte("d")},
		{Key: []byte("f")},
	}}

	cases := []struct {
		key        string
		wantFound  bool
		wantIdx    int
	}{
		{"a", false, 0},
		{"b", true, 0},
		{"c", false, 1},
		{"d", true, 1},
		{"f", true, 2},
		{"z", false, 3},
	}

	for _, c := range cases {
		found, idx := n.findKeyInNode([]byte(c.key))
		if found != c.wantFound || idx != c.wantIdx {
			t.Errorf("findKeyInNode(%q) = (%v, %d), want (%v, %d)", c.key, found, idx, c.wantFound, c.wantIdx)
		}
	}
}

func TestInsertAndRemoveItemAt(t *testing.T) {
	items := []Item{{Key: []byte("a")}, {Key: []byte("c")}}
	items = insertItemAt(items, 1, Item{Key: []byte("b")})
	if len(items) != 3 || string(items[1].Key) != "b" {
		t.Fatalf("insertItemAt produced %v", items)
	}

	items = removeItemAt(items, 1)
	if len(items) != 2 || string(items[0].Key) != "a" || string(items[1].Key) != "c" {
		t.Fatalf("removeItemAt produced %v", items)
	}
}

func TestInsertAndRemoveChildAt(t *testing.T) {
	children := []uint64{1, 3}
	children = insertChildAt(children, 1, 2)
	if len(children) != 3 || children[1] != 2 {
		t.Fatalf("insertChildAt produced %v", children)
	}

	children = removeChildAt(children, 1)
	if len(children) != 2 || children[0] != 1 || children[1] != 3 {
		t.Fatalf("removeChildAt produced %v", children)
	}
}
