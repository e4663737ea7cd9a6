// ABOUTME: Ordered forward scan over a Collection's keys
// ABOUTME: Stack-based in-order walk, no recursion

package pagedb

// iterFrame is one level of an in-order traversal: the node being visited
// and the index of the item to emit next (or descend past).
type iterFrame struct {
	node *Node
	idx  int
}

// Iterator walks a Collection's items in ascending key order. It holds no
// lock of its own; it must be used within the Transaction that produced
// it, and only for as long as that transaction stays open.
type Iterator struct {
	tx    *Transaction
	stack []iterFrame
	item  Item
	err   error
}

// Iterator returns a forward iterator starting at the collection's first
// key.
func (c *Collection) Iterator() (*Iterator, error) {
	it := &Iterator{tx: c.tx}
	root, err := c.tx.getNode(c.root)
	if err != nil {
		return nil, err
	}
	if err := it.pushLeftmost(root); err != nil {
		return nil, err
	}
	return it, nil
}

// pushLeftmost descends from n along child[0] links, pushing a frame at
// each level, until it reaches a leaf.
func (it *Iterator) pushLeftmost(n *Node) error {
	for {
		it.stack = append(it.stack, iterFrame{node: n, idx: 0})
		if n.isLeaf() {
			return nil
		}
		child, err := it.tx.getNode(n.children[0])
		if err != nil {
			return err
		}
		n = child
	}
}

// Next advances to the next item in key order, returning false when the
// collection is exhausted or an error occurred (check Err after a false
// return).
func (it *Iterator) Next() bool {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		node := top.node

		if top.idx >= len(node.items) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}

		item := node.items[top.idx]
		nextChildIdx := top.idx + 1
		top.idx++

		if !node.isLeaf() {
			child, err := it.tx.getNode(node.children[nextChildIdx])
			if err != nil {
				it.err = err
				return false
			}
			if err := it.pushLeftmost(child); err != nil {
				it.err = err
				return false
			}
		}

		it.item = item
		return true
	}
	return false
}

// Item returns the key/value pair Next most recently advanced to.
func (it *Iterator) Item() (key, value []byte) {
	return it.item.Key, it.item.Value
}

// Err reports any error encountered while iterating.
func (it *Iterator) Err() error {
	return it.err
}
