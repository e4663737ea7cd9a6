// ABOUTME: Named B-tree sharing the page space of the database it belongs to
// ABOUTME: Put/Find/Remove plus the auto-ID counter and persistence into the root tree

package pagedb

import "encoding/binary"

// collectionValueSize is the encoded width of a Collection's entry inside
// the root-of-collections tree: an 8-byte root page plus an 8-byte
// monotonic counter used to mint per-collection auto-IDs.
const collectionValueSize = 16

// Collection is a named B-tree sharing the page space of the database it
// belongs to. All of Put/Find/Remove operate within the write or read
// transaction that produced the Collection; a Collection is only valid
// for the lifetime of that transaction.
type Collection struct {
	tx      *Transaction
	name    string
	root    uint64
	counter uint64
}

func decodeCollectionValue(buf []byte) *Collection {
	return &Collection{
		root:    binary.BigEndian.Uint64(buf[0:8]),
		counter: binary.BigEndian.Uint64(buf[8:16]),
	}
}

func (c *Collection) encodeValue() []byte {
	buf := make([]byte, collectionValueSize)
	binary.BigEndian.PutUint64(buf[0:8], c.root)
	binary.BigEndian.PutUint64(buf[8:16], c.counter)
	return buf
}

// persist writes this collection's current root/counter back into the
// root-of-collections tree it is registered under, or into Meta directly
// if it is the anonymous root-of-collections itself.
func (c *Collection) persist() error {
	if c.name == "" {
		c.tx.meta.root = c.root
		c.tx.metaDirty = true
		return nil
	}
	root := c.tx.rootCollection()
	if err := root.put([]byte(c.name), c.encodeValue()); err != nil {
		return err
	}
	c.tx.meta.root = root.root
	c.tx.metaDirty = true
	return nil
}

// id returns the next auto-increment value for this collection and
// persists the advanced counter (spec.md §6).
func (c *Collection) id() (uint64, error) {
	if !c.tx.write {
		return 0, ErrWriteInsideReadTx
	}
	c.counter++
	if err := c.persist(); err != nil {
		return 0, err
	}
	return c.counter, nil
}

// Put inserts or overwrites key with value. Both must fit the single-byte
// length prefix the wire format uses (spec.md §3, §9).
func (c *Collection) Put(key, value []byte) error {
	if !c.tx.write {
		return ErrWriteInsideReadTx
	}
	if len(key) > maxKeyLen {
		return ErrKeyTooLarge
	}
	if len(value) > maxValLen {
		return ErrValueTooLarge
	}
	if err := c.put(key, value); err != nil {
		return err
	}
	return c.persist()
}

// put is the tree-level insert, shared by Collection.Put and the
// root-of-collections bookkeeping, which bypasses the length checks above
// (collection names and encoded values are controlled internally).
func (c *Collection) put(key, value []byte) error {
	root, err := c.tx.getNode(c.root)
	if err != nil {
		return err
	}

	idx, found, target, ancestors, err := root.findKey(key, true)
	if err != nil {
		return err
	}
	if found {
		target.items[idx].Value = cloneBytes(value)
		c.tx.writeNode(target)
		return c.rebalanceAfterInsert(ancestors)
	}

	_, _, leaf, ancestors, err := root.findKey(key, false)
	if err != nil {
		return err
	}
	_, insertIdx := leaf.findKeyInNode(key)
	leaf.items = insertItemAt(leaf.items, insertIdx, Item{Key: cloneBytes(key), Value: cloneBytes(value)})
	c.tx.writeNode(leaf)
	return c.rebalanceAfterInsert(ancestors)
}

// rebalanceAfterInsert walks the resolved ancestor path bottom-up,
// splitting any node the DAL judges over-populated (spec.md §4.5). A split
// at the root grows the tree by one level: a fresh root node is allocated
// with the old root as its sole child before splitting.
func (c *Collection) rebalanceAfterInsert(ancestors []int) error {
	path, err := c.tx.resolvePath(c.root, ancestors)
	if err != nil {
		return err
	}

	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		if !c.tx.dal.isOverPopulated(node) {
			continue
		}
		if i == 0 {
			newRoot := c.tx.newNode(nil, []uint64{node.pageNum})
			if err := newRoot.split(node, 0); err != nil {
				return err
			}
			c.root = newRoot.pageNum
			return nil
		}
		parent := path[i-1]
		childIdx := ancestors[i-1]
		if err := parent.split(node, childIdx); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the value stored for key, or ErrNotFound.
func (c *Collection) Find(key []byte) ([]byte, error) {
	return c.find(key)
}

func (c *Collection) find(key []byte) ([]byte, error) {
	root, err := c.tx.getNode(c.root)
	if err != nil {
		return nil, err
	}
	idx, found, target, _, err := root.findKey(key, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return cloneBytes(target.items[idx].Value), nil
}

// Remove deletes key. Deleting from an internal node swaps in its
// in-order predecessor (the rightmost item of its left subtree) into the
// internal node and then removes that item from its leaf (spec.md §4.6).
func (c *Collection) Remove(key []byte) error {
	if !c.tx.write {
		return ErrWriteInsideReadTx
	}
	if err := c.remove(key); err != nil {
		return err
	}
	return c.persist()
}

func (c *Collection) remove(key []byte) error {
	root, err := c.tx.getNode(c.root)
	if err != nil {
		return err
	}
	idx, found, target, ancestors, err := root.findKey(key, true)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	if target.isLeaf() {
		target.items = removeItemAt(target.items, idx)
		c.tx.writeNode(target)
		return c.rebalanceAfterRemove(ancestors)
	}

	predAncestors := append(append([]int{}, ancestors...), idx)
	predNode, err := c.tx.getNode(target.children[idx])
	if err != nil {
		return err
	}
	for !predNode.isLeaf() {
		lastChild := predNode.children[len(predNode.children)-1]
		predAncestors = append(predAncestors, len(predNode.children)-1)
		predNode, err = c.tx.getNode(lastChild)
		if err != nil {
			return err
		}
	}

	target.items[idx] = predNode.items[len(predNode.items)-1]
	predNode.items = predNode.items[:len(predNode.items)-1]
	c.tx.writeNode(target)
	c.tx.writeNode(predNode)
	return c.rebalanceAfterRemove(predAncestors)
}

// rebalanceAfterRemove walks the resolved ancestor path bottom-up,
// restoring any under-populated node by rotation or merge. If the merge
// empties the root down to zero items with one remaining child, that
// child becomes the new root (spec.md §4.6, §8 root-collapse case).
func (c *Collection) rebalanceAfterRemove(ancestors []int) error {
	path, err := c.tx.resolvePath(c.root, ancestors)
	if err != nil {
		return err
	}

	for i := len(path) - 1; i >= 1; i-- {
		node := path[i]
		if !c.tx.dal.isUnderPopulated(node) {
			continue
		}
		parent := path[i-1]
		childIdx := ancestors[i-1]
		if err := parent.rebalanceRemove(node, childIdx); err != nil {
			return err
		}
	}

	root := path[0]
	if len(root.items) == 0 && len(root.children) == 1 {
		onlyChild, err := c.tx.getNode(root.children[0])
		if err != nil {
			return err
		}
		c.tx.deleteNode(root.pageNum)
		c.root = onlyChild.pageNum
	}
	return nil
}
