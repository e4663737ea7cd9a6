// ABOUTME: Reader/writer transaction over a dal: dirty-node buffering and commit/rollback
// ABOUTME: Also the collection namespace: GetCollection/CreateCollection/DeleteCollection

package pagedb

import "time"

// txState tracks the lifecycle a Transaction moves through exactly once:
// open, then terminally done after the first Commit or Rollback, which
// releases the DB lock. Whether the transaction reads or writes is kept in
// Transaction.write; a done transaction does not record which of Commit or
// Rollback ended it.
type txState int

const (
	txOpen txState = iota
	txDone
)

// Transaction is a reader or writer view over the DAL. A write transaction
// buffers dirty nodes in memory, tracks pages it allocated (for rollback)
// and pages it wants released (for commit), and exposes the collection
// namespace rooted in the top-level collections tree.
type Transaction struct {
	db    *DB
	dal   *dal
	write bool
	state txState

	meta      meta
	metaDirty bool

	dirty      map[uint64]*Node
	allocated  []uint64
	pagesToDel []uint64
}

// newNode creates an in-memory node owned by this transaction, immediately
// obtaining a page number from the free list and recording it in
// allocated (so rollback can give it back). items/children are defensively
// copied.
func (tx *Transaction) newNode(items []Item, children []uint64) *Node {
	n := &Node{tx: tx, items: cloneItems(items)}
	if children != nil {
		n.children = append([]uint64{}, children...)
	}
	n.pageNum = tx.dal.freeList.getNextPage()
	tx.allocated = append(tx.allocated, n.pageNum)
	tx.dirty[n.pageNum] = n
	return n
}

// getNode returns the node at page n: the dirty copy if this transaction
// has already touched it, otherwise a fresh read through the DAL.
func (tx *Transaction) getNode(n uint64) (*Node, error) {
	if node, ok := tx.dirty[n]; ok {
		return node, nil
	}
	node, err := tx.dal.readNode(n)
	if err != nil {
		return nil, err
	}
	node.tx = tx
	return node, nil
}

// writeNode marks node dirty so it is written by the DAL on commit.
func (tx *Transaction) writeNode(node *Node) (*Node, error) {
	tx.dirty[node.pageNum] = node
	return node, nil
}

// deleteNode schedules a page for release to the free list on commit.
func (tx *Transaction) deleteNode(n uint64) {
	tx.pagesToDel = append(tx.pagesToDel, n)
}

// resolvePath re-walks the tree from rootPage following ancestors (a list
// of child indices, as returned by Node.findKey) and returns the live node
// at each step, root first. len(result) == len(ancestors)+1; the last
// entry is the node findKey landed on.
func (tx *Transaction) resolvePath(rootPage uint64, ancestors []int) ([]*Node, error) {
	root, err := tx.getNode(rootPage)
	if err != nil {
		return nil, err
	}
	path := make([]*Node, 0, len(ancestors)+1)
	path = append(path, root)
	cur := root
	for _, idx := range ancestors {
		child, err := tx.getNode(cur.children[idx])
		if err != nil {
			return nil, err
		}
		path = append(path, child)
		cur = child
	}
	return path, nil
}

// rootCollection is the anonymous "collection of collections" tree whose
// root page lives in Meta (spec.md §3). Named collections are entries
// inside it, keyed by name.
func (tx *Transaction) rootCollection() *Collection {
	return &Collection{tx: tx, root: tx.meta.root}
}

// GetCollection looks up a named collection.
func (tx *Transaction) GetCollection(name string) (*Collection, error) {
	val, err := tx.rootCollection().find([]byte(name))
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrCollectionNotFound
		}
		return nil, err
	}
	c := decodeCollectionValue(val)
	c.tx = tx
	c.name = name
	return c, nil
}

// CreateCollection allocates a new empty collection rooted at a fresh leaf
// page and registers it by name in the root-of-collections tree.
func (tx *Transaction) CreateCollection(name string) (*Collection, error) {
	if !tx.write {
		return nil, ErrWriteInsideReadTx
	}
	if _, err := tx.rootCollection().find([]byte(name)); err == nil {
		return nil, ErrCollectionExists
	} else if err != ErrNotFound {
		return nil, err
	}

	leaf := tx.newNode(nil, nil)
	c := &Collection{tx: tx, name: name, root: leaf.pageNum}
	if err := c.persist(); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCollection removes name from the root-of-collections tree. It does
// not recursively release the collection's own pages: spec.md does not
// define cascading page reclamation for collection deletion, so the
// collection's subtree is simply detached.
func (tx *Transaction) DeleteCollection(name string) error {
	if !tx.write {
		return ErrWriteInsideReadTx
	}
	root := tx.rootCollection()
	if err := root.remove([]byte(name)); err != nil {
		return err
	}
	tx.meta.root = root.root
	tx.metaDirty = true
	return nil
}

// Commit writes dirty nodes, releases deleted pages, persists the free
// list, and — if the top-level collections root moved — rewrites Meta
// (spec.md §9, Open Question 1, resolved toward always keeping Meta
// current). A read transaction's commit is a no-op beyond releasing the
// DB lock.
func (tx *Transaction) Commit() error {
	if tx.state != txOpen {
		return ErrTxDone
	}
	if !tx.write {
		tx.state = txDone
		tx.db.lock.RUnlock()
		return nil
	}

	start := time.Now()
	dirtyNodes, deletedPages := len(tx.dirty), len(tx.pagesToDel)

	// However commit ends, the write lock must be released and the
	// transaction marked terminal exactly once (spec.md §4.8).
	defer func() {
		tx.state = txDone
		tx.db.lock.Unlock()
	}()

	for _, n := range tx.dirty {
		if err := tx.dal.writeNodeRaw(n); err != nil {
			return err
		}
	}
	for _, p := range tx.pagesToDel {
		tx.dal.deleteNode(p)
	}
	if tx.metaDirty {
		if err := tx.dal.writeMeta(&tx.meta); err != nil {
			return err
		}
		tx.dal.meta = tx.meta
	}
	if err := tx.dal.writeFreeList(); err != nil {
		return err
	}

	tx.dal.log.LogCommit(time.Since(start), dirtyNodes, deletedPages)
	tx.dal.met.RecordCommit(time.Since(start))
	return nil
}

// Rollback discards this transaction's in-memory changes. Pages it
// allocated are returned to the free list so a subsequent write
// transaction reuses them (LIFO); nothing touched by this transaction was
// ever written to disk, so the file itself is untouched.
func (tx *Transaction) Rollback() error {
	if tx.state != txOpen {
		return ErrTxDone
	}
	if tx.write {
		start := time.Now()
		for i := len(tx.allocated) - 1; i >= 0; i-- {
			tx.dal.freeList.releasePage(tx.allocated[i])
		}
		pagesReleased := len(tx.allocated)
		tx.dirty = nil

		tx.dal.log.LogRollback(pagesReleased)
		tx.dal.met.RecordRollback(time.Since(start))
	}

	tx.state = txDone
	if tx.write {
		tx.db.lock.Unlock()
	} else {
		tx.db.lock.RUnlock()
	}
	return nil
}
