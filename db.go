// ABOUTME: Top-level handle: owns the dal and the reader/writer gate
// ABOUTME: Open/Close plus View/Update convenience wrappers around transactions

package pagedb

import "sync"

// DB is a single open database file. All access goes through Transactions;
// DB itself only owns the DAL and the lock that serializes writers against
// readers and against each other (spec.md §7).
type DB struct {
	dal  *dal
	lock sync.RWMutex
}

// Open creates path if it does not exist, or opens it if it does, and
// returns a DB ready to begin transactions.
func Open(path string, opts Options) (*DB, error) {
	d, err := openDAL(path, opts)
	if err != nil {
		return nil, err
	}
	return &DB{dal: d}, nil
}

// Close releases the backing file. It does not wait for in-flight
// transactions; callers must ensure none are open.
func (db *DB) Close() error {
	return db.dal.close()
}

func (db *DB) newTransaction(write bool) *Transaction {
	tx := &Transaction{
		db:    db,
		dal:   db.dal,
		write: write,
		meta:  db.dal.meta,
		dirty: make(map[uint64]*Node),
	}
	return tx
}

// ReadTx begins a read-only transaction. It blocks until no writer holds
// the lock, and may run concurrently with other readers.
func (db *DB) ReadTx() *Transaction {
	db.lock.RLock()
	return db.newTransaction(false)
}

// WriteTx begins a write transaction. It blocks until no reader or writer
// holds the lock; only one write transaction may be open at a time.
func (db *DB) WriteTx() *Transaction {
	db.lock.Lock()
	return db.newTransaction(true)
}

// View runs fn inside a read transaction, always releasing the lock
// afterward regardless of fn's outcome.
func (db *DB) View(fn func(tx *Transaction) error) error {
	tx := db.ReadTx()
	if err := fn(tx); err != nil {
		tx.Commit()
		return err
	}
	return tx.Commit()
}

// Update runs fn inside a write transaction, committing on success and
// rolling back if fn returns an error.
func (db *DB) Update(fn func(tx *Transaction) error) error {
	tx := db.WriteTx()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
