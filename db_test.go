// ABOUTME: End-to-end tests against DB: create, put, read back, persist across reopen
// ABOUTME: Also covers rollback discarding a write and collection lifecycle errors

package pagedb

import (
	"fmt"
	"path/filepath"
	"testing"
)

func smallPageOptions() Options {
	return Options{PageSize: 256, MinFillPercent: 0.5, MaxFillPercent: 0.9}
}

func TestDBPutAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	err = db.Update(func(tx *Transaction) error {
		c, err := tx.CreateCollection("widgets")
		if err != nil {
			return err
		}
		return c.Put([]byte("foo"), []byte("bar"))
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = db.View(func(tx *Transaction) error {
		c, err := tx.GetCollection("widgets")
		if err != nil {
			return err
		}
		val, err := c.Find([]byte("foo"))
		if err != nil {
			return err
		}
		if string(val) != "bar" {
			t.Errorf("Find(foo) = %q, want %q", val, "bar")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = db.Update(func(tx *Transaction) error {
		c, err := tx.CreateCollection("nums")
		if err != nil {
			return err
		}
		for i := 0; i < 50; i++ {
			key := []byte(fmt.Sprintf("key%03d", i))
			val := []byte(fmt.Sprintf("val%03d", i))
			if err := c.Put(key, val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()

	err = db2.View(func(tx *Transaction) error {
		c, err := tx.GetCollection("nums")
		if err != nil {
			return err
		}
		for i := 0; i < 50; i++ {
			key := []byte(fmt.Sprintf("key%03d", i))
			want := fmt.Sprintf("val%03d", i)
			val, err := c.Find(key)
			if err != nil {
				return fmt.Errorf("Find(%s): %w", key, err)
			}
			if string(val) != want {
				t.Errorf("Find(%s) = %q, want %q", key, val, want)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestDBRollbackDiscardsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Update(func(tx *Transaction) error {
		_, err := tx.CreateCollection("c")
		return err
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	tx := db.WriteTx()
	c, err := tx.GetCollection("c")
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if err := c.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	err = db.View(func(tx *Transaction) error {
		c, err := tx.GetCollection("c")
		if err != nil {
			return err
		}
		_, err = c.Find([]byte("k"))
		if err != ErrNotFound {
			t.Errorf("Find after rollback: err = %v, want ErrNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestDBCreateCollectionTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	err = db.Update(func(tx *Transaction) error {
		if _, err := tx.CreateCollection("dup"); err != nil {
			return err
		}
		_, err := tx.CreateCollection("dup")
		return err
	})
	if err != ErrCollectionExists {
		t.Fatalf("second CreateCollection error = %v, want ErrCollectionExists", err)
	}
}

func TestDBGetMissingCollectionFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	err = db.View(func(tx *Transaction) error {
		_, err := tx.GetCollection("nope")
		return err
	})
	if err != ErrCollectionNotFound {
		t.Fatalf("GetCollection error = %v, want ErrCollectionNotFound", err)
	}
}

func TestDBWriteInsideReadTxFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if err := db.Update(func(tx *Transaction) error {
		_, err := tx.CreateCollection("c")
		return err
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = db.View(func(tx *Transaction) error {
		c, err := tx.GetCollection("c")
		if err != nil {
			return err
		}
		return c.Put([]byte("k"), []byte("v"))
	})
	if err != ErrWriteInsideReadTx {
		t.Fatalf("Put in read tx error = %v, want ErrWriteInsideReadTx", err)
	}
}
