// ABOUTME: Host-facing concurrency primitives built on channels and sync/atomic
// ABOUTME: Not used by DB's own locking; exported for embedding callers

package pagedb

import (
	"sync/atomic"
	"time"
)

// Semaphore is a counting semaphore built on a buffered channel token
// bucket. It underlies Mutex and RWMutex below; none of the core DAL,
// Transaction, or Collection code uses it — DB already serializes access
// with sync.RWMutex — but it is part of the package's public surface for
// callers building their own coordination around a shared DB handle
// (spec.md §5).
type Semaphore struct {
	tokens chan struct{}
}

// NewSemaphore creates a semaphore with n initial permits.
func NewSemaphore(n int) *Semaphore {
	s := &Semaphore{tokens: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() {
	<-s.tokens
}

// TryAcquire acquires a permit without blocking, reporting whether it
// succeeded.
func (s *Semaphore) TryAcquire() bool {
	select {
	case <-s.tokens:
		return true
	default:
		return false
	}
}

// AcquireTimeout blocks until a permit is available or d elapses,
// reporting whether it succeeded.
func (s *Semaphore) AcquireTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.tokens:
		return true
	case <-timer.C:
		return false
	}
}

// Release returns a permit.
func (s *Semaphore) Release() {
	s.tokens <- struct{}{}
}

// Mutex is a binary semaphore presented as a lock.
type Mutex struct {
	sem *Semaphore
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{sem: NewSemaphore(1)}
}

func (m *Mutex) Lock()   { m.sem.Acquire() }
func (m *Mutex) Unlock() { m.sem.Release() }

// TryLock attempts to lock without blocking.
func (m *Mutex) TryLock() bool { return m.sem.TryAcquire() }

// LockTimeout attempts to lock, giving up after d, and reports whether it
// succeeded.
func (m *Mutex) LockTimeout(d time.Duration) bool { return m.sem.AcquireTimeout(d) }

// RWMutex is the classic two-semaphore readers/writers lock: an atomic
// reader count guarded by a mutex, and a single writer semaphore taken by
// the first reader and released by the last.
type RWMutex struct {
	readers  int64
	readLock *Mutex
	writeSem *Semaphore
}

// NewRWMutex returns an unlocked RWMutex.
func NewRWMutex() *RWMutex {
	return &RWMutex{
		readLock: NewMutex(),
		writeSem: NewSemaphore(1),
	}
}

// RLock acquires a read lock. The first concurrent reader also blocks out
// writers; subsequent readers only contend on the reader-count mutex.
func (rw *RWMutex) RLock() {
	rw.readLock.Lock()
	defer rw.readLock.Unlock()
	if atomic.AddInt64(&rw.readers, 1) == 1 {
		rw.writeSem.Acquire()
	}
}

// RUnlock releases a read lock, unblocking writers once the last reader
// leaves.
func (rw *RWMutex) RUnlock() {
	rw.readLock.Lock()
	defer rw.readLock.Unlock()
	if atomic.AddInt64(&rw.readers, -1) == 0 {
		rw.writeSem.Release()
	}
}

func (rw *RWMutex) Lock()   { rw.writeSem.Acquire() }
func (rw *RWMutex) Unlock() { rw.writeSem.Release() }

// BoundedChannel wraps a fixed-capacity channel of byte slices with
// blocking and non-blocking send/receive and a broadcast Close, for
// callers that want to pipeline reads or writes against a DB without
// building their own buffering.
type BoundedChannel struct {
	ch     chan []byte
	closed chan struct{}
}

// NewBoundedChannel creates a channel buffering up to capacity items.
func NewBoundedChannel(capacity int) *BoundedChannel {
	return &BoundedChannel{
		ch:     make(chan []byte, capacity),
		closed: make(chan struct{}),
	}
}

// Send blocks until there is room or the channel is closed, returning
// false in the latter case.
func (b *BoundedChannel) Send(v []byte) bool {
	select {
	case <-b.closed:
		return false
	default:
	}
	select {
	case b.ch <- v:
		return true
	case <-b.closed:
		return false
	}
}

// TrySend sends without blocking, reporting whether it succeeded.
func (b *BoundedChannel) TrySend(v []byte) bool {
	select {
	case b.ch <- v:
		return true
	default:
		return false
	}
}

// Receive blocks until a value is available or the channel is closed and
// drained, mirroring the (value, ok) shape of a plain channel receive.
func (b *BoundedChannel) Receive() ([]byte, bool) {
	v, ok := <-b.ch
	return v, ok
}

// TryReceive receives without blocking. ok is false when no value is
// buffered, whether or not the channel is closed.
func (b *BoundedChannel) TryReceive() (v []byte, ok bool) {
	select {
	case v, ok = <-b.ch:
		return v, ok
	default:
		return nil, false
	}
}

// Close unblocks every pending and future Send, then closes the
// underlying channel so Receive drains any buffered values before
// reporting closed.
func (b *BoundedChannel) Close() {
	close(b.closed)
	close(b.ch)
}
