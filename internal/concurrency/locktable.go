// Package concurrency implements the concurrency manager (spec §4.D): a
// process-wide lock table keyed by block, granting shared/exclusive locks
// with a deadlock-avoidance wait timeout, plus a per-transaction manager
// that tracks held locks for release at commit/rollback (strict 2PL).
package concurrency

import (
	"sync"
	"time"

	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/file"
)

const xLockMark = -1

// LockTable is the process-wide, block-keyed shared/exclusive lock table.
type LockTable struct {
	mu      sync.Mutex
	cond    *sync.Cond
	locks   map[file.BlockID]int // >0 = shared-count, xLockMark = exclusive
	timeout time.Duration
}

// NewLockTable creates a lock table with the given deadlock-avoidance wait
// timeout (spec default 10s).
func NewLockTable(timeout time.Duration) *LockTable {
	t := &LockTable{locks: make(map[file.BlockID]int), timeout: timeout}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// SLock grants a shared lock on blk, waiting out concurrent exclusive
// holders up to the timeout.
func (t *LockTable) SLock(blk file.BlockID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := time.Now().Add(t.timeout)
	for t.hasXLock(blk) {
		if !t.waitUntil(deadline) {
			return dberrors.LockAbort("timed out waiting for shared lock on %s", blk)
		}
	}
	t.locks[blk] = t.locks[blk] + 1
	return nil
}

// XLock grants an exclusive lock on blk. Per spec §4.D, xLock implicitly
// requires sLock first: a caller holding only a shared lock upgrades by
// waiting for every other shared holder to release.
func (t *LockTable) XLock(blk file.BlockID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline := time.Now().Add(t.timeout)
	for t.hasOtherSLocks(blk) {
		if !t.waitUntil(deadline) {
			return dberrors.LockAbort("timed out waiting for exclusive lock on %s", blk)
		}
	}
	t.locks[blk] = xLockMark
	return nil
}

// hasOtherSLocks reports whether any shared lock beyond "our own" (count>1)
// or an exclusive lock is held. The lock table does not track ownership
// itself — per-transaction bookkeeping (Manager below) guarantees a
// transaction never calls XLock on a block it doesn't already SLock, so a
// count of exactly 1 here means "just us".
func (t *LockTable) hasOtherSLocks(blk file.BlockID) bool {
	v := t.locks[blk]
	return v > 1 || v == xLockMark
}

func (t *LockTable) hasXLock(blk file.BlockID) bool {
	return t.locks[blk] == xLockMark
}

// waitUntil blocks on the condition variable until woken, returning false
// once deadline has already passed (the caller should give up and fail with
// LockAbort) and true otherwise (the caller re-checks its condition).
func (t *LockTable) waitUntil(deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.AfterFunc(remaining, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	t.cond.Wait()
	timer.Stop()
	return time.Now().Before(deadline)
}

// Unlock releases one level of lock held on blk: an exclusive lock is
// dropped entirely, a shared lock's count decrements. Waiters are woken so
// they can re-check.
func (t *LockTable) Unlock(blk file.BlockID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.locks[blk]
	if !ok {
		return
	}
	if v <= 1 {
		delete(t.locks, blk)
	} else {
		t.locks[blk] = v - 1
	}
	t.cond.Broadcast()
}
