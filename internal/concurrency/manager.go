package concurrency

import "github.com/flowlight0/simpledb-go/internal/file"

type lockKind int

const (
	lockShared lockKind = iota
	lockExclusive
)

// Manager tracks the locks a single transaction currently holds against the
// process-wide LockTable, so it can release them all at commit/rollback
// (strict two-phase locking, spec §4.D/§5).
type Manager struct {
	table *LockTable
	locks map[file.BlockID]lockKind
}

// New creates a per-transaction lock tracker bound to the shared table.
func New(table *LockTable) *Manager {
	return &Manager{table: table, locks: make(map[file.BlockID]lockKind)}
}

// SLock acquires a shared lock on blk if this transaction does not already
// hold one (shared or exclusive).
func (m *Manager) SLock(blk file.BlockID) error {
	if _, ok := m.locks[blk]; ok {
		return nil
	}
	if err := m.table.SLock(blk); err != nil {
		return err
	}
	m.locks[blk] = lockShared
	return nil
}

// XLock acquires an exclusive lock on blk, first taking a shared lock if
// the transaction does not hold one (spec §4.D: xLock implicitly requires
// sLock first).
func (m *Manager) XLock(blk file.BlockID) error {
	if m.locks[blk] == lockExclusive {
		return nil
	}
	if err := m.SLock(blk); err != nil {
		return err
	}
	if err := m.table.XLock(blk); err != nil {
		return err
	}
	m.locks[blk] = lockExclusive
	return nil
}

// ReleaseAll releases every lock this transaction holds. Called exactly
// once, at commit or rollback.
func (m *Manager) ReleaseAll() {
	for blk := range m.locks {
		m.table.Unlock(blk)
	}
	m.locks = make(map[file.BlockID]lockKind)
}
