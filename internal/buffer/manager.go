package buffer

import (
	"sync"
	"time"

	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
)

// Manager holds K frames and serves pin/unpin. A naive first-unpinned-frame
// scan is used for replacement (spec §4.C permits this); callers that need
// a free frame but find none block on a condition variable until one is
// unpinned or the buffer-wait timeout elapses, at which point pin fails
// with BufferAbort.
type Manager struct {
	mu      sync.Mutex
	cond    *sync.Cond
	frames  []*Buffer
	timeout time.Duration

	available int
}

// NewManager allocates numFrames buffer frames.
func NewManager(fm *file.Manager, lm *logmgr.Manager, numFrames int, timeout time.Duration) *Manager {
	m := &Manager{
		frames:    make([]*Buffer, numFrames),
		timeout:   timeout,
		available: numFrames,
	}
	m.cond = sync.NewCond(&m.mu)
	for i := range m.frames {
		m.frames[i] = newBuffer(fm, lm)
	}
	return m
}

// Available returns the number of unpinned frames.
func (m *Manager) Available() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// FlushAll flushes every frame whose modifying transaction equals txnum
// (used on commit, spec §4.C/§4.F).
func (m *Manager) FlushAll(txnum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.frames {
		if b.modifyingTx() == txnum {
			if err := b.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pin returns a frame bound to blk, reading it from disk if not already
// resident. It blocks until a frame is available or the buffer-wait
// timeout elapses, in which case it fails with dberrors.BufferAbort.
func (m *Manager) Pin(blk file.BlockID) (*Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := time.Now().Add(m.timeout)
	buf, err := m.tryPin(blk)
	if err != nil {
		return nil, err
	}
	for buf == nil {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, dberrors.BufferAbort("no available buffer frame for %s within timeout", blk)
		}
		waitDone := make(chan struct{})
		timer := time.AfterFunc(remaining, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
			close(waitDone)
		})
		m.cond.Wait()
		timer.Stop()
		select {
		case <-waitDone:
		default:
		}
		buf, err = m.tryPin(blk)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (m *Manager) tryPin(blk file.BlockID) (*Buffer, error) {
	if b := m.findExisting(blk); b != nil {
		if !b.isPinned() {
			m.available--
		}
		b.pin()
		return b, nil
	}
	b := m.chooseUnpinned()
	if b == nil {
		return nil, nil
	}
	if err := b.assignToBlock(blk); err != nil {
		return nil, err
	}
	m.available--
	b.pin()
	return b, nil
}

func (m *Manager) findExisting(blk file.BlockID) *Buffer {
	for _, b := range m.frames {
		if b.blk == blk {
			return b
		}
	}
	return nil
}

func (m *Manager) chooseUnpinned() *Buffer {
	for _, b := range m.frames {
		if !b.isPinned() {
			return b
		}
	}
	return nil
}

// Unpin releases a pin previously obtained via Pin; when the pin count
// reaches zero the frame becomes eligible for replacement and waiters are
// woken.
func (m *Manager) Unpin(b *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.unpin()
	if !b.isPinned() {
		m.available++
		m.cond.Broadcast()
	}
}
