// Package buffer implements the buffer pool (spec §4.C): pin/unpin of
// (file, block) pairs to in-memory frames, naive-scan replacement, and the
// flush-before-replace / flush-on-commit discipline the write-ahead log
// depends on. The frame bookkeeping (dirty flag, pin count, owning
// transaction, last-update LSN) mirrors the teacher's
// internal/storage/pager.PageFrame / PageBufferPool, generalised from an
// LRU page cache to the pin-counted frame model spec.md requires.
package buffer

import (
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
)

// Buffer is one frame of the pool: a page bound to a block, with dirty
// tracking for the owning transaction and the LSN of its latest update.
type Buffer struct {
	fm       *file.Manager
	lm       *logmgr.Manager
	contents *file.Page
	blk      file.BlockID
	pins     int
	txnum    int
	lsn      logmgr.LSN // latest update's LSN; txnum -1 marks the frame clean
}

func newBuffer(fm *file.Manager, lm *logmgr.Manager) *Buffer {
	return &Buffer{fm: fm, lm: lm, contents: file.NewPage(fm.BlockSize()), txnum: -1}
}

// Contents exposes the page for typed reads/writes (Transaction.GetInt etc).
func (b *Buffer) Contents() *file.Page { return b.contents }

// Block reports the block currently pinned in this frame.
func (b *Buffer) Block() file.BlockID { return b.blk }

// SetModified records that txnum modified this frame's page and, if lsn is
// non-negative, updates the frame's latest-update LSN (spec §4.C).
func (b *Buffer) SetModified(txnum int, lsn logmgr.LSN) {
	b.txnum = txnum
	if lsn >= 0 {
		b.lsn = lsn
	}
}

func (b *Buffer) isPinned() bool { return b.pins > 0 }
func (b *Buffer) modifyingTx() int { return b.txnum }

func (b *Buffer) assignToBlock(blk file.BlockID) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.blk = blk
	if err := b.fm.Read(blk, b.contents); err != nil {
		return err
	}
	b.pins = 0
	return nil
}

// flush writes the log up to this frame's LSN, then the page itself
	// (spec invariant 2: WAL ordering rule).
func (b *Buffer) flush() error {
	if b.txnum < 0 {
		return nil
	}
	if err := b.lm.Flush(b.lsn); err != nil {
		return err
	}
	if err := b.fm.Write(b.blk, b.contents); err != nil {
		return err
	}
	b.txnum = -1
	return nil
}

func (b *Buffer) pin()   { b.pins++ }
func (b *Buffer) unpin() { b.pins-- }
