// Package tx implements the Transaction façade (spec §4.F): it coordinates
// the buffer pool, concurrency manager, recovery manager and file manager
// behind typed page I/O, so every other layer above it (record manager,
// catalog, scans) never touches buffer/lock/log primitives directly.
package tx

import (
	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/concurrency"
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
	"github.com/flowlight0/simpledb-go/internal/recovery"
)

// endOfFileBlock is the fixed block number whose lock guards File/Append
// against phantom reads of a table's length (spec §4.F).
const endOfFileBlock = -1

// Transaction is the façade every higher layer uses for durable, locked
// page access. Each instance is single-use: once Commit or Rollback is
// called it must not be reused (spec §3 lifecycles).
type Transaction struct {
	fm       *file.Manager
	bm       *buffer.Manager
	cm       *concurrency.Manager
	rm       *recovery.Manager
	bufs     *bufferList
	txnum    int
	finished bool
}

// New starts a fresh transaction: it obtains a unique id from gen, opens a
// recovery manager (which logs START), and a fresh lock tracker against
// lockTable.
func New(fm *file.Manager, bm *buffer.Manager, lockTable *concurrency.LockTable, lm *logmgr.Manager, gen *NumberGenerator) (*Transaction, error) {
	txnum := gen.next_()
	rm, err := recovery.NewManager(lm, bm, txnum)
	if err != nil {
		return nil, err
	}
	return &Transaction{
		fm:    fm,
		bm:    bm,
		cm:    concurrency.New(lockTable),
		rm:    rm,
		bufs:  newBufferList(bm),
		txnum: txnum,
	}, nil
}

// Number returns this transaction's unique id.
func (t *Transaction) Number() int { return t.txnum }

func (t *Transaction) checkActive() error {
	if t.finished {
		return dberrors.TxAborted("transaction %d already ended", t.txnum)
	}
	return nil
}

// Pin acquires a pin on blk for the lifetime of the transaction.
func (t *Transaction) Pin(blk file.BlockID) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	return t.bufs.pin(blk)
}

// Unpin releases one pin on blk obtained via Pin.
func (t *Transaction) Unpin(blk file.BlockID) {
	t.bufs.unpin(blk)
}

// GetInt reads a big-endian int32 at offset within blk under a shared lock.
func (t *Transaction) GetInt(blk file.BlockID, offset int) (int32, error) {
	if err := t.checkActive(); err != nil {
		return 0, err
	}
	if err := t.cm.SLock(blk); err != nil {
		return 0, err
	}
	buf := t.bufs.getBuffer(blk)
	return buf.Contents().GetInt(offset), nil
}

// GetString reads a length-prefixed string at offset within blk under a
// shared lock.
func (t *Transaction) GetString(blk file.BlockID, offset int) (string, error) {
	if err := t.checkActive(); err != nil {
		return "", err
	}
	if err := t.cm.SLock(blk); err != nil {
		return "", err
	}
	buf := t.bufs.getBuffer(blk)
	return buf.Contents().GetString(offset), nil
}

// SetInt writes val at offset within blk under an exclusive lock. When
// shouldLog is true, the recovery manager first logs the current value as
// an undo record.
func (t *Transaction) SetInt(blk file.BlockID, offset int, val int32, shouldLog bool) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.cm.XLock(blk); err != nil {
		return err
	}
	buf := t.bufs.getBuffer(blk)
	lsn := logmgr.LSN(-1)
	if shouldLog {
		var err error
		lsn, err = t.rm.LogSetI32(buf, offset)
		if err != nil {
			return err
		}
	}
	buf.Contents().SetInt(offset, val)
	buf.SetModified(t.txnum, lsn)
	return nil
}

// SetString writes val at offset within blk under an exclusive lock,
// logging the old value first when shouldLog is true.
func (t *Transaction) SetString(blk file.BlockID, offset int, val string, shouldLog bool) error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.cm.XLock(blk); err != nil {
		return err
	}
	buf := t.bufs.getBuffer(blk)
	lsn := logmgr.LSN(-1)
	if shouldLog {
		var err error
		lsn, err = t.rm.LogSetString(buf, offset)
		if err != nil {
			return err
		}
	}
	buf.Contents().SetString(offset, val)
	buf.SetModified(t.txnum, lsn)
	return nil
}

// Size returns the number of blocks in filename. It takes a shared lock on
// the file's end-of-file marker block to prevent another transaction from
// appending (and thus changing the answer) mid-scan — spec §4.F "prevent
// phantoms during append".
func (t *Transaction) Size(filename string) (int, error) {
	if err := t.checkActive(); err != nil {
		return 0, err
	}
	marker := file.New(filename, endOfFileBlock)
	if err := t.cm.SLock(marker); err != nil {
		return 0, err
	}
	return t.fm.Length(filename)
}

// Append extends filename by one block, under an exclusive lock on the
// file's end-of-file marker.
func (t *Transaction) Append(filename string) (file.BlockID, error) {
	if err := t.checkActive(); err != nil {
		return file.BlockID{}, err
	}
	marker := file.New(filename, endOfFileBlock)
	if err := t.cm.XLock(marker); err != nil {
		return file.BlockID{}, err
	}
	return t.fm.Append(filename)
}

// BlockSize returns the database's fixed block size B.
func (t *Transaction) BlockSize() int { return t.fm.BlockSize() }

// RemoveFile deletes filename from the database directory, used by temp
// table materialization to clean up scratch files on close (spec §6).
// It does not go through the log or lock manager: scratch files are never
// shared across transactions and never recovered.
func (t *Transaction) RemoveFile(filename string) error {
	return t.fm.Remove(filename)
}

// AvailableBuffers reports how many buffer frames are currently unpinned,
// useful for callers that want to fail fast before attempting a batch of
// pins.
func (t *Transaction) AvailableBuffers() int { return t.bm.Available() }

// Commit flushes this transaction's dirty frames, durably logs COMMIT,
// releases every lock, and unpins every frame. The Transaction must not be
// used afterwards.
func (t *Transaction) Commit() error {
	if err := t.checkActive(); err != nil {
		return err
	}
	if err := t.rm.Commit(); err != nil {
		return err
	}
	t.cm.ReleaseAll()
	t.bufs.unpinAll()
	t.finished = true
	return nil
}

// Rollback undoes this transaction's updates via the recovery manager,
// releases every lock, and unpins every frame.
func (t *Transaction) Rollback() error {
	if err := t.checkActive(); err != nil {
		return err
	}
	getBuffer := func(blk file.BlockID) (*buffer.Buffer, error) {
		if err := t.bufs.pin(blk); err != nil {
			return nil, err
		}
		return t.bufs.getBuffer(blk), nil
	}
	release := func(buf *buffer.Buffer) { t.bufs.unpin(buf.Block()) }
	if err := t.rm.Rollback(getBuffer, release); err != nil {
		return err
	}
	t.cm.ReleaseAll()
	t.bufs.unpinAll()
	t.finished = true
	return nil
}

// Recover runs restart recovery against lm, undoing every update made by a
// transaction that never committed or rolled back, using a throwaway
// buffer manager so recovery does not compete with live transactions for
// frames (spec §4.E "on database open: recover()").
func Recover(bm *buffer.Manager, lm *logmgr.Manager) error {
	getBuffer := func(blk file.BlockID) (*buffer.Buffer, error) { return bm.Pin(blk) }
	release := func(buf *buffer.Buffer) { bm.Unpin(buf) }
	return recovery.Recover(lm, bm, getBuffer, release)
}
