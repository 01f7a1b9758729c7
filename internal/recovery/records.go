package recovery

import (
	"encoding/binary"

	"github.com/flowlight0/simpledb-go/internal/file"
)

// recordKind is the 4-byte tag every log record begins with (spec §3).
type recordKind int32

const (
	kindCheckpoint recordKind = iota + 1
	kindStart
	kindCommit
	kindRollback
	kindSetI32
	kindSetString
)

// encoder builds a log record payload using the same big-endian int32 /
// length-prefixed-string primitives as file.Page, without needing a page's
// fixed size.
type encoder struct {
	buf []byte
}

func (e *encoder) putInt(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) putString(s string) {
	e.putInt(int32(len(s)))
	e.buf = append(e.buf, s...)
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) getInt() int32 {
	v := int32(binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4]))
	d.pos += 4
	return v
}

func (d *decoder) getString() string {
	n := int(d.getInt())
	s := string(d.buf[d.pos : d.pos+n])
	d.pos += n
	return s
}

func newCheckpointRecord() []byte {
	e := &encoder{}
	e.putInt(int32(kindCheckpoint))
	return e.buf
}

func newStartRecord(tx int) []byte {
	e := &encoder{}
	e.putInt(int32(kindStart))
	e.putInt(int32(tx))
	return e.buf
}

func newCommitRecord(tx int) []byte {
	e := &encoder{}
	e.putInt(int32(kindCommit))
	e.putInt(int32(tx))
	return e.buf
}

func newRollbackRecord(tx int) []byte {
	e := &encoder{}
	e.putInt(int32(kindRollback))
	e.putInt(int32(tx))
	return e.buf
}

func newSetI32Record(tx int, blk file.BlockID, offset int, oldVal int32) []byte {
	e := &encoder{}
	e.putInt(int32(kindSetI32))
	e.putInt(int32(tx))
	e.putString(blk.Filename)
	e.putInt(int32(blk.Number))
	e.putInt(int32(offset))
	e.putInt(oldVal)
	return e.buf
}

func newSetStringRecord(tx int, blk file.BlockID, offset int, oldVal string) []byte {
	e := &encoder{}
	e.putInt(int32(kindSetString))
	e.putInt(int32(tx))
	e.putString(blk.Filename)
	e.putInt(int32(blk.Number))
	e.putInt(int32(offset))
	e.putString(oldVal)
	return e.buf
}

// logRecord is the decoded form of any record kind, used while scanning the
// log backwards during commit/rollback/recover.
type logRecord struct {
	kind    recordKind
	tx      int
	blk     file.BlockID
	offset  int
	oldI32  int32
	oldStr  string
}

func parseRecord(raw []byte) logRecord {
	d := &decoder{buf: raw}
	kind := recordKind(d.getInt())
	rec := logRecord{kind: kind}
	switch kind {
	case kindCheckpoint:
		// no payload
	case kindStart, kindCommit, kindRollback:
		rec.tx = int(d.getInt())
	case kindSetI32:
		rec.tx = int(d.getInt())
		fname := d.getString()
		blkNum := int(d.getInt())
		rec.blk = file.New(fname, blkNum)
		rec.offset = int(d.getInt())
		rec.oldI32 = d.getInt()
	case kindSetString:
		rec.tx = int(d.getInt())
		fname := d.getString()
		blkNum := int(d.getInt())
		rec.blk = file.New(fname, blkNum)
		rec.offset = int(d.getInt())
		rec.oldStr = d.getString()
	}
	return rec
}

// txOf returns the owning transaction id for records that carry one, or
// -1 for CHECKPOINT.
func (r logRecord) txOf() int {
	if r.kind == kindCheckpoint {
		return -1
	}
	return r.tx
}
