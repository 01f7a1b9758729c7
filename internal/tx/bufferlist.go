package tx

import (
	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/file"
)

// bufferList tracks every buffer frame a transaction currently has pinned,
// including a per-block pin count so repeated Pin(blk) calls only release
// the underlying frame once every matching Unpin has been issued.
type bufferList struct {
	bm     *buffer.Manager
	bufs   map[file.BlockID]*buffer.Buffer
	pins   map[file.BlockID]int
}

func newBufferList(bm *buffer.Manager) *bufferList {
	return &bufferList{
		bm:   bm,
		bufs: make(map[file.BlockID]*buffer.Buffer),
		pins: make(map[file.BlockID]int),
	}
}

func (l *bufferList) getBuffer(blk file.BlockID) *buffer.Buffer {
	return l.bufs[blk]
}

func (l *bufferList) pin(blk file.BlockID) error {
	buf, err := l.bm.Pin(blk)
	if err != nil {
		return err
	}
	l.bufs[blk] = buf
	l.pins[blk]++
	return nil
}

func (l *bufferList) unpin(blk file.BlockID) {
	buf, ok := l.bufs[blk]
	if !ok {
		return
	}
	l.bm.Unpin(buf)
	l.pins[blk]--
	if l.pins[blk] <= 0 {
		delete(l.bufs, blk)
		delete(l.pins, blk)
	}
}

// unpinAll releases every remaining pin, used at commit/rollback.
func (l *bufferList) unpinAll() {
	for blk, n := range l.pins {
		buf := l.bufs[blk]
		for i := 0; i < n; i++ {
			l.bm.Unpin(buf)
		}
	}
	l.bufs = make(map[file.BlockID]*buffer.Buffer)
	l.pins = make(map[file.BlockID]int)
}
