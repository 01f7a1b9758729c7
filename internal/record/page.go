package record

import (
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// Page wraps one block of a table's file and provides slotted-record
// primitives: insert/delete/navigate slots, and typed get/set with null-bit
// tracking (spec §4.G).
//
// The null bitmap (ceil(F/8) bytes, right after the 4-byte flag) is
// addressed a 32-bit word at a time, since Transaction only exposes int32
// and length-prefixed-string primitives and the bitmap is always small.
type Page struct {
	txn    *tx.Transaction
	blk    file.BlockID
	layout *Layout
}

// NewPage pins blk and returns a slotted-page view over it. The caller is
// responsible for having appended the block first if it is new.
func NewPage(txn *tx.Transaction, blk file.BlockID, layout *Layout) (*Page, error) {
	if err := txn.Pin(blk); err != nil {
		return nil, err
	}
	return &Page{txn: txn, blk: blk, layout: layout}, nil
}

// Close unpins the underlying block.
func (p *Page) Close() { p.txn.Unpin(p.blk) }

func (p *Page) slotOffset(slot int) int        { return slot * p.layout.SlotSize() }
func (p *Page) flagOffset(slot int) int        { return p.slotOffset(slot) }
func (p *Page) bitmapWords() int               { return (p.layout.BitmapBytes() + 3) / 4 }
func (p *Page) bitmapBase(slot int) int        { return p.slotOffset(slot) + p.layout.bitmapOffset() }
func (p *Page) fieldOffset(slot int, f string) int {
	return p.slotOffset(slot) + p.layout.Offset(f)
}

// isValidSlot reports whether slot fits entirely within the block.
func (p *Page) isValidSlot(slot int) bool {
	return p.slotOffset(slot+1) <= p.txn.BlockSize()
}

func (p *Page) getFlag(slot int) (int32, error) { return p.txn.GetInt(p.blk, p.flagOffset(slot)) }
func (p *Page) setFlag(slot int, flag int32) error {
	return p.txn.SetInt(p.blk, p.flagOffset(slot), flag, true)
}

// Format initializes every slot in a newly appended block to EMPTY with
// every null bit set and zeroed fields, without logging (a freshly
// appended block has no committed state for undo to restore).
func (p *Page) Format() error {
	for slot := 0; p.isValidSlot(slot); slot++ {
		if err := p.txn.SetInt(p.blk, p.flagOffset(slot), flagEmpty, false); err != nil {
			return err
		}
		if err := p.clearBitmap(slot); err != nil {
			return err
		}
		for _, fld := range p.layout.Schema().Fields() {
			off := p.fieldOffset(slot, fld)
			switch p.layout.Schema().Type(fld) {
			case I32:
				if err := p.txn.SetInt(p.blk, off, 0, false); err != nil {
					return err
				}
			case Varchar:
				if err := p.txn.SetString(p.blk, off, "", false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// clearBitmap sets every field's null bit in a freshly formatted slot, so a
// record starts with all fields NULL until SetI32/SetString assigns them.
func (p *Page) clearBitmap(slot int) error {
	base := p.bitmapBase(slot)
	for w := 0; w < p.bitmapWords(); w++ {
		if err := p.txn.SetInt(p.blk, base+w*4, -1, false); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) rawBitmap(slot int) ([]byte, error) {
	base := p.bitmapBase(slot)
	out := make([]byte, p.bitmapWords()*4)
	for w := 0; w < p.bitmapWords(); w++ {
		v, err := p.txn.GetInt(p.blk, base+w*4)
		if err != nil {
			return nil, err
		}
		out[w*4] = byte(v >> 24)
		out[w*4+1] = byte(v >> 16)
		out[w*4+2] = byte(v >> 8)
		out[w*4+3] = byte(v)
	}
	return out, nil
}

func bitIsSet(bm []byte, idx int) bool {
	byteIdx := idx / 8
	if byteIdx >= len(bm) {
		return false
	}
	return bm[byteIdx]&(1<<uint(idx%8)) != 0
}

func setBit(bm []byte, idx int, v bool) {
	byteIdx := idx / 8
	bitIdx := uint(idx % 8)
	if v {
		bm[byteIdx] |= 1 << bitIdx
	} else {
		bm[byteIdx] &^= 1 << bitIdx
	}
}

// IsNull reports whether fldname is NULL in the given slot.
func (p *Page) IsNull(slot int, fldname string) (bool, error) {
	bm, err := p.rawBitmap(slot)
	if err != nil {
		return false, err
	}
	return bitIsSet(bm, p.layout.fieldIndex(fldname)), nil
}

// SetNull sets or clears the null bit for fldname in the given slot.
func (p *Page) SetNull(slot int, fldname string, isNull bool) error {
	idx := p.layout.fieldIndex(fldname)
	wordIdx := idx / 32
	bm, err := p.rawBitmap(slot)
	if err != nil {
		return err
	}
	setBit(bm, idx, isNull)
	word := int32(uint32(bm[wordIdx*4])<<24 | uint32(bm[wordIdx*4+1])<<16 | uint32(bm[wordIdx*4+2])<<8 | uint32(bm[wordIdx*4+3]))
	return p.txn.SetInt(p.blk, p.bitmapBase(slot)+wordIdx*4, word, true)
}

// --- field access -----------------------------------------------------

func (p *Page) GetI32(slot int, fldname string) (int32, error) {
	return p.txn.GetInt(p.blk, p.fieldOffset(slot, fldname))
}

func (p *Page) SetI32(slot int, fldname string, val int32) error {
	if err := p.txn.SetInt(p.blk, p.fieldOffset(slot, fldname), val, true); err != nil {
		return err
	}
	return p.SetNull(slot, fldname, false)
}

func (p *Page) GetString(slot int, fldname string) (string, error) {
	return p.txn.GetString(p.blk, p.fieldOffset(slot, fldname))
}

func (p *Page) SetString(slot int, fldname string, val string) error {
	if err := p.txn.SetString(p.blk, p.fieldOffset(slot, fldname), val, true); err != nil {
		return err
	}
	return p.SetNull(slot, fldname, false)
}

// --- slot navigation ----------------------------------------------------

// NextAfter returns the next USED slot after slot, or -1.
func (p *Page) NextAfter(slot int) (int, error) { return p.searchAfter(slot, flagUsed) }

// InsertAfter finds (or creates) an EMPTY slot after slot, marks it USED,
// and returns its number, or -1 when the block is full.
func (p *Page) InsertAfter(slot int) (int, error) {
	newSlot, err := p.searchAfter(slot, flagEmpty)
	if err != nil {
		return -1, err
	}
	if newSlot >= 0 {
		if err := p.setFlag(newSlot, flagUsed); err != nil {
			return -1, err
		}
	}
	return newSlot, nil
}

// Delete marks slot EMPTY.
func (p *Page) Delete(slot int) error { return p.setFlag(slot, flagEmpty) }

func (p *Page) searchAfter(slot int, flag int32) (int, error) {
	slot++
	for p.isValidSlot(slot) {
		f, err := p.getFlag(slot)
		if err != nil {
			return -1, err
		}
		if f == flag {
			return slot, nil
		}
		slot++
	}
	return -1, nil
}

// NumSlots returns how many record slots fit in one block, used to enter
// a block from its right edge during backward (Previous) iteration.
func (p *Page) NumSlots() int { return p.txn.BlockSize() / p.layout.SlotSize() }

// PreviousBefore returns the last USED slot strictly before slot, or -1.
func (p *Page) PreviousBefore(slot int) (int, error) { return p.searchBefore(slot, flagUsed) }

func (p *Page) searchBefore(slot int, flag int32) (int, error) {
	slot--
	for slot >= 0 {
		f, err := p.getFlag(slot)
		if err != nil {
			return -1, err
		}
		if f == flag {
			return slot, nil
		}
		slot--
	}
	return -1, nil
}
