package record

import "github.com/flowlight0/simpledb-go/internal/file"

const (
	flagSize = 4 // EMPTY=0 / USED=1 tag at the start of every slot

	flagEmpty = int32(0)
	flagUsed  = int32(1)
)

// Layout is a schema plus its derived field→offset mapping and slot size
// (spec §3/§9: field order follows schema order with explicit offsets, so
// the layout→offset mapping is reproducible and testable).
type Layout struct {
	schema    *Schema
	offsets   map[string]int
	slotSize  int
	bitmapLen int
}

// NewLayout computes offsets and slot size from scratch: 4-byte flag,
// ceil(F/8)-byte null bitmap, then each field at a fixed offset in schema
// order. VARCHAR(n) always reserves 4+n bytes regardless of actual content
// length.
func NewLayout(schema *Schema) *Layout {
	fields := schema.Fields()
	bitmapLen := (len(fields) + 7) / 8
	offsets := make(map[string]int, len(fields))
	pos := flagSize + bitmapLen
	for _, f := range fields {
		offsets[f] = pos
		pos += lengthInBytes(schema.Info(f))
	}
	return &Layout{schema: schema, offsets: offsets, slotSize: pos, bitmapLen: bitmapLen}
}

// NewLayoutFromCatalog rebuilds a layout from offsets read back out of the
// fldcat table (spec §4.H get_layout), so re-opening a database reproduces
// byte-identical offsets (spec §8 invariant 5, "layout stability").
func NewLayoutFromCatalog(schema *Schema, offsets map[string]int, slotSize int) *Layout {
	bitmapLen := (len(schema.Fields()) + 7) / 8
	return &Layout{schema: schema, offsets: offsets, slotSize: slotSize, bitmapLen: bitmapLen}
}

func lengthInBytes(info FieldInfo) int {
	if info.Type == I32 {
		return 4
	}
	return file.MaxLength(info.Length)
}

// Schema returns the underlying schema.
func (l *Layout) Schema() *Schema { return l.schema }

// Offset returns the byte offset of fldname within a slot.
func (l *Layout) Offset(fldname string) int { return l.offsets[fldname] }

// SlotSize returns the total size of one slot, including flag and bitmap.
func (l *Layout) SlotSize() int { return l.slotSize }

// BitmapBytes returns the size of the null bitmap in bytes: ceil(F/8).
func (l *Layout) BitmapBytes() int { return l.bitmapLen }

// bitmapOffset is always right after the flag.
func (l *Layout) bitmapOffset() int { return flagSize }

// fieldIndex returns the schema-order position of fldname, used to address
// its bit in the null bitmap.
func (l *Layout) fieldIndex(fldname string) int {
	for i, f := range l.schema.Fields() {
		if f == fldname {
			return i
		}
	}
	return -1
}
