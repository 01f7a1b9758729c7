package record

import "fmt"

// RID identifies a record by (block-number, slot-number). Slot numbers are
// dense within a block (spec §3).
type RID struct {
	BlockNum int
	Slot     int
}

func NewRID(blockNum, slot int) RID { return RID{BlockNum: blockNum, Slot: slot} }

func (r RID) String() string { return fmt.Sprintf("[%d, %d]", r.BlockNum, r.Slot) }
