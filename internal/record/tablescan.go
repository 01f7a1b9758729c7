package record

import (
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// tableFile returns the name of the single file backing a table (spec
// §3: "sequence of blocks in a single file named <table>.tbl").
func tableFile(tblname string) string { return tblname + ".tbl" }

// TableScan iterates records across every block of a table's file,
// pinning one block (via Page) at a time and positioning a current slot
// within it (spec §4.G).
type TableScan struct {
	txn        *tx.Transaction
	tblname    string
	layout     *Layout
	page       *Page
	currentBlk int
	currentSlt int
}

// NewTableScan opens a scan over tblname, positioned before the first
// record. Opening a table with zero blocks appends one freshly formatted,
// empty block to its file.
func NewTableScan(txn *tx.Transaction, tblname string, layout *Layout) (*TableScan, error) {
	ts := &TableScan{txn: txn, tblname: tblname, layout: layout}
	length, err := txn.Size(tableFile(tblname))
	if err != nil {
		return nil, err
	}
	if length == 0 {
		if err := ts.moveToNewBlock(); err != nil {
			return nil, err
		}
	} else {
		if err := ts.moveToBlock(0); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (ts *TableScan) moveToBlock(blockNum int) error {
	ts.closeCurrent()
	blk := file.New(tableFile(ts.tblname), blockNum)
	p, err := NewPage(ts.txn, blk, ts.layout)
	if err != nil {
		return err
	}
	ts.page = p
	ts.currentBlk = blockNum
	ts.currentSlt = -1
	return nil
}

func (ts *TableScan) moveToNewBlock() error {
	ts.closeCurrent()
	blk, err := ts.txn.Append(tableFile(ts.tblname))
	if err != nil {
		return err
	}
	p, err := NewPage(ts.txn, blk, ts.layout)
	if err != nil {
		return err
	}
	ts.page = p
	if err := ts.page.Format(); err != nil {
		return err
	}
	ts.currentBlk = blk.Number
	ts.currentSlt = -1
	return nil
}

func (ts *TableScan) closeCurrent() {
	if ts.page != nil {
		ts.page.Close()
		ts.page = nil
	}
}

func (ts *TableScan) atLastBlock() (bool, error) {
	length, err := ts.txn.Size(tableFile(ts.tblname))
	if err != nil {
		return false, err
	}
	return ts.currentBlk == length-1, nil
}

// BeforeFirst positions the scan before the first record.
func (ts *TableScan) BeforeFirst() error {
	return ts.moveToBlock(0)
}

// Next advances to the next USED slot, across block boundaries. It reports
// false once every block has been exhausted (scan completeness, spec §8
// invariant 7).
func (ts *TableScan) Next() (bool, error) {
	for {
		slot, err := ts.page.NextAfter(ts.currentSlt)
		if err != nil {
			return false, err
		}
		ts.currentSlt = slot
		if ts.currentSlt >= 0 {
			return true, nil
		}
		last, err := ts.atLastBlock()
		if err != nil {
			return false, err
		}
		if last {
			return false, nil
		}
		if err := ts.moveToBlock(ts.currentBlk + 1); err != nil {
			return false, err
		}
	}
}

// Previous moves to the previous USED slot, across block boundaries
// backward, reporting false once block 0 is exhausted (spec §4.K
// bidirectional cursor support).
func (ts *TableScan) Previous() (bool, error) {
	for {
		slot, err := ts.page.PreviousBefore(ts.currentSlt)
		if err != nil {
			return false, err
		}
		ts.currentSlt = slot
		if ts.currentSlt >= 0 {
			return true, nil
		}
		if ts.currentBlk == 0 {
			return false, nil
		}
		if err := ts.moveToBlock(ts.currentBlk - 1); err != nil {
			return false, err
		}
		ts.currentSlt = ts.page.NumSlots()
	}
}

// AfterLast positions the scan after the last record, so a following
// Previous call lands on the last record.
func (ts *TableScan) AfterLast() error {
	length, err := ts.txn.Size(tableFile(ts.tblname))
	if err != nil {
		return err
	}
	if length == 0 {
		return ts.moveToNewBlock()
	}
	if err := ts.moveToBlock(length - 1); err != nil {
		return err
	}
	ts.currentSlt = ts.page.NumSlots()
	return nil
}

// Absolute positions the scan at the nth record (0-indexed) in scan
// order, returning false if the table has fewer than n+1 records.
func (ts *TableScan) Absolute(n int) (bool, error) {
	if n < 0 {
		return false, nil
	}
	if err := ts.BeforeFirst(); err != nil {
		return false, err
	}
	for i := 0; i <= n; i++ {
		ok, err := ts.Next()
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Insert finds or creates room for a new record, growing the file only
// when every existing block is full, and positions the scan on it.
func (ts *TableScan) Insert() error {
	for {
		slot, err := ts.page.InsertAfter(ts.currentSlt)
		if err != nil {
			return err
		}
		ts.currentSlt = slot
		if ts.currentSlt >= 0 {
			return nil
		}
		last, err := ts.atLastBlock()
		if err != nil {
			return err
		}
		if last {
			if err := ts.moveToNewBlock(); err != nil {
				return err
			}
		} else {
			if err := ts.moveToBlock(ts.currentBlk + 1); err != nil {
				return err
			}
		}
	}
}

// Delete marks the current record EMPTY.
func (ts *TableScan) Delete() error { return ts.page.Delete(ts.currentSlt) }

// CurrentRID returns the RID of the current record.
func (ts *TableScan) CurrentRID() RID { return NewRID(ts.currentBlk, ts.currentSlt) }

// MoveToRID repositions the scan directly onto rid.
func (ts *TableScan) MoveToRID(rid RID) error {
	if err := ts.moveToBlock(rid.BlockNum); err != nil {
		return err
	}
	ts.currentSlt = rid.Slot
	return nil
}

func (ts *TableScan) GetI32(fldname string) (int32, error) { return ts.page.GetI32(ts.currentSlt, fldname) }
func (ts *TableScan) GetString(fldname string) (string, error) {
	return ts.page.GetString(ts.currentSlt, fldname)
}
func (ts *TableScan) SetI32(fldname string, val int32) error {
	return ts.page.SetI32(ts.currentSlt, fldname, val)
}
func (ts *TableScan) SetString(fldname string, val string) error {
	return ts.page.SetString(ts.currentSlt, fldname, val)
}
func (ts *TableScan) IsNull(fldname string) (bool, error) { return ts.page.IsNull(ts.currentSlt, fldname) }
func (ts *TableScan) SetNull(fldname string) error        { return ts.page.SetNull(ts.currentSlt, fldname, true) }

func (ts *TableScan) HasField(fldname string) bool { return ts.layout.Schema().HasField(fldname) }

func (ts *TableScan) Layout() *Layout { return ts.layout }

// Close releases the currently pinned block.
func (ts *TableScan) Close() { ts.closeCurrent() }
