package query

import (
	"github.com/google/uuid"

	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// TempTable is a scratch table materialized during sort/group-by
// processing, named "temp-<uuid>.tbl" (spec §6) and never registered in
// the catalog.
type TempTable struct {
	txn      *tx.Transaction
	tblname  string
	layout   *record.Layout
}

// NewTempTable allocates a fresh, uniquely-named temp table with schema.
func NewTempTable(txn *tx.Transaction, schema *record.Schema) *TempTable {
	return &TempTable{
		txn:     txn,
		tblname: "temp-" + uuid.NewString(),
		layout:  record.NewLayout(schema),
	}
}

// Open returns an UpdateScan over the temp table.
func (t *TempTable) Open() (UpdateScan, error) { return NewTableScan(t.txn, t.tblname, t.layout) }

// TableName returns the generated file-stem name (without ".tbl").
func (t *TempTable) TableName() string { return t.tblname }

// Layout returns the temp table's layout.
func (t *TempTable) Layout() *record.Layout { return t.layout }

// Drop deletes the temp table's backing file. Callers invoke this once the
// scratch table is no longer needed (e.g. after a merge iteration folds it
// into the next run, or the final SortScan closes).
func (t *TempTable) Drop() error {
	return t.txn.RemoveFile(t.tblname + ".tbl")
}
