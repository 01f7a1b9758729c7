package query

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// TableScan adapts record.TableScan to the query package's UpdateScan
// interface, translating typed get/set into the Value wrapper the rest
// of the scan operators share.
type TableScan struct {
	rts *record.TableScan
}

// NewTableScan opens tblname as an UpdateScan.
func NewTableScan(txn *tx.Transaction, tblname string, layout *record.Layout) (*TableScan, error) {
	rts, err := record.NewTableScan(txn, tblname, layout)
	if err != nil {
		return nil, err
	}
	return &TableScan{rts: rts}, nil
}

func (t *TableScan) BeforeFirst() error      { return t.rts.BeforeFirst() }
func (t *TableScan) Next() (bool, error)     { return t.rts.Next() }
func (t *TableScan) Previous() (bool, error) { return t.rts.Previous() }
func (t *TableScan) AfterLast() error        { return t.rts.AfterLast() }
func (t *TableScan) Absolute(n int) (bool, error) { return t.rts.Absolute(n) }
func (t *TableScan) HasField(f string) bool  { return t.rts.HasField(f) }
func (t *TableScan) Close()                  { t.rts.Close() }
func (t *TableScan) CurrentRID() record.RID  { return t.rts.CurrentRID() }
func (t *TableScan) MoveToRID(rid record.RID) error { return t.rts.MoveToRID(rid) }
func (t *TableScan) Insert() error           { return t.rts.Insert() }
func (t *TableScan) Delete() error           { return t.rts.Delete() }
func (t *TableScan) SetNull(f string) error  { return t.rts.SetNull(f) }

func (t *TableScan) GetI32(fldname string) (int32, error) { return t.rts.GetI32(fldname) }
func (t *TableScan) GetString(fldname string) (string, error) { return t.rts.GetString(fldname) }
func (t *TableScan) IsNull(fldname string) (bool, error)   { return t.rts.IsNull(fldname) }

func (t *TableScan) GetVal(fldname string) (Value, error) {
	isNull, err := t.rts.IsNull(fldname)
	if err != nil {
		return Value{}, err
	}
	if isNull {
		return NullValue(), nil
	}
	switch t.rts.Layout().Schema().Type(fldname) {
	case record.I32:
		v, err := t.rts.GetI32(fldname)
		return I32Value(v), err
	case record.Varchar:
		v, err := t.rts.GetString(fldname)
		return StrValue(v), err
	default:
		return Value{}, dberrors.SchemaError("unknown field type for %q", fldname)
	}
}

func (t *TableScan) SetI32(fldname string, val int32) error { return t.rts.SetI32(fldname, val) }
func (t *TableScan) SetString(fldname string, val string) error {
	return t.rts.SetString(fldname, val)
}

func (t *TableScan) SetVal(fldname string, val Value) error {
	if val.IsNull() {
		return t.rts.SetNull(fldname)
	}
	switch t.rts.Layout().Schema().Type(fldname) {
	case record.I32:
		return t.rts.SetI32(fldname, val.I32)
	case record.Varchar:
		return t.rts.SetString(fldname, val.Str)
	default:
		return dberrors.SchemaError("unknown field type for %q", fldname)
	}
}
