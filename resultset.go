package simpledb

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/record"
)

// Column type codes, borrowed from java.sql.Types' I32/VARCHAR subset
// (spec §4.L "type codes 4/12").
const (
	TypeI32     = 4
	TypeVarchar = 12
)

// ResultSet is a cursor over one query's output rows, wrapping the plan's
// outermost query.Scan with column metadata (spec §4.L).
type ResultSet struct {
	scan        query.Scan
	schema      *record.Schema
	lastWasNull bool
}

func newResultSet(scan query.Scan, schema *record.Schema) *ResultSet {
	return &ResultSet{scan: scan, schema: schema}
}

// ColumnCount returns the number of columns in the result.
func (rs *ResultSet) ColumnCount() int { return len(rs.schema.Fields()) }

// ColumnName returns the i'th column's name (0-indexed).
func (rs *ResultSet) ColumnName(i int) string { return rs.schema.Fields()[i] }

// ColumnType returns the i'th column's type code (TypeI32 or TypeVarchar).
func (rs *ResultSet) ColumnType(i int) int {
	if rs.schema.Type(rs.ColumnName(i)) == record.I32 {
		return TypeI32
	}
	return TypeVarchar
}

// ColumnDisplaySize returns a suggested display width for the i'th
// column: the declared VARCHAR length, or a fixed width for I32.
func (rs *ResultSet) ColumnDisplaySize(i int) int {
	name := rs.ColumnName(i)
	if rs.schema.Type(name) == record.I32 {
		return 11 // -2147483648
	}
	return rs.schema.Length(name)
}

// Next advances to the next row, returning false at end of stream.
func (rs *ResultSet) Next() (bool, error) { return rs.scan.Next() }

func (rs *ResultSet) bidi() (query.BidiScan, error) {
	b, ok := rs.scan.(query.BidiScan)
	if !ok {
		return nil, dberrors.PlanError("result set does not support backward/random positioning")
	}
	return b, nil
}

// Previous moves backward one row. Only supported when the underlying
// scan is positional (not a sort/group-by/index stream).
func (rs *ResultSet) Previous() (bool, error) {
	b, err := rs.bidi()
	if err != nil {
		return false, err
	}
	return b.Previous()
}

// BeforeFirst rewinds to before the first row.
func (rs *ResultSet) BeforeFirst() error { return rs.scan.BeforeFirst() }

// AfterLast seeks to after the last row.
func (rs *ResultSet) AfterLast() error {
	b, err := rs.bidi()
	if err != nil {
		return err
	}
	return b.AfterLast()
}

// Absolute seeks to the n'th row (0-indexed).
func (rs *ResultSet) Absolute(n int) (bool, error) {
	b, err := rs.bidi()
	if err != nil {
		return false, err
	}
	return b.Absolute(n)
}

// GetI32 returns the named column's value at the current row.
func (rs *ResultSet) GetI32(fldname string) (int32, error) {
	null, err := rs.scan.IsNull(fldname)
	if err != nil {
		return 0, err
	}
	rs.lastWasNull = null
	if null {
		return 0, nil
	}
	return rs.scan.GetI32(fldname)
}

// GetString returns the named column's value at the current row.
func (rs *ResultSet) GetString(fldname string) (string, error) {
	null, err := rs.scan.IsNull(fldname)
	if err != nil {
		return "", err
	}
	rs.lastWasNull = null
	if null {
		return "", nil
	}
	return rs.scan.GetString(fldname)
}

// WasNull reports whether the most recent GetI32/GetString call returned
// a NULL value.
func (rs *ResultSet) WasNull() bool { return rs.lastWasNull }

// Close releases the underlying scan's resources.
func (rs *ResultSet) Close() { rs.scan.Close() }
