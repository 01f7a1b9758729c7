package query

import "github.com/flowlight0/simpledb-go/internal/record"

// Scan is the forward (and, where feasible, bidirectional) cursor every
// plan node opens (spec §4.K).
type Scan interface {
	BeforeFirst() error
	Next() (bool, error)
	GetI32(fldname string) (int32, error)
	GetString(fldname string) (string, error)
	GetVal(fldname string) (Value, error)
	IsNull(fldname string) (bool, error)
	HasField(fldname string) bool
	Close()
}

// BidiScan is a Scan that also supports backward and positional movement
// (spec §4.K: "where feasible — table, select, project, product, extend").
// SortScan, GroupByScan and the index-backed scans do not implement it:
// a merged/aggregated/index-driven stream has no stable absolute position
// to rewind to.
type BidiScan interface {
	Scan
	Previous() (bool, error)
	AfterLast() error
	Absolute(n int) (bool, error)
}

// seekAbsolute repositions s at its nth row (0-indexed) by replaying a
// forward scan from the start, the portable implementation of Absolute
// for any scan whose Next already encodes the right enumeration order
// (filtering, projection, products all compose correctly this way).
func seekAbsolute(s Scan, n int) (bool, error) {
	if n < 0 {
		return false, nil
	}
	if err := s.BeforeFirst(); err != nil {
		return false, err
	}
	for i := 0; i <= n; i++ {
		ok, err := s.Next()
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// UpdateScan is a Scan that also supports direct mutation, implemented
// by TableScan (which temp tables also open) and by SelectScan, which
// forwards each mutation to its source when that source is an UpdateScan.
type UpdateScan interface {
	Scan
	SetI32(fldname string, val int32) error
	SetString(fldname string, val string) error
	SetVal(fldname string, val Value) error
	SetNull(fldname string) error
	Insert() error
	Delete() error
	CurrentRID() record.RID
	MoveToRID(rid record.RID) error
}
