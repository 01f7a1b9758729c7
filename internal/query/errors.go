package query

import "github.com/flowlight0/simpledb-go/internal/dberrors"

// errNotUpdatable is returned when a DML operation reaches a scan chain
// that does not bottom out on a TableScan (e.g. over a ProductScan).
var errNotUpdatable = dberrors.PlanError("scan does not support update")

// errNotBidi is returned when Previous/AfterLast/Absolute reaches a scan
// chain whose underlying source does not support backward movement (e.g.
// a SortScan or index-backed scan feeding a ProjectScan).
var errNotBidi = dberrors.PlanError("scan does not support backward/positional movement")
