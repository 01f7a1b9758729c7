// Package query implements the scan operators (spec §4.K): TableScan,
// SelectScan, ProjectScan, ProductScan, ExtendScan, SortScan/merge-sort
// materialization, GroupByScan, and the index-backed scans, plus the
// expression/predicate evaluator they share with the planner.
package query

// ValueKind distinguishes the three states an evaluated expression can
// hold: absent (NULL), I32, or string.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindI32
	KindStr
)

// Value is a typed, possibly-NULL runtime value (spec §4.K "get_value").
type Value struct {
	Kind ValueKind
	I32  int32
	Str  string
}

func NullValue() Value         { return Value{Kind: KindNull} }
func I32Value(v int32) Value   { return Value{Kind: KindI32, I32: v} }
func StrValue(v string) Value  { return Value{Kind: KindStr, Str: v} }
func (v Value) IsNull() bool   { return v.Kind == KindNull }

// Equals compares two values; NULL never equals anything, including NULL
// (three-valued-logic comparisons are handled by the predicate evaluator,
// not here).
func (v Value) Equals(o Value) bool {
	if v.Kind != o.Kind || v.Kind == KindNull {
		return false
	}
	if v.Kind == KindI32 {
		return v.I32 == o.I32
	}
	return v.Str == o.Str
}

// Less orders two non-NULL values of the same kind, used by sort/group
// comparators.
func (v Value) Less(o Value) bool {
	if v.Kind == KindI32 {
		return v.I32 < o.I32
	}
	return v.Str < o.Str
}
