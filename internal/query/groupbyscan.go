package query

import "github.com/flowlight0/simpledb-go/internal/dberrors"

// GroupByScan consumes a scan already sorted on groupFields and emits one
// row per distinct group, with the group's columns plus one finished
// AggregationFn per aggregate in the select list (spec §4.K GROUP BY).
// A query with no GROUP BY clause but an aggregate in its select list is
// planned as a GroupByScan with an empty groupFields list, one group for
// the whole table.
type GroupByScan struct {
	src         Scan
	groupFields []string
	aggFns      []AggregationFn
	groupVal    map[string]Value
	moreGroups  bool
}

func NewGroupByScan(src Scan, groupFields []string, aggFns []AggregationFn) *GroupByScan {
	return &GroupByScan{src: src, groupFields: groupFields, aggFns: aggFns}
}

func (g *GroupByScan) BeforeFirst() error {
	if err := g.src.BeforeFirst(); err != nil {
		return err
	}
	var err error
	g.moreGroups, err = g.src.Next()
	return err
}

func (g *GroupByScan) currentGroupVal() (map[string]Value, error) {
	vals := make(map[string]Value, len(g.groupFields))
	for _, fld := range g.groupFields {
		v, err := g.src.GetVal(fld)
		if err != nil {
			return nil, err
		}
		vals[fld] = v
	}
	return vals, nil
}

// sameGroup treats two NULLs in the same group column as equal, unlike
// Value.Equals: a GROUP BY puts every NULL key in one group rather than
// treating each NULL as distinct (spec §4.K).
func sameGroup(a, b map[string]Value) bool {
	for k, v := range a {
		o := b[k]
		if v.IsNull() && o.IsNull() {
			continue
		}
		if !v.Equals(o) {
			return false
		}
	}
	return true
}

func (g *GroupByScan) Next() (bool, error) {
	if !g.moreGroups {
		return false, nil
	}
	gv, err := g.currentGroupVal()
	if err != nil {
		return false, err
	}
	g.groupVal = gv
	for _, fn := range g.aggFns {
		if err := fn.ProcessFirst(g.src); err != nil {
			return false, err
		}
	}
	for {
		g.moreGroups, err = g.src.Next()
		if err != nil {
			return false, err
		}
		if !g.moreGroups {
			break
		}
		nextVal, err := g.currentGroupVal()
		if err != nil {
			return false, err
		}
		if !sameGroup(gv, nextVal) {
			break
		}
		for _, fn := range g.aggFns {
			if err := fn.ProcessNext(g.src); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

func (g *GroupByScan) Close() { g.src.Close() }

func (g *GroupByScan) HasField(f string) bool {
	if _, ok := g.groupVal[f]; ok {
		return true
	}
	for _, fn := range g.aggFns {
		if fn.FieldName() == f {
			return true
		}
	}
	return false
}

func (g *GroupByScan) GetVal(f string) (Value, error) {
	if v, ok := g.groupVal[f]; ok {
		return v, nil
	}
	for _, fn := range g.aggFns {
		if fn.FieldName() == f {
			return fn.Value(), nil
		}
	}
	return Value{}, dberrors.PlanError("field %q is not part of this group-by result", f)
}

func (g *GroupByScan) IsNull(f string) (bool, error) {
	v, err := g.GetVal(f)
	if err != nil {
		return false, err
	}
	return v.IsNull(), nil
}

func (g *GroupByScan) GetI32(f string) (int32, error) {
	v, err := g.GetVal(f)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindI32 {
		return 0, dberrors.ExprError("field %q is not I32", f)
	}
	return v.I32, nil
}

func (g *GroupByScan) GetString(f string) (string, error) {
	v, err := g.GetVal(f)
	if err != nil {
		return "", err
	}
	if v.Kind != KindStr {
		return "", dberrors.ExprError("field %q is not VARCHAR", f)
	}
	return v.Str, nil
}
