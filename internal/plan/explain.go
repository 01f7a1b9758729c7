package plan

import (
	"fmt"
	"strings"
)

// Explain renders p's operator tree as a human-readable, non-authoritative
// string naming each node's blocks_accessed/records_output estimate (spec
// §4.O "EXPLAIN-style plan introspection"). It is a debugging aid, not a
// contract other components parse.
func Explain(p Plan) string {
	var b strings.Builder
	explainNode(&b, p, "")
	return b.String()
}

func explainNode(b *strings.Builder, p Plan, indent string) {
	fmt.Fprintf(b, "%s%s (blocks=%d records=%d)\n", indent, describe(p), p.BlocksAccessed(), p.RecordsOutput())
	for _, child := range children(p) {
		explainNode(b, child, indent+"  ")
	}
}

func describe(p Plan) string {
	switch v := p.(type) {
	case *TablePlan:
		return "Table(" + v.tblname + ")"
	case *SelectPlan:
		return "Select"
	case *ProjectPlan:
		return fmt.Sprintf("Project%v", v.schema.Fields())
	case *ProductPlan:
		return "Product"
	case *ExtendPlan:
		return "Extend"
	case *SortPlan:
		return fmt.Sprintf("Sort%v", v.sortFields)
	case *GroupByPlan:
		return fmt.Sprintf("GroupBy%v", v.groupFields)
	case *IndexSelectPlan:
		return "IndexSelect"
	case *IndexJoinPlan:
		return fmt.Sprintf("IndexJoin(%s)", v.joinField)
	default:
		return fmt.Sprintf("%T", p)
	}
}

func children(p Plan) []Plan {
	switch v := p.(type) {
	case *SelectPlan:
		return []Plan{v.p}
	case *ProjectPlan:
		return []Plan{v.p}
	case *ProductPlan:
		return []Plan{v.p1, v.p2}
	case *ExtendPlan:
		return []Plan{v.p}
	case *SortPlan:
		return []Plan{v.p}
	case *GroupByPlan:
		return []Plan{v.p}
	case *IndexSelectPlan:
		return []Plan{v.p}
	case *IndexJoinPlan:
		return []Plan{v.outer, v.inner}
	default:
		return nil
	}
}
