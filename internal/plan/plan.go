// Package plan implements the planner (spec §4.J): UpdatePlanner turns
// DML/DDL into direct metadata/record-manager calls; QueryPlanner builds
// the logical tree of Plan nodes that SELECT compiles to, each of which
// opens a query.Scan and exposes the textbook costing hooks
// (blocks_accessed/records_output/distinct_values) the planner's index
// choice and EXPLAIN output both read from.
package plan

import (
	"github.com/flowlight0/simpledb-go/internal/metadata"
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// Plan is one node of the logical query tree (spec §4.K: "Each plan node
// exposes open/blocks_accessed/records_output/distinct_values/schema").
type Plan interface {
	Open() (query.Scan, error)
	BlocksAccessed() int
	RecordsOutput() int
	DistinctValues(fldname string) int
	Schema() *record.Schema
}

// TablePlan is a leaf plan reading one catalog-registered table.
type TablePlan struct {
	txn      *tx.Transaction
	tblname  string
	layout   *record.Layout
	statInfo metadata.StatInfo
}

func NewTablePlan(txn *tx.Transaction, tblname string, mdm *metadata.Manager) (*TablePlan, error) {
	layout, err := mdm.Layout(tblname, txn)
	if err != nil {
		return nil, err
	}
	si, err := mdm.StatInfo(tblname, layout, txn)
	if err != nil {
		return nil, err
	}
	return &TablePlan{txn: txn, tblname: tblname, layout: layout, statInfo: si}, nil
}

func (p *TablePlan) Open() (query.Scan, error) {
	return query.NewTableScan(p.txn, p.tblname, p.layout)
}
func (p *TablePlan) BlocksAccessed() int          { return p.statInfo.BlocksAccessed() }
func (p *TablePlan) RecordsOutput() int           { return p.statInfo.RecordsOutput() }
func (p *TablePlan) DistinctValues(f string) int  { return p.statInfo.DistinctValues(f) }
func (p *TablePlan) Schema() *record.Schema       { return p.layout.Schema() }
func (p *TablePlan) Layout() *record.Layout       { return p.layout }

// SelectPlan wraps p with a predicate filter.
type SelectPlan struct {
	p    Plan
	pred *parse.Predicate
}

func NewSelectPlan(p Plan, pred *parse.Predicate) *SelectPlan { return &SelectPlan{p: p, pred: pred} }

func (sp *SelectPlan) Open() (query.Scan, error) {
	s, err := sp.p.Open()
	if err != nil {
		return nil, err
	}
	return query.NewSelectScan(s, sp.pred), nil
}

func (sp *SelectPlan) BlocksAccessed() int { return sp.p.BlocksAccessed() }

// RecordsOutput uses the textbook reduction-factor estimate: each
// equality term cuts the row count by (roughly) the compared field's
// distinct-value count.
func (sp *SelectPlan) RecordsOutput() int {
	rf := reductionFactor(sp.p, sp.pred)
	if rf < 1 {
		rf = 1
	}
	return sp.p.RecordsOutput() / rf
}

func (sp *SelectPlan) DistinctValues(f string) int {
	if _, ok := query.EquatesWithConstant(sp.pred, f); ok {
		return 1
	}
	out := sp.RecordsOutput()
	dv := sp.p.DistinctValues(f)
	if dv < out {
		return dv
	}
	return out
}

func (sp *SelectPlan) Schema() *record.Schema { return sp.p.Schema() }

func reductionFactor(p Plan, pred *parse.Predicate) int {
	if pred == nil {
		return 1
	}
	factor := 1
	for _, t := range pred.Terms {
		if t.IsNull {
			factor *= 2
			continue
		}
		lf, lok := t.Lhs.(parse.FieldRef)
		rf, rok := t.Rhs.(parse.FieldRef)
		switch {
		case lok && rok:
			dv1, dv2 := p.DistinctValues(lf.Name), p.DistinctValues(rf.Name)
			if dv1 > dv2 {
				factor *= dv1
			} else {
				factor *= dv2
			}
		case lok:
			factor *= p.DistinctValues(lf.Name)
		case rok:
			factor *= p.DistinctValues(rf.Name)
		default:
			factor *= 1
		}
	}
	return factor
}

// ProjectPlan restricts the visible schema to a fixed field list.
type ProjectPlan struct {
	p      Plan
	schema *record.Schema
}

func NewProjectPlan(p Plan, fields []string) *ProjectPlan {
	schema := record.NewSchema()
	for _, f := range fields {
		schema.Add(f, p.Schema())
	}
	return &ProjectPlan{p: p, schema: schema}
}

func (pp *ProjectPlan) Open() (query.Scan, error) {
	s, err := pp.p.Open()
	if err != nil {
		return nil, err
	}
	return query.NewProjectScan(s, pp.schema.Fields()), nil
}

func (pp *ProjectPlan) BlocksAccessed() int         { return pp.p.BlocksAccessed() }
func (pp *ProjectPlan) RecordsOutput() int          { return pp.p.RecordsOutput() }
func (pp *ProjectPlan) DistinctValues(f string) int { return pp.p.DistinctValues(f) }
func (pp *ProjectPlan) Schema() *record.Schema      { return pp.schema }

// ProductPlan is the n-ary-product-built-as-binary-tree left-to-right
// Cartesian product (spec §4.J "form the n-ary product left-to-right").
type ProductPlan struct {
	p1, p2 Plan
	schema *record.Schema
}

func NewProductPlan(p1, p2 Plan) *ProductPlan {
	schema := record.NewSchema()
	schema.AddAll(p1.Schema())
	schema.AddAll(p2.Schema())
	return &ProductPlan{p1: p1, p2: p2, schema: schema}
}

func (pp *ProductPlan) Open() (query.Scan, error) {
	s1, err := pp.p1.Open()
	if err != nil {
		return nil, err
	}
	s2, err := pp.p2.Open()
	if err != nil {
		return nil, err
	}
	return query.NewProductScan(s1, s2)
}

func (pp *ProductPlan) BlocksAccessed() int {
	return pp.p1.BlocksAccessed() + pp.p1.RecordsOutput()*pp.p2.BlocksAccessed()
}

func (pp *ProductPlan) RecordsOutput() int { return pp.p1.RecordsOutput() * pp.p2.RecordsOutput() }

func (pp *ProductPlan) DistinctValues(f string) int {
	if pp.p1.Schema().HasField(f) {
		return pp.p1.DistinctValues(f)
	}
	return pp.p2.DistinctValues(f)
}

func (pp *ProductPlan) Schema() *record.Schema { return pp.schema }

// ExtendPlan adds one or more computed (expr, alias) fields atop p,
// inferring each alias's declared type from its expression (spec §4.K
// ExtendScan).
type ExtendPlan struct {
	p      Plan
	fields []query.ExtendField
	schema *record.Schema
}

func NewExtendPlan(p Plan, fields []query.ExtendField) *ExtendPlan {
	schema := record.NewSchema()
	schema.AddAll(p.Schema())
	for _, f := range fields {
		schema.AddField(f.Alias, inferExprType(f.Expr, p.Schema()))
	}
	return &ExtendPlan{p: p, fields: fields, schema: schema}
}

func inferExprType(e parse.Expr, schema *record.Schema) record.FieldInfo {
	switch ex := e.(type) {
	case parse.FieldRef:
		return schema.Info(ex.Name)
	case parse.StrLit:
		length := len(ex.Val)
		if length == 0 {
			length = 1
		}
		return record.FieldInfo{Type: record.Varchar, Length: length}
	default:
		return record.FieldInfo{Type: record.I32}
	}
}

func (ep *ExtendPlan) Open() (query.Scan, error) {
	s, err := ep.p.Open()
	if err != nil {
		return nil, err
	}
	return query.NewExtendScan(s, ep.fields), nil
}

func (ep *ExtendPlan) BlocksAccessed() int { return ep.p.BlocksAccessed() }
func (ep *ExtendPlan) RecordsOutput() int  { return ep.p.RecordsOutput() }

func (ep *ExtendPlan) DistinctValues(f string) int {
	for _, ef := range ep.fields {
		if ef.Alias == f {
			return ep.p.RecordsOutput()
		}
	}
	return ep.p.DistinctValues(f)
}

func (ep *ExtendPlan) Schema() *record.Schema { return ep.schema }
