package plan

import (
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// SortPlan materialises p's output into sorted runs via query.SortScan,
// the decorator ORDER BY compiles to (spec §4.J).
type SortPlan struct {
	txn        *tx.Transaction
	p          Plan
	sortFields []string
}

func NewSortPlan(txn *tx.Transaction, p Plan, sortFields []string) *SortPlan {
	return &SortPlan{txn: txn, p: p, sortFields: sortFields}
}

func (sp *SortPlan) Open() (query.Scan, error) {
	src, err := sp.p.Open()
	if err != nil {
		return nil, err
	}
	return query.NewSortScan(sp.txn, src, sp.p.Schema(), sp.sortFields)
}

func (sp *SortPlan) BlocksAccessed() int         { return sp.p.BlocksAccessed() }
func (sp *SortPlan) RecordsOutput() int          { return sp.p.RecordsOutput() }
func (sp *SortPlan) DistinctValues(f string) int { return sp.p.DistinctValues(f) }
func (sp *SortPlan) Schema() *record.Schema      { return sp.p.Schema() }

// AggSpec is one aggregate call in a GROUP BY's select list.
type AggSpec struct {
	Agg   parse.AggFunc
	Field string
	Alias string
}

// GroupByPlan sorts p on groupFields, then decorates with accumulators
// for each AggSpec (spec §4.J "GROUP BY/aggregates wrap the plan in a
// sort-then-group operator").
type GroupByPlan struct {
	txn         *tx.Transaction
	p           Plan
	groupFields []string
	aggs        []AggSpec
	schema      *record.Schema
}

func NewGroupByPlan(txn *tx.Transaction, p Plan, groupFields []string, aggs []AggSpec) *GroupByPlan {
	schema := record.NewSchema()
	for _, f := range groupFields {
		schema.Add(f, p.Schema())
	}
	for _, a := range aggs {
		schema.AddField(a.Alias, aggFieldInfo(a, p.Schema()))
	}
	return &GroupByPlan{txn: txn, p: p, groupFields: groupFields, aggs: aggs, schema: schema}
}

func aggFieldInfo(a AggSpec, srcSchema *record.Schema) record.FieldInfo {
	if a.Agg == parse.AggCount {
		return record.FieldInfo{Type: record.I32}
	}
	return srcSchema.Info(a.Field)
}

func buildAggFns(aggs []AggSpec) []query.AggregationFn {
	fns := make([]query.AggregationFn, len(aggs))
	for i, a := range aggs {
		switch a.Agg {
		case parse.AggCount:
			fns[i] = query.NewCountFn(a.Field, a.Alias)
		case parse.AggSum:
			fns[i] = query.NewSumFn(a.Field, a.Alias)
		case parse.AggAvg:
			fns[i] = query.NewAvgFn(a.Field, a.Alias)
		case parse.AggMax:
			fns[i] = query.NewMaxFn(a.Field, a.Alias)
		case parse.AggMin:
			fns[i] = query.NewMinFn(a.Field, a.Alias)
		}
	}
	return fns
}

func (gp *GroupByPlan) Open() (query.Scan, error) {
	src, err := gp.p.Open()
	if err != nil {
		return nil, err
	}
	sorted, err := query.NewSortScan(gp.txn, src, gp.p.Schema(), gp.groupFields)
	if err != nil {
		return nil, err
	}
	return query.NewGroupByScan(sorted, gp.groupFields, buildAggFns(gp.aggs)), nil
}

func (gp *GroupByPlan) BlocksAccessed() int { return gp.p.BlocksAccessed() }

func (gp *GroupByPlan) RecordsOutput() int {
	if len(gp.groupFields) == 0 {
		return 1
	}
	n := 1
	for _, f := range gp.groupFields {
		n *= gp.p.DistinctValues(f)
	}
	if out := gp.p.RecordsOutput(); n > out {
		n = out
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (gp *GroupByPlan) DistinctValues(f string) int {
	for _, gf := range gp.groupFields {
		if gf == f {
			return gp.p.DistinctValues(f)
		}
	}
	return gp.RecordsOutput()
}

func (gp *GroupByPlan) Schema() *record.Schema { return gp.schema }
