package plan

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/metadata"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/record"
)

// IndexSelectPlan replaces a TableScan+SelectScan with an index lookup
// when a WHERE term equates an indexed field with a constant (spec §4.J,
// §4.K "IndexSelectScan").
type IndexSelectPlan struct {
	p   *TablePlan
	ii  *metadata.IndexInfo
	key metadata.Constant
}

func NewIndexSelectPlan(p *TablePlan, ii *metadata.IndexInfo, key metadata.Constant) *IndexSelectPlan {
	return &IndexSelectPlan{p: p, ii: ii, key: key}
}

func (isp *IndexSelectPlan) Open() (query.Scan, error) {
	s, err := isp.p.Open()
	if err != nil {
		return nil, err
	}
	ts, ok := s.(*query.TableScan)
	if !ok {
		return nil, dberrors.PlanError("index select plan requires a table scan")
	}
	idx := isp.ii.Open()
	return query.NewIndexSelectScan(ts, idx, isp.key)
}

func (isp *IndexSelectPlan) BlocksAccessed() int         { return isp.ii.BlocksAccessed() + isp.RecordsOutput() }
func (isp *IndexSelectPlan) RecordsOutput() int          { return isp.ii.RecordsOutput() }
func (isp *IndexSelectPlan) DistinctValues(f string) int { return isp.ii.DistinctValues(f) }
func (isp *IndexSelectPlan) Schema() *record.Schema      { return isp.p.Schema() }

// IndexJoinPlan joins outer to inner's indexed field without a full
// product, driving inner's metadata.Index once per outer row (spec §4.K
// "IndexJoinScan").
type IndexJoinPlan struct {
	outer     Plan
	inner     *TablePlan
	ii        *metadata.IndexInfo
	joinField string
	schema    *record.Schema
}

func NewIndexJoinPlan(outer Plan, inner *TablePlan, ii *metadata.IndexInfo, joinField string) *IndexJoinPlan {
	schema := record.NewSchema()
	schema.AddAll(outer.Schema())
	schema.AddAll(inner.Schema())
	return &IndexJoinPlan{outer: outer, inner: inner, ii: ii, joinField: joinField, schema: schema}
}

func (ijp *IndexJoinPlan) Open() (query.Scan, error) {
	outerScan, err := ijp.outer.Open()
	if err != nil {
		return nil, err
	}
	innerScan, err := ijp.inner.Open()
	if err != nil {
		return nil, err
	}
	ts, ok := innerScan.(*query.TableScan)
	if !ok {
		return nil, dberrors.PlanError("index join plan requires a table scan on the inner side")
	}
	idx := ijp.ii.Open()
	return query.NewIndexJoinScan(outerScan, idx, ijp.joinField, ts)
}

func (ijp *IndexJoinPlan) BlocksAccessed() int {
	return ijp.outer.BlocksAccessed() + ijp.outer.RecordsOutput()*(ijp.ii.BlocksAccessed()+1)
}

func (ijp *IndexJoinPlan) RecordsOutput() int {
	return ijp.outer.RecordsOutput() * ijp.ii.RecordsOutput()
}

func (ijp *IndexJoinPlan) DistinctValues(f string) int {
	if ijp.outer.Schema().HasField(f) {
		return ijp.outer.DistinctValues(f)
	}
	return ijp.inner.DistinctValues(f)
}

func (ijp *IndexJoinPlan) Schema() *record.Schema { return ijp.schema }
