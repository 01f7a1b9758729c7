package plan

import (
	"strings"

	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/metadata"
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// QueryPlanner compiles a parsed SELECT into a Plan tree (spec §4.J): a
// leaf per FROM table or view, combined left-to-right into a product
// (substituting an IndexJoinPlan where a WHERE term equates the new
// table's indexed field to a field already in scope), the WHERE filter
// (substituting an IndexSelectPlan on a single-table equality match), the
// GROUP BY/aggregate and ORDER BY decorators, computed/aliased fields via
// ExtendPlan, and the final projection.
type QueryPlanner struct {
	txn *tx.Transaction
	mdm *metadata.Manager
}

func NewQueryPlanner(txn *tx.Transaction, mdm *metadata.Manager) *QueryPlanner {
	return &QueryPlanner{txn: txn, mdm: mdm}
}

// Build compiles qd into a Plan tree.
func (qp *QueryPlanner) Build(qd *parse.QueryData) (Plan, error) {
	if len(qd.Tables) == 0 {
		return nil, dberrors.PlanError("SELECT requires at least one table in FROM")
	}

	var current Plan
	for i, name := range qd.Tables {
		tp, err := qp.planTableOrView(name)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			current = tp
			continue
		}
		current, err = qp.addTable(current, tp, name, qd.Pred)
		if err != nil {
			return nil, err
		}
	}

	if isIndexable, ii, key := qp.singleTableIndexMatch(qd); isIndexable {
		if sel, err := qp.trySubstituteIndexSelect(current, qd, ii, key); err == nil && sel != nil {
			current = sel
		}
	}
	if qd.Pred != nil {
		// Re-applying the full predicate even after an IndexSelectPlan
		// substitution is deliberate: the index only narrows by its one
		// equality term, so any remaining AND-ed terms still need a filter.
		current = NewSelectPlan(current, qd.Pred)
	}

	if len(qd.GroupBy) > 0 || hasAggregates(qd.Items) {
		aggs := buildAggSpecs(qd.Items)
		current = NewGroupByPlan(qp.txn, current, qd.GroupBy, aggs)
	}

	if len(qd.OrderBy) > 0 {
		current = NewSortPlan(qp.txn, current, qd.OrderBy)
	}

	extendFields, err := extendFieldsFor(qd.Items)
	if err != nil {
		return nil, err
	}
	if len(extendFields) > 0 {
		current = NewExtendPlan(current, extendFields)
	}

	outFields, err := outputFields(qd, current)
	if err != nil {
		return nil, err
	}
	return NewProjectPlan(current, outFields), nil
}

// planTableOrView resolves name to a base TablePlan, or, if name is a
// view, re-parses its stored defining query and recursively builds its
// plan (spec §4.H: "a view is just its original SELECT text, re-planned
// on every reference").
func (qp *QueryPlanner) planTableOrView(name string) (Plan, error) {
	def, ok, err := qp.mdm.ViewDef(name, qp.txn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewTablePlan(qp.txn, name, qp.mdm)
	}
	stmt, err := parse.NewParser(def).ParseStatement()
	if err != nil {
		return nil, err
	}
	qd, ok := stmt.(*parse.QueryData)
	if !ok {
		return nil, dberrors.PlanError("view %q does not define a SELECT", name)
	}
	return qp.Build(qd)
}

// addTable folds newPlan into current, using an index join when pred
// equates one of newPlan's indexed fields to a field current already
// exposes (spec §4.H "IndexJoinScan"), otherwise forming a full product.
func (qp *QueryPlanner) addTable(current, newPlan Plan, newTableName string, pred *parse.Predicate) (Plan, error) {
	tp, ok := newPlan.(*TablePlan)
	if !ok {
		return NewProductPlan(current, newPlan), nil
	}
	infos, err := qp.mdm.IndexInfo(newTableName, qp.txn)
	if err != nil {
		return nil, err
	}
	for field, ii := range infos {
		if other, ok := equatesField(pred, field); ok && current.Schema().HasField(other) {
			return NewIndexJoinPlan(current, tp, ii, other), nil
		}
	}
	return NewProductPlan(current, tp), nil
}

// singleTableIndexMatch reports whether qd is a single-table query whose
// WHERE clause equates an indexed field with a constant.
func (qp *QueryPlanner) singleTableIndexMatch(qd *parse.QueryData) (bool, *metadata.IndexInfo, metadata.Constant) {
	if len(qd.Tables) != 1 || qd.Pred == nil {
		return false, nil, metadata.Constant{}
	}
	infos, err := qp.mdm.IndexInfo(qd.Tables[0], qp.txn)
	if err != nil {
		return false, nil, metadata.Constant{}
	}
	for field, ii := range infos {
		if v, ok := query.EquatesWithConstant(qd.Pred, field); ok {
			return true, ii, valueToIndexConstant(v)
		}
	}
	return false, nil, metadata.Constant{}
}

func valueToIndexConstant(v query.Value) metadata.Constant {
	if v.Kind == query.KindStr {
		return metadata.StringConstant(v.Str)
	}
	return metadata.I32Constant(v.I32)
}

func (qp *QueryPlanner) trySubstituteIndexSelect(current Plan, qd *parse.QueryData, ii *metadata.IndexInfo, key metadata.Constant) (Plan, error) {
	tp, ok := current.(*TablePlan)
	if !ok {
		return nil, nil
	}
	return NewIndexSelectPlan(tp, ii, key), nil
}

// equatesField reports whether pred contains a term equating field with
// a differently-named field, returning that other field's name.
func equatesField(pred *parse.Predicate, field string) (string, bool) {
	if pred == nil {
		return "", false
	}
	for _, t := range pred.Terms {
		if t.IsNull {
			continue
		}
		lf, lok := t.Lhs.(parse.FieldRef)
		rf, rok := t.Rhs.(parse.FieldRef)
		if !lok || !rok {
			continue
		}
		if lf.Name == field && rf.Name != field {
			return rf.Name, true
		}
		if rf.Name == field && lf.Name != field {
			return lf.Name, true
		}
	}
	return "", false
}

func hasAggregates(items []parse.SelectItem) bool {
	for _, it := range items {
		if it.IsAgg {
			return true
		}
	}
	return false
}

func buildAggSpecs(items []parse.SelectItem) []AggSpec {
	var aggs []AggSpec
	for _, it := range items {
		if !it.IsAgg {
			continue
		}
		aggs = append(aggs, AggSpec{Agg: it.Agg, Field: it.AggField, Alias: aggAlias(it)})
	}
	return aggs
}

// aggAlias returns the item's AS alias, or a default name derived from
// the aggregate function and field (e.g. "count_id") when none is given.
func aggAlias(it parse.SelectItem) string {
	if it.Alias != "" {
		return it.Alias
	}
	return strings.ToLower(string(it.Agg)) + "_" + it.AggField
}

// extendFieldsFor returns the (expr, alias) pairs that need an ExtendScan:
// every select item that is not a bare, unaliased field reference and not
// an aggregate (aggregates are materialized by GroupByPlan instead).
func extendFieldsFor(items []parse.SelectItem) ([]query.ExtendField, error) {
	var fields []query.ExtendField
	for _, it := range items {
		if it.IsAgg {
			continue
		}
		if _, ok := it.Expr.(parse.FieldRef); ok && it.Alias == "" {
			continue
		}
		if it.Alias == "" {
			return nil, dberrors.PlanError("computed select expression requires an AS alias")
		}
		fields = append(fields, query.ExtendField{Expr: it.Expr, Alias: it.Alias})
	}
	return fields, nil
}

// outputFields resolves the SELECT-list column order (spec §4.J: "`*`
// follows the product's schema order").
func outputFields(qd *parse.QueryData, current Plan) ([]string, error) {
	if qd.Star {
		return current.Schema().Fields(), nil
	}
	fields := make([]string, 0, len(qd.Items))
	for _, it := range qd.Items {
		if it.IsAgg {
			fields = append(fields, aggAlias(it))
			continue
		}
		if it.Alias != "" {
			fields = append(fields, it.Alias)
			continue
		}
		fr, ok := it.Expr.(parse.FieldRef)
		if !ok {
			return nil, dberrors.PlanError("computed select expression requires an AS alias")
		}
		fields = append(fields, fr.Name)
	}
	return fields, nil
}
