package plan

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/metadata"
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// UpdatePlanner translates parsed DML/DDL into direct catalog/record-
// manager calls (spec §4.J), dispatching by statement type the way the
// wider engine dispatches by Statement kind. It returns the count of
// affected rows: 1 for INSERT, the matched-row count for DELETE/MODIFY,
// 0 for DDL.
type UpdatePlanner struct {
	txn *tx.Transaction
	mdm *metadata.Manager
}

func NewUpdatePlanner(txn *tx.Transaction, mdm *metadata.Manager) *UpdatePlanner {
	return &UpdatePlanner{txn: txn, mdm: mdm}
}

// ExecuteUpdate runs one parsed DML/DDL statement, which must be one of
// *parse.InsertData, *parse.DeleteData, *parse.ModifyData,
// *parse.CreateTableData, *parse.CreateViewData, *parse.CreateIndexData.
func (up *UpdatePlanner) ExecuteUpdate(stmt any) (int, error) {
	switch s := stmt.(type) {
	case *parse.InsertData:
		return up.executeInsert(s)
	case *parse.DeleteData:
		return up.executeDelete(s)
	case *parse.ModifyData:
		return up.executeModify(s)
	case *parse.CreateTableData:
		return 0, up.mdm.CreateTable(s.TableName, s.Schema, up.txn)
	case *parse.CreateViewData:
		return 0, up.mdm.CreateView(s.ViewName, s.QuerySQL, up.txn)
	case *parse.CreateIndexData:
		return 0, up.mdm.CreateIndex(s.IndexName, s.TableName, s.FieldName, up.txn)
	default:
		return 0, dberrors.PlanError("unsupported statement type %T", stmt)
	}
}

func (up *UpdatePlanner) openTableScan(tblname string) (*query.TableScan, error) {
	tp, err := NewTablePlan(up.txn, tblname, up.mdm)
	if err != nil {
		return nil, err
	}
	s, err := tp.Open()
	if err != nil {
		return nil, err
	}
	ts, ok := s.(*query.TableScan)
	if !ok {
		return nil, dberrors.PlanError("internal error: table plan did not open a table scan")
	}
	return ts, nil
}

func (up *UpdatePlanner) executeInsert(d *parse.InsertData) (int, error) {
	ts, err := up.openTableScan(d.TableName)
	if err != nil {
		return 0, err
	}
	defer ts.Close()
	if err := ts.Insert(); err != nil {
		return 0, err
	}
	for i, fld := range d.Fields {
		val, err := literalToValue(d.Values[i])
		if err != nil {
			return 0, err
		}
		if err := ts.SetVal(fld, val); err != nil {
			return 0, err
		}
	}
	up.mdm.InvalidateStats()
	return 1, nil
}

func (up *UpdatePlanner) executeDelete(d *parse.DeleteData) (int, error) {
	ts, err := up.openTableScan(d.TableName)
	if err != nil {
		return 0, err
	}
	defer ts.Close()
	count := 0
	for {
		ok, err := ts.Next()
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		match, err := query.EvalPredicate(d.Pred, ts)
		if err != nil {
			return count, err
		}
		if !match {
			continue
		}
		if err := ts.Delete(); err != nil {
			return count, err
		}
		count++
	}
	up.mdm.InvalidateStats()
	return count, nil
}

func (up *UpdatePlanner) executeModify(m *parse.ModifyData) (int, error) {
	ts, err := up.openTableScan(m.TableName)
	if err != nil {
		return 0, err
	}
	defer ts.Close()
	count := 0
	for {
		ok, err := ts.Next()
		if err != nil {
			return count, err
		}
		if !ok {
			break
		}
		match, err := query.EvalPredicate(m.Pred, ts)
		if err != nil {
			return count, err
		}
		if !match {
			continue
		}
		val, err := query.EvalExpr(m.NewValue, ts)
		if err != nil {
			return count, err
		}
		if err := ts.SetVal(m.TargetField, val); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func literalToValue(e parse.Expr) (query.Value, error) {
	switch l := e.(type) {
	case parse.I32Lit:
		return query.I32Value(l.Val), nil
	case parse.StrLit:
		return query.StrValue(l.Val), nil
	case parse.NullLit:
		return query.NullValue(), nil
	default:
		return query.Value{}, dberrors.PlanError("INSERT values must be literals")
	}
}
