package simpledb

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/plan"
)

// Statement compiles and runs one piece of SQL text against its
// Connection's transaction, mirroring java.sql.Statement's
// executeQuery/executeUpdate split (spec §4.L).
type Statement struct {
	conn *Connection
}

// ExecuteQuery parses sql as a SELECT, plans it, and returns a ResultSet
// positioned before the first row.
func (s *Statement) ExecuteQuery(sql string) (*ResultSet, error) {
	stmt, err := parse.NewParser(sql).ParseStatement()
	if err != nil {
		return nil, err
	}
	qd, ok := stmt.(*parse.QueryData)
	if !ok {
		return nil, dberrors.PlanError("not a query: %s", sql)
	}
	qp := plan.NewQueryPlanner(s.conn.txn, s.conn.driver.mdm)
	p, err := qp.Build(qd)
	if err != nil {
		return nil, err
	}
	scan, err := p.Open()
	if err != nil {
		return nil, err
	}
	return newResultSet(scan, p.Schema()), nil
}

// ExecuteUpdate parses sql as DML/DDL, runs it, and returns the affected
// row count.
func (s *Statement) ExecuteUpdate(sql string) (int, error) {
	stmt, err := parse.NewParser(sql).ParseStatement()
	if err != nil {
		return 0, err
	}
	if _, ok := stmt.(*parse.QueryData); ok {
		return 0, dberrors.PlanError("not an update statement: %s", sql)
	}
	up := plan.NewUpdatePlanner(s.conn.txn, s.conn.driver.mdm)
	return up.ExecuteUpdate(stmt)
}

// Explain parses sql as a SELECT, plans it, and renders its operator tree
// without opening a scan (spec §4.O).
func (s *Statement) Explain(sql string) (string, error) {
	stmt, err := parse.NewParser(sql).ParseStatement()
	if err != nil {
		return "", err
	}
	qd, ok := stmt.(*parse.QueryData)
	if !ok {
		return "", dberrors.PlanError("not a query: %s", sql)
	}
	qp := plan.NewQueryPlanner(s.conn.txn, s.conn.driver.mdm)
	p, err := qp.Build(qd)
	if err != nil {
		return "", err
	}
	return plan.Explain(p), nil
}
