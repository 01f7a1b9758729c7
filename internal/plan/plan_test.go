package plan

import (
	"testing"
	"time"

	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/concurrency"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
	"github.com/flowlight0/simpledb-go/internal/metadata"
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/query"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

func newTestTx(t *testing.T) (*tx.Transaction, bool) {
	t.Helper()
	dir := t.TempDir()
	fm, err := file.NewManager(dir, 400)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	lm, err := logmgr.NewManager(fm, "testlog")
	if err != nil {
		t.Fatalf("NewManager(log): %v", err)
	}
	bm := buffer.NewManager(fm, lm, 8, 3*time.Second)
	lt := concurrency.NewLockTable(3 * time.Second)
	gen := tx.NewNumberGenerator()
	txn, err := tx.New(fm, bm, lt, lm, gen)
	if err != nil {
		t.Fatalf("tx.New: %v", err)
	}
	return txn, fm.IsNew()
}

func newTestDB(t *testing.T) (*tx.Transaction, *metadata.Manager) {
	t.Helper()
	txn, isNew := newTestTx(t)
	mdm, err := metadata.NewManager(isNew, txn)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return txn, mdm
}

func mustParse(t *testing.T, sql string) any {
	t.Helper()
	stmt, err := parse.NewParser(sql).ParseStatement()
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	return stmt
}

func runUpdate(t *testing.T, up *UpdatePlanner, sql string) int {
	t.Helper()
	n, err := up.ExecuteUpdate(mustParse(t, sql))
	if err != nil {
		t.Fatalf("ExecuteUpdate %q: %v", sql, err)
	}
	return n
}

func collect(t *testing.T, p Plan) []map[string]query.Value {
	t.Helper()
	s, err := p.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	var rows []map[string]query.Value
	for {
		ok, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		row := make(map[string]query.Value)
		for _, f := range p.Schema().Fields() {
			v, err := s.GetVal(f)
			if err != nil {
				t.Fatalf("GetVal(%s): %v", f, err)
			}
			row[f] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func seedStudents(t *testing.T, txn *tx.Transaction, mdm *metadata.Manager) {
	t.Helper()
	up := NewUpdatePlanner(txn, mdm)
	runUpdate(t, up, "create table students (id i32, name varchar(10), deptid i32)")
	rows := []struct {
		id     int
		name   string
		deptid int
	}{
		{1, "amy", 10}, {2, "bob", 10}, {3, "cid", 20}, {4, "dee", 20}, {5, "eve", 30},
	}
	for _, r := range rows {
		sql := "insert into students (id, name, deptid) values (" +
			itoa(r.id) + ", '" + r.name + "', " + itoa(r.deptid) + ")"
		runUpdate(t, up, sql)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestInsertAndSelectStar(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select * from students").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
}

func TestSelectWithWherePredicate(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select id, name from students where deptid = 20").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows for deptid=20, got %d", len(rows))
	}
	for _, r := range rows {
		if _, ok := r["deptid"]; ok {
			t.Fatalf("deptid should not be in projected output: %v", r)
		}
		if r["id"].IsNull() || r["name"].IsNull() {
			t.Fatalf("expected non-null id/name, got %v", r)
		}
	}
}

func TestDeleteRemovesMatchingRows(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	up := NewUpdatePlanner(txn, mdm)
	n := runUpdate(t, up, "delete from students where deptid = 10")
	if n != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", n)
	}

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select * from students").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 3 {
		t.Fatalf("expected 3 remaining rows, got %d", len(rows))
	}
}

func TestModifyUpdatesMatchingRows(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	up := NewUpdatePlanner(txn, mdm)
	n := runUpdate(t, up, "modify students set deptid = 99 where id = 1")
	if n != 1 {
		t.Fatalf("expected 1 modified row, got %d", n)
	}

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select deptid from students where id = 1").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 1 || rows[0]["deptid"].I32 != 99 {
		t.Fatalf("expected deptid=99, got %v", rows)
	}
}

func TestGroupByCountPerDept(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select deptid, count(id) as n from students group by deptid").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 3 {
		t.Fatalf("expected 3 groups, got %d: %v", len(rows), rows)
	}
	totals := map[int32]int32{}
	for _, r := range rows {
		totals[r["deptid"].I32] = r["n"].I32
	}
	if totals[10] != 2 || totals[20] != 2 || totals[30] != 1 {
		t.Fatalf("unexpected group counts: %v", totals)
	}
}

func TestOrderByAscending(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select id from students order by id").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for i, r := range rows {
		if r["id"].I32 != int32(i+1) {
			t.Fatalf("expected ascending ids, got %v at %d", r["id"], i)
		}
	}
}

func TestIndexSelectPlanMatchesFullScan(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	up := NewUpdatePlanner(txn, mdm)
	runUpdate(t, up, "create index idx_deptid on students (deptid)")

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select id from students where deptid = 20").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows for deptid=20 via index, got %d", len(rows))
	}
}

func TestComputedExpressionRequiresAlias(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select id + 1 from students").(*parse.QueryData)
	if _, err := qp.Build(qd); err == nil {
		t.Fatalf("expected error for unaliased computed expression")
	}
}

func TestExtendPlanComputesAliasedExpression(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select id, id + 1 as next_id from students where id = 1").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 1 || rows[0]["next_id"].I32 != 2 {
		t.Fatalf("expected next_id=2, got %v", rows)
	}
}

func TestViewPlanningReparsesDefinition(t *testing.T) {
	txn, mdm := newTestDB(t)
	seedStudents(t, txn, mdm)

	if err := mdm.CreateView("dept10", "select id, name from students where deptid = 10", txn); err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	qp := NewQueryPlanner(txn, mdm)
	qd := mustParse(t, "select id from dept10").(*parse.QueryData)
	p, err := qp.Build(qd)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rows := collect(t, p)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows from view, got %d", len(rows))
	}
}
