package query

import (
	"testing"
	"time"

	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/concurrency"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

func newTestTx(t *testing.T) *tx.Transaction {
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
	return txn
}

func studentSchema() *record.Schema {
	s := record.NewSchema()
	s.AddI32Field("id")
	s.AddVarcharField("name", 10)
	return s
}

func populate(t *testing.T, ts UpdateScan, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("id", int32(i)); err != nil {
			t.Fatalf("SetI32: %v", err)
		}
		if err := ts.SetString("name", "s"); err != nil {
			t.Fatalf("SetString: %v", err)
		}
	}
}

func TestSelectScanFiltersRows(t *testing.T) {
	txn := newTestTx(t)
	layout := record.NewLayout(studentSchema())
	ts, err := NewTableScan(txn, "students", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	populate(t, ts, 10)

	pred := &parse.Predicate{Terms: []parse.Term{{
		Lhs: parse.FieldRef{Name: "id"},
		Rhs: parse.I32Lit{Val: 5},
	}}}
	sel := NewSelectScan(ts, pred)
	if err := sel.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}
	count := 0
	for {
		ok, err := sel.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
		id, err := sel.GetI32("id")
		if err != nil || id != 5 {
			t.Fatalf("expected id=5, got %d err=%v", id, err)
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one match, got %d", count)
	}
	sel.Close()
}

func TestProjectScanHidesFields(t *testing.T) {
	txn := newTestTx(t)
	layout := record.NewLayout(studentSchema())
	ts, err := NewTableScan(txn, "students", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	populate(t, ts, 3)
	if err := ts.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}

	proj := NewProjectScan(ts, []string{"id"})
	if proj.HasField("name") {
		t.Fatalf("expected name to be hidden by projection")
	}
	if _, err := proj.GetString("name"); err == nil {
		t.Fatalf("expected error reading projected-out field")
	}
	proj.Close()
}

func TestProductScanCrossesBothSides(t *testing.T) {
	txn := newTestTx(t)
	layoutA := record.NewLayout(studentSchema())
	a, err := NewTableScan(txn, "a", layoutA)
	if err != nil {
		t.Fatalf("NewTableScan a: %v", err)
	}
	populate(t, a, 3)
	if err := a.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst a: %v", err)
	}

	layoutB := record.NewLayout(studentSchema())
	b, err := NewTableScan(txn, "b", layoutB)
	if err != nil {
		t.Fatalf("NewTableScan b: %v", err)
	}
	populate(t, b, 2)
	if err := b.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst b: %v", err)
	}

	prod, err := NewProductScan(a, b)
	if err != nil {
		t.Fatalf("NewProductScan: %v", err)
	}
	count := 0
	for {
		ok, err := prod.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 6 {
		t.Fatalf("expected 3*2=6 rows, got %d", count)
	}
	prod.Close()
}

func TestExtendScanComputesField(t *testing.T) {
	txn := newTestTx(t)
	layout := record.NewLayout(studentSchema())
	ts, err := NewTableScan(txn, "students", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	populate(t, ts, 1)
	if err := ts.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}

	ext := NewExtendScan(ts, []ExtendField{{
		Expr:  parse.BinaryExpr{Op: '+', Left: parse.FieldRef{Name: "id"}, Right: parse.I32Lit{Val: 100}},
		Alias: "idplus100",
	}})
	ok, err := ext.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	v, err := ext.GetI32("idplus100")
	if err != nil {
		t.Fatalf("GetI32: %v", err)
	}
	if v != 100 {
		t.Fatalf("expected 100, got %d", v)
	}
	ext.Close()
}

func TestSortScanOrdersAscending(t *testing.T) {
	txn := newTestTx(t)
	layout := record.NewLayout(studentSchema())
	ts, err := NewTableScan(txn, "unsorted", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	ids := []int32{5, 1, 4, 2, 3}
	for _, id := range ids {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("id", id); err != nil {
			t.Fatalf("SetI32: %v", err)
		}
	}
	if err := ts.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}

	sorted, err := NewSortScan(txn, ts, studentSchema(), []string{"id"})
	if err != nil {
		t.Fatalf("NewSortScan: %v", err)
	}
	var got []int32
	for {
		ok, err := sorted.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		id, err := sorted.GetI32("id")
		if err != nil {
			t.Fatalf("GetI32: %v", err)
		}
		got = append(got, id)
	}
	want := []int32{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted order %v, got %v", want, got)
		}
	}
	sorted.Close()
}

func TestGroupByScanAggregates(t *testing.T) {
	txn := newTestTx(t)
	schema := record.NewSchema()
	schema.AddI32Field("dept")
	schema.AddI32Field("salary")
	layout := record.NewLayout(schema)
	ts, err := NewTableScan(txn, "emps", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	rows := []struct{ dept, salary int32 }{
		{1, 10}, {1, 20}, {2, 5}, {2, 15}, {2, 25},
	}
	for _, r := range rows {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("dept", r.dept); err != nil {
			t.Fatalf("SetI32 dept: %v", err)
		}
		if err := ts.SetI32("salary", r.salary); err != nil {
			t.Fatalf("SetI32 salary: %v", err)
		}
	}
	if err := ts.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}

	sorted, err := NewSortScan(txn, ts, schema, []string{"dept"})
	if err != nil {
		t.Fatalf("NewSortScan: %v", err)
	}

	gbs := NewGroupByScan(sorted, []string{"dept"}, []AggregationFn{
		NewCountFn("salary", "countofsalary"),
		NewSumFn("salary", "sumofsalary"),
	})
	if err := gbs.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}

	results := map[int32]struct {
		count int32
		sum   int32
	}{}
	for {
		ok, err := gbs.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		dept, err := gbs.GetI32("dept")
		if err != nil {
			t.Fatalf("GetI32 dept: %v", err)
		}
		count, err := gbs.GetI32("countofsalary")
		if err != nil {
			t.Fatalf("GetI32 count: %v", err)
		}
		sum, err := gbs.GetI32("sumofsalary")
		if err != nil {
			t.Fatalf("GetI32 sum: %v", err)
		}
		results[dept] = struct {
			count int32
			sum   int32
		}{count, sum}
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(results))
	}
	if results[1].count != 2 || results[1].sum != 30 {
		t.Fatalf("dept 1: expected count=2 sum=30, got %+v", results[1])
	}
	if results[2].count != 3 || results[2].sum != 45 {
		t.Fatalf("dept 2: expected count=3 sum=45, got %+v", results[2])
	}
	gbs.Close()
}

func TestTableScanBidirectionalMovement(t *testing.T) {
	txn := newTestTx(t)
	layout := record.NewLayout(studentSchema())
	ts, err := NewTableScan(txn, "bidi", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	populate(t, ts, 5)

	ok, err := ts.Absolute(2)
	if err != nil || !ok {
		t.Fatalf("Absolute(2): ok=%v err=%v", ok, err)
	}
	id, err := ts.GetI32("id")
	if err != nil || id != 2 {
		t.Fatalf("expected id=2 at absolute(2), got %d err=%v", id, err)
	}

	if err := ts.AfterLast(); err != nil {
		t.Fatalf("AfterLast: %v", err)
	}
	var seen []int32
	for {
		ok, err := ts.Previous()
		if err != nil {
			t.Fatalf("Previous: %v", err)
		}
		if !ok {
			break
		}
		id, err := ts.GetI32("id")
		if err != nil {
			t.Fatalf("GetI32: %v", err)
		}
		seen = append(seen, id)
	}
	want := []int32{4, 3, 2, 1, 0}
	if len(seen) != len(want) {
		t.Fatalf("expected %d rows walking backward, got %d (%v)", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected reverse order %v, got %v", want, seen)
		}
	}
	ts.Close()
}

func TestSelectScanPreviousSkipsNonMatches(t *testing.T) {
	txn := newTestTx(t)
	layout := record.NewLayout(studentSchema())
	ts, err := NewTableScan(txn, "bidi_select", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	populate(t, ts, 10)

	pred := &parse.Predicate{Terms: []parse.Term{{
		Lhs: parse.FieldRef{Name: "id"},
		Rhs: parse.I32Lit{Val: 7},
	}}}
	sel := NewSelectScan(ts, pred)
	if err := sel.AfterLast(); err != nil {
		t.Fatalf("AfterLast: %v", err)
	}
	ok, err := sel.Previous()
	if err != nil || !ok {
		t.Fatalf("Previous: ok=%v err=%v", ok, err)
	}
	id, err := sel.GetI32("id")
	if err != nil || id != 7 {
		t.Fatalf("expected id=7, got %d err=%v", id, err)
	}
	ok, err = sel.Previous()
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if ok {
		t.Fatalf("expected no further matches walking backward")
	}
	sel.Close()
}

func TestTempTableDropRemovesFile(t *testing.T) {
	txn := newTestTx(t)
	tmp := NewTempTable(txn, studentSchema())
	scan, err := tmp.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := scan.Insert(); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	scan.Close()
	if err := tmp.Drop(); err != nil {
		t.Fatalf("Drop: %v", err)
	}
}
