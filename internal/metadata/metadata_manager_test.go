package metadata

import (
	"testing"
	"time"

	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/concurrency"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
	"github.com/flowlight0/simpledb-go/internal/record"
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

func TestCreateTableAndLayoutRoundTrip(t *testing.T) {
	txn, isNew := newTestTx(t)
	mgr, err := NewManager(isNew, txn)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	schema := record.NewSchema()
	schema.AddI32Field("id")
	schema.AddVarcharField("name", 20)
	if err := mgr.CreateTable("students", schema, txn); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	layout, err := mgr.Layout("students", txn)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !layout.Schema().HasField("id") || !layout.Schema().HasField("name") {
		t.Fatalf("reconstructed schema missing fields: %v", layout.Schema())
	}
	if layout.Schema().Length("name") != 20 {
		t.Fatalf("expected name length 20, got %d", layout.Schema().Length("name"))
	}
}

func TestCreateViewRoundTrip(t *testing.T) {
	txn, isNew := newTestTx(t)
	mgr, err := NewManager(isNew, txn)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if err := mgr.CreateView("v1", "select id from students", txn); err != nil {
		t.Fatalf("CreateView: %v", err)
	}
	def, ok, err := mgr.ViewDef("v1", txn)
	if err != nil {
		t.Fatalf("ViewDef: %v", err)
	}
	if !ok || def != "select id from students" {
		t.Fatalf("unexpected view def: %q ok=%v", def, ok)
	}
	if _, ok, err := mgr.ViewDef("missing", txn); err != nil || ok {
		t.Fatalf("expected missing view to be absent, ok=%v err=%v", ok, err)
	}
}

func TestStatInfoReflectsInsertedRows(t *testing.T) {
	txn, isNew := newTestTx(t)
	mgr, err := NewManager(isNew, txn)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	schema := record.NewSchema()
	schema.AddI32Field("id")
	if err := mgr.CreateTable("nums", schema, txn); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	layout, err := mgr.Layout("nums", txn)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	ts, err := record.NewTableScan(txn, "nums", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("id", int32(i)); err != nil {
			t.Fatalf("SetI32: %v", err)
		}
	}
	ts.Close()
	mgr.InvalidateStats()

	si, err := mgr.StatInfo("nums", layout, txn)
	if err != nil {
		t.Fatalf("StatInfo: %v", err)
	}
	if si.RecordsOutput() != 10 {
		t.Fatalf("expected 10 records, got %d", si.RecordsOutput())
	}
}

func TestHashIndexInsertAndLookup(t *testing.T) {
	txn, isNew := newTestTx(t)
	mgr, err := NewManager(isNew, txn)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	schema := record.NewSchema()
	schema.AddI32Field("id")
	schema.AddVarcharField("name", 10)
	if err := mgr.CreateTable("students", schema, txn); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := mgr.CreateIndex("idx_id", "students", "id", txn); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	layout, err := mgr.Layout("students", txn)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	ts, err := record.NewTableScan(txn, "students", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}

	infos, err := mgr.IndexInfo("students", txn)
	if err != nil {
		t.Fatalf("IndexInfo: %v", err)
	}
	idx := infos["id"].Open()

	for i := 0; i < 20; i++ {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("id", int32(i)); err != nil {
			t.Fatalf("SetI32: %v", err)
		}
		if err := idx.Insert(I32Constant(int32(i)), ts.CurrentRID()); err != nil {
			t.Fatalf("idx.Insert: %v", err)
		}
	}
	ts.Close()

	if err := idx.BeforeFirst(I32Constant(7)); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}
	ok, err := idx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatalf("expected to find key 7 in the index")
	}
	rid, err := idx.GetDataRID()
	if err != nil {
		t.Fatalf("GetDataRID: %v", err)
	}

	ts2, err := record.NewTableScan(txn, "students", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	if err := ts2.MoveToRID(rid); err != nil {
		t.Fatalf("MoveToRID: %v", err)
	}
	id, err := ts2.GetI32("id")
	if err != nil {
		t.Fatalf("GetI32: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id=7 at indexed RID, got %d", id)
	}
	ts2.Close()
	idx.Close()
}
