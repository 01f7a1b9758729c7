package record

import (
	"testing"
	"time"

	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/concurrency"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
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

func testLayout() *Layout {
	s := NewSchema()
	s.AddI32Field("id")
	s.AddVarcharField("name", 10)
	return NewLayout(s)
}

func TestTableScanInsertAndScan(t *testing.T) {
	txn := newTestTx(t)
	layout := testLayout()

	ts, err := NewTableScan(txn, "t1", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}

	const n = 50
	for i := 0; i < n; i++ {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("id", int32(i)); err != nil {
			t.Fatalf("SetI32: %v", err)
		}
		if err := ts.SetString("name", "rec"); err != nil {
			t.Fatalf("SetString: %v", err)
		}
	}

	if err := ts.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}
	count := 0
	seen := make(map[int32]bool)
	for {
		ok, err := ts.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		id, err := ts.GetI32("id")
		if err != nil {
			t.Fatalf("GetI32: %v", err)
		}
		seen[id] = true
		count++
	}
	if count != n {
		t.Fatalf("expected %d records, got %d", n, count)
	}
	for i := 0; i < n; i++ {
		if !seen[int32(i)] {
			t.Fatalf("missing record id=%d", i)
		}
	}
	ts.Close()

	if err := txn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestTableScanDeleteAndMoveToRID(t *testing.T) {
	txn := newTestTx(t)
	layout := testLayout()

	ts, err := NewTableScan(txn, "t2", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	var rids []RID
	for i := 0; i < 5; i++ {
		if err := ts.Insert(); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if err := ts.SetI32("id", int32(i)); err != nil {
			t.Fatalf("SetI32: %v", err)
		}
		rids = append(rids, ts.CurrentRID())
	}

	if err := ts.MoveToRID(rids[2]); err != nil {
		t.Fatalf("MoveToRID: %v", err)
	}
	id, err := ts.GetI32("id")
	if err != nil || id != 2 {
		t.Fatalf("expected id=2 at rids[2], got %d err=%v", id, err)
	}
	if err := ts.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := ts.BeforeFirst(); err != nil {
		t.Fatalf("BeforeFirst: %v", err)
	}
	remaining := 0
	for {
		ok, err := ts.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		remaining++
	}
	if remaining != 4 {
		t.Fatalf("expected 4 remaining records, got %d", remaining)
	}
	ts.Close()
}

func TestPageNullBitmap(t *testing.T) {
	txn := newTestTx(t)
	layout := testLayout()

	ts, err := NewTableScan(txn, "t3", layout)
	if err != nil {
		t.Fatalf("NewTableScan: %v", err)
	}
	if err := ts.Insert(); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	isNull, err := ts.IsNull("id")
	if err != nil {
		t.Fatalf("IsNull: %v", err)
	}
	if !isNull {
		t.Fatalf("expected freshly inserted field to be NULL")
	}
	if err := ts.SetI32("id", 7); err != nil {
		t.Fatalf("SetI32: %v", err)
	}
	isNull, err = ts.IsNull("id")
	if err != nil {
		t.Fatalf("IsNull: %v", err)
	}
	if isNull {
		t.Fatalf("expected field to be non-NULL after SetI32")
	}
	if err := ts.SetNull("id"); err != nil {
		t.Fatalf("SetNull: %v", err)
	}
	isNull, err = ts.IsNull("id")
	if err != nil {
		t.Fatalf("IsNull: %v", err)
	}
	if !isNull {
		t.Fatalf("expected field to be NULL after SetNull")
	}
	ts.Close()
}
