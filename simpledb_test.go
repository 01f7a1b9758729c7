package simpledb

import "testing"

func TestDriverOpenCreatesDatabaseDirectory(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	stmt := conn.CreateStatement()
	if _, err := stmt.ExecuteUpdate("create table t (id i32, name varchar(10))"); err != nil {
		t.Fatalf("create table: %v", err)
	}
}

func TestEndToEndInsertSelectUpdateDelete(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	stmt := conn.CreateStatement()

	run := func(sql string) int {
		t.Helper()
		n, err := stmt.ExecuteUpdate(sql)
		if err != nil {
			t.Fatalf("ExecuteUpdate %q: %v", sql, err)
		}
		return n
	}

	run("create table users (id i32, name varchar(20))")
	run("insert into users (id, name) values (1, 'alice')")
	run("insert into users (id, name) values (2, 'bob')")

	rs, err := stmt.ExecuteQuery("select id, name from users where id = 1")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if rs.ColumnCount() != 2 {
		t.Fatalf("expected 2 columns, got %d", rs.ColumnCount())
	}
	ok, err := rs.Next()
	if err != nil || !ok {
		t.Fatalf("expected one row, Next()=%v err=%v", ok, err)
	}
	name, err := rs.GetString("name")
	if err != nil || name != "alice" {
		t.Fatalf("expected name=alice, got %q err=%v", name, err)
	}
	if ok, _ := rs.Next(); ok {
		t.Fatalf("expected exactly one row")
	}
	rs.Close()

	if n := run("modify users set name = 'carol' where id = 2"); n != 1 {
		t.Fatalf("expected 1 modified row, got %d", n)
	}
	if n := run("delete from users where id = 1"); n != 1 {
		t.Fatalf("expected 1 deleted row, got %d", n)
	}

	rs2, err := stmt.ExecuteQuery("select id, name from users")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	defer rs2.Close()
	count := 0
	for {
		ok, err := rs2.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
		id, err := rs2.GetI32("id")
		if err != nil || id != 2 {
			t.Fatalf("expected remaining row id=2, got %d err=%v", id, err)
		}
	}
	if count != 1 {
		t.Fatalf("expected 1 remaining row, got %d", count)
	}
}

func TestConnectionCommitKeepsConnectionUsable(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	stmt := conn.CreateStatement()

	if _, err := stmt.ExecuteUpdate("create table t (id i32)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := stmt.ExecuteUpdate("insert into t (id) values (1)"); err != nil {
		t.Fatalf("insert after commit: %v", err)
	}
}

func TestExplainRendersOperatorTree(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	stmt := conn.CreateStatement()

	if _, err := stmt.ExecuteUpdate("create table t (id i32)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	out, err := stmt.Explain("select id from t where id = 1")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if out == "" {
		t.Fatalf("expected non-empty explain output")
	}
}

func TestConnectionRollbackDiscardsUncommittedInsert(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	stmt := conn.CreateStatement()

	if _, err := stmt.ExecuteUpdate("create table t (id i32)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := stmt.ExecuteUpdate("insert into t (id) values (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := conn.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	rs, err := stmt.ExecuteQuery("select id from t")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	defer rs.Close()
	ok, err := rs.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok {
		t.Fatalf("expected no rows after rollback")
	}
}

func TestReopenAfterCrashRecoversCommittedDataOnly(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	stmt := conn.CreateStatement()
	if _, err := stmt.ExecuteUpdate("create table t (id i32)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := stmt.ExecuteUpdate("insert into t (id) values (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Leave a second insert uncommitted and simulate a crash by never
	// calling conn.Close/Rollback or d.Close on this transaction.
	if _, err := stmt.ExecuteUpdate("insert into t (id) values (2)"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Reopening runs recovery, which must undo the uncommitted insert
	// and leave the committed row intact.
	d2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d2.Close()

	conn2, err := d2.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn2.Close()
	stmt2 := conn2.CreateStatement()

	rs, err := stmt2.ExecuteQuery("select id from t")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	defer rs.Close()
	count := 0
	for {
		ok, err := rs.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
		id, err := rs.GetI32("id")
		if err != nil || id != 1 {
			t.Fatalf("expected only committed row id=1, got %d err=%v", id, err)
		}
	}
	if count != 1 {
		t.Fatalf("expected 1 row after recovery, got %d", count)
	}
}

func TestResultSetGetOnNullField(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	conn, err := d.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	stmt := conn.CreateStatement()

	if _, err := stmt.ExecuteUpdate("create table t (id i32, label varchar(5))"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := stmt.ExecuteUpdate("insert into t (id) values (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rs, err := stmt.ExecuteQuery("select id, label from t")
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	defer rs.Close()
	ok, err := rs.Next()
	if err != nil || !ok {
		t.Fatalf("expected one row")
	}
	if _, err := rs.GetString("label"); err != nil {
		t.Fatalf("GetString on null field: %v", err)
	}
	if !rs.WasNull() {
		t.Fatalf("expected WasNull() true after reading unset label")
	}
}
