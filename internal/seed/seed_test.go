package seed

import (
	"testing"

	simpledb "github.com/flowlight0/simpledb-go"
)

func TestSeedPopulatesDemoSchema(t *testing.T) {
	dir := t.TempDir()
	d, err := simpledb.Open(dir)
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

	if err := Seed(stmt); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	rs, err := stmt.ExecuteQuery("select id from students")
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
	}
	if count != len(studentRows) {
		t.Fatalf("expected %d students, got %d", len(studentRows), count)
	}

	rs2, err := stmt.ExecuteQuery("select id from young_students")
	if err != nil {
		t.Fatalf("ExecuteQuery view: %v", err)
	}
	defer rs2.Close()
	viewCount := 0
	for {
		ok, err := rs2.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		viewCount++
	}
	if viewCount != 2 {
		t.Fatalf("expected 2 rows from young_students view, got %d", viewCount)
	}
}
