// Package seed populates a freshly opened database with a small demo
// schema (spec §2 "demo seeding" external collaborator): a students/dept
// pair of tables, a view, and an index, in the same shape the teacher's
// cmd/catalog_demo uses to exercise its own catalog.
package seed

import (
	"fmt"
	"log"

	"github.com/flowlight0/simpledb-go"
)

// Statement groups are run in order: tables must exist before their rows,
// indexes and views must exist after the tables they reference.
var statements = []string{
	"create table dept (id i32, name varchar(20))",
	"create table students (id i32, name varchar(20), deptid i32, gradyear i32)",
	"create index idx_students_deptid on students (deptid)",
	"create view young_students as select id, name, deptid from students where gradyear = 2030",
}

var deptRows = []struct {
	id   int32
	name string
}{
	{1, "compsci"}, {2, "math"}, {3, "drama"},
}

var studentRows = []struct {
	id, deptid, gradyear int32
	name                 string
}{
	{1, 1, 2028, "joe"},
	{2, 1, 2030, "amy"},
	{3, 2, 2029, "max"},
	{4, 3, 2030, "sue"},
	{5, 2, 2031, "bob"},
}

// Seed runs the demo schema and its sample rows against stmt, logging
// each step the way cmd/catalog_demo narrates its own setup.
func Seed(stmt *simpledb.Statement) error {
	for _, s := range statements {
		if _, err := stmt.ExecuteUpdate(s); err != nil {
			return fmt.Errorf("seed: %q: %w", s, err)
		}
		log.Printf("seed: ran %q", s)
	}
	for _, d := range deptRows {
		sql := fmt.Sprintf("insert into dept (id, name) values (%d, '%s')", d.id, d.name)
		if _, err := stmt.ExecuteUpdate(sql); err != nil {
			return fmt.Errorf("seed: insert dept: %w", err)
		}
	}
	for _, s := range studentRows {
		sql := fmt.Sprintf("insert into students (id, name, deptid, gradyear) values (%d, '%s', %d, %d)",
			s.id, s.name, s.deptid, s.gradyear)
		if _, err := stmt.ExecuteUpdate(sql); err != nil {
			return fmt.Errorf("seed: insert student: %w", err)
		}
	}
	log.Printf("seed: inserted %d dept rows and %d student rows", len(deptRows), len(studentRows))
	return nil
}
