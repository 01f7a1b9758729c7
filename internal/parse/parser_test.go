package parse

import (
	"errors"
	"testing"

	"github.com/flowlight0/simpledb-go/internal/dberrors"
)

func TestParseSelectStar(t *testing.T) {
	p := NewParser("select * from students where gradyear = 2020")
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	q, ok := stmt.(*QueryData)
	if !ok {
		t.Fatalf("expected *QueryData, got %T", stmt)
	}
	if !q.Star {
		t.Fatalf("expected SELECT *")
	}
	if len(q.Tables) != 1 || q.Tables[0] != "students" {
		t.Fatalf("unexpected tables: %v", q.Tables)
	}
	if q.Pred == nil || len(q.Pred.Terms) != 1 {
		t.Fatalf("expected one predicate term, got %v", q.Pred)
	}
}

func TestParseSelectListWithAggAndAlias(t *testing.T) {
	p := NewParser("select sname, count(sid) as n from students group by sname order by sname")
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	q := stmt.(*QueryData)
	if len(q.Items) != 2 {
		t.Fatalf("expected 2 select items, got %d", len(q.Items))
	}
	if q.Items[1].Agg != AggCount || q.Items[1].AggField != "sid" || q.Items[1].Alias != "n" {
		t.Fatalf("unexpected aggregate item: %+v", q.Items[1])
	}
	if len(q.GroupBy) != 1 || q.GroupBy[0] != "sname" {
		t.Fatalf("unexpected group by: %v", q.GroupBy)
	}
	if len(q.OrderBy) != 1 || q.OrderBy[0] != "sname" {
		t.Fatalf("unexpected order by: %v", q.OrderBy)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	p := NewParser("select * from t where a = 1 + 2 * 3")
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	q := stmt.(*QueryData)
	rhs, ok := q.Pred.Terms[0].Rhs.(BinaryExpr)
	if !ok {
		t.Fatalf("expected BinaryExpr rhs, got %T", q.Pred.Terms[0].Rhs)
	}
	if rhs.Op != '+' {
		t.Fatalf("expected top-level '+', got %c", rhs.Op)
	}
	rightMul, ok := rhs.Right.(BinaryExpr)
	if !ok || rightMul.Op != '*' {
		t.Fatalf("expected '*' nested on the right, got %+v", rhs.Right)
	}
}

func TestParseInsert(t *testing.T) {
	p := NewParser("insert into students (sid, sname) values (1, 'joe')")
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	ins := stmt.(*InsertData)
	if ins.TableName != "students" || len(ins.Fields) != 2 || len(ins.Values) != 2 {
		t.Fatalf("unexpected insert data: %+v", ins)
	}
}

func TestParseDeleteAndModify(t *testing.T) {
	p := NewParser("delete from students where sid = 1")
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	del := stmt.(*DeleteData)
	if del.TableName != "students" || del.Pred == nil {
		t.Fatalf("unexpected delete data: %+v", del)
	}

	p2 := NewParser("modify students set gradyear = 2021 where sid = 1")
	stmt2, err := p2.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	mod := stmt2.(*ModifyData)
	if mod.TableName != "students" || mod.TargetField != "gradyear" || mod.Pred == nil {
		t.Fatalf("unexpected modify data: %+v", mod)
	}
}

func TestParseCreateTableViewIndex(t *testing.T) {
	p := NewParser("create table t (a I32, b VARCHAR(9))")
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	ct := stmt.(*CreateTableData)
	if ct.TableName != "t" || !ct.Schema.HasField("a") || !ct.Schema.HasField("b") {
		t.Fatalf("unexpected create table data: %+v", ct)
	}

	p2 := NewParser("create view v as select a from t")
	stmt2, err := p2.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	cv := stmt2.(*CreateViewData)
	if cv.ViewName != "v" || cv.QueryDef == nil {
		t.Fatalf("unexpected create view data: %+v", cv)
	}

	p3 := NewParser("create index idx_a on t(a)")
	stmt3, err := p3.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	ci := stmt3.(*CreateIndexData)
	if ci.IndexName != "idx_a" || ci.TableName != "t" || ci.FieldName != "a" {
		t.Fatalf("unexpected create index data: %+v", ci)
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	p := NewParser("select * fromm t")
	_, err := p.ParseStatement()
	if err == nil {
		t.Fatalf("expected parse error for malformed FROM clause")
	}
	// "fromm" starts at byte 9 of the input.
	var perr *dberrors.Error
	if !errors.As(err, &perr) || perr.Kind != dberrors.KindParse || perr.Pos != 9 {
		t.Fatalf("expected ParseError at position 9, got %v", err)
	}
}
