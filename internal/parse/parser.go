package parse

import (
	"strconv"
	"strings"

	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/record"
)

// Parser holds the lexer and current/peek tokens for recursive-descent
// parsing over the grammar spec §4.I defines.
type Parser struct {
	lx  *lexer
	cur token
	pk  token
}

// NewParser builds a parser over sql.
func NewParser(sql string) *Parser {
	p := &Parser{lx: newLexer(sql)}
	p.cur = p.lx.nextToken()
	p.pk = p.lx.nextToken()
	return p
}

func (p *Parser) advance() { p.cur, p.pk = p.pk, p.lx.nextToken() }

func (p *Parser) errf(format string, a ...any) error {
	return dberrors.ParseError(p.cur.Pos, format, a...)
}

func (p *Parser) expectKeyword(kw string) error {
	if p.cur.Typ == tKeyword && p.cur.Val == kw {
		p.advance()
		return nil
	}
	return p.errf("expected keyword %q, got %q", kw, p.cur.Val)
}

func (p *Parser) expectSymbol(sym string) error {
	if p.cur.Typ == tSymbol && p.cur.Val == sym {
		p.advance()
		return nil
	}
	return p.errf("expected %q, got %q", sym, p.cur.Val)
}

func (p *Parser) isKeyword(kw string) bool { return p.cur.Typ == tKeyword && p.cur.Val == kw }
func (p *Parser) isSymbol(sym string) bool { return p.cur.Typ == tSymbol && p.cur.Val == sym }

// identifier consumes a bare identifier (table/field/alias name).
func (p *Parser) identifier() (string, error) {
	if p.cur.Typ != tIdent {
		return "", p.errf("expected identifier, got %q", p.cur.Val)
	}
	name := p.cur.Val
	p.advance()
	return name, nil
}

// ParseStatement dispatches on the leading keyword and returns one of
// *QueryData, *InsertData, *DeleteData, *ModifyData, *CreateTableData,
// *CreateViewData, or *CreateIndexData.
func (p *Parser) ParseStatement() (any, error) {
	switch {
	case p.isKeyword("SELECT"):
		return p.parseQuery()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("MODIFY"):
		return p.parseModify()
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	default:
		return nil, p.errf("unrecognized statement starting with %q", p.cur.Val)
	}
}

// --- SELECT ---------------------------------------------------------

func (p *Parser) parseQuery() (*QueryData, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q := &QueryData{}
	if p.isSymbol("*") {
		p.advance()
		q.Star = true
	} else {
		items, err := p.selectList()
		if err != nil {
			return nil, err
		}
		q.Items = items
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	tables, err := p.tableList()
	if err != nil {
		return nil, err
	}
	q.Tables = tables

	if p.isKeyword("WHERE") {
		p.advance()
		pred, err := p.predicate()
		if err != nil {
			return nil, err
		}
		q.Pred = pred
	}
	if p.isKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		fields, err := p.fieldList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = fields
	}
	if p.isKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		fields, err := p.fieldList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = fields
	}
	return q, nil
}

func (p *Parser) selectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.selectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

var aggByKeyword = map[string]AggFunc{
	"MAX": AggMax, "MIN": AggMin, "SUM": AggSum, "COUNT": AggCount, "AVG": AggAvg,
}

func (p *Parser) selectItem() (SelectItem, error) {
	if agg, ok := aggByKeyword[p.cur.Val]; ok && p.cur.Typ == tKeyword {
		p.advance()
		if err := p.expectSymbol("("); err != nil {
			return SelectItem{}, err
		}
		field, err := p.identifier()
		if err != nil {
			return SelectItem{}, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return SelectItem{}, err
		}
		alias, err := p.optionalAlias()
		if err != nil {
			return SelectItem{}, err
		}
		return SelectItem{IsAgg: true, Agg: agg, AggField: field, Alias: alias}, nil
	}
	expr, err := p.expr()
	if err != nil {
		return SelectItem{}, err
	}
	alias, err := p.optionalAlias()
	if err != nil {
		return SelectItem{}, err
	}
	return SelectItem{Expr: expr, Alias: alias}, nil
}

func (p *Parser) optionalAlias() (string, error) {
	if p.isKeyword("AS") {
		p.advance()
		return p.identifier()
	}
	return "", nil
}

func (p *Parser) tableList() ([]string, error) {
	var tables []string
	for {
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		tables = append(tables, name)
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	return tables, nil
}

func (p *Parser) fieldList() ([]string, error) {
	var fields []string
	for {
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		fields = append(fields, name)
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	return fields, nil
}

// --- predicates and expressions --------------------------------------

func (p *Parser) predicate() (*Predicate, error) {
	pred := &Predicate{}
	for {
		term, err := p.term()
		if err != nil {
			return nil, err
		}
		pred.Terms = append(pred.Terms, term)
		if p.isKeyword("AND") {
			p.advance()
			continue
		}
		break
	}
	return pred, nil
}

func (p *Parser) term() (Term, error) {
	lhs, err := p.expr()
	if err != nil {
		return Term{}, err
	}
	if p.isKeyword("IS") {
		p.advance()
		if err := p.expectKeyword("NULL"); err != nil {
			return Term{}, err
		}
		return Term{Lhs: lhs, IsNull: true}, nil
	}
	if err := p.expectSymbol("="); err != nil {
		return Term{}, err
	}
	rhs, err := p.expr()
	if err != nil {
		return Term{}, err
	}
	return Term{Lhs: lhs, Rhs: rhs}, nil
}

// expr parses left-associative `+`/`-` over terms that bind `*`/`/` tighter.
func (p *Parser) expr() (Expr, error) {
	left, err := p.term_()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("+") || p.isSymbol("-") {
		op := p.cur.Val[0]
		p.advance()
		right, err := p.term_()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) term_() (Expr, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.isSymbol("*") || p.isSymbol("/") {
		op := p.cur.Val[0]
		p.advance()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) factor() (Expr, error) {
	switch {
	case p.isSymbol("("):
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.cur.Typ == tNumber:
		v, err := strconv.ParseInt(p.cur.Val, 10, 32)
		if err != nil {
			return nil, p.errf("invalid integer literal %q", p.cur.Val)
		}
		p.advance()
		return I32Lit{Val: int32(v)}, nil
	case p.cur.Typ == tString:
		s := p.cur.Val
		p.advance()
		return StrLit{Val: s}, nil
	case p.isKeyword("NULL"):
		p.advance()
		return NullLit{}, nil
	case p.cur.Typ == tIdent:
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return FieldRef{Name: name}, nil
	default:
		return nil, p.errf("unexpected token %q in expression", p.cur.Val)
	}
}

// --- INSERT / DELETE / MODIFY ----------------------------------------

func (p *Parser) parseInsert() (*InsertData, error) {
	if err := p.expectKeyword("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	tbl, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	fields, err := p.fieldList()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var vals []Expr
	for {
		v, err := p.factor()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if len(fields) != len(vals) {
		return nil, p.errf("INSERT field count (%d) does not match value count (%d)", len(fields), len(vals))
	}
	return &InsertData{TableName: tbl, Fields: fields, Values: vals}, nil
}

func (p *Parser) parseDelete() (*DeleteData, error) {
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	tbl, err := p.identifier()
	if err != nil {
		return nil, err
	}
	d := &DeleteData{TableName: tbl}
	if p.isKeyword("WHERE") {
		p.advance()
		pred, err := p.predicate()
		if err != nil {
			return nil, err
		}
		d.Pred = pred
	}
	return d, nil
}

func (p *Parser) parseModify() (*ModifyData, error) {
	if err := p.expectKeyword("MODIFY"); err != nil {
		return nil, err
	}
	tbl, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	field, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	val, err := p.expr()
	if err != nil {
		return nil, err
	}
	m := &ModifyData{TableName: tbl, TargetField: field, NewValue: val}
	if p.isKeyword("WHERE") {
		p.advance()
		pred, err := p.predicate()
		if err != nil {
			return nil, err
		}
		m.Pred = pred
	}
	return m, nil
}

// --- CREATE TABLE / VIEW / INDEX --------------------------------------

func (p *Parser) parseCreate() (any, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	switch {
	case p.isKeyword("TABLE"):
		return p.parseCreateTable()
	case p.isKeyword("VIEW"):
		return p.parseCreateView()
	case p.isKeyword("INDEX"):
		return p.parseCreateIndex()
	default:
		return nil, p.errf("expected TABLE, VIEW or INDEX after CREATE, got %q", p.cur.Val)
	}
}

func (p *Parser) parseCreateTable() (*CreateTableData, error) {
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	tbl, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	schema := record.NewSchema()
	for {
		fldname, err := p.identifier()
		if err != nil {
			return nil, err
		}
		switch {
		case p.isKeyword("I32"):
			p.advance()
			schema.AddI32Field(fldname)
		case p.isKeyword("VARCHAR"):
			p.advance()
			if err := p.expectSymbol("("); err != nil {
				return nil, err
			}
			if p.cur.Typ != tNumber {
				return nil, p.errf("expected VARCHAR length, got %q", p.cur.Val)
			}
			n, err := strconv.Atoi(p.cur.Val)
			if err != nil {
				return nil, p.errf("invalid VARCHAR length %q", p.cur.Val)
			}
			p.advance()
			if err := p.expectSymbol(")"); err != nil {
				return nil, err
			}
			schema.AddVarcharField(fldname, n)
		default:
			return nil, p.errf("expected I32 or VARCHAR(n), got %q", p.cur.Val)
		}
		if p.isSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &CreateTableData{TableName: tbl, Schema: schema}, nil
}

func (p *Parser) parseCreateView() (*CreateViewData, error) {
	if err := p.expectKeyword("VIEW"); err != nil {
		return nil, err
	}
	view, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	start := p.cur.Pos
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	sql := strings.TrimSpace(p.lx.s[start:])
	return &CreateViewData{ViewName: view, QueryDef: q, QuerySQL: sql}, nil
}

func (p *Parser) parseCreateIndex() (*CreateIndexData, error) {
	if err := p.expectKeyword("INDEX"); err != nil {
		return nil, err
	}
	idx, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	tbl, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	fld, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &CreateIndexData{IndexName: idx, TableName: tbl, FieldName: fld}, nil
}
