package parse

import "github.com/flowlight0/simpledb-go/internal/record"

// Expr is an arithmetic/literal/field-reference expression (spec §4.I
// "<expr>").
type Expr interface{ exprNode() }

// FieldRef is a bare identifier referring to a column.
type FieldRef struct{ Name string }

// I32Lit is an integer literal.
type I32Lit struct{ Val int32 }

// StrLit is a single-quoted string literal.
type StrLit struct{ Val string }

// NullLit is the literal NULL.
type NullLit struct{}

// BinaryExpr is left-associative arithmetic, `*`/`/` binding tighter than
// `+`/`-`.
type BinaryExpr struct {
	Op          byte // '+', '-', '*', '/'
	Left, Right Expr
}

func (FieldRef) exprNode()   {}
func (I32Lit) exprNode()     {}
func (StrLit) exprNode()     {}
func (NullLit) exprNode()    {}
func (BinaryExpr) exprNode() {}

// Term is one conjunct of a predicate: either an equality or an IS NULL
// check (spec §4.I "<pred>").
type Term struct {
	Lhs, Rhs Expr // Rhs is nil for IsNull terms
	IsNull   bool
}

// Predicate is an AND-list of terms; empty means "always true".
type Predicate struct {
	Terms []Term
}

// AggFunc is one of the five aggregate functions spec.md allows.
type AggFunc string

const (
	AggMax   AggFunc = "MAX"
	AggMin   AggFunc = "MIN"
	AggSum   AggFunc = "SUM"
	AggCount AggFunc = "COUNT"
	AggAvg   AggFunc = "AVG"
)

// SelectItem is one entry of a select list: either a plain expression or
// an aggregate call over one field, with an optional alias.
type SelectItem struct {
	Expr     Expr // nil when IsAgg
	IsAgg    bool
	Agg      AggFunc
	AggField string
	Alias    string // "" means no AS clause; the field's own name is used
}

// QueryData is a parsed SELECT statement (spec §4.I/§4.J).
type QueryData struct {
	Star     bool // SELECT *
	Items    []SelectItem
	Tables   []string
	Pred     *Predicate
	GroupBy  []string
	OrderBy  []string
}

// InsertData is a parsed INSERT statement.
type InsertData struct {
	TableName string
	Fields    []string
	Values    []Expr // literals only, per spec grammar
}

// DeleteData is a parsed DELETE statement.
type DeleteData struct {
	TableName string
	Pred      *Predicate
}

// ModifyData is a parsed MODIFY (UPDATE) statement.
type ModifyData struct {
	TableName   string
	TargetField string
	NewValue    Expr
	Pred        *Predicate
}

// CreateTableData is a parsed CREATE TABLE statement.
type CreateTableData struct {
	TableName string
	Schema    *record.Schema
}

// CreateViewData is a parsed CREATE VIEW statement.
type CreateViewData struct {
	ViewName string
	QueryDef *QueryData
	QuerySQL string // the verbatim SELECT text, stored in viewcat
}

// CreateIndexData is a parsed CREATE INDEX statement.
type CreateIndexData struct {
	IndexName string
	TableName string
	FieldName string
}
