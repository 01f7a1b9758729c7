package query

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/parse"
)

// ExtendField is one (expression, alias) pair an ExtendScan adds to the
// underlying row.
type ExtendField struct {
	Expr  parse.Expr
	Alias string
}

// ExtendScan augments the underlying row with one or more computed
// fields, evaluated lazily on every getter call (spec §4.K).
type ExtendScan struct {
	src    Scan
	fields []ExtendField
	byName map[string]parse.Expr
}

func NewExtendScan(src Scan, fields []ExtendField) *ExtendScan {
	byName := make(map[string]parse.Expr, len(fields))
	for _, f := range fields {
		byName[f.Alias] = f.Expr
	}
	return &ExtendScan{src: src, fields: fields, byName: byName}
}

func (e *ExtendScan) BeforeFirst() error  { return e.src.BeforeFirst() }
func (e *ExtendScan) Next() (bool, error) { return e.src.Next() }
func (e *ExtendScan) Close()              { e.src.Close() }

func (e *ExtendScan) Previous() (bool, error) {
	bidi, ok := e.src.(BidiScan)
	if !ok {
		return false, errNotBidi
	}
	return bidi.Previous()
}

func (e *ExtendScan) AfterLast() error {
	bidi, ok := e.src.(BidiScan)
	if !ok {
		return errNotBidi
	}
	return bidi.AfterLast()
}

func (e *ExtendScan) Absolute(n int) (bool, error) { return seekAbsolute(e, n) }

func (e *ExtendScan) HasField(f string) bool {
	if _, ok := e.byName[f]; ok {
		return true
	}
	return e.src.HasField(f)
}

func (e *ExtendScan) GetVal(f string) (Value, error) {
	if expr, ok := e.byName[f]; ok {
		return EvalExpr(expr, e.src)
	}
	return e.src.GetVal(f)
}

func (e *ExtendScan) IsNull(f string) (bool, error) {
	v, err := e.GetVal(f)
	if err != nil {
		return false, err
	}
	return v.IsNull(), nil
}

func (e *ExtendScan) GetI32(f string) (int32, error) {
	v, err := e.GetVal(f)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindI32 {
		return 0, dberrors.ExprError("field %q is not I32", f)
	}
	return v.I32, nil
}

func (e *ExtendScan) GetString(f string) (string, error) {
	v, err := e.GetVal(f)
	if err != nil {
		return "", err
	}
	if v.Kind != KindStr {
		return "", dberrors.ExprError("field %q is not VARCHAR", f)
	}
	return v.Str, nil
}
