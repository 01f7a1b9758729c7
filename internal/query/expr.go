package query

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/parse"
)

// EvalExpr evaluates e against the current row of s. Any operand that is
// NULL propagates NULL (spec §4.K "expression evaluation").
func EvalExpr(e parse.Expr, s Scan) (Value, error) {
	switch ex := e.(type) {
	case parse.I32Lit:
		return I32Value(ex.Val), nil
	case parse.StrLit:
		return StrValue(ex.Val), nil
	case parse.NullLit:
		return NullValue(), nil
	case parse.FieldRef:
		if !s.HasField(ex.Name) {
			return Value{}, dberrors.PlanError("unknown field %q", ex.Name)
		}
		return s.GetVal(ex.Name)
	case parse.BinaryExpr:
		return evalBinary(ex, s)
	default:
		return Value{}, dberrors.ExprError("unsupported expression %T", e)
	}
}

func evalBinary(ex parse.BinaryExpr, s Scan) (Value, error) {
	l, err := EvalExpr(ex.Left, s)
	if err != nil {
		return Value{}, err
	}
	r, err := EvalExpr(ex.Right, s)
	if err != nil {
		return Value{}, err
	}
	if l.IsNull() || r.IsNull() {
		return NullValue(), nil
	}
	if l.Kind != KindI32 || r.Kind != KindI32 {
		return Value{}, dberrors.ExprError("arithmetic requires I32 operands, got %v and %v", l.Kind, r.Kind)
	}
	switch ex.Op {
	case '+':
		return I32Value(l.I32 + r.I32), nil
	case '-':
		return I32Value(l.I32 - r.I32), nil
	case '*':
		return I32Value(l.I32 * r.I32), nil
	case '/':
		if r.I32 == 0 {
			return Value{}, dberrors.ExprError("division by zero")
		}
		return I32Value(l.I32 / r.I32), nil
	default:
		return Value{}, dberrors.ExprError("unsupported operator %c", ex.Op)
	}
}

// triState is the three-valued-logic result of a predicate term (spec
// §4.K "predicate evaluation"): TRUE, FALSE or UNKNOWN.
type triState int

const (
	triUnknown triState = iota
	triTrue
	triFalse
)

func evalTerm(t parse.Term, s Scan) (triState, error) {
	lhs, err := EvalExpr(t.Lhs, s)
	if err != nil {
		return triUnknown, err
	}
	if t.IsNull {
		if lhs.IsNull() {
			return triTrue, nil
		}
		return triFalse, nil
	}
	rhs, err := EvalExpr(t.Rhs, s)
	if err != nil {
		return triUnknown, err
	}
	if lhs.IsNull() || rhs.IsNull() {
		return triUnknown, nil
	}
	if lhs.Equals(rhs) {
		return triTrue, nil
	}
	return triFalse, nil
}

// EvalPredicate reports whether every term of pred is TRUE against the
// current row of s: any UNKNOWN or FALSE term excludes the row.
func EvalPredicate(pred *parse.Predicate, s Scan) (bool, error) {
	if pred == nil {
		return true, nil
	}
	for _, t := range pred.Terms {
		v, err := evalTerm(t, s)
		if err != nil {
			return false, err
		}
		if v != triTrue {
			return false, nil
		}
	}
	return true, nil
}

// EquatesWithConstant reports whether pred contains a term `field = <lit>`
// (in either operand order) and returns the matching literal, so the
// planner can choose an IndexSelectPlan (spec §4.K "IndexSelectScan").
func EquatesWithConstant(pred *parse.Predicate, field string) (Value, bool) {
	if pred == nil {
		return Value{}, false
	}
	for _, t := range pred.Terms {
		if t.IsNull {
			continue
		}
		if fr, ok := t.Lhs.(parse.FieldRef); ok && fr.Name == field {
			if v, ok := literalValue(t.Rhs); ok {
				return v, true
			}
		}
		if fr, ok := t.Rhs.(parse.FieldRef); ok && fr.Name == field {
			if v, ok := literalValue(t.Lhs); ok {
				return v, true
			}
		}
	}
	return Value{}, false
}

func literalValue(e parse.Expr) (Value, bool) {
	switch l := e.(type) {
	case parse.I32Lit:
		return I32Value(l.Val), true
	case parse.StrLit:
		return StrValue(l.Val), true
	default:
		return Value{}, false
	}
}
