// Package dberrors defines the tagged error kinds the engine surfaces to its
// callers (spec §7): IoError, BufferAbort, LockAbort, ParseError, PlanError,
// ExprError, SchemaError, TxAborted and NotFound. Every kind shares the one
// Error struct, tagged by its Kind, with one constructor per kind and
// sentinel values (ErrBufferAbort, ErrLockAbort, ErrTxAborted, ErrNotFound)
// for errors.Is comparisons.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories from spec §7.
type Kind int

const (
	KindIO Kind = iota
	KindBufferAbort
	KindLockAbort
	KindParse
	KindPlan
	KindExpr
	KindSchema
	KindTxAborted
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindBufferAbort:
		return "BufferAbort"
	case KindLockAbort:
		return "LockAbort"
	case KindParse:
		return "ParseError"
	case KindPlan:
		return "PlanError"
	case KindExpr:
		return "ExprError"
	case KindSchema:
		return "SchemaError"
	case KindTxAborted:
		return "TxAborted"
	case KindNotFound:
		return "NotFound"
	default:
		return "UnknownError"
	}
}

// Error is the tagged-sum error type returned by every engine layer.
type Error struct {
	Kind Kind
	Msg  string
	Pos  int // valid only for KindParse
	err  error
}

func (e *Error) Error() string {
	if e.Kind == KindParse {
		return fmt.Sprintf("%s at %d: %s", e.Kind, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, dberrors.ErrBufferAbort).
func (e *Error) Is(target error) bool {
	var o *Error
	if !errors.As(target, &o) {
		return false
	}
	return o.Kind == e.Kind
}

func newf(k Kind, cause error, format string, a ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, a...), err: cause}
}

// IoError wraps an underlying file/log I/O failure.
func IoError(cause error, format string, a ...any) *Error { return newf(KindIO, cause, format, a...) }

// BufferAbort reports the buffer pool could not pin a block within the
// buffer-wait timeout.
func BufferAbort(format string, a ...any) *Error { return newf(KindBufferAbort, nil, format, a...) }

// LockAbort reports the concurrency manager could not acquire a lock within
// the deadlock-avoidance timeout.
func LockAbort(format string, a ...any) *Error { return newf(KindLockAbort, nil, format, a...) }

// ParseError reports a syntactic error at byte offset pos.
func ParseError(pos int, format string, a ...any) *Error {
	e := newf(KindParse, nil, format, a...)
	e.Pos = pos
	return e
}

// PlanError reports an unknown table/field/view or a projection type
// mismatch discovered while planning a query.
func PlanError(format string, a ...any) *Error { return newf(KindPlan, nil, format, a...) }

// ExprError reports a runtime expression evaluation failure (division by
// zero, type mismatch in arithmetic).
func ExprError(format string, a ...any) *Error { return newf(KindExpr, nil, format, a...) }

// SchemaError reports a DDL conflict: table already exists, index on an
// unknown field, duplicate field name.
func SchemaError(format string, a ...any) *Error { return newf(KindSchema, nil, format, a...) }

// TxAborted is raised after a transaction has been rolled back, to inform
// callers that the transaction object is no longer usable.
func TxAborted(format string, a ...any) *Error { return newf(KindTxAborted, nil, format, a...) }

// NotFound reports a record id outside the table's bounds.
func NotFound(format string, a ...any) *Error { return newf(KindNotFound, nil, format, a...) }

// sentinels usable with errors.Is for bare kind checks.
var (
	ErrBufferAbort = &Error{Kind: KindBufferAbort}
	ErrLockAbort   = &Error{Kind: KindLockAbort}
	ErrTxAborted   = &Error{Kind: KindTxAborted}
	ErrNotFound    = &Error{Kind: KindNotFound}
)
