package query

import (
	"github.com/flowlight0/simpledb-go/internal/parse"
	"github.com/flowlight0/simpledb-go/internal/record"
)

// SelectScan filters an underlying scan by a predicate, positioning Next
// only on rows where every term evaluates TRUE (spec §4.K).
type SelectScan struct {
	src  Scan
	pred *parse.Predicate
}

func NewSelectScan(src Scan, pred *parse.Predicate) *SelectScan { return &SelectScan{src: src, pred: pred} }

func (s *SelectScan) BeforeFirst() error { return s.src.BeforeFirst() }

func (s *SelectScan) Next() (bool, error) {
	for {
		ok, err := s.src.Next()
		if err != nil || !ok {
			return false, err
		}
		match, err := EvalPredicate(s.pred, s.src)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (s *SelectScan) GetI32(f string) (int32, error)    { return s.src.GetI32(f) }
func (s *SelectScan) GetString(f string) (string, error) { return s.src.GetString(f) }
func (s *SelectScan) GetVal(f string) (Value, error)     { return s.src.GetVal(f) }
func (s *SelectScan) IsNull(f string) (bool, error)      { return s.src.IsNull(f) }
func (s *SelectScan) HasField(f string) bool             { return s.src.HasField(f) }
func (s *SelectScan) Close()                             { s.src.Close() }

// asUpdate exposes the underlying scan so the mutation methods below can
// forward to it when it is an UpdateScan.
func (s *SelectScan) asUpdate() (UpdateScan, bool) {
	u, ok := s.src.(UpdateScan)
	return u, ok
}

func (s *SelectScan) Previous() (bool, error) {
	bidi, ok := s.src.(BidiScan)
	if !ok {
		return false, errNotBidi
	}
	for {
		ok, err := bidi.Previous()
		if err != nil || !ok {
			return false, err
		}
		match, err := EvalPredicate(s.pred, s.src)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (s *SelectScan) AfterLast() error {
	bidi, ok := s.src.(BidiScan)
	if !ok {
		return errNotBidi
	}
	return bidi.AfterLast()
}

func (s *SelectScan) Absolute(n int) (bool, error) { return seekAbsolute(s, n) }

func (s *SelectScan) SetI32(f string, v int32) error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.SetI32(f, v)
}

func (s *SelectScan) SetString(f string, v string) error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.SetString(f, v)
}

func (s *SelectScan) SetVal(f string, v Value) error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.SetVal(f, v)
}

func (s *SelectScan) SetNull(f string) error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.SetNull(f)
}

func (s *SelectScan) Insert() error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.Insert()
}

func (s *SelectScan) Delete() error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.Delete()
}

func (s *SelectScan) CurrentRID() record.RID {
	u, ok := s.asUpdate()
	if !ok {
		return record.RID{}
	}
	return u.CurrentRID()
}

func (s *SelectScan) MoveToRID(rid record.RID) error {
	u, ok := s.asUpdate()
	if !ok {
		return errNotUpdatable
	}
	return u.MoveToRID(rid)
}
