package query

import "github.com/flowlight0/simpledb-go/internal/metadata"

func valueToConstant(v Value) metadata.Constant {
	if v.Kind == KindStr {
		return metadata.StringConstant(v.Str)
	}
	return metadata.I32Constant(v.I32)
}

// IndexSelectScan restricts a table scan to the records whose indexed
// field equals a fixed search key, driven by a metadata.Index rather than
// a full table scan (spec §4.H, the planner's index-select alternative to
// SelectScan).
type IndexSelectScan struct {
	ts  *TableScan
	idx metadata.Index
	key metadata.Constant
}

func NewIndexSelectScan(ts *TableScan, idx metadata.Index, key metadata.Constant) (*IndexSelectScan, error) {
	s := &IndexSelectScan{ts: ts, idx: idx, key: key}
	if err := s.BeforeFirst(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *IndexSelectScan) BeforeFirst() error { return s.idx.BeforeFirst(s.key) }

func (s *IndexSelectScan) Next() (bool, error) {
	ok, err := s.idx.Next()
	if err != nil || !ok {
		return false, err
	}
	rid, err := s.idx.GetDataRID()
	if err != nil {
		return false, err
	}
	return true, s.ts.MoveToRID(rid)
}

func (s *IndexSelectScan) GetI32(f string) (int32, error)     { return s.ts.GetI32(f) }
func (s *IndexSelectScan) GetString(f string) (string, error) { return s.ts.GetString(f) }
func (s *IndexSelectScan) GetVal(f string) (Value, error)     { return s.ts.GetVal(f) }
func (s *IndexSelectScan) IsNull(f string) (bool, error)      { return s.ts.IsNull(f) }
func (s *IndexSelectScan) HasField(f string) bool             { return s.ts.HasField(f) }

func (s *IndexSelectScan) Close() {
	s.idx.Close()
	s.ts.Close()
}

// IndexJoinScan joins an outer scan to an indexed inner table: for each
// outer row, it looks up inner rows whose indexed join field equals the
// outer row's join field value (spec §4.H, the planner's index-join
// alternative to ProductScan+SelectScan).
type IndexJoinScan struct {
	outer     Scan
	idx       metadata.Index
	ts        *TableScan
	joinField string
}

func NewIndexJoinScan(outer Scan, idx metadata.Index, joinField string, ts *TableScan) (*IndexJoinScan, error) {
	s := &IndexJoinScan{outer: outer, idx: idx, ts: ts, joinField: joinField}
	if err := s.BeforeFirst(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *IndexJoinScan) BeforeFirst() error {
	if err := s.outer.BeforeFirst(); err != nil {
		return err
	}
	ok, err := s.outer.Next()
	if err != nil || !ok {
		return err
	}
	return s.resetIndex()
}

func (s *IndexJoinScan) resetIndex() error {
	v, err := s.outer.GetVal(s.joinField)
	if err != nil {
		return err
	}
	return s.idx.BeforeFirst(valueToConstant(v))
}

func (s *IndexJoinScan) Next() (bool, error) {
	for {
		ok, err := s.idx.Next()
		if err != nil {
			return false, err
		}
		if ok {
			rid, err := s.idx.GetDataRID()
			if err != nil {
				return false, err
			}
			if err := s.ts.MoveToRID(rid); err != nil {
				return false, err
			}
			return true, nil
		}
		hasMore, err := s.outer.Next()
		if err != nil || !hasMore {
			return false, err
		}
		if err := s.resetIndex(); err != nil {
			return false, err
		}
	}
}

func (s *IndexJoinScan) field1(f string) bool { return s.outer.HasField(f) }

func (s *IndexJoinScan) HasField(f string) bool { return s.outer.HasField(f) || s.ts.HasField(f) }

func (s *IndexJoinScan) pick(f string) Scan {
	if s.field1(f) {
		return s.outer
	}
	return s.ts
}

func (s *IndexJoinScan) GetI32(f string) (int32, error)     { return s.pick(f).GetI32(f) }
func (s *IndexJoinScan) GetString(f string) (string, error) { return s.pick(f).GetString(f) }
func (s *IndexJoinScan) GetVal(f string) (Value, error)     { return s.pick(f).GetVal(f) }
func (s *IndexJoinScan) IsNull(f string) (bool, error)      { return s.pick(f).IsNull(f) }

func (s *IndexJoinScan) Close() {
	s.idx.Close()
	s.ts.Close()
}
