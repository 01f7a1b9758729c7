package query

import (
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// RecordComparator orders two scans by a fixed list of sort fields,
// ascending, NULLs first (spec §4.K ORDER BY).
type RecordComparator struct {
	sortFields []string
}

func NewRecordComparator(sortFields []string) *RecordComparator {
	return &RecordComparator{sortFields: sortFields}
}

// Compare returns -1, 0, or 1 as s1 sorts before, equal to, or after s2.
func (c *RecordComparator) Compare(s1, s2 Scan) (int, error) {
	for _, fld := range c.sortFields {
		v1, err := s1.GetVal(fld)
		if err != nil {
			return 0, err
		}
		v2, err := s2.GetVal(fld)
		if err != nil {
			return 0, err
		}
		if v1.IsNull() && v2.IsNull() {
			continue
		}
		if v1.IsNull() {
			return -1, nil
		}
		if v2.IsNull() {
			return 1, nil
		}
		if v1.Less(v2) {
			return -1, nil
		}
		if v2.Less(v1) {
			return 1, nil
		}
	}
	return 0, nil
}

// NewSortScan materializes src's rows into sorted runs of temp tables, then
// repeatedly merges run pairs until at most two remain, returning a scan
// that merges those on the fly (spec §4.K, the textbook external
// merge-sort used for ORDER BY and as GroupByScan's input).
func NewSortScan(txn *tx.Transaction, src Scan, schema *record.Schema, sortFields []string) (*SortScan, error) {
	comp := NewRecordComparator(sortFields)
	runs, err := splitIntoRuns(txn, src, schema, comp)
	if err != nil {
		return nil, err
	}
	for len(runs) > 2 {
		runs, err = doAMergeIteration(txn, runs, schema, comp)
		if err != nil {
			return nil, err
		}
	}
	return newSortScan(runs, comp)
}

func copyRecord(src Scan, dest UpdateScan, schema *record.Schema) error {
	if err := dest.Insert(); err != nil {
		return err
	}
	for _, fld := range schema.Fields() {
		val, err := src.GetVal(fld)
		if err != nil {
			return err
		}
		if err := dest.SetVal(fld, val); err != nil {
			return err
		}
	}
	return nil
}

func splitIntoRuns(txn *tx.Transaction, src Scan, schema *record.Schema, comp *RecordComparator) ([]*TempTable, error) {
	if err := src.BeforeFirst(); err != nil {
		return nil, err
	}
	var runs []*TempTable
	hasMore, err := src.Next()
	if err != nil {
		return nil, err
	}
	if !hasMore {
		return runs, nil
	}

	currentTemp := NewTempTable(txn, schema)
	runs = append(runs, currentTemp)
	currentScan, err := currentTemp.Open()
	if err != nil {
		return nil, err
	}

	for hasMore {
		if err := copyRecord(src, currentScan, schema); err != nil {
			return nil, err
		}
		hasMore, err = src.Next()
		if err != nil {
			return nil, err
		}
		if !hasMore {
			break
		}
		cmp, err := comp.Compare(src, currentScan)
		if err != nil {
			return nil, err
		}
		if cmp < 0 {
			currentScan.Close()
			currentTemp = NewTempTable(txn, schema)
			runs = append(runs, currentTemp)
			currentScan, err = currentTemp.Open()
			if err != nil {
				return nil, err
			}
		}
	}
	currentScan.Close()
	return runs, nil
}

func doAMergeIteration(txn *tx.Transaction, runs []*TempTable, schema *record.Schema, comp *RecordComparator) ([]*TempTable, error) {
	var result []*TempTable
	for len(runs) > 1 {
		merged, err := mergeTwoRuns(txn, runs[0], runs[1], schema, comp)
		if err != nil {
			return nil, err
		}
		result = append(result, merged)
		runs = runs[2:]
	}
	if len(runs) == 1 {
		result = append(result, runs[0])
	}
	return result, nil
}

func mergeTwoRuns(txn *tx.Transaction, r1, r2 *TempTable, schema *record.Schema, comp *RecordComparator) (*TempTable, error) {
	src1, err := r1.Open()
	if err != nil {
		return nil, err
	}
	defer src1.Close()
	src2, err := r2.Open()
	if err != nil {
		return nil, err
	}
	defer src2.Close()

	dest := NewTempTable(txn, schema)
	destScan, err := dest.Open()
	if err != nil {
		return nil, err
	}
	defer destScan.Close()

	hasMore1, err := src1.Next()
	if err != nil {
		return nil, err
	}
	hasMore2, err := src2.Next()
	if err != nil {
		return nil, err
	}

	for hasMore1 && hasMore2 {
		cmp, err := comp.Compare(src1, src2)
		if err != nil {
			return nil, err
		}
		if cmp <= 0 {
			if err := copyRecord(src1, destScan, schema); err != nil {
				return nil, err
			}
			hasMore1, err = src1.Next()
			if err != nil {
				return nil, err
			}
		} else {
			if err := copyRecord(src2, destScan, schema); err != nil {
				return nil, err
			}
			hasMore2, err = src2.Next()
			if err != nil {
				return nil, err
			}
		}
	}
	for hasMore1 {
		if err := copyRecord(src1, destScan, schema); err != nil {
			return nil, err
		}
		hasMore1, err = src1.Next()
		if err != nil {
			return nil, err
		}
	}
	for hasMore2 {
		if err := copyRecord(src2, destScan, schema); err != nil {
			return nil, err
		}
		hasMore2, err = src2.Next()
		if err != nil {
			return nil, err
		}
	}

	if err := r1.Drop(); err != nil {
		return nil, err
	}
	if err := r2.Drop(); err != nil {
		return nil, err
	}
	return dest, nil
}

// SortScan merges the (at most two) final runs on the fly, presenting a
// single sorted Scan without materializing the merge result.
type SortScan struct {
	s1, s2   UpdateScan
	comp     *RecordComparator
	hasMore1 bool
	hasMore2 bool
	useS1    bool
	started  bool
	runs     []*TempTable
}

func newSortScan(runs []*TempTable, comp *RecordComparator) (*SortScan, error) {
	s := &SortScan{comp: comp, runs: runs}
	var err error
	s.s1, err = runs[0].Open()
	if err != nil {
		return nil, err
	}
	s.hasMore1, err = s.s1.Next()
	if err != nil {
		return nil, err
	}
	if len(runs) > 1 {
		s.s2, err = runs[1].Open()
		if err != nil {
			return nil, err
		}
		s.hasMore2, err = s.s2.Next()
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SortScan) BeforeFirst() error {
	s.useS1 = false
	s.started = false
	if err := s.s1.BeforeFirst(); err != nil {
		return err
	}
	var err error
	s.hasMore1, err = s.s1.Next()
	if err != nil {
		return err
	}
	if s.s2 != nil {
		if err := s.s2.BeforeFirst(); err != nil {
			return err
		}
		s.hasMore2, err = s.s2.Next()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SortScan) Next() (bool, error) {
	if !s.started {
		s.started = true
	} else if s.useS1 {
		var err error
		s.hasMore1, err = s.s1.Next()
		if err != nil {
			return false, err
		}
	} else if s.s2 != nil {
		var err error
		s.hasMore2, err = s.s2.Next()
		if err != nil {
			return false, err
		}
	}

	if !s.hasMore1 && !s.hasMore2 {
		return false, nil
	}
	if s.hasMore1 && s.hasMore2 {
		cmp, err := s.comp.Compare(s.s1, s.s2)
		if err != nil {
			return false, err
		}
		s.useS1 = cmp <= 0
	} else {
		s.useS1 = s.hasMore1
	}
	return true, nil
}

func (s *SortScan) active() Scan {
	if s.useS1 {
		return s.s1
	}
	return s.s2
}

func (s *SortScan) GetI32(f string) (int32, error)     { return s.active().GetI32(f) }
func (s *SortScan) GetString(f string) (string, error) { return s.active().GetString(f) }
func (s *SortScan) GetVal(f string) (Value, error)      { return s.active().GetVal(f) }
func (s *SortScan) IsNull(f string) (bool, error)       { return s.active().IsNull(f) }
func (s *SortScan) HasField(f string) bool              { return s.s1.HasField(f) }

// CurrentRID returns the RID of the active run's current record, within
// the temp table that currently backs it; the RID is not meaningful once
// the scan is closed and its runs are dropped.
func (s *SortScan) CurrentRID() record.RID { return s.active().(UpdateScan).CurrentRID() }

func (s *SortScan) Close() {
	s.s1.Close()
	if s.s2 != nil {
		s.s2.Close()
	}
	for _, r := range s.runs {
		_ = r.Drop()
	}
}
