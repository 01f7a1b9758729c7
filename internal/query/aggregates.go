package query

// AggregationFn accumulates one aggregate value across a run of scan rows
// that share a group key (spec §4.K MAX/MIN/SUM/COUNT/AVG). NULL input
// values are ignored by every function; COUNT counts only non-NULL values.
type AggregationFn interface {
	// ProcessFirst starts a new group from the scan's current row.
	ProcessFirst(s Scan) error
	// ProcessNext folds another row of the same group into the running
	// value.
	ProcessNext(s Scan) error
	// FieldName is the output column name, e.g. "count_id" or an
	// explicit alias.
	FieldName() string
	// Value returns the finished aggregate. NULL if every input row in
	// the group was NULL (SUM/AVG/MAX/MIN) or the group was empty.
	Value() Value
}

type CountFn struct {
	fld   string
	alias string
	count int32
}

func NewCountFn(fld, alias string) *CountFn { return &CountFn{fld: fld, alias: alias} }

func (f *CountFn) ProcessFirst(s Scan) error {
	f.count = 0
	return f.ProcessNext(s)
}

func (f *CountFn) ProcessNext(s Scan) error {
	null, err := s.IsNull(f.fld)
	if err != nil {
		return err
	}
	if !null {
		f.count++
	}
	return nil
}

func (f *CountFn) FieldName() string { return f.alias }
func (f *CountFn) Value() Value      { return I32Value(f.count) }

type SumFn struct {
	fld   string
	alias string
	sum   int32
	any   bool
}

func NewSumFn(fld, alias string) *SumFn { return &SumFn{fld: fld, alias: alias} }

func (f *SumFn) ProcessFirst(s Scan) error {
	f.sum, f.any = 0, false
	return f.ProcessNext(s)
}

func (f *SumFn) ProcessNext(s Scan) error {
	v, err := s.GetVal(f.fld)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	f.sum += v.I32
	f.any = true
	return nil
}

func (f *SumFn) FieldName() string { return f.alias }
func (f *SumFn) Value() Value {
	if !f.any {
		return NullValue()
	}
	return I32Value(f.sum)
}

type AvgFn struct {
	fld    string
	alias  string
	sum    int32
	count  int32
}

func NewAvgFn(fld, alias string) *AvgFn { return &AvgFn{fld: fld, alias: alias} }

func (f *AvgFn) ProcessFirst(s Scan) error {
	f.sum, f.count = 0, 0
	return f.ProcessNext(s)
}

func (f *AvgFn) ProcessNext(s Scan) error {
	v, err := s.GetVal(f.fld)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	f.sum += v.I32
	f.count++
	return nil
}

func (f *AvgFn) FieldName() string { return f.alias }
func (f *AvgFn) Value() Value {
	if f.count == 0 {
		return NullValue()
	}
	return I32Value(f.sum / f.count)
}

type MaxFn struct {
	fld   string
	alias string
	val   Value
}

func NewMaxFn(fld, alias string) *MaxFn { return &MaxFn{fld: fld, alias: alias} }

func (f *MaxFn) ProcessFirst(s Scan) error {
	f.val = NullValue()
	return f.ProcessNext(s)
}

func (f *MaxFn) ProcessNext(s Scan) error {
	v, err := s.GetVal(f.fld)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	if f.val.IsNull() || f.val.Less(v) {
		f.val = v
	}
	return nil
}

func (f *MaxFn) FieldName() string { return f.alias }
func (f *MaxFn) Value() Value      { return f.val }

type MinFn struct {
	fld   string
	alias string
	val   Value
}

func NewMinFn(fld, alias string) *MinFn { return &MinFn{fld: fld, alias: alias} }

func (f *MinFn) ProcessFirst(s Scan) error {
	f.val = NullValue()
	return f.ProcessNext(s)
}

func (f *MinFn) ProcessNext(s Scan) error {
	v, err := s.GetVal(f.fld)
	if err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	if f.val.IsNull() || v.Less(f.val) {
		f.val = v
	}
	return nil
}

func (f *MinFn) FieldName() string { return f.alias }
func (f *MinFn) Value() Value      { return f.val }
