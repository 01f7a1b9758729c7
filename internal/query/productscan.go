package query

// ProductScan is a nested-loop Cartesian product: the left scan drives,
// the right scan re-opens (BeforeFirst) on every left advance (spec §4.K).
type ProductScan struct {
	s1, s2 Scan
}

func NewProductScan(s1, s2 Scan) (*ProductScan, error) {
	p := &ProductScan{s1: s1, s2: s2}
	if err := p.BeforeFirst(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ProductScan) BeforeFirst() error {
	if err := p.s1.BeforeFirst(); err != nil {
		return err
	}
	if _, err := p.s1.Next(); err != nil {
		return err
	}
	return p.s2.BeforeFirst()
}

func (p *ProductScan) Next() (bool, error) {
	ok, err := p.s2.Next()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	if err := p.s2.BeforeFirst(); err != nil {
		return false, err
	}
	ok2, err := p.s2.Next()
	if err != nil || !ok2 {
		return false, err
	}
	return p.s1.Next()
}

func (p *ProductScan) asBidi1() (BidiScan, bool) { b, ok := p.s1.(BidiScan); return b, ok }
func (p *ProductScan) asBidi2() (BidiScan, bool) { b, ok := p.s2.(BidiScan); return b, ok }

// AfterLast positions the scan so a following Previous lands on the last
// combination: s1 on its last row, s2 after its last row.
func (p *ProductScan) AfterLast() error {
	b1, ok1 := p.asBidi1()
	b2, ok2 := p.asBidi2()
	if !ok1 || !ok2 {
		return errNotBidi
	}
	if err := b1.AfterLast(); err != nil {
		return err
	}
	if _, err := b1.Previous(); err != nil {
		return err
	}
	return b2.AfterLast()
}

// Previous mirrors Next in reverse: the right side drives backward,
// resetting to its own last row and advancing the left side backward
// whenever it's exhausted.
func (p *ProductScan) Previous() (bool, error) {
	b2, ok2 := p.asBidi2()
	if !ok2 {
		return false, errNotBidi
	}
	ok, err := b2.Previous()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	if err := b2.AfterLast(); err != nil {
		return false, err
	}
	ok2b, err := b2.Previous()
	if err != nil || !ok2b {
		return false, err
	}
	b1, ok1 := p.asBidi1()
	if !ok1 {
		return false, errNotBidi
	}
	return b1.Previous()
}

func (p *ProductScan) Absolute(n int) (bool, error) { return seekAbsolute(p, n) }

func (p *ProductScan) field1(f string) bool { return p.s1.HasField(f) }

func (p *ProductScan) HasField(f string) bool { return p.s1.HasField(f) || p.s2.HasField(f) }

func (p *ProductScan) pick(f string) Scan {
	if p.field1(f) {
		return p.s1
	}
	return p.s2
}

func (p *ProductScan) GetI32(f string) (int32, error)    { return p.pick(f).GetI32(f) }
func (p *ProductScan) GetString(f string) (string, error) { return p.pick(f).GetString(f) }
func (p *ProductScan) GetVal(f string) (Value, error)     { return p.pick(f).GetVal(f) }
func (p *ProductScan) IsNull(f string) (bool, error)       { return p.pick(f).IsNull(f) }

func (p *ProductScan) Close() {
	p.s1.Close()
	p.s2.Close()
}
