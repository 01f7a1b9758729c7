package query

import "github.com/flowlight0/simpledb-go/internal/dberrors"

// ProjectScan restricts visible fields to a fixed list, raising an error
// on unknown fields (spec §4.K).
type ProjectScan struct {
	src    Scan
	fields []string
	fieldSet map[string]bool
}

func NewProjectScan(src Scan, fields []string) *ProjectScan {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return &ProjectScan{src: src, fields: fields, fieldSet: set}
}

func (p *ProjectScan) BeforeFirst() error  { return p.src.BeforeFirst() }
func (p *ProjectScan) Next() (bool, error) { return p.src.Next() }
func (p *ProjectScan) HasField(f string) bool { return p.fieldSet[f] }
func (p *ProjectScan) Close()              { p.src.Close() }

func (p *ProjectScan) Previous() (bool, error) {
	bidi, ok := p.src.(BidiScan)
	if !ok {
		return false, errNotBidi
	}
	return bidi.Previous()
}

func (p *ProjectScan) AfterLast() error {
	bidi, ok := p.src.(BidiScan)
	if !ok {
		return errNotBidi
	}
	return bidi.AfterLast()
}

func (p *ProjectScan) Absolute(n int) (bool, error) { return seekAbsolute(p, n) }

func (p *ProjectScan) checkField(f string) error {
	if !p.fieldSet[f] {
		return dberrors.PlanError("field %q is not visible in this projection", f)
	}
	return nil
}

func (p *ProjectScan) GetI32(f string) (int32, error) {
	if err := p.checkField(f); err != nil {
		return 0, err
	}
	return p.src.GetI32(f)
}

func (p *ProjectScan) GetString(f string) (string, error) {
	if err := p.checkField(f); err != nil {
		return "", err
	}
	return p.src.GetString(f)
}

func (p *ProjectScan) GetVal(f string) (Value, error) {
	if err := p.checkField(f); err != nil {
		return Value{}, err
	}
	return p.src.GetVal(f)
}

func (p *ProjectScan) IsNull(f string) (bool, error) {
	if err := p.checkField(f); err != nil {
		return false, err
	}
	return p.src.IsNull(f)
}
