package metadata

import "github.com/flowlight0/simpledb-go/internal/record"

// Constant is a typed index search key or indexed value: either an I32 or
// a string, mirroring the two field types a Schema allows.
type Constant struct {
	IsString bool
	I32Val   int32
	StrVal   string
}

// I32Constant builds an I32 search key.
func I32Constant(v int32) Constant { return Constant{I32Val: v} }

// StringConstant builds a VARCHAR search key.
func StringConstant(v string) Constant { return Constant{IsString: true, StrVal: v} }

// Equals compares two constants of the same kind.
func (c Constant) Equals(o Constant) bool {
	if c.IsString != o.IsString {
		return false
	}
	if c.IsString {
		return c.StrVal == o.StrVal
	}
	return c.I32Val == o.I32Val
}

// Index is implemented by every concrete index type (spec §4.H: "the
// core accepts at least one index type exposing before_first/next/
// get_data_rid/insert/delete").
type Index interface {
	// BeforeFirst positions the index before the first record having
	// search key searchKey.
	BeforeFirst(searchKey Constant) error
	// Next moves to the next index record matching the search key set by
	// BeforeFirst, returning false when exhausted.
	Next() (bool, error)
	// GetDataRID returns the data record's RID at the current index
	// record.
	GetDataRID() (record.RID, error)
	// Insert adds an index record mapping key to the data record dataRID.
	Insert(key Constant, dataRID record.RID) error
	// Delete removes the index record mapping key to dataRID.
	Delete(key Constant, dataRID record.RID) error
	// Close releases the index's resources.
	Close()
}
