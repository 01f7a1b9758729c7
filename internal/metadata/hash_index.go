package metadata

import (
	"fmt"

	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// numBuckets is the (fixed, non-extensible) bucket count of HashIndex.
// Each bucket is its own table file, so NewHashIndex never needs to
// rehash existing entries.
const numBuckets = 100

// HashIndex is a static hash index over one field of one table: every
// search key hashes to one of numBuckets bucket tables, each scanned
// linearly for matches (spec §4.H: "at least one index type").
type HashIndex struct {
	txn       *tx.Transaction
	idxname   string
	layout    *record.Layout
	searchKey Constant
	ts        *record.TableScan
}

// NewHashIndex opens a hash index named idxname over a field whose
// values are laid out per layout (a 3-field schema: "block" and "id" for
// the RID, plus "dataval").
func NewHashIndex(txn *tx.Transaction, idxname string, layout *record.Layout) *HashIndex {
	return &HashIndex{txn: txn, idxname: idxname, layout: layout}
}

func hashCode(c Constant) int {
	if c.IsString {
		h := 0
		for _, r := range c.StrVal {
			h = h*31 + int(r)
		}
		if h < 0 {
			h = -h
		}
		return h
	}
	v := int(c.I32Val)
	if v < 0 {
		v = -v
	}
	return v
}

func bucketTableName(idxname string, bucket int) string {
	return fmt.Sprintf("%s%d", idxname, bucket)
}

// BeforeFirst positions the scan at the start of searchKey's bucket.
func (idx *HashIndex) BeforeFirst(searchKey Constant) error {
	idx.Close()
	idx.searchKey = searchKey
	bucket := hashCode(searchKey) % numBuckets
	tbl := bucketTableName(idx.idxname, bucket)
	ts, err := record.NewTableScan(idx.txn, tbl, idx.layout)
	if err != nil {
		return err
	}
	idx.ts = ts
	return nil
}

// Next scans forward in the current bucket for the next matching key.
func (idx *HashIndex) Next() (bool, error) {
	for {
		ok, err := idx.ts.Next()
		if err != nil || !ok {
			return false, err
		}
		val, err := idx.getVal()
		if err != nil {
			return false, err
		}
		if val.Equals(idx.searchKey) {
			return true, nil
		}
	}
}

func (idx *HashIndex) getVal() (Constant, error) {
	if idx.searchKey.IsString {
		s, err := idx.ts.GetString("dataval")
		return StringConstant(s), err
	}
	v, err := idx.ts.GetI32("dataval")
	return I32Constant(v), err
}

// GetDataRID returns the data RID stored alongside the current matching
// key.
func (idx *HashIndex) GetDataRID() (record.RID, error) {
	blk, err := idx.ts.GetI32("block")
	if err != nil {
		return record.RID{}, err
	}
	id, err := idx.ts.GetI32("id")
	if err != nil {
		return record.RID{}, err
	}
	return record.NewRID(int(blk), int(id)), nil
}

// Insert adds a (key, dataRID) mapping to key's bucket.
func (idx *HashIndex) Insert(key Constant, dataRID record.RID) error {
	if err := idx.BeforeFirst(key); err != nil {
		return err
	}
	if err := idx.ts.Insert(); err != nil {
		return err
	}
	if err := idx.ts.SetI32("block", int32(dataRID.BlockNum)); err != nil {
		return err
	}
	if err := idx.ts.SetI32("id", int32(dataRID.Slot)); err != nil {
		return err
	}
	return idx.setVal(key)
}

func (idx *HashIndex) setVal(key Constant) error {
	if key.IsString {
		return idx.ts.SetString("dataval", key.StrVal)
	}
	return idx.ts.SetI32("dataval", key.I32Val)
}

// Delete removes the (key, dataRID) mapping from key's bucket.
func (idx *HashIndex) Delete(key Constant, dataRID record.RID) error {
	if err := idx.BeforeFirst(key); err != nil {
		return err
	}
	for {
		ok, err := idx.Next()
		if err != nil || !ok {
			return err
		}
		rid, err := idx.GetDataRID()
		if err != nil {
			return err
		}
		if rid == dataRID {
			return idx.ts.Delete()
		}
	}
}

// Close releases the current bucket scan.
func (idx *HashIndex) Close() {
	if idx.ts != nil {
		idx.ts.Close()
		idx.ts = nil
	}
}

// searchCost estimates the number of block accesses for a lookup: the
// table's blocks are assumed to distribute evenly across numBuckets
// bucket tables.
func searchCost(numBlocks int) int {
	if c := numBlocks / numBuckets; c > 0 {
		return c
	}
	return 1
}
