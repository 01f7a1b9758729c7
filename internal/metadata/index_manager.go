package metadata

import (
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// IndexManager bootstraps and serves idxcat, the catalog of
// (index_name, table_name, field_name) triples (spec §4.H).
type IndexManager struct {
	tblMgr  *TableManager
	statMgr *StatManager
}

// NewIndexManager bootstraps idxcat when isNew.
func NewIndexManager(isNew bool, tblMgr *TableManager, statMgr *StatManager, txn *tx.Transaction) (*IndexManager, error) {
	im := &IndexManager{tblMgr: tblMgr, statMgr: statMgr}
	if isNew {
		schema := record.NewSchema()
		schema.AddVarcharField("indexname", MaxNameLength)
		schema.AddVarcharField("tablename", MaxNameLength)
		schema.AddVarcharField("fieldname", MaxNameLength)
		if err := tblMgr.CreateTable("idxcat", schema, txn); err != nil {
			return nil, err
		}
	}
	return im, nil
}

// CreateIndex records a new index over tblname.fldname as one idxcat row;
// the bucket layout is built when the index's IndexInfo is loaded.
func (im *IndexManager) CreateIndex(idxname, tblname, fldname string, txn *tx.Transaction) error {
	layout, err := im.tblMgr.Layout("idxcat", txn)
	if err != nil {
		return err
	}
	ts, err := record.NewTableScan(txn, "idxcat", layout)
	if err != nil {
		return err
	}
	defer ts.Close()
	if err := ts.Insert(); err != nil {
		return err
	}
	if err := ts.SetString("indexname", idxname); err != nil {
		return err
	}
	if err := ts.SetString("tablename", tblname); err != nil {
		return err
	}
	return ts.SetString("fieldname", fldname)
}

// IndexInfo describes one concrete index: enough to open it (Open) and
// to cost it in the planner (BlocksAccessed/RecordsOutput/DistinctValues).
type IndexInfo struct {
	idxName   string
	fieldName string
	txn       *tx.Transaction
	tblLayout *record.Layout
	idxLayout *record.Layout
	statInfo  StatInfo
}

func newIndexInfo(idxname, fldname string, tblLayout *record.Layout, txn *tx.Transaction, si StatInfo) *IndexInfo {
	schema := record.NewSchema()
	schema.AddI32Field("block")
	schema.AddI32Field("id")
	switch tblLayout.Schema().Type(fldname) {
	case record.I32:
		schema.AddI32Field("dataval")
	case record.Varchar:
		schema.AddVarcharField("dataval", tblLayout.Schema().Length(fldname))
	}
	return &IndexInfo{
		idxName:   idxname,
		fieldName: fldname,
		txn:       txn,
		tblLayout: tblLayout,
		idxLayout: record.NewLayout(schema),
		statInfo:  si,
	}
}

// Open returns a fresh HashIndex handle over this index's bucket tables.
func (ii *IndexInfo) Open() Index {
	return NewHashIndex(ii.txn, ii.idxName, ii.idxLayout)
}

// BlocksAccessed estimates the number of block accesses for one lookup.
func (ii *IndexInfo) BlocksAccessed() int {
	return searchCost(ii.statInfo.BlocksAccessed())
}

// RecordsOutput estimates the number of matching records per lookup.
func (ii *IndexInfo) RecordsOutput() int {
	return ii.statInfo.RecordsOutput() / ii.statInfo.DistinctValues(ii.fieldName)
}

// DistinctValues estimates the distinct-value count of fldname, reusing
// the underlying table's statistics.
func (ii *IndexInfo) DistinctValues(fldname string) int {
	if fldname == ii.fieldName {
		return 1
	}
	return ii.statInfo.DistinctValues(fldname)
}

// GetIndexInfo returns every index defined on tblname, keyed by field
// name.
func (im *IndexManager) GetIndexInfo(tblname string, txn *tx.Transaction) (map[string]*IndexInfo, error) {
	layout, err := im.tblMgr.Layout("idxcat", txn)
	if err != nil {
		return nil, err
	}
	ts, err := record.NewTableScan(txn, "idxcat", layout)
	if err != nil {
		return nil, err
	}
	defer ts.Close()

	result := make(map[string]*IndexInfo)
	for {
		ok, err := ts.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		tname, err := ts.GetString("tablename")
		if err != nil {
			return nil, err
		}
		if tname != tblname {
			continue
		}
		idxname, err := ts.GetString("indexname")
		if err != nil {
			return nil, err
		}
		fldname, err := ts.GetString("fieldname")
		if err != nil {
			return nil, err
		}
		tblLayout, err := im.tblMgr.Layout(tblname, txn)
		if err != nil {
			return nil, err
		}
		si, err := im.statMgr.GetStatInfo(tblname, tblLayout, txn)
		if err != nil {
			return nil, err
		}
		result[fldname] = newIndexInfo(idxname, fldname, tblLayout, txn, si)
	}
	return result, nil
}
