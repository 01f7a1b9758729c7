// Package metadata implements the system catalog (spec §4.H): the
// self-describing tblcat/fldcat tables, view definitions, the index
// catalog and at least one concrete index implementation, and cached
// table statistics.
package metadata

import (
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// MaxNameLength bounds VARCHAR columns that hold table/field/view/index
// names (spec §3 catalog tables: "tblname VARCHAR(50)").
const MaxNameLength = 50

// TableManager bootstraps and serves the tblcat/fldcat catalog tables,
// which describe every other table including themselves.
type TableManager struct {
	tblcatLayout *record.Layout
	fldcatLayout *record.Layout
}

// NewTableManager bootstraps tblcat/fldcat when isNew, otherwise just
// builds the in-memory layouts describing them (their own rows were
// written by a prior bootstrap and are read back like any other table).
func NewTableManager(isNew bool, txn *tx.Transaction) (*TableManager, error) {
	tblSchema := record.NewSchema()
	tblSchema.AddVarcharField("tblname", MaxNameLength)
	tblSchema.AddI32Field("slotsize")
	tblcatLayout := record.NewLayout(tblSchema)

	fldSchema := record.NewSchema()
	fldSchema.AddVarcharField("tblname", MaxNameLength)
	fldSchema.AddVarcharField("fldname", MaxNameLength)
	fldSchema.AddI32Field("type")
	fldSchema.AddI32Field("length")
	fldSchema.AddI32Field("offset")
	fldcatLayout := record.NewLayout(fldSchema)

	tm := &TableManager{tblcatLayout: tblcatLayout, fldcatLayout: fldcatLayout}
	if isNew {
		if err := tm.CreateTable("tblcat", tblSchema, txn); err != nil {
			return nil, err
		}
		if err := tm.CreateTable("fldcat", fldSchema, txn); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

// CreateTable writes one tblcat row and one fldcat row per field,
// recording the layout this call computes so a later Layout call
// reconstructs byte-identical offsets.
func (tm *TableManager) CreateTable(tblname string, schema *record.Schema, txn *tx.Transaction) error {
	layout := record.NewLayout(schema)

	ts, err := record.NewTableScan(txn, "tblcat", tm.tblcatLayout)
	if err != nil {
		return err
	}
	defer ts.Close()
	if err := ts.Insert(); err != nil {
		return err
	}
	if err := ts.SetString("tblname", tblname); err != nil {
		return err
	}
	if err := ts.SetI32("slotsize", int32(layout.SlotSize())); err != nil {
		return err
	}

	fs, err := record.NewTableScan(txn, "fldcat", tm.fldcatLayout)
	if err != nil {
		return err
	}
	defer fs.Close()
	for _, fldname := range schema.Fields() {
		if err := fs.Insert(); err != nil {
			return err
		}
		if err := fs.SetString("tblname", tblname); err != nil {
			return err
		}
		if err := fs.SetString("fldname", fldname); err != nil {
			return err
		}
		if err := fs.SetI32("type", int32(schema.Type(fldname))); err != nil {
			return err
		}
		if err := fs.SetI32("length", int32(schema.Length(fldname))); err != nil {
			return err
		}
		if err := fs.SetI32("offset", int32(layout.Offset(fldname))); err != nil {
			return err
		}
	}
	return nil
}

// Layout reads fldcat to reconstruct tblname's schema and offsets, and
// tblcat for its slot size, so a reopened database reproduces the exact
// layout CreateTable computed (spec §8 invariant "layout stability").
func (tm *TableManager) Layout(tblname string, txn *tx.Transaction) (*record.Layout, error) {
	slotsize := -1
	ts, err := record.NewTableScan(txn, "tblcat", tm.tblcatLayout)
	if err != nil {
		return nil, err
	}
	defer ts.Close()
	for {
		ok, err := ts.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		name, err := ts.GetString("tblname")
		if err != nil {
			return nil, err
		}
		if name == tblname {
			size, err := ts.GetI32("slotsize")
			if err != nil {
				return nil, err
			}
			slotsize = int(size)
			break
		}
	}

	schema := record.NewSchema()
	offsets := make(map[string]int)
	fs, err := record.NewTableScan(txn, "fldcat", tm.fldcatLayout)
	if err != nil {
		return nil, err
	}
	defer fs.Close()
	for {
		ok, err := fs.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		name, err := fs.GetString("tblname")
		if err != nil {
			return nil, err
		}
		if name != tblname {
			continue
		}
		fldname, err := fs.GetString("fldname")
		if err != nil {
			return nil, err
		}
		typ, err := fs.GetI32("type")
		if err != nil {
			return nil, err
		}
		length, err := fs.GetI32("length")
		if err != nil {
			return nil, err
		}
		offset, err := fs.GetI32("offset")
		if err != nil {
			return nil, err
		}
		offsets[fldname] = int(offset)
		schema.AddField(fldname, record.FieldInfo{Type: record.FieldType(typ), Length: int(length)})
	}
	return record.NewLayoutFromCatalog(schema, offsets, slotsize), nil
}
