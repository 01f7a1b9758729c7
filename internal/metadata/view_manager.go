package metadata

import (
	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// MaxViewDefLength bounds the stored SQL text of a view definition.
const MaxViewDefLength = 400

// ViewManager stores and retrieves view definitions: a view is just its
// original SELECT text, re-parsed by the planner on every reference
// (spec §4.H, §4.J).
type ViewManager struct {
	tblMgr *TableManager
}

// NewViewManager bootstraps viewcat when isNew.
func NewViewManager(isNew bool, tblMgr *TableManager, txn *tx.Transaction) (*ViewManager, error) {
	vm := &ViewManager{tblMgr: tblMgr}
	if isNew {
		schema := record.NewSchema()
		schema.AddVarcharField("viewname", MaxNameLength)
		schema.AddVarcharField("viewdef", MaxViewDefLength)
		if err := tblMgr.CreateTable("viewcat", schema, txn); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// CreateView records viewname's defining query text.
func (vm *ViewManager) CreateView(viewname, viewdef string, txn *tx.Transaction) error {
	layout, err := vm.tblMgr.Layout("viewcat", txn)
	if err != nil {
		return err
	}
	ts, err := record.NewTableScan(txn, "viewcat", layout)
	if err != nil {
		return err
	}
	defer ts.Close()
	if err := ts.Insert(); err != nil {
		return err
	}
	if err := ts.SetString("viewname", viewname); err != nil {
		return err
	}
	return ts.SetString("viewdef", viewdef)
}

// ViewDef returns viewname's stored defining query text, and false if no
// such view exists.
func (vm *ViewManager) ViewDef(viewname string, txn *tx.Transaction) (string, bool, error) {
	layout, err := vm.tblMgr.Layout("viewcat", txn)
	if err != nil {
		return "", false, err
	}
	ts, err := record.NewTableScan(txn, "viewcat", layout)
	if err != nil {
		return "", false, err
	}
	defer ts.Close()
	for {
		ok, err := ts.Next()
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		name, err := ts.GetString("viewname")
		if err != nil {
			return "", false, err
		}
		if name == viewname {
			def, err := ts.GetString("viewdef")
			if err != nil {
				return "", false, err
			}
			return def, true, nil
		}
	}
}
