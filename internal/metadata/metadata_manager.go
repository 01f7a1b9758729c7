package metadata

import (
	"time"

	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// Manager is the single entry point callers use to reach every catalog
// concern: tables, views, indexes and statistics (spec §4.H).
type Manager struct {
	tbl   *TableManager
	view  *ViewManager
	stat  *StatManager
	index *IndexManager
}

// NewManager bootstraps tblcat/fldcat/viewcat/idxcat when isNew (a fresh
// database directory) and otherwise reads them back.
func NewManager(isNew bool, txn *tx.Transaction) (*Manager, error) {
	tblMgr, err := NewTableManager(isNew, txn)
	if err != nil {
		return nil, err
	}
	viewMgr, err := NewViewManager(isNew, tblMgr, txn)
	if err != nil {
		return nil, err
	}
	statMgr, err := NewStatManager(tblMgr, txn)
	if err != nil {
		return nil, err
	}
	indexMgr, err := NewIndexManager(isNew, tblMgr, statMgr, txn)
	if err != nil {
		return nil, err
	}
	return &Manager{tbl: tblMgr, view: viewMgr, stat: statMgr, index: indexMgr}, nil
}

// CreateTable delegates to the table manager and invalidates cached
// statistics, since a brand new table has no rows to scan yet but future
// inserts change tablestat's contents.
func (m *Manager) CreateTable(tblname string, schema *record.Schema, txn *tx.Transaction) error {
	if err := m.tbl.CreateTable(tblname, schema, txn); err != nil {
		return err
	}
	m.stat.Invalidate()
	return nil
}

// Layout returns tblname's layout.
func (m *Manager) Layout(tblname string, txn *tx.Transaction) (*record.Layout, error) {
	return m.tbl.Layout(tblname, txn)
}

// CreateView stores viewname's defining query.
func (m *Manager) CreateView(viewname, viewdef string, txn *tx.Transaction) error {
	return m.view.CreateView(viewname, viewdef, txn)
}

// ViewDef retrieves viewname's defining query.
func (m *Manager) ViewDef(viewname string, txn *tx.Transaction) (string, bool, error) {
	return m.view.ViewDef(viewname, txn)
}

// CreateIndex records a new index over tblname.fldname.
func (m *Manager) CreateIndex(idxname, tblname, fldname string, txn *tx.Transaction) error {
	return m.index.CreateIndex(idxname, tblname, fldname, txn)
}

// IndexInfo returns every index defined on tblname, keyed by field name.
func (m *Manager) IndexInfo(tblname string, txn *tx.Transaction) (map[string]*IndexInfo, error) {
	return m.index.GetIndexInfo(tblname, txn)
}

// StatInfo returns tblname's cached (or freshly computed) statistics.
func (m *Manager) StatInfo(tblname string, layout *record.Layout, txn *tx.Transaction) (StatInfo, error) {
	return m.stat.GetStatInfo(tblname, layout, txn)
}

// InvalidateStats forces the next StatInfo call to recompute every
// table's statistics, called after DML that changes row counts.
func (m *Manager) InvalidateStats() { m.stat.Invalidate() }

// NewStatsRefresher builds a background refresher bound to this
// manager's StatManager.
func (m *Manager) NewStatsRefresher(interval time.Duration, newTx func() (*tx.Transaction, error)) *StatsRefresher {
	return NewStatsRefresher(m.stat, interval, newTx)
}
