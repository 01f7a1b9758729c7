package metadata

import (
	"sync"

	"github.com/flowlight0/simpledb-go/internal/record"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// refreshEvery is how many GetStatInfo calls are served from cache before
// a full recount, matching the classic "recompute occasionally" policy
// (spec §4.H "cached until invalidated").
const refreshEvery = 100

// StatInfo holds the three numbers the cost-based planner needs: table
// size and a per-query-call distinct-values estimate.
type StatInfo struct {
	NumBlocks int
	NumRecs   int
}

// BlocksAccessed is the number of blocks this table occupies.
func (si StatInfo) BlocksAccessed() int { return si.NumBlocks }

// RecordsOutput is the number of records in this table.
func (si StatInfo) RecordsOutput() int { return si.NumRecs }

// DistinctValues estimates the number of distinct values of fldname,
// using the textbook heuristic 1 + recordCount/3 (no histogram is kept).
func (si StatInfo) DistinctValues(fldname string) int {
	return 1 + si.NumRecs/3
}

// StatManager computes and caches StatInfo for every table by full scan,
// invalidating the whole cache every refreshEvery calls (spec §4.H).
type StatManager struct {
	tblMgr    *TableManager
	mu        sync.Mutex
	tablestat map[string]StatInfo
	numcalls  int
}

// NewStatManager performs the initial full-database scan to seed the
// cache.
func NewStatManager(tblMgr *TableManager, txn *tx.Transaction) (*StatManager, error) {
	sm := &StatManager{tblMgr: tblMgr, tablestat: make(map[string]StatInfo)}
	if err := sm.refreshStatistics(txn); err != nil {
		return nil, err
	}
	return sm, nil
}

// GetStatInfo returns tblname's cached statistics, recomputing the whole
// cache first if it has gone stale.
func (sm *StatManager) GetStatInfo(tblname string, layout *record.Layout, txn *tx.Transaction) (StatInfo, error) {
	sm.mu.Lock()
	sm.numcalls++
	stale := sm.numcalls > refreshEvery
	sm.mu.Unlock()

	if stale {
		if err := sm.refreshStatistics(txn); err != nil {
			return StatInfo{}, err
		}
	}

	sm.mu.Lock()
	si, ok := sm.tablestat[tblname]
	sm.mu.Unlock()
	if ok {
		return si, nil
	}
	si, err := sm.calcTableStats(tblname, layout, txn)
	if err != nil {
		return StatInfo{}, err
	}
	sm.mu.Lock()
	sm.tablestat[tblname] = si
	sm.mu.Unlock()
	return si, nil
}

// Invalidate forces the next GetStatInfo call to recompute everything,
// used after DML that changes row counts (insert/delete).
func (sm *StatManager) Invalidate() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.numcalls = refreshEvery + 1
}

func (sm *StatManager) refreshStatistics(txn *tx.Transaction) error {
	sm.mu.Lock()
	sm.numcalls = 0
	sm.mu.Unlock()

	tcatLayout, err := sm.tblMgr.Layout("tblcat", txn)
	if err != nil {
		return err
	}
	ts, err := record.NewTableScan(txn, "tblcat", tcatLayout)
	if err != nil {
		return err
	}
	defer ts.Close()

	fresh := make(map[string]StatInfo)
	for {
		ok, err := ts.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		tblname, err := ts.GetString("tblname")
		if err != nil {
			return err
		}
		layout, err := sm.tblMgr.Layout(tblname, txn)
		if err != nil {
			return err
		}
		si, err := sm.calcTableStats(tblname, layout, txn)
		if err != nil {
			return err
		}
		fresh[tblname] = si
	}

	sm.mu.Lock()
	sm.tablestat = fresh
	sm.mu.Unlock()
	return nil
}

func (sm *StatManager) calcTableStats(tblname string, layout *record.Layout, txn *tx.Transaction) (StatInfo, error) {
	ts, err := record.NewTableScan(txn, tblname, layout)
	if err != nil {
		return StatInfo{}, err
	}
	defer ts.Close()

	numRecs := 0
	numBlocks := 0
	for {
		ok, err := ts.Next()
		if err != nil {
			return StatInfo{}, err
		}
		if !ok {
			break
		}
		numRecs++
		numBlocks = ts.CurrentRID().BlockNum + 1
	}
	return StatInfo{NumBlocks: numBlocks, NumRecs: numRecs}, nil
}
