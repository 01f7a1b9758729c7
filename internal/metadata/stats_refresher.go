package metadata

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flowlight0/simpledb-go/internal/tx"
)

// StatsRefresher recomputes every table's statistics on a cron schedule,
// each run in its own short-lived transaction, so long running
// connections see periodically refreshed statistics (spec §4.H "cached
// until invalidated").
type StatsRefresher struct {
	statMgr *StatManager
	cron    *cron.Cron
	newTx   func() (*tx.Transaction, error)
}

// NewStatsRefresher builds a refresher that invokes newTx to obtain a
// short-lived transaction for each scheduled recount, every interval.
func NewStatsRefresher(statMgr *StatManager, interval time.Duration, newTx func() (*tx.Transaction, error)) *StatsRefresher {
	spec := fmt.Sprintf("@every %s", interval)
	c := cron.New()
	r := &StatsRefresher{statMgr: statMgr, cron: c, newTx: newTx}
	if _, err := c.AddFunc(spec, r.refresh); err != nil {
		log.Printf("statsrefresher: invalid schedule %q: %v", spec, err)
	}
	return r
}

// Start begins the background cron loop.
func (r *StatsRefresher) Start() { r.cron.Start() }

// Stop halts the background cron loop and waits for any in-flight run.
func (r *StatsRefresher) Stop() { <-r.cron.Stop().Done() }

func (r *StatsRefresher) refresh() {
	txn, err := r.newTx()
	if err != nil {
		log.Printf("statsrefresher: cannot start transaction: %v", err)
		return
	}
	defer func() {
		if err := txn.Commit(); err != nil {
			log.Printf("statsrefresher: commit failed: %v", err)
		}
	}()
	if err := r.statMgr.refreshStatistics(txn); err != nil {
		log.Printf("statsrefresher: refresh failed: %v", err)
	}
}
