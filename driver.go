// Package simpledb is the embedded, JDBC-style façade over the engine
// (spec §4.L, §6): a Driver opens a database directory, Connections each
// own one Transaction, and Statements compile and run SQL text against
// the planner.
package simpledb

import (
	"sync"

	"github.com/flowlight0/simpledb-go/internal/buffer"
	"github.com/flowlight0/simpledb-go/internal/concurrency"
	"github.com/flowlight0/simpledb-go/internal/dbconfig"
	"github.com/flowlight0/simpledb-go/internal/file"
	"github.com/flowlight0/simpledb-go/internal/logmgr"
	"github.com/flowlight0/simpledb-go/internal/metadata"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// Driver owns the shared, process-wide engine state for one database
// directory: the file/log/buffer managers, the lock table, and the
// catalog. Connections multiplex a private Transaction each over this
// shared state.
type Driver struct {
	cfg       dbconfig.Config
	fm        *file.Manager
	lm        *logmgr.Manager
	bm        *buffer.Manager
	lt        *concurrency.LockTable
	gen       *tx.NumberGenerator
	mdm       *metadata.Manager
	refresher *metadata.StatsRefresher

	mu     sync.Mutex
	closed bool
}

// Open bootstraps (or reopens) the database directory at dir, running
// engine recovery and building the catalog the way the teacher's
// NewDatabase bootstraps its own in-memory engine. The returned Driver is
// safe for concurrent Connect calls.
func Open(dir string, opts ...dbconfig.Option) (*Driver, error) {
	cfg := dbconfig.New(opts...)

	fm, err := file.NewManager(dir, cfg.BlockSize)
	if err != nil {
		return nil, err
	}
	lm, err := logmgr.NewManager(fm, "simpledb.log")
	if err != nil {
		return nil, err
	}
	bm := buffer.NewManager(fm, lm, cfg.BufferPoolSize, cfg.BufferWaitTimeout)
	lt := concurrency.NewLockTable(cfg.LockTimeout)
	gen := tx.NewNumberGenerator()

	if err := tx.Recover(bm, lm); err != nil {
		return nil, err
	}

	bootTxn, err := tx.New(fm, bm, lt, lm, gen)
	if err != nil {
		return nil, err
	}
	mdm, err := metadata.NewManager(fm.IsNew(), bootTxn)
	if err != nil {
		return nil, err
	}
	if err := bootTxn.Commit(); err != nil {
		return nil, err
	}

	d := &Driver{cfg: cfg, fm: fm, lm: lm, bm: bm, lt: lt, gen: gen, mdm: mdm}
	d.refresher = mdm.NewStatsRefresher(cfg.StatsRefreshInterval, d.newRefreshTxn)
	d.refresher.Start()
	return d, nil
}

// newRefreshTxn gives the background StatsRefresher a fresh, short-lived
// transaction of its own (spec §4.H: statistics are recomputed under a
// transaction like any other catalog read).
func (d *Driver) newRefreshTxn() (*tx.Transaction, error) {
	return tx.New(d.fm, d.bm, d.lt, d.lm, d.gen)
}

// Connect opens a new Connection, each backed by its own Transaction, so
// concurrent Connections serialize through the shared lock table rather
// than through a single engine-wide mutex.
func (d *Driver) Connect() (*Connection, error) {
	txn, err := tx.New(d.fm, d.bm, d.lt, d.lm, d.gen)
	if err != nil {
		return nil, err
	}
	return &Connection{driver: d, txn: txn}, nil
}

// Close stops the background stats refresher. It does not close the
// underlying file manager: outstanding Connections may still be using it,
// and the teacher's own database object has no explicit shutdown either.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.refresher.Stop()
	return nil
}
