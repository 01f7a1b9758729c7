package simpledb

import (
	"github.com/flowlight0/simpledb-go/internal/dberrors"
	"github.com/flowlight0/simpledb-go/internal/tx"
)

// Connection wraps one Transaction and the statements run against it.
// Like the SimpleDB textbook's own JDBC driver, a Connection has no
// explicit begin/commit-per-statement semantics: every Statement shares
// the Connection's single Transaction until Commit or Rollback starts a
// fresh one.
type Connection struct {
	driver *Driver
	txn    *tx.Transaction
	closed bool
}

// CreateStatement returns a Statement bound to this Connection's current
// transaction.
func (c *Connection) CreateStatement() *Statement {
	return &Statement{conn: c}
}

// Commit commits the current transaction and starts a new one, so the
// Connection remains usable afterward.
func (c *Connection) Commit() error {
	if c.closed {
		return dberrors.TxAborted("connection is closed")
	}
	if err := c.txn.Commit(); err != nil {
		return err
	}
	return c.renewTxn()
}

// Rollback aborts the current transaction and starts a new one.
func (c *Connection) Rollback() error {
	if c.closed {
		return dberrors.TxAborted("connection is closed")
	}
	if err := c.txn.Rollback(); err != nil {
		return err
	}
	return c.renewTxn()
}

func (c *Connection) renewTxn() error {
	txn, err := tx.New(c.driver.fm, c.driver.bm, c.driver.lt, c.driver.lm, c.driver.gen)
	if err != nil {
		return err
	}
	c.txn = txn
	return nil
}

// Close commits the current transaction, matching the SimpleDB textbook
// convention that a Connection always leaves its work durable unless the
// caller explicitly rolled back first.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.txn.Commit()
}
