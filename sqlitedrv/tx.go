package sqlitedrv

import (
	"database/sql/driver"
	"errors"
)

var _ driver.Tx = (*Tx)(nil)

// Tx implements the database/sql/driver.Tx interface
type Tx struct {
	conn     *Conn
	readOnly bool
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	err := tx.conn.raw.Commit()
	return errors.Join(tx.conn.mapErr(err), tx.finish())
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	var err error
	if tx.conn.raw.InTransaction() {
		err = tx.conn.raw.Rollback()
	}
	return errors.Join(tx.conn.mapErr(err), tx.finish())
}

func (tx *Tx) finish() error {
	if !tx.readOnly || tx.conn.raw.InTransaction() {
		return nil
	}
	return tx.conn.raw.Exec("PRAGMA query_only = 0")
}
