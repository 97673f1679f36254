package sqlitec

import (
	"errors"
	"fmt"
)

// Tx is a transaction opened on a connection. A Tx that is neither
// committed nor rolled back is finished by Close: it commits when created
// with autoCommit and rolls back otherwise.
type Tx struct {
	conn       *Conn
	mode       TxMode
	autoCommit bool
	done       bool
}

// BeginTx starts a transaction with the given mode.
//
// https://www.sqlite.org/lang_transaction.html
func (conn *Conn) BeginTx(mode TxMode, autoCommit bool) (*Tx, error) {
	if err := conn.Begin(mode); err != nil {
		return nil, err
	}
	return &Tx{conn: conn, mode: mode, autoCommit: autoCommit}, nil
}

// Mode returns the mode the transaction was started with.
func (tx *Tx) Mode() TxMode {
	return tx.mode
}

// Conn returns the connection the transaction runs on.
func (tx *Tx) Conn() *Conn {
	return tx.conn
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	if err := tx.conn.Commit(); err != nil {
		// A failed COMMIT may leave the transaction open, e.g. on SQLITE_BUSY.
		if tx.conn.AutoCommit() {
			tx.done = true
		}
		return err
	}
	tx.done = true
	return nil
}

// Rollback aborts the transaction. It is a no-op when SQLite already rolled
// the transaction back on its own after an error.
func (tx *Tx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	if tx.conn.AutoCommit() {
		return nil
	}
	return tx.conn.Rollback()
}

// Close finishes a transaction that is still open. Closing a finished
// transaction is a no-op.
func (tx *Tx) Close() error {
	if tx.done {
		return nil
	}
	if tx.autoCommit {
		if err := tx.Commit(); err != nil {
			if tx.done {
				return err
			}
			return errors.Join(err, tx.Rollback())
		}
		return nil
	}
	return tx.Rollback()
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (conn *Conn) WithTx(mode TxMode, fn func(tx *Tx) error) (err error) {
	tx, err := conn.BeginTx(mode, false)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil && !errors.Is(err, ErrTxDone) {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
