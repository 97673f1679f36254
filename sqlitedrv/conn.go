package sqlitedrv

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/sqlitec"
)

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
	_ driver.SessionResetter    = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
)

// Conn implements the database/sql/driver.Conn interface
type Conn struct {
	raw       *sqlitec.Conn
	connector *Connector
}

// RawConn returns the underlying SQLite C API connection
func (conn *Conn) RawConn() *sqlitec.Conn {
	return conn.raw
}

// Close closes the connection to the SQLite database
func (conn *Conn) Close() error {
	if err := conn.raw.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	conn.connector.logger.Debug("connection closed", "ns", log.NsDriver, "dsn", conn.connector.dsn)
	return nil
}

// Prepare returns a prepared statement for the first statement of query.
func (conn *Conn) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext returns a prepared statement for the first statement of
// query.
func (conn *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stmt, err := conn.raw.Prepare(query)
	if err != nil {
		return nil, conn.mapErr(err)
	}
	return &Stmt{conn: conn, stmt: stmt}, nil
}

// Begin starts a transaction.
//
// Deprecated: Drivers should implement ConnBeginTx instead.
func (conn *Conn) Begin() (driver.Tx, error) {
	return conn.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a transaction. Read-only transactions set PRAGMA
// query_only for their duration. SQLite transactions are always
// serializable.
func (conn *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch sql.IsolationLevel(opts.Isolation) {
	case sql.LevelDefault, sql.LevelSerializable:
	default:
		return nil, fmt.Errorf("unsupported isolation level %s", sql.IsolationLevel(opts.Isolation))
	}

	if opts.ReadOnly {
		if err := conn.raw.Exec("PRAGMA query_only = 1"); err != nil {
			return nil, fmt.Errorf("failed to enable query_only: %w", err)
		}
	}

	if err := conn.raw.Begin(conn.connector.txMode); err != nil {
		if opts.ReadOnly {
			_ = conn.raw.Exec("PRAGMA query_only = 0")
		}
		return nil, conn.mapErr(err)
	}

	return &Tx{conn: conn, readOnly: opts.ReadOnly}, nil
}

// ExecContext runs every statement of query. Args are consumed in order by
// the statements that declare parameters.
func (conn *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	batch := sqlitec.NewBatch(conn.raw, query)
	var res driver.Result = &Result{}

	for {
		stmt, err := batch.Next()
		if err != nil {
			return nil, conn.mapErr(err)
		}
		if stmt == nil {
			return res, nil
		}

		s := &Stmt{conn: conn, stmt: stmt}
		n := min(stmt.BindParameterCount(), len(args))
		res, err = s.ExecContext(ctx, renumber(args[:n]))
		_ = stmt.Finalize()
		if err != nil {
			return nil, err
		}
		args = args[n:]
	}
}

// QueryContext runs every statement of query and returns the rows of the
// last one. Earlier statements are executed for their side effects.
func (conn *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	batch := sqlitec.NewBatch(conn.raw, query)

	for {
		stmt, err := batch.Next()
		if err != nil {
			return nil, conn.mapErr(err)
		}
		if stmt == nil {
			return nil, sqlitec.ErrEmptyStatement
		}

		s := &Stmt{conn: conn, stmt: stmt, owned: true}
		n := min(stmt.BindParameterCount(), len(args))
		if batch.Done() {
			return s.QueryContext(ctx, renumber(args[:n]))
		}

		_, err = s.ExecContext(ctx, renumber(args[:n]))
		_ = stmt.Finalize()
		if err != nil {
			return nil, err
		}
		args = args[n:]
	}
}

// renumber gives the unnamed args of a per-statement slice ordinals
// starting at 1, so each statement binds from its own first parameter.
func renumber(args []driver.NamedValue) []driver.NamedValue {
	out := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		out[i] = arg
		if arg.Name == "" {
			out[i].Ordinal = i + 1
		}
	}
	return out
}

// Ping reports whether the connection is still usable.
func (conn *Conn) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !conn.raw.IsConnected() {
		return driver.ErrBadConn
	}
	return nil
}

// ResetSession rolls back any transaction left open before the connection
// is reused.
func (conn *Conn) ResetSession(_ context.Context) error {
	if !conn.raw.IsConnected() {
		return driver.ErrBadConn
	}
	if conn.raw.InTransaction() {
		conn.connector.logger.Warn("rolling back abandoned transaction", "ns", log.NsDriver)
		if err := conn.raw.Rollback(); err != nil {
			return driver.ErrBadConn
		}
	}
	return nil
}

// IsValid reports whether the connection can be returned to the pool.
func (conn *Conn) IsValid() bool {
	return conn.raw.IsConnected()
}

// CheckNamedValue lets values sqlitec binds natively through unchanged and
// hands everything else to the default converter.
func (conn *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	switch nv.Value.(type) {
	case sqlitec.ZeroBlob, uint, uint64:
		return nil
	}
	return driver.ErrSkip
}

// watch interrupts the running statement when ctx is cancelled. The
// returned func must be called once the statement is done; it waits for
// the watcher so a late interrupt cannot hit the next statement.
func (conn *Conn) watch(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
		case <-done:
			return
		}

		// SQLite drops an interrupt that arrives while no statement is
		// active, so repeat it until the caller is done.
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			conn.raw.Interrupt()
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// ctxErr prefers the context error over the SQLITE_INTERRUPT it caused.
func (conn *Conn) ctxErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sqlitec.ErrInterrupt) && ctx.Err() != nil {
		return ctx.Err()
	}
	return conn.mapErr(err)
}

// mapErr turns a closed handle into driver.ErrBadConn so database/sql
// discards the connection.
func (conn *Conn) mapErr(err error) error {
	if errors.Is(err, sqlitec.ErrClosed) && !conn.raw.IsConnected() {
		return driver.ErrBadConn
	}
	return err
}
