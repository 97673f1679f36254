package sqlitedrv

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/nsqlite/litebind/sqlitec"
)

var (
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtExecContext  = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
)

// Stmt implements the database/sql/driver.Stmt interface
type Stmt struct {
	conn *Conn
	stmt *sqlitec.Stmt
	// owned statements are finalized when their rows are closed.
	owned bool
}

// Close finalizes the statement.
func (s *Stmt) Close() error {
	return s.stmt.Finalize()
}

// NumInput returns the number of parameters of the statement.
func (s *Stmt) NumInput() int {
	return s.stmt.BindParameterCount()
}

// Exec executes the statement.
//
// Deprecated: Drivers should implement StmtExecContext instead.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamed(args))
}

// Query executes the statement and returns its rows.
//
// Deprecated: Drivers should implement StmtQueryContext instead.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamed(args))
}

// ExecContext executes the statement, discarding any rows.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if err := s.bind(args); err != nil {
		return nil, err
	}

	stop := s.conn.watch(ctx)
	err := s.stmt.Exec()
	stop()
	if err != nil {
		return nil, s.conn.ctxErr(ctx, err)
	}

	raw := s.conn.raw
	lastInsertID, _ := raw.LastInsertRowID()
	return &Result{lastInsertID: lastInsertID, rowsAffected: raw.RowsAffected()}, nil
}

// QueryContext executes the statement and returns its rows. The context
// stays attached to the rows until they are closed.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if err := s.bind(args); err != nil {
		if s.owned {
			_ = s.stmt.Finalize()
		}
		return nil, err
	}

	return &Rows{
		stmt: s,
		ctx:  ctx,
		stop: s.conn.watch(ctx),
	}, nil
}

func (s *Stmt) bind(args []driver.NamedValue) error {
	if err := s.stmt.Reset(); err != nil {
		return s.conn.mapErr(err)
	}
	if err := s.stmt.ClearBindings(); err != nil {
		return s.conn.mapErr(err)
	}

	for _, arg := range args {
		var err error
		if arg.Name != "" {
			err = s.stmt.BindNamed(arg.Name, arg.Value)
		} else {
			err = s.stmt.Bind(arg.Ordinal, arg.Value)
		}
		if err != nil {
			return fmt.Errorf("failed to bind argument %d: %w", arg.Ordinal, err)
		}
	}
	return nil
}

func valuesToNamed(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

// Result implements the database/sql/driver.Result interface
type Result struct {
	lastInsertID int64
	rowsAffected int64
}

// LastInsertId returns the rowid of the last inserted row.
func (r *Result) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

// RowsAffected returns the number of rows changed by the statement.
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
