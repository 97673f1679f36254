package sqlitec

import (
	"fmt"
	"strings"
	"time"
)

// QueryParam is a parameter for QueryOrExec. An empty Name binds the value
// at the next positional index.
type QueryParam struct {
	Name  string
	Value any
}

// QueryOrExecResult represents the result for QueryOrExec.
type QueryOrExecResult struct {
	Time         time.Duration
	LastInsertID int64
	RowsAffected int64
	Columns      []string
	Types        []string
	Rows         [][]any
}

// IsRead reports whether the statement produced a result set.
func (r *QueryOrExecResult) IsRead() bool {
	return len(r.Columns) > 0
}

// QueryOrExec executes the first statement of the given SQL query from
// start to finish, returning the result of the query for both write and
// read operations.
func (conn *Conn) QueryOrExec(query string, params []QueryParam) (*QueryOrExecResult, error) {
	start := time.Now()

	stmt, err := conn.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}
	defer func() {
		_ = stmt.Finalize()
	}()

	if err := stmt.bindParams(params); err != nil {
		return nil, err
	}

	return stmt.queryOrExec(start)
}

// NextResult runs the next statement of the batch like QueryOrExec. The
// second value is false when the batch is exhausted.
func (b *Batch) NextResult() (*QueryOrExecResult, bool, error) {
	start := time.Now()
	prev := b.state

	stmt, err := b.Next()
	if err != nil || stmt == nil {
		return nil, false, err
	}
	defer func() {
		_ = stmt.Finalize()
	}()

	res, err := stmt.queryOrExec(start)
	if err != nil {
		b.state = prev
		return nil, false, err
	}
	return res, true, nil
}

func (stmt *Stmt) bindParams(params []QueryParam) error {
	positional := 0
	for _, param := range params {
		if param.Name == "" {
			positional++
			if err := stmt.Bind(positional, param.Value); err != nil {
				return fmt.Errorf("failed to bind parameter %d: %w", positional, err)
			}
			continue
		}
		if err := stmt.BindNamed(param.Name, param.Value); err != nil {
			return fmt.Errorf("failed to bind parameter %q: %w", param.Name, err)
		}
	}
	return nil
}

func (stmt *Stmt) queryOrExec(start time.Time) (*QueryOrExecResult, error) {
	conn := stmt.conn
	columnCount := stmt.ColumnCount()

	if columnCount == 0 {
		before := conn.TotalChanges()
		if err := stmt.Exec(); err != nil {
			return nil, fmt.Errorf("failed to step statement: %w", err)
		}

		// DDL statements leave sqlite3_changes untouched, so only report it
		// when this statement changed something.
		var rowsAffected int64
		if conn.TotalChanges() != before {
			rowsAffected = conn.RowsAffected()
		}
		lastInsertID, _ := conn.LastInsertRowID()

		return &QueryOrExecResult{
			Time:         time.Since(start),
			LastInsertID: lastInsertID,
			RowsAffected: rowsAffected,
		}, nil
	}

	columns := stmt.ColumnNames()
	types := make([]string, columnCount)
	for i := range types {
		types[i] = strings.ToLower(stmt.ColumnDecltype(i))
	}

	rows := make([][]any, 0)
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, fmt.Errorf("failed to step statement: %w", err)
		}
		if !hasRow {
			break
		}

		row := make([]any, columnCount)
		for i := range row {
			row[i] = stmt.ColumnValue(i)
			// Expressions have no declared type; use the storage class of
			// the first non-NULL value instead.
			if types[i] == "" && row[i] != nil {
				types[i] = stmt.ColumnType(i).String()
			}
		}
		rows = append(rows, row)
	}

	return &QueryOrExecResult{
		Time:    time.Since(start),
		Columns: columns,
		Types:   types,
		Rows:    rows,
	}, nil
}

