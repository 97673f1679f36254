package sqlitedrv

import (
	"context"
	"database/sql/driver"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/nsqlite/litebind/sqlitec"
)

var (
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*Rows)(nil)
)

// Rows implements the database/sql/driver.Rows interface
type Rows struct {
	stmt    *Stmt
	ctx     context.Context
	stop    func()
	columns []string
	closed  bool
}

// Columns returns the names of the result columns.
func (r *Rows) Columns() []string {
	if r.columns == nil {
		r.columns = r.stmt.stmt.ColumnNames()
	}
	return r.columns
}

// Close releases the statement, finalizing it when the rows own it.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.stop()

	if r.stmt.owned {
		return r.stmt.stmt.Finalize()
	}
	return r.stmt.stmt.Reset()
}

// Next steps to the next row and copies its values into dest. Columns
// declared as DATE, DATETIME or TIMESTAMP are returned as time.Time and
// BOOLEAN columns as bool.
func (r *Rows) Next(dest []driver.Value) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	stmt := r.stmt.stmt
	hasRow, err := stmt.Step()
	if err != nil {
		return r.stmt.conn.ctxErr(r.ctx, err)
	}
	if !hasRow {
		return io.EOF
	}

	for i := range dest {
		dest[i] = stmt.ColumnValue(i)
		if dest[i] == nil {
			continue
		}

		switch strings.ToLower(stmt.ColumnDecltype(i)) {
		case "date", "datetime", "timestamp":
			if t, err := stmt.ColumnTime(i); err == nil {
				dest[i] = t
			}
		case "boolean", "bool":
			if stmt.ColumnType(i) == sqlitec.TypeInteger {
				dest[i] = stmt.ColumnInt64(i) != 0
			}
		}
	}
	return nil
}

// ColumnTypeDatabaseTypeName returns the declared type of the column in
// upper case, or "" for expressions.
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	return strings.ToUpper(r.stmt.stmt.ColumnDecltype(index))
}

// ColumnTypeScanType returns the Go type Next produces for the column's
// declared type.
func (r *Rows) ColumnTypeScanType(index int) reflect.Type {
	decl := strings.ToLower(r.stmt.stmt.ColumnDecltype(index))
	switch {
	case decl == "date" || decl == "datetime" || decl == "timestamp":
		return reflect.TypeOf(time.Time{})
	case decl == "boolean" || decl == "bool":
		return reflect.TypeOf(false)
	case strings.Contains(decl, "int"):
		return reflect.TypeOf(int64(0))
	case strings.Contains(decl, "char") || strings.Contains(decl, "clob") || strings.Contains(decl, "text"):
		return reflect.TypeOf("")
	case strings.Contains(decl, "blob"):
		return reflect.TypeOf([]byte(nil))
	case strings.Contains(decl, "real") || strings.Contains(decl, "floa") || strings.Contains(decl, "doub"):
		return reflect.TypeOf(float64(0))
	}
	return reflect.TypeOf((*any)(nil)).Elem()
}
