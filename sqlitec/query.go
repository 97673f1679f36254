package sqlitec

import (
	"fmt"
	"iter"
	"time"
)

// Query is a prepared statement that produces rows.
//
//	q, err := sqlitec.NewQuery(conn, "SELECT id, name FROM users WHERE active = ?", true)
//	if err != nil { ... }
//	defer q.Close()
//	for q.Next() {
//		var id int64
//		var name string
//		if err := q.Row().Scan(&id, &name); err != nil { ... }
//	}
//	if err := q.Err(); err != nil { ... }
type Query struct {
	*Stmt
	err  error
	done bool
}

// NewQuery prepares query and binds args with BindArgs.
func NewQuery(conn *Conn, query string, args ...any) (*Query, error) {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	if err := stmt.BindArgs(args...); err != nil {
		_ = stmt.Finalize()
		return nil, err
	}
	return &Query{Stmt: stmt}, nil
}

// Next steps to the next row. It returns false when the rows are exhausted
// or stepping failed; Err tells the two apart.
func (q *Query) Next() bool {
	if q.done {
		return false
	}
	hasRow, err := q.Step()
	if err != nil {
		q.err = err
		q.done = true
		return false
	}
	if !hasRow {
		q.done = true
	}
	return hasRow
}

// Err returns the error that stopped the iteration, if any.
func (q *Query) Err() error {
	return q.err
}

// Row returns a view of the current row. It is only valid until the next
// call to Next, Reset or Close.
func (q *Query) Row() Row {
	return Row{stmt: q.Stmt}
}

// All iterates over the remaining rows. The iteration stops after yielding
// a step error.
func (q *Query) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for q.Next() {
			if !yield(q.Row(), nil) {
				return
			}
		}
		if q.err != nil {
			yield(Row{}, q.err)
		}
	}
}

// Reset rewinds the query so it can be iterated again, keeping the
// bindings.
func (q *Query) Reset() error {
	q.err = nil
	q.done = false
	return q.Stmt.Reset()
}

// Columns returns the names of the result columns.
func (q *Query) Columns() []string {
	return q.ColumnNames()
}

// Close finalizes the underlying statement.
func (q *Query) Close() error {
	return q.Finalize()
}

// Row is the current row of a Query.
type Row struct {
	stmt *Stmt
}

// DataCount returns the number of values in the row.
func (r Row) DataCount() int { return r.stmt.DataCount() }

// Type returns the storage class of the value at index.
func (r Row) Type(i int) DataType { return r.stmt.ColumnType(i) }

// Bytes returns the size in bytes of the TEXT or BLOB value at index.
func (r Row) Bytes(i int) int { return r.stmt.ColumnBytes(i) }

// IsNull reports whether the value at index is NULL.
func (r Row) IsNull(i int) bool { return r.stmt.ColumnIsNull(i) }

// Int returns the value at index as int.
func (r Row) Int(i int) int { return r.stmt.ColumnInt(i) }

// Int64 returns the value at index as int64.
func (r Row) Int64(i int) int64 { return r.stmt.ColumnInt64(i) }

// Float64 returns the value at index as float64.
func (r Row) Float64(i int) float64 { return r.stmt.ColumnFloat64(i) }

// Bool returns the value at index as bool.
func (r Row) Bool(i int) bool { return r.stmt.ColumnBool(i) }

// Text returns the value at index as string.
func (r Row) Text(i int) string { return r.stmt.ColumnText(i) }

// Blob returns the value at index as []byte.
func (r Row) Blob(i int) []byte { return r.stmt.ColumnBlob(i) }

// Time returns the value at index as time.Time.
func (r Row) Time(i int) (time.Time, error) { return r.stmt.ColumnTime(i) }

// Value returns the value at index using its storage class.
func (r Row) Value(i int) any { return r.stmt.ColumnValue(i) }

// Values returns every value of the row.
func (r Row) Values() []any {
	values := make([]any, r.DataCount())
	for i := range values {
		values[i] = r.Value(i)
	}
	return values
}

// Index returns the column index for name.
func (r Row) Index(name string) (int, error) {
	idx, ok := r.stmt.ColumnIndex(name)
	if !ok {
		return -1, fmt.Errorf("no column named %q", name)
	}
	return idx, nil
}

// Get returns the value of the named column using its storage class.
func (r Row) Get(name string) (any, error) {
	idx, err := r.Index(name)
	if err != nil {
		return nil, err
	}
	return r.Value(idx), nil
}

// TypeOf returns the storage class of the named column.
func (r Row) TypeOf(name string) (DataType, error) {
	idx, err := r.Index(name)
	if err != nil {
		return TypeNull, err
	}
	return r.Type(idx), nil
}

// Scan copies the row values into dest. See Stmt.Scan.
func (r Row) Scan(dest ...any) error {
	return r.stmt.Scan(dest...)
}

// Getter reads consecutive columns into destinations.
//
//	err := q.Row().Getter(0).Get(&id).Get(&name).Err()
type Getter struct {
	row   Row
	index int
	err   error
}

// Getter returns a Getter starting at the given column index.
func (r Row) Getter(start int) *Getter {
	return &Getter{row: r, index: start}
}

// Get reads the current column into dest and moves to the next one.
func (g *Getter) Get(dest any) *Getter {
	if g.err != nil {
		return g
	}
	if g.index >= g.row.DataCount() {
		g.err = fmt.Errorf("column %d out of range", g.index)
		return g
	}
	g.err = g.row.stmt.scanColumn(g.index, dest)
	g.index++
	return g
}

// Err returns the first error seen by Get.
func (g *Getter) Err() error {
	return g.err
}
