package sqlitec

/*
#include <stdlib.h>
#include <sqlite3.h>
*/
import "C"
import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unsafe"
)

// timeFormats are tried in order when a TEXT value is read as time.Time.
var timeFormats = []string{
	TimeFormat,
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ColumnCount returns the number of columns in the current result row.
//
// https://www.sqlite.org/c3ref/column_count.html
func (stmt *Stmt) ColumnCount() int {
	if stmt.check() != nil {
		return 0
	}
	return int(C.sqlite3_column_count(stmt.cStmt))
}

// DataCount returns the number of values in the current row, 0 when the
// statement has no row available.
//
// https://www.sqlite.org/c3ref/data_count.html
func (stmt *Stmt) DataCount() int {
	if stmt.check() != nil {
		return 0
	}
	return int(C.sqlite3_data_count(stmt.cStmt))
}

// ColumnName returns the name of the column at the given index.
//
// https://www.sqlite.org/c3ref/column_name.html
func (stmt *Stmt) ColumnName(colIndex int) string {
	if stmt.check() != nil {
		return ""
	}
	return C.GoString(C.sqlite3_column_name(stmt.cStmt, C.int(colIndex)))
}

// ColumnNames returns the names of all result columns.
func (stmt *Stmt) ColumnNames() []string {
	count := stmt.ColumnCount()
	names := make([]string, count)
	for i := range count {
		names[i] = stmt.ColumnName(i)
	}
	return names
}

// ColumnIndex returns the index of the result column with the given name,
// compared case insensitively.
func (stmt *Stmt) ColumnIndex(name string) (int, bool) {
	for i := range stmt.ColumnCount() {
		if strings.EqualFold(stmt.ColumnName(i), name) {
			return i, true
		}
	}
	return -1, false
}

// ColumnDecltype returns the declared type of the column at the given
// index, empty for expressions.
//
// https://www.sqlite.org/c3ref/column_decltype.html
func (stmt *Stmt) ColumnDecltype(colIndex int) string {
	if stmt.check() != nil {
		return ""
	}
	decl := C.sqlite3_column_decltype(stmt.cStmt, C.int(colIndex))
	if decl == nil {
		return ""
	}
	return C.GoString(decl)
}

// ColumnType returns the storage class of the value at the given index in
// the current row.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnType(colIndex int) DataType {
	if stmt.check() != nil {
		return TypeNull
	}
	return dataTypeFromC(C.sqlite3_column_type(stmt.cStmt, C.int(colIndex)))
}

// ColumnBytes returns the size in bytes of the TEXT or BLOB value at the
// given index.
func (stmt *Stmt) ColumnBytes(colIndex int) int {
	if stmt.check() != nil {
		return 0
	}
	return int(C.sqlite3_column_bytes(stmt.cStmt, C.int(colIndex)))
}

// ColumnIsNull reports whether the value at the given index is NULL.
func (stmt *Stmt) ColumnIsNull(colIndex int) bool {
	return stmt.ColumnType(colIndex) == TypeNull
}

// ColumnInt returns the column value at the given index as int.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnInt(colIndex int) int {
	return int(stmt.ColumnInt64(colIndex))
}

// ColumnInt64 returns the column value at the given index as int64.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnInt64(colIndex int) int64 {
	if stmt.check() != nil {
		return 0
	}
	return int64(C.sqlite3_column_int64(stmt.cStmt, C.int(colIndex)))
}

// ColumnFloat64 returns the column value at the given index as float64.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnFloat64(colIndex int) float64 {
	if stmt.check() != nil {
		return 0
	}
	return float64(C.sqlite3_column_double(stmt.cStmt, C.int(colIndex)))
}

// ColumnBool returns the column value at the given index as a bool, true
// for any non-zero integer.
func (stmt *Stmt) ColumnBool(colIndex int) bool {
	return stmt.ColumnInt64(colIndex) != 0
}

// ColumnText returns the column value at the given index as a string.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnText(colIndex int) string {
	if stmt.check() != nil {
		return ""
	}
	text := (*C.char)(unsafe.Pointer(C.sqlite3_column_text(stmt.cStmt, C.int(colIndex))))
	if text == nil {
		return ""
	}
	length := C.sqlite3_column_bytes(stmt.cStmt, C.int(colIndex))
	return C.GoStringN(text, length)
}

// ColumnBlob returns the column value at the given index as a byte slice.
// NULL values return nil, empty BLOBs an empty non-nil slice.
//
// https://www.sqlite.org/c3ref/column_blob.html
func (stmt *Stmt) ColumnBlob(colIndex int) []byte {
	if stmt.check() != nil {
		return nil
	}
	dataPtr := C.sqlite3_column_blob(stmt.cStmt, C.int(colIndex))
	size := C.sqlite3_column_bytes(stmt.cStmt, C.int(colIndex))
	if dataPtr == nil || size <= 0 {
		if stmt.ColumnIsNull(colIndex) {
			return nil
		}
		return []byte{}
	}
	return C.GoBytes(dataPtr, size)
}

// ColumnTime returns the column value at the given index as time.Time.
// INTEGER values are Unix seconds, FLOAT values Unix seconds with a
// fraction and TEXT values are parsed with the layouts SQLite's date
// functions produce.
func (stmt *Stmt) ColumnTime(colIndex int) (time.Time, error) {
	switch stmt.ColumnType(colIndex) {
	case TypeNull:
		return time.Time{}, nil
	case TypeInteger:
		return time.Unix(stmt.ColumnInt64(colIndex), 0).UTC(), nil
	case TypeFloat:
		secs := stmt.ColumnFloat64(colIndex)
		return time.Unix(0, int64(secs*float64(time.Second))).UTC(), nil
	}

	text := strings.TrimSuffix(stmt.ColumnText(colIndex), "Z")
	for _, layout := range timeFormats {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time in column %d", text, colIndex)
}

// ColumnValue returns the value at the given index using its storage class:
// int64, float64, string, []byte or nil.
func (stmt *Stmt) ColumnValue(colIndex int) any {
	switch stmt.ColumnType(colIndex) {
	case TypeInteger:
		return stmt.ColumnInt64(colIndex)
	case TypeFloat:
		return stmt.ColumnFloat64(colIndex)
	case TypeText:
		return stmt.ColumnText(colIndex)
	case TypeBlob:
		return stmt.ColumnBlob(colIndex)
	default:
		return nil
	}
}

// Scan copies the columns of the current row into dest, in order. Supported
// destinations are *int, *int32, *int64, *uint64, *float64, *bool, *string,
// *[]byte, *time.Time, *any and sql.Scanner implementations. A nil
// destination skips its column.
func (stmt *Stmt) Scan(dest ...any) error {
	if err := stmt.check(); err != nil {
		return err
	}
	if len(dest) > stmt.DataCount() {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), stmt.DataCount())
	}

	for i, d := range dest {
		if err := stmt.scanColumn(i, d); err != nil {
			return fmt.Errorf("scan column %d (%s): %w", i, stmt.ColumnName(i), err)
		}
	}
	return nil
}

func (stmt *Stmt) scanColumn(i int, dest any) error {
	switch d := dest.(type) {
	case nil:
		return nil
	case sql.Scanner:
		return d.Scan(stmt.ColumnValue(i))
	case *any:
		*d = stmt.ColumnValue(i)
	case *int:
		*d = stmt.ColumnInt(i)
	case *int32:
		*d = int32(stmt.ColumnInt64(i))
	case *int64:
		*d = stmt.ColumnInt64(i)
	case *uint64:
		*d = uint64(stmt.ColumnInt64(i))
	case *float64:
		*d = stmt.ColumnFloat64(i)
	case *bool:
		*d = stmt.ColumnBool(i)
	case *string:
		*d = stmt.ColumnText(i)
	case *[]byte:
		*d = stmt.ColumnBlob(i)
	case *time.Time:
		t, err := stmt.ColumnTime(i)
		if err != nil {
			return err
		}
		*d = t
	default:
		return fmt.Errorf("unsupported destination type %T", dest)
	}
	return nil
}
