package sqlitec

/*
#include <stdlib.h>
#include <sqlite3.h>
#include "bridge.h"
*/
import "C"
import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"time"
	"unsafe"
)

// TimeFormat is the layout used to bind time.Time values as TEXT. SQLite's
// date and time functions understand it.
const TimeFormat = "2006-01-02 15:04:05.999999999-07:00"

// ZeroBlob binds a zero-filled BLOB of the given length.
type ZeroBlob int

// NamedArg is a value bound to a named parameter by BindArgs.
type NamedArg struct {
	Name  string
	Value any
}

// Named returns a NamedArg. The name may carry its prefix (":id", "@id",
// "$id") or not ("id").
func Named(name string, value any) NamedArg {
	return NamedArg{Name: name, Value: value}
}

// BindParameterCount returns the largest parameter index of the statement.
//
// https://www.sqlite.org/c3ref/bind_parameter_count.html
func (stmt *Stmt) BindParameterCount() int {
	if stmt.check() != nil {
		return 0
	}
	return int(C.sqlite3_bind_parameter_count(stmt.cStmt))
}

// BindParameterName returns the name of the parameter at the given index,
// including its prefix. Nameless "?" parameters return "".
//
// https://www.sqlite.org/c3ref/bind_parameter_name.html
func (stmt *Stmt) BindParameterName(index int) string {
	if stmt.check() != nil {
		return ""
	}
	name := C.sqlite3_bind_parameter_name(stmt.cStmt, C.int(index))
	if name == nil {
		return ""
	}
	return C.GoString(name)
}

// BindIndex returns the index of the named parameter. Names without a
// prefix are looked up as ":name", "@name" and "$name", in that order.
//
// https://www.sqlite.org/c3ref/bind_parameter_index.html
func (stmt *Stmt) BindIndex(name string) (int, error) {
	if err := stmt.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, newCodeError("bind parameter", SQLITE_RANGE, "parameter name is empty")
	}

	candidates := []string{name}
	switch name[0] {
	case '?', ':', '@', '$':
	default:
		candidates = []string{":" + name, "@" + name, "$" + name}
	}

	for _, candidate := range candidates {
		cName := C.CString(candidate)
		idx := C.sqlite3_bind_parameter_index(stmt.cStmt, cName)
		C.free(unsafe.Pointer(cName))
		if idx > 0 {
			return int(idx), nil
		}
	}

	return 0, newCodeError("bind parameter", SQLITE_RANGE, fmt.Sprintf("no parameter named %q", name))
}

// BindInt binds an int parameter at the given index.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindInt(index int, value int) error {
	return stmt.BindInt64(index, int64(value))
}

// BindInt64 binds an int64 parameter at the given index.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindInt64(index int, value int64) error {
	if err := stmt.check(); err != nil {
		return err
	}

	resCode := C.sqlite3_bind_int64(stmt.cStmt, C.int(index), C.sqlite3_int64(value))
	return stmt.conn.call("bind int64", resCode)
}

// BindFloat64 binds a float64 parameter at the given index.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindFloat64(index int, value float64) error {
	if err := stmt.check(); err != nil {
		return err
	}

	resCode := C.sqlite3_bind_double(stmt.cStmt, C.int(index), C.double(value))
	return stmt.conn.call("bind float64", resCode)
}

// BindBool binds a bool as the integer 0 or 1.
func (stmt *Stmt) BindBool(index int, value bool) error {
	if value {
		return stmt.BindInt64(index, 1)
	}
	return stmt.BindInt64(index, 0)
}

// BindText binds a string parameter at the given index. SQLite keeps its
// own copy of the value.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindText(index int, value string) error {
	if err := stmt.check(); err != nil {
		return err
	}

	cStr := (*C.char)(unsafe.Pointer(unsafe.StringData(value)))
	resCode := C.litebind_bind_text(stmt.cStmt, C.int(index), cStr, C.int(len(value)))
	return stmt.conn.call("bind text", resCode)
}

// BindBlob binds a byte slice parameter at the given index. A nil slice binds
// NULL and an empty one binds a zero-length BLOB.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindBlob(index int, data []byte) error {
	if err := stmt.check(); err != nil {
		return err
	}
	if data == nil {
		return stmt.BindNull(index)
	}

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	resCode := C.litebind_bind_blob(stmt.cStmt, C.int(index), ptr, C.int(len(data)))
	return stmt.conn.call("bind blob", resCode)
}

// BindZeroBlob binds a zero-filled BLOB of n bytes.
func (stmt *Stmt) BindZeroBlob(index int, n int) error {
	if err := stmt.check(); err != nil {
		return err
	}

	resCode := C.sqlite3_bind_zeroblob(stmt.cStmt, C.int(index), C.int(n))
	return stmt.conn.call("bind zeroblob", resCode)
}

// BindTime binds a time.Time as TEXT using TimeFormat.
func (stmt *Stmt) BindTime(index int, value time.Time) error {
	return stmt.BindText(index, value.Format(TimeFormat))
}

// BindNull binds a NULL value at the given index.
//
// https://www.sqlite.org/c3ref/bind_blob.html
func (stmt *Stmt) BindNull(index int) error {
	if err := stmt.check(); err != nil {
		return err
	}

	resCode := C.sqlite3_bind_null(stmt.cStmt, C.int(index))
	return stmt.conn.call("bind null", resCode)
}

// Bind binds any supported Go value at the given index:
//
//	nil                      -- NULL
//	int, int8 ... int64      -- INTEGER
//	uint, uint8 ... uint64   -- INTEGER, error above math.MaxInt64
//	float32, float64         -- FLOAT
//	bool                     -- INTEGER 0 or 1
//	string                   -- TEXT
//	[]byte                   -- BLOB, nil slices bind NULL
//	time.Time                -- TEXT in TimeFormat
//	ZeroBlob                 -- zero-filled BLOB
//	driver.Valuer            -- the value it returns
//	pointers                 -- NULL when nil, the pointed value otherwise
func (stmt *Stmt) Bind(index int, value any) error {
	v, err := storageValue(value)
	if err != nil {
		return fmt.Errorf("failed to bind parameter %d: %w", index, err)
	}

	switch v := v.(type) {
	case int64:
		return stmt.BindInt64(index, v)
	case float64:
		return stmt.BindFloat64(index, v)
	case string:
		return stmt.BindText(index, v)
	case []byte:
		return stmt.BindBlob(index, v)
	case ZeroBlob:
		return stmt.BindZeroBlob(index, int(v))
	default:
		return stmt.BindNull(index)
	}
}

// storageValue reduces a Go value to nil, int64, float64, string, []byte or
// ZeroBlob. Bound parameters and function results share it.
func storageValue(value any) (any, error) {
	// Nil pointers may implement driver.Valuer with a value receiver.
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}

	switch v := value.(type) {
	case nil, int64, float64, string, []byte, ZeroBlob:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintValue(v)
	case float32:
		return float64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		return v.Format(TimeFormat), nil
	case driver.Valuer:
		val, err := v.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to get value of %T: %w", value, err)
		}
		return storageValue(val)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		return storageValue(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Bool:
		return storageValue(rv.Bool())
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Bytes(), nil
		}
	}

	return nil, fmt.Errorf("unsupported type %T", value)
}

func uintValue(value uint64) (any, error) {
	if value > math.MaxInt64 {
		return nil, fmt.Errorf("value %d overflows int64", value)
	}
	return int64(value), nil
}

// BindNamed binds value to the named parameter.
func (stmt *Stmt) BindNamed(name string, value any) error {
	idx, err := stmt.BindIndex(name)
	if err != nil {
		return err
	}
	return stmt.Bind(idx, value)
}

// BindArgs binds positional args starting at index 1. NamedArg and
// sql.NamedArg values are bound by name and do not advance the position.
func (stmt *Stmt) BindArgs(args ...any) error {
	pos := 1
	for _, arg := range args {
		switch a := arg.(type) {
		case NamedArg:
			if err := stmt.BindNamed(a.Name, a.Value); err != nil {
				return err
			}
		case sql.NamedArg:
			if err := stmt.BindNamed(a.Name, a.Value); err != nil {
				return err
			}
		default:
			if err := stmt.Bind(pos, arg); err != nil {
				return err
			}
			pos++
		}
	}
	return nil
}

// Binder binds consecutive parameters. The first failure is kept and every
// later Add is skipped.
//
//	err := stmt.Binder(1).Add("a").Add(42).Add(nil).Err()
type Binder struct {
	stmt  *Stmt
	index int
	err   error
}

// Binder returns a Binder starting at the given index.
func (stmt *Stmt) Binder(start int) *Binder {
	if start < 1 {
		start = 1
	}
	return &Binder{stmt: stmt, index: start}
}

// Add binds value at the current index and moves to the next one.
func (b *Binder) Add(value any) *Binder {
	if b.err != nil {
		return b
	}
	b.err = b.stmt.Bind(b.index, value)
	b.index++
	return b
}

// Index returns the index the next Add will bind.
func (b *Binder) Index() int {
	return b.index
}

// Err returns the first error seen by Add.
func (b *Binder) Err() error {
	return b.err
}
