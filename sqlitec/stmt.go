package sqlitec

/*
#include <stdlib.h>
#include <sqlite3.h>
#include "bridge.h"
*/
import "C"
import (
	"fmt"
	"strings"
	"unsafe"
)

// Stmt represents a prepared statement in SQLite.
//
// A Stmt owns its native handle until Finalize. Preparing new SQL on the
// same Stmt finalizes the previous handle first.
//
// https://www.sqlite.org/c3ref/stmt.html
type Stmt struct {
	conn  *Conn
	cStmt *C.sqlite3_stmt
}

// prepare compiles the first statement of query. The returned handle is nil
// when that statement is empty (whitespace, comments or a lone semicolon).
// tail is the part of query that was not consumed.
func (conn *Conn) prepare(query string) (*C.sqlite3_stmt, string, error) {
	if err := conn.check(); err != nil {
		return nil, "", err
	}

	cQuery := C.CString(query)
	defer C.free(unsafe.Pointer(cQuery))

	var cStmt *C.sqlite3_stmt
	var cTail *C.char
	resCode := C.sqlite3_prepare_v2(conn.cDB, cQuery, C.int(len(query)), &cStmt, &cTail)
	if resCode != C.SQLITE_OK {
		return nil, "", conn.lastError("prepare statement", resCode)
	}

	consumed := len(query)
	if cTail != nil {
		consumed = int(uintptr(unsafe.Pointer(cTail)) - uintptr(unsafe.Pointer(cQuery)))
	}
	if consumed < 0 || consumed > len(query) {
		consumed = len(query)
	}

	return cStmt, query[consumed:], nil
}

// Prepare compiles the given SQL query into a prepared statement. Only the
// first statement is compiled; use PrepareTail to get the rest of the text.
//
// https://www.sqlite.org/c3ref/prepare.html
func (conn *Conn) Prepare(query string) (*Stmt, error) {
	stmt, _, err := conn.PrepareTail(query)
	return stmt, err
}

// PrepareTail compiles the first statement of query and returns the
// remaining, uncompiled SQL text. Leading empty statements are skipped.
func (conn *Conn) PrepareTail(query string) (*Stmt, string, error) {
	rest := query
	for {
		cStmt, tail, err := conn.prepare(rest)
		if err != nil {
			return nil, "", err
		}
		if cStmt != nil {
			return &Stmt{conn: conn, cStmt: cStmt}, tail, nil
		}
		if len(tail) == len(rest) || isBlankSQL(tail) {
			return nil, "", ErrEmptyStatement
		}
		rest = tail
	}
}

// NewStmt returns an empty statement attached to conn. It must be given SQL
// with Prepare before use.
func NewStmt(conn *Conn) *Stmt {
	return &Stmt{conn: conn}
}

// Prepare finalizes the statement's current handle, if any, and compiles
// query in its place.
func (stmt *Stmt) Prepare(query string) error {
	if err := stmt.Finalize(); err != nil {
		return err
	}
	fresh, err := stmt.conn.Prepare(query)
	if err != nil {
		return err
	}
	stmt.cStmt = fresh.cStmt
	return nil
}

// Conn returns the connection the statement belongs to.
func (stmt *Stmt) Conn() *Conn {
	return stmt.conn
}

func (stmt *Stmt) check() error {
	if stmt == nil || stmt.cStmt == nil {
		return ErrClosed
	}
	return nil
}

// IsPrepared reports whether the statement holds a compiled handle.
func (stmt *Stmt) IsPrepared() bool {
	return stmt.check() == nil
}

// SQL returns the SQL text used to prepare the statement.
//
// https://www.sqlite.org/c3ref/expanded_sql.html
func (stmt *Stmt) SQL() string {
	if stmt.check() != nil {
		return ""
	}
	return C.GoString(C.sqlite3_sql(stmt.cStmt))
}

// ExpandedSQL returns the SQL text with bound parameters expanded.
func (stmt *Stmt) ExpandedSQL() string {
	if stmt.check() != nil {
		return ""
	}
	expanded := C.sqlite3_expanded_sql(stmt.cStmt)
	if expanded == nil {
		return ""
	}
	defer C.sqlite3_free(unsafe.Pointer(expanded))
	return C.GoString(expanded)
}

// ReadOnly returns true if the given SQL query is read-only.
//
// https://www.sqlite.org/c3ref/stmt_readonly.html
func (stmt *Stmt) ReadOnly() bool {
	if stmt.check() != nil {
		return false
	}
	return C.sqlite3_stmt_readonly(stmt.cStmt) != 0
}

// Busy reports whether the statement has been stepped but not run to
// completion or reset.
//
// https://www.sqlite.org/c3ref/stmt_busy.html
func (stmt *Stmt) Busy() bool {
	if stmt.check() != nil {
		return false
	}
	return C.sqlite3_stmt_busy(stmt.cStmt) != 0
}

// ErrMsg returns the last error message of the owning connection.
func (stmt *Stmt) ErrMsg() (string, bool) {
	if stmt.check() != nil {
		return "", false
	}
	return stmt.conn.ErrMsg()
}

// Step advances the statement to the next row of data, returning true if a new row
// is available, or false if there are no more rows. If an error occurs, it is returned.
//
// https://www.sqlite.org/c3ref/step.html
func (stmt *Stmt) Step() (bool, error) {
	if err := stmt.check(); err != nil {
		return false, err
	}

	resCode := C.sqlite3_step(stmt.cStmt)

	if resCode == C.SQLITE_DONE {
		return false, nil
	}

	if resCode == C.SQLITE_ROW {
		return true, nil
	}

	return false, stmt.conn.lastError("step statement", resCode)
}

// Exec steps the statement until it is done, discarding any rows.
func (stmt *Stmt) Exec() error {
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return err
		}
		if !hasRow {
			return nil
		}
	}
}

// Reset rewinds the statement so it can be executed again. Bindings are
// kept.
//
// https://www.sqlite.org/c3ref/reset.html
func (stmt *Stmt) Reset() error {
	if err := stmt.check(); err != nil {
		return err
	}
	return stmt.conn.call("reset statement", C.sqlite3_reset(stmt.cStmt))
}

// ClearBindings sets every parameter back to NULL.
//
// https://www.sqlite.org/c3ref/clear_bindings.html
func (stmt *Stmt) ClearBindings() error {
	if err := stmt.check(); err != nil {
		return err
	}
	return stmt.conn.call("clear bindings", C.sqlite3_clear_bindings(stmt.cStmt))
}

// Finalize frees the resources associated with this statement. The handle
// is released even when SQLite reports an error, which only echoes the
// error of the most recent evaluation. Finalizing twice is a no-op.
//
// https://www.sqlite.org/c3ref/finalize.html
func (stmt *Stmt) Finalize() error {
	if stmt == nil || stmt.cStmt == nil {
		return nil
	}

	resCode := C.sqlite3_finalize(stmt.cStmt)
	stmt.cStmt = nil
	if resCode != C.SQLITE_OK {
		return stmt.conn.lastError("finalize statement", resCode)
	}

	return nil
}

// Close is Finalize, so a Stmt satisfies io.Closer.
func (stmt *Stmt) Close() error {
	return stmt.Finalize()
}

// transferBindings moves the bindings of stmt onto next. Both statements
// must declare the same number of parameters.
//
// https://www.sqlite.org/c3ref/transfer_bindings.html
func (stmt *Stmt) transferBindings(next *Stmt) error {
	have, want := stmt.BindParameterCount(), next.BindParameterCount()
	if have != want {
		return &Error{
			Code:         SQLITE_ERROR,
			ExtendedCode: SQLITE_ERROR,
			Op:           "transfer bindings",
			Msg:          fmt.Sprintf("statement has %d parameters, next statement has %d", have, want),
		}
	}
	if want == 0 {
		return nil
	}
	resCode := C.sqlite3_transfer_bindings(stmt.cStmt, next.cStmt)
	return stmt.conn.call("transfer bindings", resCode)
}

// isBlankSQL reports whether s has nothing left to execute. SQLite itself
// decides what a statement is; this only guards the batch loops against
// trailing whitespace.
func isBlankSQL(s string) bool {
	return strings.TrimSpace(strings.Trim(s, "; \t\r\n")) == ""
}

// IsComplete reports whether query ends with a complete SQL statement.
// Semicolons inside string literals, identifiers, comments and trigger
// bodies do not terminate a statement.
//
// https://www.sqlite.org/c3ref/complete.html
func IsComplete(query string) bool {
	cQuery := C.CString(query)
	defer C.free(unsafe.Pointer(cQuery))
	return C.sqlite3_complete(cQuery) != 0
}
