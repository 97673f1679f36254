package sqlitec

/*
#cgo LDFLAGS: -lsqlite3
#cgo linux LDFLAGS: -Wl,--allow-multiple-definition
#include <stdlib.h>
#include <sqlite3.h>
#include "bridge.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"runtime/cgo"
	"time"
	"unsafe"
)

// Conn represents a high-level connection to a SQLite database.
//
// https://www.sqlite.org/c3ref/sqlite3.html
type Conn struct {
	cDB *C.sqlite3

	busyHandler      cgo.Handle
	commitHandler    cgo.Handle
	rollbackHandler  cgo.Handle
	updateHandler    cgo.Handle
	authorizeHandler cgo.Handle
}

// Version returns the version string of the linked SQLite library.
//
// https://www.sqlite.org/c3ref/libversion.html
func Version() string {
	return C.GoString(C.sqlite3_libversion())
}

// VersionNumber returns the version of the linked SQLite library as
// X*1000000 + Y*1000 + Z.
func VersionNumber() int {
	return int(C.sqlite3_libversion_number())
}

// IsThreadsafe reports whether the library was compiled with mutexes.
//
// https://www.sqlite.org/c3ref/threadsafe.html
func IsThreadsafe() bool {
	return C.sqlite3_threadsafe() != 0
}

// lastError returns the last error reported by the connection as an *Error.
func (conn *Conn) lastError(op string, resCode C.int) *Error {
	if conn.cDB == nil {
		return newCodeError(op, ResultCode(resCode), "")
	}
	return &Error{
		Code:         ResultCode(resCode).Primary(),
		ExtendedCode: ResultCode(C.sqlite3_extended_errcode(conn.cDB)),
		Msg:          C.GoString(C.sqlite3_errmsg(conn.cDB)),
		Op:           op,
	}
}

// Open opens a new SQLite database connection using the given path. When no
// flags are given OpenDefault is used.
//
// https://www.sqlite.org/c3ref/open.html
func Open(filePath string, flags ...OpenFlags) (*Conn, error) {
	var f OpenFlags
	for _, flag := range flags {
		f |= flag
	}
	if len(flags) == 0 {
		f = OpenDefault
	}
	return OpenV2(filePath, f, "")
}

// OpenV2 opens a new SQLite database connection with explicit flags and an
// optional VFS name.
//
// https://www.sqlite.org/c3ref/open.html
func OpenV2(filePath string, flags OpenFlags, vfs string) (*Conn, error) {
	if filePath == "" {
		return nil, newCodeError("open database", SQLITE_MISUSE, "database name is empty")
	}

	cFilePath := C.CString(filePath)
	defer C.free(unsafe.Pointer(cFilePath))

	var cVfs *C.char
	if vfs != "" {
		cVfs = C.CString(vfs)
		defer C.free(unsafe.Pointer(cVfs))
	}

	var db *C.sqlite3
	resCode := C.sqlite3_open_v2(cFilePath, &db, C.int(flags), cVfs)
	if resCode != C.SQLITE_OK {
		err := (&Conn{cDB: db}).lastError("open database", resCode)
		if db != nil {
			_ = C.sqlite3_close_v2(db)
		}
		return nil, err
	}

	return &Conn{cDB: db}, nil
}

// IsConnected reports whether the connection still owns a native handle.
func (conn *Conn) IsConnected() bool {
	return conn != nil && conn.cDB != nil
}

// Close finalizes the connection to the SQLite database. Closing an already
// closed connection is a no-op.
//
// https://www.sqlite.org/c3ref/close.html
func (conn *Conn) Close() error {
	if conn.cDB == nil {
		return nil
	}

	// The sqlite3_close_v2() interface is intended for use with host
	// languages that are garbage collected, and where the order in which
	// destructors are called is arbitrary.
	resCode := C.sqlite3_close_v2(conn.cDB)
	if resCode != C.SQLITE_OK {
		return conn.lastError("close database", resCode)
	}
	conn.cDB = nil
	conn.releaseHandlers()

	return nil
}

// check returns ErrClosed when the connection has been released.
func (conn *Conn) check() error {
	if conn == nil || conn.cDB == nil {
		return ErrClosed
	}
	return nil
}

// call converts a raw result code into an error.
func (conn *Conn) call(op string, resCode C.int) error {
	if resCode == C.SQLITE_OK {
		return nil
	}
	return conn.lastError(op, resCode)
}

// LastInsertRowID returns the row ID of the most recent successful INSERT
// into the database from the current connection. The second value is false
// when no row has been inserted yet.
//
// https://www.sqlite.org/c3ref/last_insert_rowid.html
func (conn *Conn) LastInsertRowID() (int64, bool) {
	if conn.check() != nil {
		return 0, false
	}
	id := int64(C.sqlite3_last_insert_rowid(conn.cDB))
	return id, id > 0
}

// RowsAffected returns the number of rows modified, inserted, or deleted by
// the most recent successful INSERT, UPDATE, or DELETE statement from the
// current connection.
//
// https://www.sqlite.org/c3ref/changes.html
func (conn *Conn) RowsAffected() int64 {
	if conn.check() != nil {
		return 0
	}
	return int64(C.sqlite3_changes(conn.cDB))
}

// TotalChanges returns the number of rows changed since the connection was
// opened.
//
// https://www.sqlite.org/c3ref/total_changes.html
func (conn *Conn) TotalChanges() int64 {
	if conn.check() != nil {
		return 0
	}
	return int64(C.sqlite3_total_changes(conn.cDB))
}

// ErrCode returns the primary result code of the most recent failed call.
func (conn *Conn) ErrCode() ResultCode {
	if conn.check() != nil {
		return SQLITE_MISUSE
	}
	return ResultCode(C.sqlite3_errcode(conn.cDB))
}

// ExtendedErrCode returns the extended result code of the most recent failed
// call.
func (conn *Conn) ExtendedErrCode() ResultCode {
	if conn.check() != nil {
		return SQLITE_MISUSE
	}
	return ResultCode(C.sqlite3_extended_errcode(conn.cDB))
}

// ErrMsg returns the message of the most recent failed call, and false when
// the connection is closed.
//
// https://www.sqlite.org/c3ref/errcode.html
func (conn *Conn) ErrMsg() (string, bool) {
	if conn.check() != nil {
		return "", false
	}
	return C.GoString(C.sqlite3_errmsg(conn.cDB)), true
}

// Filename returns the file name of the given schema ("main" when empty).
// Temporary and in-memory databases have an empty file name.
//
// https://www.sqlite.org/c3ref/db_filename.html
func (conn *Conn) Filename(schema string) string {
	if conn.check() != nil {
		return ""
	}
	if schema == "" {
		schema = "main"
	}
	cSchema := C.CString(schema)
	defer C.free(unsafe.Pointer(cSchema))

	name := C.sqlite3_db_filename(conn.cDB, cSchema)
	if name == nil {
		return ""
	}
	return C.GoString(name)
}

// Interrupt causes any pending operation on the connection to abort at its
// earliest opportunity. It is safe to call from another goroutine.
//
// https://www.sqlite.org/c3ref/interrupt.html
func (conn *Conn) Interrupt() {
	if conn.check() != nil {
		return
	}
	C.sqlite3_interrupt(conn.cDB)
}

// AutoCommit reports whether the connection is in autocommit mode, that is
// outside an explicit transaction.
//
// https://www.sqlite.org/c3ref/get_autocommit.html
func (conn *Conn) AutoCommit() bool {
	if conn.check() != nil {
		return true
	}
	return C.sqlite3_get_autocommit(conn.cDB) != 0
}

// InTransaction reports whether an explicit transaction is open.
func (conn *Conn) InTransaction() bool {
	return !conn.AutoCommit()
}

// EnableForeignKeys turns foreign key enforcement on or off.
//
// https://www.sqlite.org/c3ref/c_dbconfig_defensive.html
func (conn *Conn) EnableForeignKeys(enable bool) error {
	if err := conn.check(); err != nil {
		return err
	}
	resCode := C.litebind_db_config_flag(conn.cDB, C.SQLITE_DBCONFIG_ENABLE_FKEY, boolToCInt(enable))
	return conn.call("configure foreign keys", resCode)
}

// EnableTriggers turns trigger execution on or off.
func (conn *Conn) EnableTriggers(enable bool) error {
	if err := conn.check(); err != nil {
		return err
	}
	resCode := C.litebind_db_config_flag(conn.cDB, C.SQLITE_DBCONFIG_ENABLE_TRIGGER, boolToCInt(enable))
	return conn.call("configure triggers", resCode)
}

// EnableExtendedResultCodes makes failing calls report extended result
// codes instead of primary ones.
//
// https://www.sqlite.org/c3ref/extended_result_codes.html
func (conn *Conn) EnableExtendedResultCodes(enable bool) error {
	if err := conn.check(); err != nil {
		return err
	}
	resCode := C.sqlite3_extended_result_codes(conn.cDB, boolToCInt(enable))
	return conn.call("configure extended result codes", resCode)
}

// SetSynchronous sets PRAGMA synchronous to one of OFF, NORMAL, FULL or
// EXTRA.
//
// https://www.sqlite.org/pragma.html#pragma_synchronous
func (conn *Conn) SetSynchronous(mode string) error {
	parsed, ok := ParseSyncMode(mode)
	if !ok {
		return fmt.Errorf("invalid synchronous mode %q", mode)
	}
	return conn.Exec("PRAGMA synchronous = " + parsed.Value)
}

// SetBusyTimeout installs the built-in busy handler that sleeps up to the
// given duration while a table is locked. It replaces any handler installed
// with SetBusyHandler.
//
// https://www.sqlite.org/c3ref/busy_timeout.html
func (conn *Conn) SetBusyTimeout(timeout time.Duration) error {
	if err := conn.check(); err != nil {
		return err
	}
	resCode := C.sqlite3_busy_timeout(conn.cDB, C.int(timeout.Milliseconds()))
	if err := conn.call("set busy timeout", resCode); err != nil {
		return err
	}
	deleteHandle(&conn.busyHandler)
	return nil
}

// Attach attaches another database file to the connection under the given
// schema name.
//
// https://www.sqlite.org/lang_attach.html
func (conn *Conn) Attach(filePath, schema string) error {
	if schema == "" {
		return errors.New("attach: schema name is empty")
	}
	return conn.Exec("ATTACH DATABASE ? AS ?", filePath, schema)
}

// Detach detaches a previously attached database.
//
// https://www.sqlite.org/lang_detach.html
func (conn *Conn) Detach(schema string) error {
	return conn.Exec("DETACH DATABASE ?", schema)
}

// Exec executes every statement of the given SQL text from start to finish,
// without returning any data. When args are given they are bound to the
// first statement and transferred to each later statement that declares
// the same number of parameters.
//
// https://www.sqlite.org/c3ref/exec.html
func (conn *Conn) Exec(query string, args ...any) error {
	if err := conn.check(); err != nil {
		return err
	}

	if len(args) == 0 {
		cQuery := C.CString(query)
		defer C.free(unsafe.Pointer(cQuery))

		var errMsg *C.char
		resCode := C.sqlite3_exec(conn.cDB, cQuery, nil, nil, &errMsg)
		if resCode != C.SQLITE_OK {
			err := conn.lastError("execute query", resCode)
			if errMsg != nil {
				err.Msg = C.GoString(errMsg)
				C.sqlite3_free(unsafe.Pointer(errMsg))
			}
			return err
		}
		return nil
	}

	cmd, err := NewCommand(conn, query)
	if errors.Is(err, ErrEmptyStatement) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := cmd.BindArgs(args...); err != nil {
		return errors.Join(err, cmd.Finalize())
	}
	return errors.Join(cmd.ExecuteAll(), cmd.Finalize())
}

// Begin starts a transaction with the given mode.
func (conn *Conn) Begin(mode TxMode) error {
	if !TxModes.Contains(mode) {
		return fmt.Errorf("invalid transaction mode %q", mode.Value)
	}
	return conn.Exec("BEGIN " + mode.Value)
}

// Commit commits the current transaction.
func (conn *Conn) Commit() error {
	return conn.Exec("COMMIT")
}

// Rollback rolls back the current transaction.
func (conn *Conn) Rollback() error {
	return conn.Exec("ROLLBACK")
}

func boolToCInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
