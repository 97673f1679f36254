package sqlitec

import (
	"errors"
	"fmt"
)

// Error is returned by every operation that fails inside SQLite.
type Error struct {
	// Code is the primary result code.
	Code ResultCode
	// ExtendedCode is the extended result code, equal to Code when SQLite
	// did not report a more specific one.
	ExtendedCode ResultCode
	// Msg is the message reported by sqlite3_errmsg, or the generic
	// description of the code when there is no connection to ask.
	Msg string
	// Op describes what the wrapper was doing, for example "prepare
	// statement".
	Op string
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.ExtendedCode.Description()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.ExtendedCode, msg)
	}
	return fmt.Sprintf("failed to %s: %s: %s", e.Op, e.ExtendedCode, msg)
}

// Is reports whether target is an *Error with the same primary code, so
// errors.Is(err, ErrBusy) matches every SQLITE_BUSY variant.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors to be used with errors.Is.
var (
	ErrError      = &Error{Code: SQLITE_ERROR, ExtendedCode: SQLITE_ERROR}
	ErrInternal   = &Error{Code: SQLITE_INTERNAL, ExtendedCode: SQLITE_INTERNAL}
	ErrAbort      = &Error{Code: SQLITE_ABORT, ExtendedCode: SQLITE_ABORT}
	ErrBusy       = &Error{Code: SQLITE_BUSY, ExtendedCode: SQLITE_BUSY}
	ErrLocked     = &Error{Code: SQLITE_LOCKED, ExtendedCode: SQLITE_LOCKED}
	ErrNoMem      = &Error{Code: SQLITE_NOMEM, ExtendedCode: SQLITE_NOMEM}
	ErrReadOnly   = &Error{Code: SQLITE_READONLY, ExtendedCode: SQLITE_READONLY}
	ErrInterrupt  = &Error{Code: SQLITE_INTERRUPT, ExtendedCode: SQLITE_INTERRUPT}
	ErrIOErr      = &Error{Code: SQLITE_IOERR, ExtendedCode: SQLITE_IOERR}
	ErrCorrupt    = &Error{Code: SQLITE_CORRUPT, ExtendedCode: SQLITE_CORRUPT}
	ErrNotFound   = &Error{Code: SQLITE_NOTFOUND, ExtendedCode: SQLITE_NOTFOUND}
	ErrFull       = &Error{Code: SQLITE_FULL, ExtendedCode: SQLITE_FULL}
	ErrCantOpen   = &Error{Code: SQLITE_CANTOPEN, ExtendedCode: SQLITE_CANTOPEN}
	ErrConstraint = &Error{Code: SQLITE_CONSTRAINT, ExtendedCode: SQLITE_CONSTRAINT}
	ErrMismatch   = &Error{Code: SQLITE_MISMATCH, ExtendedCode: SQLITE_MISMATCH}
	ErrMisuse     = &Error{Code: SQLITE_MISUSE, ExtendedCode: SQLITE_MISUSE}
	ErrAuth       = &Error{Code: SQLITE_AUTH, ExtendedCode: SQLITE_AUTH}
	ErrRange      = &Error{Code: SQLITE_RANGE, ExtendedCode: SQLITE_RANGE}
	ErrNotADB     = &Error{Code: SQLITE_NOTADB, ExtendedCode: SQLITE_NOTADB}
)

var (
	// ErrClosed is returned when a released connection or statement is used.
	ErrClosed = errors.New("sqlitec: use of closed handle")
	// ErrEmptyStatement is returned when the SQL text holds no statement,
	// only whitespace or comments.
	ErrEmptyStatement = errors.New("sqlitec: empty statement")
	// ErrTxDone is returned when a finished transaction is committed or
	// rolled back again.
	ErrTxDone = errors.New("sqlitec: transaction has already been committed or rolled back")
)

// newCodeError builds an *Error for a result code without consulting a
// connection.
func newCodeError(op string, rc ResultCode, msg string) *Error {
	return &Error{
		Code:         rc.Primary(),
		ExtendedCode: rc,
		Msg:          msg,
		Op:           op,
	}
}

// ErrorCode returns the primary result code carried by err, or SQLITE_OK
// when err does not wrap an *Error.
func ErrorCode(err error) ResultCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return SQLITE_OK
}
