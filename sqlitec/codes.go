package sqlitec

/*
#include <sqlite3.h>
*/
import "C"
import "fmt"

// ResultCode is a SQLite primary or extended result code.
//
// https://www.sqlite.org/rescode.html
type ResultCode int

const (
	SQLITE_OK         ResultCode = 0
	SQLITE_ERROR      ResultCode = 1
	SQLITE_INTERNAL   ResultCode = 2
	SQLITE_PERM       ResultCode = 3
	SQLITE_ABORT      ResultCode = 4
	SQLITE_BUSY       ResultCode = 5
	SQLITE_LOCKED     ResultCode = 6
	SQLITE_NOMEM      ResultCode = 7
	SQLITE_READONLY   ResultCode = 8
	SQLITE_INTERRUPT  ResultCode = 9
	SQLITE_IOERR      ResultCode = 10
	SQLITE_CORRUPT    ResultCode = 11
	SQLITE_NOTFOUND   ResultCode = 12
	SQLITE_FULL       ResultCode = 13
	SQLITE_CANTOPEN   ResultCode = 14
	SQLITE_PROTOCOL   ResultCode = 15
	SQLITE_EMPTY      ResultCode = 16
	SQLITE_SCHEMA     ResultCode = 17
	SQLITE_TOOBIG     ResultCode = 18
	SQLITE_CONSTRAINT ResultCode = 19
	SQLITE_MISMATCH   ResultCode = 20
	SQLITE_MISUSE     ResultCode = 21
	SQLITE_NOLFS      ResultCode = 22
	SQLITE_AUTH       ResultCode = 23
	SQLITE_FORMAT     ResultCode = 24
	SQLITE_RANGE      ResultCode = 25
	SQLITE_NOTADB     ResultCode = 26
	SQLITE_NOTICE     ResultCode = 27
	SQLITE_WARNING    ResultCode = 28
	SQLITE_ROW        ResultCode = 100
	SQLITE_DONE       ResultCode = 101
)

var resCodeNames = map[ResultCode]string{
	SQLITE_OK:         "SQLITE_OK",
	SQLITE_ERROR:      "SQLITE_ERROR",
	SQLITE_INTERNAL:   "SQLITE_INTERNAL",
	SQLITE_PERM:       "SQLITE_PERM",
	SQLITE_ABORT:      "SQLITE_ABORT",
	SQLITE_BUSY:       "SQLITE_BUSY",
	SQLITE_LOCKED:     "SQLITE_LOCKED",
	SQLITE_NOMEM:      "SQLITE_NOMEM",
	SQLITE_READONLY:   "SQLITE_READONLY",
	SQLITE_INTERRUPT:  "SQLITE_INTERRUPT",
	SQLITE_IOERR:      "SQLITE_IOERR",
	SQLITE_CORRUPT:    "SQLITE_CORRUPT",
	SQLITE_NOTFOUND:   "SQLITE_NOTFOUND",
	SQLITE_FULL:       "SQLITE_FULL",
	SQLITE_CANTOPEN:   "SQLITE_CANTOPEN",
	SQLITE_PROTOCOL:   "SQLITE_PROTOCOL",
	SQLITE_EMPTY:      "SQLITE_EMPTY",
	SQLITE_SCHEMA:     "SQLITE_SCHEMA",
	SQLITE_TOOBIG:     "SQLITE_TOOBIG",
	SQLITE_CONSTRAINT: "SQLITE_CONSTRAINT",
	SQLITE_MISMATCH:   "SQLITE_MISMATCH",
	SQLITE_MISUSE:     "SQLITE_MISUSE",
	SQLITE_NOLFS:      "SQLITE_NOLFS",
	SQLITE_AUTH:       "SQLITE_AUTH",
	SQLITE_FORMAT:     "SQLITE_FORMAT",
	SQLITE_RANGE:      "SQLITE_RANGE",
	SQLITE_NOTADB:     "SQLITE_NOTADB",
	SQLITE_NOTICE:     "SQLITE_NOTICE",
	SQLITE_WARNING:    "SQLITE_WARNING",
	SQLITE_ROW:        "SQLITE_ROW",
	SQLITE_DONE:       "SQLITE_DONE",
}

// Primary returns the primary result code, dropping the extended bits.
func (rc ResultCode) Primary() ResultCode {
	return rc & 0xff
}

// String returns the symbolic name of the result code, for example
// SQLITE_BUSY. Extended codes are reported by their primary name and value.
func (rc ResultCode) String() string {
	if name, ok := resCodeNames[rc]; ok {
		return name
	}
	if name, ok := resCodeNames[rc.Primary()]; ok {
		return fmt.Sprintf("%s(%d)", name, int(rc))
	}
	return fmt.Sprintf("SQLITE_UNKNOWN(%d)", int(rc))
}

// Description returns the English-language description of the result code.
//
// https://www.sqlite.org/c3ref/errcode.html
func (rc ResultCode) Description() string {
	return C.GoString(C.sqlite3_errstr(C.int(rc)))
}
