package sqlitec

/*
#include <stdint.h>
#include <sqlite3.h>
#include "bridge.h"
*/
import "C"
import (
	"runtime/cgo"
)

// BusyHandler is called when a table is locked. count is the number of
// times it has been invoked for the same locking event. Returning false
// makes the statement fail with SQLITE_BUSY.
type BusyHandler func(count int) bool

// CommitHandler is called before a transaction commits. Returning true
// turns the commit into a rollback.
type CommitHandler func() bool

// RollbackHandler is called when a transaction is rolled back.
type RollbackHandler func()

// UpdateHandler is called for every row inserted, updated or deleted in a
// rowid table.
type UpdateHandler func(op UpdateOp, db, table string, rowid int64)

// AuthorizeHandler is called while statements are compiled to allow, deny
// or ignore each action.
type AuthorizeHandler func(action AuthAction, arg1, arg2, db, trigger string) AuthResult

// SetBusyHandler installs a busy handler, replacing any handler or timeout
// set before. A nil handler removes it.
//
// https://www.sqlite.org/c3ref/busy_handler.html
func (conn *Conn) SetBusyHandler(handler BusyHandler) error {
	if err := conn.check(); err != nil {
		return err
	}
	var h cgo.Handle
	if handler != nil {
		h = cgo.NewHandle(handler)
	}
	resCode := C.litebind_set_busy_handler(conn.cDB, C.uintptr_t(h))
	if err := conn.call("set busy handler", resCode); err != nil {
		deleteHandle(&h)
		return err
	}
	deleteHandle(&conn.busyHandler)
	conn.busyHandler = h
	return nil
}

// SetCommitHandler installs a commit hook. A nil handler removes it.
//
// https://www.sqlite.org/c3ref/commit_hook.html
func (conn *Conn) SetCommitHandler(handler CommitHandler) error {
	if err := conn.check(); err != nil {
		return err
	}
	var h cgo.Handle
	if handler != nil {
		h = cgo.NewHandle(handler)
	}
	C.litebind_set_commit_hook(conn.cDB, C.uintptr_t(h))
	deleteHandle(&conn.commitHandler)
	conn.commitHandler = h
	return nil
}

// SetRollbackHandler installs a rollback hook. A nil handler removes it.
//
// https://www.sqlite.org/c3ref/commit_hook.html
func (conn *Conn) SetRollbackHandler(handler RollbackHandler) error {
	if err := conn.check(); err != nil {
		return err
	}
	var h cgo.Handle
	if handler != nil {
		h = cgo.NewHandle(handler)
	}
	C.litebind_set_rollback_hook(conn.cDB, C.uintptr_t(h))
	deleteHandle(&conn.rollbackHandler)
	conn.rollbackHandler = h
	return nil
}

// SetUpdateHandler installs an update hook. A nil handler removes it.
//
// https://www.sqlite.org/c3ref/update_hook.html
func (conn *Conn) SetUpdateHandler(handler UpdateHandler) error {
	if err := conn.check(); err != nil {
		return err
	}
	var h cgo.Handle
	if handler != nil {
		h = cgo.NewHandle(handler)
	}
	C.litebind_set_update_hook(conn.cDB, C.uintptr_t(h))
	deleteHandle(&conn.updateHandler)
	conn.updateHandler = h
	return nil
}

// SetAuthorizeHandler installs an authorizer. A nil handler removes it.
//
// https://www.sqlite.org/c3ref/set_authorizer.html
func (conn *Conn) SetAuthorizeHandler(handler AuthorizeHandler) error {
	if err := conn.check(); err != nil {
		return err
	}
	var h cgo.Handle
	if handler != nil {
		h = cgo.NewHandle(handler)
	}
	resCode := C.litebind_set_authorizer(conn.cDB, C.uintptr_t(h))
	if err := conn.call("set authorizer", resCode); err != nil {
		deleteHandle(&h)
		return err
	}
	deleteHandle(&conn.authorizeHandler)
	conn.authorizeHandler = h
	return nil
}

func deleteHandle(h *cgo.Handle) {
	if *h != 0 {
		h.Delete()
		*h = 0
	}
}

// releaseHandlers frees the handles of every installed hook. It must only
// run once SQLite can no longer call them.
func (conn *Conn) releaseHandlers() {
	deleteHandle(&conn.busyHandler)
	deleteHandle(&conn.commitHandler)
	deleteHandle(&conn.rollbackHandler)
	deleteHandle(&conn.updateHandler)
	deleteHandle(&conn.authorizeHandler)
}

//export litebindBusy
func litebindBusy(h C.uintptr_t, count C.int) (ret C.int) {
	defer func() {
		if recover() != nil {
			ret = 0
		}
	}()
	fn := cgo.Handle(h).Value().(BusyHandler)
	if fn(int(count)) {
		return 1
	}
	return 0
}

//export litebindCommit
func litebindCommit(h C.uintptr_t) (ret C.int) {
	defer func() {
		if recover() != nil {
			ret = 1
		}
	}()
	fn := cgo.Handle(h).Value().(CommitHandler)
	if fn() {
		return 1
	}
	return 0
}

//export litebindRollback
func litebindRollback(h C.uintptr_t) {
	defer func() { _ = recover() }()
	fn := cgo.Handle(h).Value().(RollbackHandler)
	fn()
}

//export litebindUpdate
func litebindUpdate(h C.uintptr_t, op C.int, db, table *C.char, rowid C.sqlite3_int64) {
	defer func() { _ = recover() }()
	fn := cgo.Handle(h).Value().(UpdateHandler)
	fn(updateOpFromC(op), C.GoString(db), C.GoString(table), int64(rowid))
}

//export litebindAuthorize
func litebindAuthorize(h C.uintptr_t, action C.int, arg1, arg2, db, trigger *C.char) (ret C.int) {
	defer func() {
		if recover() != nil {
			ret = C.SQLITE_DENY
		}
	}()
	fn := cgo.Handle(h).Value().(AuthorizeHandler)
	return C.int(fn(AuthAction(action), goStringOrEmpty(arg1), goStringOrEmpty(arg2),
		goStringOrEmpty(db), goStringOrEmpty(trigger)))
}

func goStringOrEmpty(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}
