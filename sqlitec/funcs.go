package sqlitec

/*
#include <stdint.h>
#include <stdlib.h>
#include <sqlite3.h>
#include "bridge.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"runtime/cgo"
	"unsafe"
)

// ScalarFunc implements a user-defined SQL function. The returned value is
// converted like a bound parameter; an error is reported to SQLite as the
// statement error.
type ScalarFunc func(args []Value) (any, error)

// AggregateFunc accumulates one group of rows. A fresh AggregateFunc is
// created for every group.
type AggregateFunc interface {
	Step(args []Value) error
	Final() (any, error)
}

type funcEntry struct {
	scalar    ScalarFunc
	aggregate func() AggregateFunc
}

// CreateFunction registers a scalar SQL function. nArg is the number of
// arguments, or -1 for any number. Deterministic functions may be used in
// indexes and are factored out of loops by the planner.
//
// https://www.sqlite.org/c3ref/create_function.html
func (conn *Conn) CreateFunction(name string, nArg int, deterministic bool, fn ScalarFunc) error {
	if fn == nil {
		return errors.New("create function: nil function")
	}
	return conn.createFunction(name, nArg, deterministic, &funcEntry{scalar: fn})
}

// CreateAggregate registers an aggregate SQL function. newFn is called once
// per group.
//
// https://www.sqlite.org/c3ref/create_function.html
func (conn *Conn) CreateAggregate(name string, nArg int, newFn func() AggregateFunc) error {
	if newFn == nil {
		return errors.New("create aggregate: nil constructor")
	}
	return conn.createFunction(name, nArg, false, &funcEntry{aggregate: newFn})
}

func (conn *Conn) createFunction(name string, nArg int, deterministic bool, entry *funcEntry) error {
	if err := conn.check(); err != nil {
		return err
	}

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	flags := C.int(C.SQLITE_UTF8)
	if deterministic {
		flags |= C.SQLITE_DETERMINISTIC
	}

	// SQLite calls the destructor, freeing the handle, when the function is
	// replaced, the connection closes or registration fails.
	h := cgo.NewHandle(entry)
	var resCode C.int
	if entry.scalar != nil {
		resCode = C.litebind_create_function(conn.cDB, cName, C.int(nArg), flags, C.uintptr_t(h))
	} else {
		resCode = C.litebind_create_aggregate(conn.cDB, cName, C.int(nArg), flags, C.uintptr_t(h))
	}
	return conn.call(fmt.Sprintf("create function %s", name), resCode)
}

// Value is an argument of a user-defined function. It is only valid during
// the call.
type Value struct {
	cValue *C.sqlite3_value
}

// Type returns the storage class of the value.
func (v Value) Type() DataType {
	return dataTypeFromC(C.sqlite3_value_type(v.cValue))
}

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool {
	return C.sqlite3_value_type(v.cValue) == C.SQLITE_NULL
}

// Int returns the value as int.
func (v Value) Int() int {
	return int(C.sqlite3_value_int64(v.cValue))
}

// Int64 returns the value as int64.
func (v Value) Int64() int64 {
	return int64(C.sqlite3_value_int64(v.cValue))
}

// Float64 returns the value as float64.
func (v Value) Float64() float64 {
	return float64(C.sqlite3_value_double(v.cValue))
}

// Text returns the value as string.
func (v Value) Text() string {
	p := C.sqlite3_value_text(v.cValue)
	if p == nil {
		return ""
	}
	n := C.sqlite3_value_bytes(v.cValue)
	return C.GoStringN((*C.char)(unsafe.Pointer(p)), n)
}

// Blob returns a copy of the value as []byte.
func (v Value) Blob() []byte {
	p := C.sqlite3_value_blob(v.cValue)
	n := C.sqlite3_value_bytes(v.cValue)
	if p == nil || n == 0 {
		if v.IsNull() {
			return nil
		}
		return []byte{}
	}
	return C.GoBytes(p, n)
}

// Interface returns the value using its storage class.
func (v Value) Interface() any {
	switch v.Type() {
	case TypeInteger:
		return v.Int64()
	case TypeFloat:
		return v.Float64()
	case TypeText:
		return v.Text()
	case TypeBlob:
		return v.Blob()
	default:
		return nil
	}
}

func funcArgs(argc C.int, argv **C.sqlite3_value) []Value {
	args := make([]Value, int(argc))
	for i := range args {
		args[i] = Value{cValue: C.litebind_arg(argv, C.int(i))}
	}
	return args
}

func setResult(ctx *C.sqlite3_context, value any) {
	v, err := storageValue(value)
	if err != nil {
		setError(ctx, fmt.Errorf("failed to set result: %w", err))
		return
	}

	switch v := v.(type) {
	case int64:
		C.sqlite3_result_int64(ctx, C.sqlite3_int64(v))
	case float64:
		C.sqlite3_result_double(ctx, C.double(v))
	case string:
		C.litebind_result_text(ctx, (*C.char)(unsafe.Pointer(unsafe.StringData(v))), C.int(len(v)))
	case []byte:
		if v == nil {
			C.sqlite3_result_null(ctx)
			return
		}
		C.litebind_result_blob(ctx, unsafe.Pointer(unsafe.SliceData(v)), C.int(len(v)))
	case ZeroBlob:
		C.sqlite3_result_zeroblob(ctx, C.int(v))
	default:
		C.sqlite3_result_null(ctx)
	}
}

func setError(ctx *C.sqlite3_context, err error) {
	msg := C.CString(err.Error())
	defer C.free(unsafe.Pointer(msg))
	C.sqlite3_result_error(ctx, msg, -1)
}

func recoverResult(ctx *C.sqlite3_context) {
	if p := recover(); p != nil {
		setError(ctx, fmt.Errorf("panic in user function: %v", p))
	}
}

//export litebindFuncCall
func litebindFuncCall(ctx *C.sqlite3_context, argc C.int, argv **C.sqlite3_value) {
	defer recoverResult(ctx)

	entry := cgo.Handle(C.litebind_user_data(ctx)).Value().(*funcEntry)
	res, err := entry.scalar(funcArgs(argc, argv))
	if err != nil {
		setError(ctx, err)
		return
	}
	setResult(ctx, res)
}

//export litebindAggStep
func litebindAggStep(ctx *C.sqlite3_context, argc C.int, argv **C.sqlite3_value) {
	defer recoverResult(ctx)

	slot := C.litebind_aggregate_slot(ctx, 1)
	if slot == nil {
		C.sqlite3_result_error_nomem(ctx)
		return
	}
	if *slot == 0 {
		entry := cgo.Handle(C.litebind_user_data(ctx)).Value().(*funcEntry)
		*slot = C.uintptr_t(cgo.NewHandle(entry.aggregate()))
	}

	agg := cgo.Handle(*slot).Value().(AggregateFunc)
	if err := agg.Step(funcArgs(argc, argv)); err != nil {
		setError(ctx, err)
	}
}

//export litebindAggFinal
func litebindAggFinal(ctx *C.sqlite3_context) {
	defer recoverResult(ctx)

	var agg AggregateFunc
	slot := C.litebind_aggregate_slot(ctx, 0)
	if slot != nil && *slot != 0 {
		h := cgo.Handle(*slot)
		agg = h.Value().(AggregateFunc)
		h.Delete()
		*slot = 0
	} else {
		// No rows were stepped.
		entry := cgo.Handle(C.litebind_user_data(ctx)).Value().(*funcEntry)
		agg = entry.aggregate()
	}

	res, err := agg.Final()
	if err != nil {
		setError(ctx, err)
		return
	}
	setResult(ctx, res)
}

//export litebindFuncDestroy
func litebindFuncDestroy(h C.uintptr_t) {
	if h != 0 {
		cgo.Handle(h).Delete()
	}
}
