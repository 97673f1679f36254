package sqlitec

/*
#include <sqlite3.h>
*/
import "C"
import (
	"strings"

	"github.com/orsinium-labs/enum"
)

// OpenFlags controls how a database connection is opened.
//
// https://www.sqlite.org/c3ref/open.html
type OpenFlags int

const (
	OpenReadOnly     OpenFlags = C.SQLITE_OPEN_READONLY
	OpenReadWrite    OpenFlags = C.SQLITE_OPEN_READWRITE
	OpenCreate       OpenFlags = C.SQLITE_OPEN_CREATE
	OpenURI          OpenFlags = C.SQLITE_OPEN_URI
	OpenMemory       OpenFlags = C.SQLITE_OPEN_MEMORY
	OpenNoMutex      OpenFlags = C.SQLITE_OPEN_NOMUTEX
	OpenFullMutex    OpenFlags = C.SQLITE_OPEN_FULLMUTEX
	OpenSharedCache  OpenFlags = C.SQLITE_OPEN_SHAREDCACHE
	OpenPrivateCache OpenFlags = C.SQLITE_OPEN_PRIVATECACHE

	// OpenDefault is used when no flags are given.
	OpenDefault = OpenReadWrite | OpenCreate
)

// DataType is the storage class of a value. Its Value is the fundamental
// datatype code SQLite reports.
//
// https://www.sqlite.org/c3ref/c_blob.html
type DataType enum.Member[int]

var (
	TypeInteger = DataType{Value: C.SQLITE_INTEGER}
	TypeFloat   = DataType{Value: C.SQLITE_FLOAT}
	TypeText    = DataType{Value: C.SQLITE_TEXT}
	TypeBlob    = DataType{Value: C.SQLITE_BLOB}
	TypeNull    = DataType{Value: C.SQLITE_NULL}

	DataTypes = enum.New(TypeInteger, TypeFloat, TypeText, TypeBlob, TypeNull)
)

// String returns the lower case SQL name of the storage class.
func (dt DataType) String() string {
	switch dt {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "real"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	default:
		return "null"
	}
}

// dataTypeFromC maps a fundamental datatype code to a DataType.
func dataTypeFromC(code C.int) DataType {
	if dt := DataTypes.Parse(int(code)); dt != nil {
		return *dt
	}
	return TypeNull
}

// TxMode is the locking behavior of a BEGIN statement.
//
// https://www.sqlite.org/lang_transaction.html
type TxMode enum.Member[string]

var (
	TxDeferred  = TxMode{Value: "DEFERRED"}
	TxImmediate = TxMode{Value: "IMMEDIATE"}
	TxExclusive = TxMode{Value: "EXCLUSIVE"}

	TxModes = enum.New(TxDeferred, TxImmediate, TxExclusive)
)

// SyncMode is a value accepted by PRAGMA synchronous.
type SyncMode enum.Member[string]

var (
	SyncOff    = SyncMode{Value: "OFF"}
	SyncNormal = SyncMode{Value: "NORMAL"}
	SyncFull   = SyncMode{Value: "FULL"}
	SyncExtra  = SyncMode{Value: "EXTRA"}

	SyncModes = enum.New(SyncOff, SyncNormal, SyncFull, SyncExtra)
)

// ParseSyncMode returns the SyncMode named by s, case insensitive.
func ParseSyncMode(s string) (SyncMode, bool) {
	mode := SyncModes.Parse(strings.ToUpper(strings.TrimSpace(s)))
	if mode == nil {
		return SyncMode{}, false
	}
	return *mode, true
}

// UpdateOp is the kind of row change reported to an update handler.
type UpdateOp enum.Member[string]

var (
	OpInsert = UpdateOp{Value: "insert"}
	OpUpdate = UpdateOp{Value: "update"}
	OpDelete = UpdateOp{Value: "delete"}

	UpdateOps = enum.New(OpInsert, OpUpdate, OpDelete)
)

func updateOpFromC(code C.int) UpdateOp {
	switch code {
	case C.SQLITE_INSERT:
		return OpInsert
	case C.SQLITE_DELETE:
		return OpDelete
	default:
		return OpUpdate
	}
}

// AuthAction is the action code passed to an authorizer.
//
// https://www.sqlite.org/c3ref/c_alter_table.html
type AuthAction int

const (
	AuthCreateIndex       AuthAction = C.SQLITE_CREATE_INDEX
	AuthCreateTable       AuthAction = C.SQLITE_CREATE_TABLE
	AuthCreateTempIndex   AuthAction = C.SQLITE_CREATE_TEMP_INDEX
	AuthCreateTempTable   AuthAction = C.SQLITE_CREATE_TEMP_TABLE
	AuthCreateTempTrigger AuthAction = C.SQLITE_CREATE_TEMP_TRIGGER
	AuthCreateTempView    AuthAction = C.SQLITE_CREATE_TEMP_VIEW
	AuthCreateTrigger     AuthAction = C.SQLITE_CREATE_TRIGGER
	AuthCreateView        AuthAction = C.SQLITE_CREATE_VIEW
	AuthDelete            AuthAction = C.SQLITE_DELETE
	AuthDropIndex         AuthAction = C.SQLITE_DROP_INDEX
	AuthDropTable         AuthAction = C.SQLITE_DROP_TABLE
	AuthDropTempIndex     AuthAction = C.SQLITE_DROP_TEMP_INDEX
	AuthDropTempTable     AuthAction = C.SQLITE_DROP_TEMP_TABLE
	AuthDropTempTrigger   AuthAction = C.SQLITE_DROP_TEMP_TRIGGER
	AuthDropTempView      AuthAction = C.SQLITE_DROP_TEMP_VIEW
	AuthDropTrigger       AuthAction = C.SQLITE_DROP_TRIGGER
	AuthDropView          AuthAction = C.SQLITE_DROP_VIEW
	AuthInsert            AuthAction = C.SQLITE_INSERT
	AuthPragma            AuthAction = C.SQLITE_PRAGMA
	AuthRead              AuthAction = C.SQLITE_READ
	AuthSelect            AuthAction = C.SQLITE_SELECT
	AuthTransaction       AuthAction = C.SQLITE_TRANSACTION
	AuthUpdate            AuthAction = C.SQLITE_UPDATE
	AuthAttach            AuthAction = C.SQLITE_ATTACH
	AuthDetach            AuthAction = C.SQLITE_DETACH
	AuthAlterTable        AuthAction = C.SQLITE_ALTER_TABLE
	AuthReindex           AuthAction = C.SQLITE_REINDEX
	AuthAnalyze           AuthAction = C.SQLITE_ANALYZE
	AuthCreateVTable      AuthAction = C.SQLITE_CREATE_VTABLE
	AuthDropVTable        AuthAction = C.SQLITE_DROP_VTABLE
	AuthFunction          AuthAction = C.SQLITE_FUNCTION
	AuthSavepoint         AuthAction = C.SQLITE_SAVEPOINT
	AuthRecursive         AuthAction = C.SQLITE_RECURSIVE
)

// AuthResult is the answer of an authorizer.
type AuthResult int

const (
	AuthOK     AuthResult = C.SQLITE_OK
	AuthDeny   AuthResult = C.SQLITE_DENY
	AuthIgnore AuthResult = C.SQLITE_IGNORE
)
