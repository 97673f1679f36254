package sqlitec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type updateEvent struct {
	op    UpdateOp
	db    string
	table string
	rowid int64
}

func TestHooks(t *testing.T) {
	t.Run("Update", func(t *testing.T) {
		conn := openMemory(t)
		require.NoError(t, conn.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)"))

		var events []updateEvent
		require.NoError(t, conn.SetUpdateHandler(func(op UpdateOp, db, table string, rowid int64) {
			events = append(events, updateEvent{op: op, db: db, table: table, rowid: rowid})
		}))

		require.NoError(t, conn.Exec(`
			INSERT INTO t (id, v) VALUES (7, 'a');
			UPDATE t SET v = 'b' WHERE id = 7;
			DELETE FROM t WHERE id = 7;
		`))

		assert.Equal(t, []updateEvent{
			{op: OpInsert, db: "main", table: "t", rowid: 7},
			{op: OpUpdate, db: "main", table: "t", rowid: 7},
			{op: OpDelete, db: "main", table: "t", rowid: 7},
		}, events)

		require.NoError(t, conn.SetUpdateHandler(nil))
		require.NoError(t, conn.Exec("INSERT INTO t (v) VALUES ('c')"))
		assert.Len(t, events, 3)
	})

	t.Run("CommitAndRollback", func(t *testing.T) {
		conn := openMemory(t)
		require.NoError(t, conn.Exec("CREATE TABLE t (v INTEGER)"))

		commits, rollbacks := 0, 0
		veto := false
		require.NoError(t, conn.SetCommitHandler(func() bool {
			commits++
			return veto
		}))
		require.NoError(t, conn.SetRollbackHandler(func() {
			rollbacks++
		}))

		require.NoError(t, conn.Exec("INSERT INTO t VALUES (1)"))
		assert.Equal(t, 1, commits)

		require.NoError(t, conn.Exec("BEGIN; INSERT INTO t VALUES (2); ROLLBACK"))
		assert.Equal(t, 1, rollbacks)

		veto = true
		err := conn.Exec("INSERT INTO t VALUES (3)")
		assert.ErrorIs(t, err, ErrConstraint)
		assert.Equal(t, int64(1), countRows(t, conn, "t"))
	})

	t.Run("PanickingHandlerIsContained", func(t *testing.T) {
		conn := openMemory(t)
		require.NoError(t, conn.Exec("CREATE TABLE t (v INTEGER)"))
		require.NoError(t, conn.SetCommitHandler(func() bool {
			panic("boom")
		}))

		// A panicking commit hook vetoes the commit.
		assert.Error(t, conn.Exec("INSERT INTO t VALUES (1)"))
		require.NoError(t, conn.SetCommitHandler(nil))
		assert.Equal(t, int64(0), countRows(t, conn, "t"))
	})

	t.Run("Authorizer", func(t *testing.T) {
		conn := openMemory(t)
		require.NoError(t, conn.Exec("CREATE TABLE public (v INTEGER); CREATE TABLE secret (v INTEGER)"))

		require.NoError(t, conn.SetAuthorizeHandler(func(action AuthAction, arg1, arg2, db, trigger string) AuthResult {
			if action == AuthRead && arg1 == "secret" {
				return AuthDeny
			}
			if action == AuthDelete {
				return AuthIgnore
			}
			return AuthOK
		}))

		stmt, err := conn.Prepare("SELECT v FROM public")
		require.NoError(t, err)
		assert.NoError(t, stmt.Finalize())

		_, err = conn.Prepare("SELECT v FROM secret")
		assert.ErrorIs(t, err, ErrAuth)

		require.NoError(t, conn.SetAuthorizeHandler(nil))
		stmt, err = conn.Prepare("SELECT v FROM secret")
		require.NoError(t, err)
		assert.NoError(t, stmt.Finalize())
	})

	t.Run("BusyHandler", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "busy.db")

		writer, err := Open(path)
		require.NoError(t, err)
		defer writer.Close()
		require.NoError(t, writer.Exec("CREATE TABLE t (v INTEGER)"))

		other, err := Open(path)
		require.NoError(t, err)
		defer other.Close()

		require.NoError(t, writer.Exec("BEGIN EXCLUSIVE"))

		calls := 0
		require.NoError(t, other.SetBusyHandler(func(count int) bool {
			calls++
			return count < 2
		}))

		err = other.Exec("INSERT INTO t VALUES (1)")
		assert.ErrorIs(t, err, ErrBusy)
		assert.Equal(t, 3, calls)

		require.NoError(t, writer.Exec("COMMIT"))
		assert.NoError(t, other.Exec("INSERT INTO t VALUES (1)"))

		// SetBusyTimeout replaces the Go handler.
		require.NoError(t, other.SetBusyTimeout(0))
		assert.NoError(t, other.SetBusyHandler(nil))
	})

	t.Run("CloseReleasesHandlers", func(t *testing.T) {
		conn, err := Open(":memory:")
		require.NoError(t, err)

		require.NoError(t, conn.SetCommitHandler(func() bool { return false }))
		require.NoError(t, conn.SetUpdateHandler(func(UpdateOp, string, string, int64) {}))
		require.NoError(t, conn.Close())

		assert.Zero(t, conn.commitHandler)
		assert.Zero(t, conn.updateHandler)
		assert.ErrorIs(t, conn.SetCommitHandler(nil), ErrClosed)
	})
}
