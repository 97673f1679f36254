package sqlitec

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryOrExec(t *testing.T) {
	open := func(t *testing.T) *Conn {
		conn, err := Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	t.Run("CreateTable", func(t *testing.T) {
		conn := open(t)

		res, err := conn.QueryOrExec("CREATE TABLE test (id INTEGER PRIMARY KEY, val TEXT)", nil)
		assert.NoError(t, err)
		assert.False(t, res.IsRead())
		assert.Len(t, res.Columns, 0)
	})

	t.Run("InsertMultipleTypes", func(t *testing.T) {
		conn := open(t)

		_, err := conn.QueryOrExec(`
			CREATE TABLE test_types (
				id INTEGER PRIMARY KEY,
				flag BOOLEAN,
				num_int INTEGER,
				num_float REAL,
				txt TEXT,
				bytes BLOB,
				nullable TEXT
			)
		`, nil)
		assert.NoError(t, err)

		res, err := conn.QueryOrExec(
			`
				INSERT INTO test_types (flag, num_int, num_float, txt, bytes, nullable)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
			[]QueryParam{
				{Value: true},
				{Value: 123},
				{Value: 3.14},
				{Value: "hola"},
				{Value: []byte("raw")},
				{Value: nil},
			},
		)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), res.RowsAffected)
		assert.Equal(t, int64(1), res.LastInsertID)

		sel, err := conn.QueryOrExec("SELECT flag, num_int, num_float, txt, bytes, nullable FROM test_types", nil)
		assert.NoError(t, err)
		assert.True(t, sel.IsRead())
		assert.Equal(t, []string{"flag", "num_int", "num_float", "txt", "bytes", "nullable"}, sel.Columns)
		assert.Equal(t, []string{"boolean", "integer", "real", "text", "blob", "text"}, sel.Types)
		require.Len(t, sel.Rows, 1)
		row := sel.Rows[0]

		assert.Equal(t, int64(1), row[0])
		assert.Equal(t, int64(123), row[1])
		assert.Equal(t, 3.14, row[2])
		assert.Equal(t, "hola", row[3])
		assert.Equal(t, []byte("raw"), row[4])
		assert.Nil(t, row[5])
	})

	t.Run("ExpressionTypes", func(t *testing.T) {
		conn := open(t)

		res, err := conn.QueryOrExec("SELECT 1 AS a, 2.5 AS b, 'x' AS c, NULL AS d", nil)
		assert.NoError(t, err)
		assert.Equal(t, []string{"integer", "real", "text", ""}, res.Types)
	})

	t.Run("InsertNamedParameter", func(t *testing.T) {
		conn := open(t)

		_, err := conn.QueryOrExec("CREATE TABLE named_test (id INTEGER PRIMARY KEY, value TEXT)", nil)
		require.NoError(t, err)

		runTest := func(nameForQuery string, nameForParam string) {
			value := uuid.NewString()

			_, err := conn.QueryOrExec(
				fmt.Sprintf("INSERT INTO named_test (value) VALUES (%s)", nameForQuery),
				[]QueryParam{
					{Name: nameForParam, Value: value},
				},
			)
			assert.NoError(t, err)

			res, err := conn.QueryOrExec(
				"SELECT value FROM named_test ORDER BY id DESC LIMIT 1",
				nil,
			)
			assert.NoError(t, err)
			assert.Len(t, res.Rows, 1)
			assert.Equal(t, value, res.Rows[0][0])
		}

		// https://www.sqlite.org/lang_expr.html#varparam
		runTest("?123", "?123")
		runTest("?1", "")
		runTest("?", "")
		runTest(":val", ":val")
		runTest(":val", "val")
		runTest("@val", "@val")
		runTest("@val", "val")
		runTest("$val", "$val")
		runTest("$val", "val")
		runTest("$val::test", "$val::test")
		runTest("$val::test", "val::test")
		runTest("$val(test)", "$val(test)")
		runTest("$val(test)", "val(test)")
	})

	t.Run("UnknownNamedParameter", func(t *testing.T) {
		conn := open(t)

		_, err := conn.QueryOrExec("SELECT :a", []QueryParam{{Name: "b", Value: 1}})
		assert.ErrorIs(t, err, ErrRange)
	})

	t.Run("UpdateAndRowsAffected", func(t *testing.T) {
		conn := open(t)

		_, err := conn.QueryOrExec("CREATE TABLE upd (id INTEGER PRIMARY KEY, val TEXT)", nil)
		assert.NoError(t, err)
		_, err = conn.QueryOrExec("INSERT INTO upd (val) VALUES ('original'), ('other')", nil)
		assert.NoError(t, err)

		res, err := conn.QueryOrExec("UPDATE upd SET val='nuevo'", nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), res.RowsAffected)
	})

	t.Run("DeleteAndRowsAffectedZero", func(t *testing.T) {
		conn := open(t)

		_, err := conn.QueryOrExec("CREATE TABLE del (id INTEGER PRIMARY KEY, val TEXT)", nil)
		assert.NoError(t, err)
		_, err = conn.QueryOrExec("INSERT INTO del (val) VALUES ('abc')", nil)
		assert.NoError(t, err)

		res, err := conn.QueryOrExec("DELETE FROM del WHERE id=999", nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), res.RowsAffected)

		res, err = conn.QueryOrExec("CREATE TABLE other (id INTEGER)", nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), res.RowsAffected)
	})

	t.Run("LargeBlob", func(t *testing.T) {
		conn := open(t)

		_, err := conn.QueryOrExec("CREATE TABLE blobtest (id INTEGER PRIMARY KEY, data BLOB)", nil)
		assert.NoError(t, err)

		largeData := make([]byte, 1024*1024) // 1MB
		for i := range largeData {
			largeData[i] = byte(i % 256)
		}

		_, err = conn.QueryOrExec("INSERT INTO blobtest(data) VALUES(?)", []QueryParam{{Value: largeData}})
		assert.NoError(t, err)

		sel, err := conn.QueryOrExec("SELECT data FROM blobtest", nil)
		assert.NoError(t, err)
		assert.Len(t, sel.Rows, 1)
		assert.Equal(t, largeData, sel.Rows[0][0])
	})

	t.Run("Transactions", func(t *testing.T) {
		conn := open(t)

		recreateTable := func() {
			_, err := conn.QueryOrExec("DROP TABLE IF EXISTS test", nil)
			assert.NoError(t, err)
			_, err = conn.QueryOrExec("CREATE TABLE test (id INTEGER PRIMARY KEY, val TEXT)", nil)
			assert.NoError(t, err)
		}

		for _, tc := range []struct {
			name   string
			finish string
			want   int
		}{
			{name: "Successful", finish: "COMMIT", want: 20},
			{name: "Rollback", finish: "ROLLBACK", want: 0},
		} {
			t.Run(tc.name, func(t *testing.T) {
				recreateTable()

				_, err := conn.QueryOrExec("BEGIN TRANSACTION", nil)
				assert.NoError(t, err)
				assert.True(t, conn.InTransaction())

				for range 20 {
					_, err = conn.QueryOrExec(
						"INSERT INTO test (val) VALUES (?)",
						[]QueryParam{{Value: uuid.NewString()}},
					)
					assert.NoError(t, err)
				}

				_, err = conn.QueryOrExec(tc.finish, nil)
				assert.NoError(t, err)
				assert.False(t, conn.InTransaction())

				sel, err := conn.QueryOrExec("SELECT val FROM test", nil)
				assert.NoError(t, err)
				assert.Len(t, sel.Rows, tc.want)
			})
		}
	})
}
