package sqlitec

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStmt(t *testing.T) {
	t.Run("PrepareTail", func(t *testing.T) {
		conn := openMemory(t)

		stmt, tail, err := conn.PrepareTail("SELECT 1; SELECT 2;")
		require.NoError(t, err)
		defer stmt.Finalize()
		assert.Contains(t, stmt.SQL(), "SELECT 1")
		assert.Equal(t, " SELECT 2;", tail)
	})

	t.Run("PrepareSkipsEmptyStatements", func(t *testing.T) {
		conn := openMemory(t)

		stmt, err := conn.Prepare(" ; -- comment\n ; SELECT 3")
		require.NoError(t, err)
		defer stmt.Finalize()

		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.Equal(t, 3, stmt.ColumnInt(0))
	})

	t.Run("PrepareBlank", func(t *testing.T) {
		conn := openMemory(t)

		for _, query := range []string{"", "   ", ";;", "/* nothing */"} {
			_, err := conn.Prepare(query)
			assert.ErrorIs(t, err, ErrEmptyStatement, query)
		}
	})

	t.Run("PrepareSyntaxError", func(t *testing.T) {
		conn := openMemory(t)

		_, err := conn.Prepare("SELECT FROM WHERE")
		assert.ErrorIs(t, err, ErrError)
	})

	t.Run("RePrepareFinalizesPrevious", func(t *testing.T) {
		conn := openMemory(t)

		stmt := NewStmt(conn)
		assert.False(t, stmt.IsPrepared())
		_, err := stmt.Step()
		assert.ErrorIs(t, err, ErrClosed)

		require.NoError(t, stmt.Prepare("SELECT 1"))
		require.NoError(t, stmt.Prepare("SELECT 2"))
		assert.Equal(t, "SELECT 2", stmt.SQL())

		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.Equal(t, 2, stmt.ColumnInt(0))
		assert.NoError(t, stmt.Finalize())
	})

	t.Run("FinalizeIdempotent", func(t *testing.T) {
		conn := openMemory(t)

		stmt, err := conn.Prepare("SELECT 1")
		require.NoError(t, err)
		assert.NoError(t, stmt.Finalize())
		assert.NoError(t, stmt.Finalize())
		assert.NoError(t, stmt.Close())
		assert.False(t, stmt.IsPrepared())

		// A zero statement must not crash either.
		assert.NoError(t, (&Stmt{}).Finalize())
	})

	t.Run("ReadOnlyCheck", func(t *testing.T) {
		conn := openMemory(t)
		require.NoError(t, conn.Exec("CREATE TABLE test (id INTEGER PRIMARY KEY, val TEXT)"))

		stmt, err := conn.Prepare("INSERT INTO test (val) VALUES (?)")
		require.NoError(t, err)
		assert.False(t, stmt.ReadOnly())
		assert.NoError(t, stmt.Finalize())

		stmt, err = conn.Prepare("SELECT * FROM test")
		require.NoError(t, err)
		assert.True(t, stmt.ReadOnly())
		assert.NoError(t, stmt.Finalize())
	})

	t.Run("ResetAndClearBindings", func(t *testing.T) {
		conn := openMemory(t)

		stmt, err := conn.Prepare("SELECT ?")
		require.NoError(t, err)
		defer stmt.Finalize()

		require.NoError(t, stmt.BindInt(1, 5))
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.True(t, stmt.Busy())
		assert.Equal(t, 5, stmt.ColumnInt(0))

		require.NoError(t, stmt.Reset())
		assert.False(t, stmt.Busy())
		hasRow, err = stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.Equal(t, 5, stmt.ColumnInt(0))

		require.NoError(t, stmt.Reset())
		require.NoError(t, stmt.ClearBindings())
		hasRow, err = stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.True(t, stmt.ColumnIsNull(0))
	})

	t.Run("ExpandedSQL", func(t *testing.T) {
		conn := openMemory(t)

		stmt, err := conn.Prepare("SELECT ?, ?")
		require.NoError(t, err)
		defer stmt.Finalize()
		require.NoError(t, stmt.BindArgs(1, "two"))
		assert.Equal(t, "SELECT 1, 'two'", stmt.ExpandedSQL())
	})
}

func TestBind(t *testing.T) {
	selectOne := func(t *testing.T, conn *Conn, value any) *Stmt {
		t.Helper()
		stmt, err := conn.Prepare("SELECT ?")
		require.NoError(t, err)
		t.Cleanup(func() { _ = stmt.Finalize() })
		require.NoError(t, stmt.Bind(1, value))
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		return stmt
	}

	conn := openMemory(t)
	text := "pointer"
	var nilText *string
	now := time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)

	type myInt int
	type myString string

	tests := []struct {
		name     string
		value    any
		wantType DataType
		want     any
	}{
		{name: "Nil", value: nil, wantType: TypeNull, want: nil},
		{name: "Int", value: 42, wantType: TypeInteger, want: int64(42)},
		{name: "Int8", value: int8(-8), wantType: TypeInteger, want: int64(-8)},
		{name: "Uint32", value: uint32(math.MaxUint32), wantType: TypeInteger, want: int64(math.MaxUint32)},
		{name: "Uint64", value: uint64(math.MaxInt64), wantType: TypeInteger, want: int64(math.MaxInt64)},
		{name: "Float32", value: float32(0.5), wantType: TypeFloat, want: 0.5},
		{name: "BoolTrue", value: true, wantType: TypeInteger, want: int64(1)},
		{name: "BoolFalse", value: false, wantType: TypeInteger, want: int64(0)},
		{name: "String", value: "hola", wantType: TypeText, want: "hola"},
		{name: "EmptyString", value: "", wantType: TypeText, want: ""},
		{name: "Bytes", value: []byte{1, 2, 3}, wantType: TypeBlob, want: []byte{1, 2, 3}},
		{name: "EmptyBytes", value: []byte{}, wantType: TypeBlob, want: []byte{}},
		{name: "NilBytes", value: []byte(nil), wantType: TypeNull, want: nil},
		{name: "ZeroBlob", value: ZeroBlob(4), wantType: TypeBlob, want: []byte{0, 0, 0, 0}},
		{name: "Time", value: now, wantType: TypeText, want: "2024-05-06 07:08:09.123+00:00"},
		{name: "Pointer", value: &text, wantType: TypeText, want: "pointer"},
		{name: "NilPointer", value: nilText, wantType: TypeNull, want: nil},
		{name: "NamedInt", value: myInt(7), wantType: TypeInteger, want: int64(7)},
		{name: "NamedString", value: myString("s"), wantType: TypeText, want: "s"},
		{name: "ValuerValid", value: sql.NullInt64{Int64: 9, Valid: true}, wantType: TypeInteger, want: int64(9)},
		{name: "ValuerNull", value: sql.NullString{}, wantType: TypeNull, want: nil},
		{name: "NilValuerPointer", value: (*sql.NullString)(nil), wantType: TypeNull, want: nil},
		{name: "ValuerPointer", value: &sql.NullString{String: "v", Valid: true}, wantType: TypeText, want: "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := selectOne(t, conn, tt.value)
			assert.Equal(t, tt.wantType, stmt.ColumnType(0))
			assert.Equal(t, tt.want, stmt.ColumnValue(0))
		})
	}

	t.Run("Errors", func(t *testing.T) {
		stmt, err := conn.Prepare("SELECT ?")
		require.NoError(t, err)
		defer stmt.Finalize()

		assert.Error(t, stmt.Bind(1, uint64(math.MaxUint64)))
		assert.Error(t, stmt.Bind(1, struct{}{}))
		assert.ErrorIs(t, stmt.Bind(2, 1), ErrRange)
	})

	t.Run("Named", func(t *testing.T) {
		stmt, err := conn.Prepare("SELECT :a, @b, $c")
		require.NoError(t, err)
		defer stmt.Finalize()

		assert.Equal(t, 3, stmt.BindParameterCount())
		assert.Equal(t, ":a", stmt.BindParameterName(1))

		for name, want := range map[string]int{"a": 1, ":a": 1, "b": 2, "@b": 2, "c": 3, "$c": 3} {
			idx, err := stmt.BindIndex(name)
			assert.NoError(t, err)
			assert.Equal(t, want, idx, name)
		}

		_, err = stmt.BindIndex("missing")
		assert.ErrorIs(t, err, ErrRange)

		require.NoError(t, stmt.BindArgs(Named("a", 1), sql.Named("b", "two"), Named("$c", 3.5)))
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)

		var a int
		var b string
		var c float64
		require.NoError(t, stmt.Scan(&a, &b, &c))
		assert.Equal(t, 1, a)
		assert.Equal(t, "two", b)
		assert.Equal(t, 3.5, c)
	})

	t.Run("Binder", func(t *testing.T) {
		stmt, err := conn.Prepare("SELECT ?, ?, ?")
		require.NoError(t, err)
		defer stmt.Finalize()

		b := stmt.Binder(1).Add("a").Add(2).Add(nil)
		require.NoError(t, b.Err())
		assert.Equal(t, 4, b.Index())

		// The first failure sticks.
		b = stmt.Binder(3).Add(1).Add(2).Add(3)
		assert.ErrorIs(t, b.Err(), ErrRange)
		assert.Equal(t, 5, b.Index())
	})

	t.Run("BindsAreCopied", func(t *testing.T) {
		stmt, err := conn.Prepare("SELECT ?")
		require.NoError(t, err)
		defer stmt.Finalize()

		data := []byte("abc")
		require.NoError(t, stmt.BindBlob(1, data))
		data[0] = 'z'

		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.Equal(t, []byte("abc"), stmt.ColumnBlob(0))
	})
}

func TestColumns(t *testing.T) {
	conn := openMemory(t)
	require.NoError(t, conn.Exec(`
		CREATE TABLE items (id INTEGER PRIMARY KEY, Name TEXT, price REAL, data BLOB, created DATETIME);
		INSERT INTO items VALUES (1, 'apple', 1.5, x'0102', '2024-01-02 03:04:05');
		INSERT INTO items VALUES (2, NULL, NULL, NULL, 1700000000);
	`))

	stmt, err := conn.Prepare("SELECT id, Name, price, data, created FROM items ORDER BY id")
	require.NoError(t, err)
	defer stmt.Finalize()

	assert.Equal(t, 5, stmt.ColumnCount())
	assert.Equal(t, []string{"id", "Name", "price", "data", "created"}, stmt.ColumnNames())
	assert.Equal(t, "DATETIME", stmt.ColumnDecltype(4))

	idx, ok := stmt.ColumnIndex("name")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = stmt.ColumnIndex("nope")
	assert.False(t, ok)

	t.Run("FirstRow", func(t *testing.T) {
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)
		assert.Equal(t, 5, stmt.DataCount())

		var (
			id      int64
			name    string
			price   float64
			data    []byte
			created time.Time
		)
		require.NoError(t, stmt.Scan(&id, &name, &price, &data, &created))
		assert.Equal(t, int64(1), id)
		assert.Equal(t, "apple", name)
		assert.Equal(t, 1.5, price)
		assert.Equal(t, []byte{1, 2}, data)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), created)
		assert.Equal(t, 5, stmt.ColumnBytes(1))
	})

	t.Run("SecondRow", func(t *testing.T) {
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)

		assert.True(t, stmt.ColumnIsNull(1))
		assert.Equal(t, "", stmt.ColumnText(1))
		assert.Nil(t, stmt.ColumnBlob(3))

		var name sql.NullString
		var price any
		require.NoError(t, stmt.Scan(nil, &name, &price))
		assert.False(t, name.Valid)
		assert.Nil(t, price)

		created, err := stmt.ColumnTime(4)
		require.NoError(t, err)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), created)
	})

	t.Run("Done", func(t *testing.T) {
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		assert.False(t, hasRow)
	})

	t.Run("ScanErrors", func(t *testing.T) {
		require.NoError(t, stmt.Reset())
		hasRow, err := stmt.Step()
		require.NoError(t, err)
		require.True(t, hasRow)

		var a, b, c, d, e, f int
		assert.Error(t, stmt.Scan(&a, &b, &c, &d, &e, &f))

		var wrong struct{}
		assert.Error(t, stmt.Scan(&wrong))

		var bad time.Time
		assert.Error(t, stmt.Scan(nil, &bad))
	})
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1;", true},
		{"SELECT 1", false},
		{"SELECT ';'", false},
		{"SELECT 1; -- trailing comment", true},
		{"CREATE TRIGGER tr AFTER INSERT ON t BEGIN SELECT 1;", false},
		{"CREATE TRIGGER tr AFTER INSERT ON t BEGIN SELECT 1; END;", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplete(tt.query))
		})
	}
}

func TestDataType(t *testing.T) {
	tests := []struct {
		dt   DataType
		code int
		name string
	}{
		{TypeInteger, 1, "integer"},
		{TypeFloat, 2, "real"},
		{TypeText, 3, "text"},
		{TypeBlob, 4, "blob"},
		{TypeNull, 5, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.dt.Value)
			assert.Equal(t, tt.name, tt.dt.String())
			assert.Equal(t, &tt.dt, DataTypes.Parse(tt.code))
		})
	}

	assert.Nil(t, DataTypes.Parse(0))
	assert.Len(t, DataTypes.Members(), 5)
}
