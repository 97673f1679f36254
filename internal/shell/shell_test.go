package shell

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/nsqlite/litebind/internal/log"
	"github.com/nsqlite/litebind/sqlitec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()

	conn, err := sqlitec.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var out bytes.Buffer
	sh, err := New(conn, &out, log.NewLogger(io.Discard, slog.LevelError))
	require.NoError(t, err)
	return sh, &out
}

func TestExecute(t *testing.T) {
	t.Run("ReadAndWrite", func(t *testing.T) {
		sh, out := newTestShell(t)

		require.NoError(t, sh.Execute(`
			CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, avatar BLOB);
			INSERT INTO users (name, avatar) VALUES ('alice', x'CAFE'), ('bob', NULL);
			SELECT id, name, avatar FROM users ORDER BY id;
		`))

		got := out.String()
		assert.Contains(t, got, "Rows Affected")
		assert.Contains(t, got, "alice")
		assert.Contains(t, got, "x'cafe'")
		assert.Contains(t, got, "NULL")
	})

	t.Run("StopsAtFirstError", func(t *testing.T) {
		sh, out := newTestShell(t)

		err := sh.Execute(`
			CREATE TABLE t (v TEXT NOT NULL);
			INSERT INTO t VALUES (NULL);
			INSERT INTO t VALUES ('never');
		`)
		require.Error(t, err)
		assert.ErrorIs(t, err, sqlitec.ErrConstraint)
		assert.Contains(t, out.String(), "Error:")

		out.Reset()
		require.NoError(t, sh.Execute("SELECT COUNT(*) AS n FROM t;"))
		assert.Contains(t, out.String(), " 0 ")
	})

	t.Run("Transactions", func(t *testing.T) {
		sh, out := newTestShell(t)
		assert.Equal(t, "litebind> ", sh.prompt())

		require.NoError(t, sh.Execute("CREATE TABLE t (v INTEGER); BEGIN;"))
		assert.Contains(t, out.String(), "Transaction started")
		assert.Equal(t, "litebind(tx)> ", sh.prompt())

		require.NoError(t, sh.Execute("INSERT INTO t VALUES (1); ROLLBACK;"))
		assert.Contains(t, out.String(), "Transaction rolled back")
		assert.Equal(t, "litebind> ", sh.prompt())

		require.NoError(t, sh.Execute("BEGIN; INSERT INTO t VALUES (2); COMMIT;"))
		assert.Contains(t, out.String(), "Transaction committed")
	})

	t.Run("ExtensionFunctions", func(t *testing.T) {
		sh, out := newTestShell(t)
		require.NoError(t, sh.Execute("SELECT length(uuid()) AS n;"))
		assert.Contains(t, out.String(), "36")
	})

	t.Run("Timer", func(t *testing.T) {
		sh, out := newTestShell(t)

		require.NoError(t, sh.Execute(".timer on"))
		require.NoError(t, sh.Execute("SELECT 1;"))
		assert.Contains(t, out.String(), "Run Time:")

		out.Reset()
		require.NoError(t, sh.Execute(".timer off"))
		require.NoError(t, sh.Execute("SELECT 1;"))
		assert.NotContains(t, out.String(), "Run Time:")

		assert.Error(t, sh.Execute(".timer maybe"))
	})

	t.Run("Interrupt", func(t *testing.T) {
		sh, _ := newTestShell(t)
		assert.False(t, sh.Interrupt())

		done := make(chan error, 1)
		go func() {
			done <- sh.Execute(`
				WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c)
				SELECT COUNT(*) FROM c;
			`)
		}()

		// An interrupt sent before the statement starts is dropped, so keep
		// sending until it stops.
		timeout := time.After(10 * time.Second)
		for {
			select {
			case err := <-done:
				assert.ErrorIs(t, err, sqlitec.ErrInterrupt)
				return
			case <-timeout:
				t.Fatal("statement was not interrupted")
			case <-time.After(10 * time.Millisecond):
				sh.Interrupt()
			}
		}
	})
}

func TestExecuteScript(t *testing.T) {
	sh, out := newTestShell(t)

	err := sh.ExecuteScript(`
CREATE TABLE notes (
	id INTEGER PRIMARY KEY,
	body TEXT
);
INSERT INTO notes (body) VALUES ('first; with a semicolon');

.count notes
SELECT body FROM notes;
`)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "first; with a semicolon")
	assert.Contains(t, out.String(), "count")

	assert.ErrorIs(t, sh.ExecuteScript("SELECT 1;\n.quit\nSELECT 2;"), errQuit)
}

func TestDotCommands(t *testing.T) {
	sh, out := newTestShell(t)
	require.NoError(t, sh.Execute(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, "full name" TEXT NOT NULL);
		CREATE INDEX users_name ON users("full name");
		INSERT INTO users ("full name") VALUES ('a'), ('b'), ('c');
	`))

	tests := []struct {
		input string
		want  []string
	}{
		{".tables", []string{"users"}},
		{".indexes", []string{"users_name"}},
		{".indexes users", []string{"users_name"}},
		{".schema users", []string{"CREATE TABLE users", "CREATE INDEX users_name"}},
		{".columns users", []string{"full name", "INTEGER"}},
		{`.count "users"`, []string{" 3 "}},
		{".databases", []string{"main"}},
		{".functions", []string{"bcrypt_hash", "group_concat_distinct"}},
		{".stats", []string{"Total", "Uptime"}},
		{".help", []string{".attach <file> <name>", ".quit"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out.Reset()
			require.NoError(t, sh.Execute(tt.input))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	t.Run("AttachDetach", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "other.db")

		require.NoError(t, sh.Execute(".attach "+path+" other"))
		require.NoError(t, sh.Execute("CREATE TABLE other.things (id INTEGER);"))

		out.Reset()
		require.NoError(t, sh.Execute(".databases"))
		assert.Contains(t, out.String(), "other")

		require.NoError(t, sh.Execute(".detach other"))
		assert.Error(t, sh.Execute("SELECT * FROM other.things;"))
	})

	t.Run("Errors", func(t *testing.T) {
		for _, input := range []string{
			".nope",
			".count",
			".columns a b",
			".stats zero",
			".attach only-file",
			`.count "unterminated`,
		} {
			assert.Error(t, sh.Execute(input), input)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		assert.ErrorIs(t, sh.Execute(".quit"), errQuit)
		assert.ErrorIs(t, sh.Execute(".exit"), errQuit)
	})
}

func TestStatsCommand(t *testing.T) {
	sh, out := newTestShell(t)
	require.NoError(t, sh.Execute(`
		CREATE TABLE t (v INTEGER);
		INSERT INTO t VALUES (1), (2);
		SELECT * FROM t;
	`))

	out.Reset()
	require.NoError(t, sh.Execute(".stats 1"))
	assert.Contains(t, out.String(), "Showing the last 1 minutes of stats")

	totals := sh.stats.Snapshot().Totals
	assert.Equal(t, int64(3), totals.Statements)
	assert.Equal(t, int64(1), totals.Reads)
	assert.Equal(t, int64(2), totals.Inserts)
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{".tables", []string{".tables"}},
		{".count   users ", []string{".count", "users"}},
		{`.attach "my file.db" other`, []string{".attach", "my file.db", "other"}},
		{`.count 'a"b'`, []string{".count", `a"b`}},
		{`.count ""`, []string{".count", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Run("FirstKeyword", func(t *testing.T) {
		assert.Equal(t, "ROLLBACK", firstKeyword("rollback;"))
		assert.Equal(t, "COMMIT", firstKeyword("-- done\n/* really */ commit"))
		assert.Equal(t, "", firstKeyword("-- only a comment"))
	})

	t.Run("QuoteIdent", func(t *testing.T) {
		assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
	})

	t.Run("Complete", func(t *testing.T) {
		assert.Contains(t, complete(".ta"), ".tables")
		assert.Contains(t, complete("sel"), "SELECT * FROM ")
		assert.Empty(t, complete("zzz"))
	})
}

func TestConfig(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, Config{Database: ":memory:"}.validate())
		assert.Error(t, Config{}.validate())
		assert.Error(t, Config{Database: "a.db", BusyTimeout: -time.Second}.validate())
		assert.Error(t, Config{Database: "a.db", Command: "SELECT 1;", File: "x.sql"}.validate())
	})

	t.Run("OpenFlags", func(t *testing.T) {
		assert.Equal(t, sqlitec.OpenURI|sqlitec.OpenReadWrite|sqlitec.OpenCreate, Config{}.openFlags())
		assert.Equal(t, sqlitec.OpenURI|sqlitec.OpenReadWrite, Config{NoCreate: true}.openFlags())
		assert.Equal(t, sqlitec.OpenURI|sqlitec.OpenReadOnly, Config{ReadOnly: true, NoCreate: true}.openFlags())
	})

	t.Run("Open", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shell.db")

		_, err := open(Config{Database: path, NoCreate: true})
		assert.ErrorIs(t, err, sqlitec.ErrCantOpen)

		conn, err := open(Config{Database: path, BusyTimeout: time.Second})
		require.NoError(t, err)
		require.NoError(t, conn.Close())

		conn, err = open(Config{Database: path, ReadOnly: true})
		require.NoError(t, err)
		defer conn.Close()
		assert.ErrorIs(t, conn.Exec("CREATE TABLE t (v INTEGER)"), sqlitec.ErrReadOnly)
	})
}
