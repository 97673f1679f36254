package bench

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nsqlite/litebind/internal/pooler"
	"github.com/nsqlite/litebind/sqlitec"
	"github.com/nsqlite/litebind/sqlitedrv"
	_ "modernc.org/sqlite"
)

// target is the surface the benchmarks need from a SQLite implementation.
// Implementations are safe for concurrent use.
type target interface {
	// exec runs a statement and returns the number of rows it changed.
	exec(ctx context.Context, query string, args ...any) (int64, error)
	// execMany runs query once per args inside a single transaction.
	execMany(ctx context.Context, query string, args [][]any, progress func()) (int64, error)
	// readAll runs a query and returns the number of rows it produced.
	readAll(ctx context.Context, query string) (int64, error)
	close() error
}

// openTarget creates the database of t inside dir.
func openTarget(ctx context.Context, t Target, dir string, goroutines int, logger *slog.Logger) (target, error) {
	dbPath := filepath.Join(dir, t.Value, "bench.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	if t == TargetSqlitec {
		ct, err := newConnTarget(dbPath, goroutines)
		if err != nil {
			return nil, err
		}
		return ct, nil
	}

	var db *sql.DB
	switch t {
	case TargetMattn:
		var err error
		db, err = sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=on")
		if err != nil {
			return nil, err
		}
	case TargetModernc:
		var err error
		db, err = sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, err
		}
	case TargetLitebind:
		db = sql.OpenDB(sqlitedrv.NewConnector(
			dbPath,
			sqlitedrv.WithBusyTimeout(10*time.Second),
			sqlitedrv.WithPostConnectQueries(append([]string{`PRAGMA journal_mode = WAL`}, connPragmas...)),
			sqlitedrv.WithLogger(logger),
		))
	default:
		return nil, fmt.Errorf("unknown target %q", t.Value)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &dbTarget{db: db}, nil
}

// dbTarget runs the benchmarks through database/sql.
type dbTarget struct {
	db *sql.DB
}

func (t *dbTarget) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *dbTarget) execMany(ctx context.Context, query string, args [][]any, progress func()) (total int64, err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, a := range args {
		res, err := stmt.ExecContext(ctx, a...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
		progress()
	}

	return total, tx.Commit()
}

func (t *dbTarget) readAll(ctx context.Context, query string) (int64, error) {
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	var count int64
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return 0, err
		}
		count++
	}
	return count, rows.Err()
}

func (t *dbTarget) close() error {
	return t.db.Close()
}

// connTarget drives sqlitec directly: a single writer connection guarded by
// a mutex with a statement cache, and a pool of read-only connections.
type connTarget struct {
	mu     sync.Mutex
	writer *sqlitec.Conn
	stmts  map[string]*sqlitec.Stmt

	readers *pooler.Pool[*sqlitec.Conn]
}

func newConnTarget(dbPath string, readers int) (*connTarget, error) {
	writer, err := sqlitec.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := writer.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	for _, pragma := range connPragmas {
		if err := writer.Exec(pragma); err != nil {
			return nil, errors.Join(err, writer.Close())
		}
	}

	pool, err := pooler.NewPool(pooler.Config[*sqlitec.Conn]{
		MaxItems: readers,
		MaxIdle:  readers,
		NewFunc: func() (*sqlitec.Conn, error) {
			conn, err := sqlitec.Open(dbPath, sqlitec.OpenReadOnly)
			if err != nil {
				return nil, err
			}
			if err := conn.SetBusyTimeout(10 * time.Second); err != nil {
				return nil, errors.Join(err, conn.Close())
			}
			return conn, nil
		},
		CloseFunc: func(conn *sqlitec.Conn) error {
			return conn.Close()
		},
	})
	if err != nil {
		return nil, errors.Join(err, writer.Close())
	}

	return &connTarget{
		writer:  writer,
		stmts:   map[string]*sqlitec.Stmt{},
		readers: pool,
	}, nil
}

// stmt returns the cached statement for query. Callers hold t.mu.
func (t *connTarget) stmt(query string) (*sqlitec.Stmt, error) {
	if stmt, ok := t.stmts[query]; ok {
		if err := stmt.Reset(); err != nil {
			return nil, err
		}
		return stmt, stmt.ClearBindings()
	}

	stmt, err := t.writer.Prepare(query)
	if err != nil {
		return nil, err
	}
	t.stmts[query] = stmt
	return stmt, nil
}

func (t *connTarget) execStmt(query string, args []any) (int64, error) {
	stmt, err := t.stmt(query)
	if err != nil {
		return 0, err
	}
	if err := stmt.BindArgs(args...); err != nil {
		return 0, err
	}
	if err := stmt.Exec(); err != nil {
		return 0, err
	}
	return t.writer.RowsAffected(), nil
}

func (t *connTarget) exec(ctx context.Context, query string, args ...any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.execStmt(query, args)
}

func (t *connTarget) execMany(ctx context.Context, query string, args [][]any, progress func()) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var total int64
	err := t.writer.WithTx(sqlitec.TxImmediate, func(_ *sqlitec.Tx) error {
		for _, a := range args {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := t.execStmt(query, a)
			if err != nil {
				return err
			}
			total += n
			progress()
		}
		return nil
	})
	return total, err
}

func (t *connTarget) readAll(ctx context.Context, query string) (int64, error) {
	var count int64
	err := t.readers.With(ctx, func(conn *sqlitec.Conn) error {
		q, err := sqlitec.NewQuery(conn, query)
		if err != nil {
			return err
		}
		defer q.Close()

		for row, err := range q.All() {
			if err != nil {
				return err
			}
			_ = row.Values()
			count++
		}
		return nil
	})
	return count, err
}

func (t *connTarget) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, stmt := range t.stmts {
		errs = append(errs, stmt.Finalize())
	}
	errs = append(errs, t.readers.Close(), t.writer.Close())
	return errors.Join(errs...)
}
