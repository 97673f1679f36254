package pooler

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nsqlite/litebind/sqlitec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResource struct {
	id int64
}

type counters struct {
	created atomic.Int64
	closed  atomic.Int64
}

func newMockPool(t *testing.T, maxItems, maxIdle int) (*Pool[mockResource], *counters) {
	t.Helper()
	c := &counters{}
	pool, err := NewPool(Config[mockResource]{
		MaxItems: maxItems,
		MaxIdle:  maxIdle,
		NewFunc: func() (mockResource, error) {
			return mockResource{id: c.created.Add(1)}, nil
		},
		CloseFunc: func(mockResource) error {
			c.closed.Add(1)
			return nil
		},
	})
	require.NoError(t, err)
	return pool, c
}

func TestNewPoolValidation(t *testing.T) {
	newFunc := func() (int, error) { return 0, nil }
	closeFunc := func(int) error { return nil }

	tests := []struct {
		name string
		conf Config[int]
	}{
		{name: "ZeroMaxItems", conf: Config[int]{MaxItems: 0, NewFunc: newFunc, CloseFunc: closeFunc}},
		{name: "NegativeIdle", conf: Config[int]{MaxItems: 1, MaxIdle: -1, NewFunc: newFunc, CloseFunc: closeFunc}},
		{name: "IdleAboveMax", conf: Config[int]{MaxItems: 1, MaxIdle: 2, NewFunc: newFunc, CloseFunc: closeFunc}},
		{name: "NoNewFunc", conf: Config[int]{MaxItems: 1, CloseFunc: closeFunc}},
		{name: "NoCloseFunc", conf: Config[int]{MaxItems: 1, NewFunc: newFunc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPool(tt.conf)
			assert.Error(t, err)
		})
	}
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndClose", func(t *testing.T) {
		pool, c := newMockPool(t, 3, 2)

		res1, err := pool.Get(ctx)
		assert.NoError(t, err)
		assert.EqualValues(t, 1, res1.id)

		assert.NoError(t, pool.Close())
		assert.NoError(t, pool.Close())

		res2, err := pool.Get(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		assert.Zero(t, res2.id)

		// Items checked out before Close are closed when put back.
		assert.NoError(t, pool.Put(res1))
		assert.EqualValues(t, 1, c.closed.Load())
		assert.Equal(t, Stats{}, pool.Stats())
	})

	t.Run("MaxIdle", func(t *testing.T) {
		pool, c := newMockPool(t, 5, 2)

		var items []mockResource
		for i := 1; i <= 3; i++ {
			item, err := pool.Get(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, i, item.id)
			items = append(items, item)
		}
		assert.Equal(t, Stats{Total: 3, Idle: 0}, pool.Stats())

		for _, item := range items {
			assert.NoError(t, pool.Put(item))
		}

		assert.EqualValues(t, 3, c.created.Load())
		assert.EqualValues(t, 1, c.closed.Load())
		assert.Equal(t, Stats{Total: 2, Idle: 2}, pool.Stats())

		// Idle items are reused before new ones are created.
		item, err := pool.Get(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, item.id, int64(2))
		assert.NoError(t, pool.Put(item))

		assert.NoError(t, pool.Close())
		assert.EqualValues(t, 3, c.created.Load())
		assert.EqualValues(t, 3, c.closed.Load())
	})

	t.Run("BlockWhenFull", func(t *testing.T) {
		pool, c := newMockPool(t, 2, 1)
		defer pool.Close()

		r1, err := pool.Get(ctx)
		assert.NoError(t, err)
		_, err = pool.Get(ctx)
		assert.NoError(t, err)

		ch := make(chan mockResource)
		go func() {
			r3, getErr := pool.Get(ctx)
			assert.NoError(t, getErr)
			ch <- r3
		}()

		select {
		case <-ch:
			t.Fatal("Get returned while the pool was full")
		case <-time.After(20 * time.Millisecond):
		}

		assert.EqualValues(t, 2, c.created.Load())
		require.NoError(t, pool.Put(r1))
		r3 := <-ch
		assert.Equal(t, r1, r3)
	})

	t.Run("GetHonorsContext", func(t *testing.T) {
		pool, _ := newMockPool(t, 1, 1)
		defer pool.Close()

		_, err := pool.Get(ctx)
		require.NoError(t, err)

		timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = pool.Get(timeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("CloseWakesWaiters", func(t *testing.T) {
		pool, _ := newMockPool(t, 1, 1)

		_, err := pool.Get(ctx)
		require.NoError(t, err)

		errs := make(chan error)
		go func() {
			_, err := pool.Get(ctx)
			errs <- err
		}()

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, pool.Close())
		assert.ErrorIs(t, <-errs, ErrClosed)
	})

	t.Run("NewFuncErrorFreesSlot", func(t *testing.T) {
		fail := true
		pool, err := NewPool(Config[int]{
			MaxItems: 1,
			NewFunc: func() (int, error) {
				if fail {
					return 0, errors.New("boom")
				}
				return 7, nil
			},
			CloseFunc: func(int) error { return nil },
		})
		require.NoError(t, err)
		defer pool.Close()

		_, err = pool.Get(ctx)
		assert.EqualError(t, err, "boom")

		fail = false
		v, err := pool.Get(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 7, v)

		assert.NoError(t, pool.Discard(v))
		assert.Equal(t, Stats{}, pool.Stats())
	})

	t.Run("With", func(t *testing.T) {
		pool, c := newMockPool(t, 1, 1)
		defer pool.Close()

		errFn := errors.New("fn failed")
		err := pool.With(ctx, func(mockResource) error { return errFn })
		assert.ErrorIs(t, err, errFn)
		assert.Equal(t, Stats{Total: 1, Idle: 1}, pool.Stats())
		assert.EqualValues(t, 1, c.created.Load())
	})
}

func TestPoolOfReadOnlyConns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.db")
	writer, err := sqlitec.Open(path)
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.Exec("CREATE TABLE t (v INTEGER); INSERT INTO t VALUES (1), (2), (3)"))

	pool, err := NewPool(Config[*sqlitec.Conn]{
		MaxItems: 4,
		MaxIdle:  2,
		NewFunc: func() (*sqlitec.Conn, error) {
			return sqlitec.Open(path, sqlitec.OpenReadOnly)
		},
		CloseFunc: func(conn *sqlitec.Conn) error {
			return conn.Close()
		},
	})
	require.NoError(t, err)
	defer pool.Close()

	errs := make(chan error, 8)
	for range 8 {
		go func() {
			errs <- pool.With(context.Background(), func(conn *sqlitec.Conn) error {
				res, err := conn.QueryOrExec("SELECT sum(v) FROM t", nil)
				if err != nil {
					return err
				}
				if res.Rows[0][0] != int64(6) {
					return errors.New("unexpected sum")
				}
				return nil
			})
		}()
	}
	for range 8 {
		assert.NoError(t, <-errs)
	}
	assert.LessOrEqual(t, pool.Stats().Total, 4)
}
