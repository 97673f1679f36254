// Package pooler keeps a bounded set of reusable resources, such as
// read-only SQLite connections, shared between goroutines.
package pooler

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Get once the pool is closed.
var ErrClosed = errors.New("pool is closed")

type Config[T any] struct {
	// MaxItems is the maximum total number of items allowed in the pool.
	// Must be greater than zero.
	MaxItems int
	// MaxIdle is the maximum number of items allowed to remain idle.
	// Must be between zero and MaxItems.
	MaxIdle int
	// NewFunc is the function to create a new item.
	NewFunc func() (T, error)
	// CloseFunc is the function to close an item.
	CloseFunc func(T) error
}

// Stats is a snapshot of the pool usage.
type Stats struct {
	// Total is the number of items alive, idle or checked out.
	Total int
	// Idle is the number of items waiting in the pool.
	Idle int
}

// Pool is a generic, thread-safe pool for any resource type T. Every live
// item holds a slot; Get waits for a free slot or an idle item once
// MaxItems are alive. Items put back beyond MaxIdle are closed.
type Pool[T any] struct {
	conf Config[T]

	mu     sync.RWMutex
	closed bool

	slots chan struct{}
	idle  chan T
}

// NewPool creates a Pool with the given limits and functions.
func NewPool[T any](config Config[T]) (*Pool[T], error) {
	if config.MaxItems <= 0 {
		return nil, errors.New("maxItems must be greater than zero")
	}
	if config.MaxIdle < 0 {
		return nil, errors.New("maxIdle cannot be negative")
	}
	if config.MaxIdle > config.MaxItems {
		return nil, errors.New("maxIdle cannot exceed maxItems")
	}
	if config.NewFunc == nil {
		return nil, errors.New("newFunc must not be nil")
	}
	if config.CloseFunc == nil {
		return nil, errors.New("closeFunc must not be nil")
	}

	return &Pool[T]{
		conf:  config,
		slots: make(chan struct{}, config.MaxItems),
		idle:  make(chan T, config.MaxIdle),
	}, nil
}

// Get retrieves an item, reusing an idle one when possible. When MaxItems
// are checked out it blocks until one is Put back or ctx is done.
func (p *Pool[T]) Get(ctx context.Context) (T, error) {
	var zero T

	for {
		p.mu.RLock()
		closed := p.closed
		p.mu.RUnlock()
		if closed {
			return zero, ErrClosed
		}

		select {
		case item, ok := <-p.idle:
			if ok {
				return item, nil
			}
			continue
		default:
		}

		select {
		case item, ok := <-p.idle:
			if !ok {
				continue
			}
			return item, nil
		case p.slots <- struct{}{}:
			item, err := p.conf.NewFunc()
			if err != nil {
				<-p.slots
				return zero, err
			}
			return item, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Put returns an item to the pool. The item is closed instead when the
// pool is closed or MaxIdle items are already waiting.
func (p *Pool[T]) Put(item T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.closed {
		select {
		case p.idle <- item:
			return nil
		default:
		}
	}

	<-p.slots
	return p.conf.CloseFunc(item)
}

// Discard closes an item that must not be reused, such as a broken
// connection, and frees its slot.
func (p *Pool[T]) Discard(item T) error {
	<-p.slots
	return p.conf.CloseFunc(item)
}

// With runs fn with an item from the pool and puts it back afterwards.
func (p *Pool[T]) With(ctx context.Context, fn func(T) error) error {
	item, err := p.Get(ctx)
	if err != nil {
		return err
	}
	return errors.Join(fn(item), p.Put(item))
}

// Stats returns the current usage of the pool.
func (p *Pool[T]) Stats() Stats {
	return Stats{Total: len(p.slots), Idle: len(p.idle)}
}

// Close closes the pool and all idle items. Any subsequent call to Get
// fails. Items that are checked out are closed when they are Put back.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	p.mu.Unlock()

	var errs []error
	for item := range p.idle {
		<-p.slots
		errs = append(errs, p.conf.CloseFunc(item))
	}
	return errors.Join(errs...)
}
