package bench

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nsqlite/litebind/internal/bench/benchbar"
)

// parallel calls fn for every index in [0, n) from at most goroutines
// goroutines, advancing bar once per call. It returns the sum of the counts
// returned by fn and the first error, after which no new calls are started.
func parallel(
	ctx context.Context, n, goroutines int, bar *benchbar.Bar,
	fn func(idx int) (int64, error),
) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		total    atomic.Int64
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	sem := make(chan struct{}, goroutines)

	for idx := range n {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()

			count, err := fn(idx)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			total.Add(count)
			bar.Inc()
		}()
	}

	wg.Wait()
	bar.Finish()

	if firstErr != nil {
		return total.Load(), firstErr
	}
	return total.Load(), ctx.Err()
}
