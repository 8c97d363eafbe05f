package concurrency

import (
	"context"
	"sync"
)

// Options configura el pool de trabajadores
type Options struct {
	// Workers es el número máximo de llamadas simultáneas
	Workers int
}

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

func (o Options) workers(n int) int {
	w := o.Workers
	if w <= 0 {
		w = DefaultWorkers
	}
	if w > n {
		w = n
	}
	return w
}

// Result pairs an item's output with its error. Index is the position in the
// input slice.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Map runs fn for every item and returns one Result per item, in input order.
// Items not started before ctx is cancelled get ctx.Err() as their error.
func Map[T any, R any](
	ctx context.Context,
	items []T,
	opts Options,
	fn func(ctx context.Context, item T) (R, error),
) []Result[R] {
	out := make([]Result[R], len(items))
	if len(items) == 0 {
		return out
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opts.workers(len(items)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v, err := fn(ctx, items[i])
				// cada índice lo escribe un solo worker
				out[i] = Result[R]{Index: i, Value: v, Err: err}
			}
		}()
	}

	i := 0
feed:
	for ; i < len(items); i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for ; i < len(items); i++ {
		out[i] = Result[R]{Index: i, Err: ctx.Err()}
	}
	return out
}

// ForEach is Map without values. Returned errors keep input order; nil when
// every call succeeded.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts Options,
	fn func(ctx context.Context, item T) error,
) []error {
	res := Map(ctx, items, opts, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return Errors(res)
}

// Errors collects the non-nil errors of res in order.
func Errors[R any](res []Result[R]) []error {
	var errs []error
	for _, r := range res {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
