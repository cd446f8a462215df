package async

import (
	"context"
	"fmt"
)

// Future holds the eventual result of a function started with Async.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the function finishes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Async runs fn(ctx, param) in a new goroutine. If ctx is already done the
// function is not started and the future resolves with ctx.Err(). A panic in
// fn resolves the future with an error wrapping ErrPanic.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				var zero U
				f.result, f.err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx, param)
	}()

	return f
}

// Result is the settled outcome of one future.
type Result[U any] struct {
	Value U
	Err   error
}

// Settle awaits every future and reports each outcome, in input order,
// regardless of failures.
func Settle[U any](futures ...*Future[U]) []Result[U] {
	out := make([]Result[U], len(futures))
	for i, future := range futures {
		out[i].Value, out[i].Err = future.Await()
	}
	return out
}

// Map starts fn for every item concurrently and settles all of them.
func Map[T any, U any](ctx context.Context, items []T, fn func(context.Context, T) (U, error)) []Result[U] {
	futures := make([]*Future[U], len(items))
	for i, item := range items {
		futures[i] = Async(ctx, item, fn)
	}
	return Settle(futures...)
}
