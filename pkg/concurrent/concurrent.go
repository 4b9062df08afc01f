package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/vectorlab/pkg/sequence"
)

// Concurrent runs the action function for each element of the iterator in a separate goroutine.
// It waits for all goroutines to finish. If action returns an error, it returns the first error encountered.
func Concurrent[T any](i *sequence.Iterator[T], action func(T) error) error {
	errGroup := errgroup.Group{}
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}

		errGroup.Go(func() error {
			return action(value)
		})
	}

	return errGroup.Wait()
}

// ForEach is Concurrent with a cancellable context and at most limit actions
// in flight. A limit <= 0 means no limit. The context passed to action is
// cancelled as soon as one action fails.
func ForEach[T any](ctx context.Context, i *sequence.Iterator[T], limit int, action func(context.Context, T) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for value := range i.Seq() {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			return action(groupCtx, value)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
