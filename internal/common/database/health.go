package database

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dependency is a backing service that can be probed and released.
type Dependency interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// PingAll probes every dependency concurrently and returns the first failure.
func PingAll(ctx context.Context, timeout time.Duration, deps ...Dependency) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range deps {
		d := d
		g.Go(func() error {
			return d.Ping(gctx)
		})
	}
	return g.Wait()
}

// CloseAll closes dependencies in reverse order and reports the first error.
func CloseAll(deps ...Dependency) error {
	var first error
	for i := len(deps) - 1; i >= 0; i-- {
		if err := deps[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
