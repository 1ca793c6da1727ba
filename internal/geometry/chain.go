package geometry

import (
	"context"
	"errors"
	"log"
)

// Chain tries each backend in order and falls through on backend failure.
// Data-level errors (ErrBadGeometry, ErrRepairFailed) still fall through:
// retrying them on the in-process backend is harmless and covers the case
// where the database rejects a geometry the fallback can handle.
//
// The usual composition is Chain(postgis, orb) when the database has
// PostGIS, and a bare OrbBackend otherwise.
type Chain struct {
	backends []Backend
}

func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) SupportsUnion() bool {
	for _, b := range c.backends {
		if b.SupportsUnion() {
			return true
		}
	}
	return false
}

func (c *Chain) MakeValid(ctx context.Context, polyWKT string) (string, error) {
	var out string
	err := c.try(ctx, "make_valid", func(b Backend) error {
		var e error
		out, e = b.MakeValid(ctx, polyWKT)
		return e
	})
	return out, err
}

func (c *Chain) Contains(ctx context.Context, polyWKT string, lng, lat float64) (bool, error) {
	var out bool
	err := c.try(ctx, "contains", func(b Backend) error {
		var e error
		out, e = b.Contains(ctx, polyWKT, lng, lat)
		return e
	})
	return out, err
}

func (c *Chain) Distance(ctx context.Context, aWKT, bWKT string) (float64, error) {
	var out float64
	err := c.try(ctx, "distance", func(b Backend) error {
		var e error
		out, e = b.Distance(ctx, aWKT, bWKT)
		return e
	})
	return out, err
}

func (c *Chain) WithinDistance(ctx context.Context, aWKT, bWKT string, tol float64) (bool, error) {
	var out bool
	err := c.try(ctx, "within_distance", func(b Backend) error {
		var e error
		out, e = b.WithinDistance(ctx, aWKT, bWKT, tol)
		return e
	})
	return out, err
}

func (c *Chain) SnapToGrid(ctx context.Context, polyWKT string, cell float64) (string, error) {
	var out string
	err := c.try(ctx, "snap_to_grid", func(b Backend) error {
		var e error
		out, e = b.SnapToGrid(ctx, polyWKT, cell)
		return e
	})
	return out, err
}

func (c *Chain) Buffer(ctx context.Context, polyWKT string, dist float64) (string, error) {
	var out string
	err := c.try(ctx, "buffer", func(b Backend) error {
		var e error
		out, e = b.Buffer(ctx, polyWKT, dist)
		return e
	})
	return out, err
}

func (c *Chain) ConvexHull(ctx context.Context, polyWKTs []string) (string, error) {
	var out string
	err := c.try(ctx, "convex_hull", func(b Backend) error {
		var e error
		out, e = b.ConvexHull(ctx, polyWKTs)
		return e
	})
	return out, err
}

func (c *Chain) Union(ctx context.Context, polyWKTs []string) (string, error) {
	var out string
	err := c.try(ctx, "union", func(b Backend) error {
		var e error
		out, e = b.Union(ctx, polyWKTs)
		return e
	})
	return out, err
}

func (c *Chain) try(ctx context.Context, op string, fn func(Backend) error) error {
	var lastErr error
	for i, b := range c.backends {
		err := fn(b)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < len(c.backends)-1 && !errors.Is(err, context.Canceled) {
			log.Printf("[geometry] %s %s failed, trying %s: %v",
				b.Name(), op, c.backends[i+1].Name(), err)
		}
	}
	return lastErr
}

var _ Backend = (*Chain)(nil)
