package resolve

import (
	"context"
	"iter"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Chain combines several resolvers behind the Resolver interface. Existence
// is true if any resolver says so, enumeration is the de-duplicated union of
// every resolver, and GetPackage succeeds only when exactly one resolver
// provides the version.
//
// A Chain is itself a Resolver, so chains nest.
type Chain struct {
	resolvers   []Resolver
	name        string
	logger      *zap.Logger
	concurrency int
}

var _ Resolver = (*Chain)(nil)

// NewChain returns a chain over resolvers. The order of resolvers does not
// affect any result. An empty chain finds nothing.
func NewChain(resolvers []Resolver, opts ...Option) *Chain {
	o := buildOptions(opts)
	return &Chain{
		resolvers:   slices.Clone(resolvers),
		name:        o.name,
		logger:      o.logger,
		concurrency: o.concurrency,
	}
}

func (c *Chain) Name() string {
	return c.name
}

// Resolvers returns a copy of the resolvers in the chain.
func (c *Chain) Resolvers() []Resolver {
	return slices.Clone(c.resolvers)
}

func (c *Chain) GroupExists(ctx context.Context, g GroupID) bool {
	return anyTrue(fanOut(ctx, c, func(ctx context.Context, r Resolver) bool {
		return r.GroupExists(ctx, g)
	}))
}

func (c *Chain) PackageExists(ctx context.Context, p PackageID) bool {
	return anyTrue(fanOut(ctx, c, func(ctx context.Context, r Resolver) bool {
		return r.PackageExists(ctx, p)
	}))
}

func (c *Chain) VersionExists(ctx context.Context, v VersionID) bool {
	return anyTrue(fanOut(ctx, c, func(ctx context.Context, r Resolver) bool {
		return r.VersionExists(ctx, v)
	}))
}

func (c *Chain) Groups(ctx context.Context) (iter.Seq[GroupID], error) {
	return union(fanOut(ctx, c, func(ctx context.Context, r Resolver) []GroupID {
		return slices.Collect(SafeGroups(ctx, r))
	})), nil
}

func (c *Chain) GroupPackages(ctx context.Context, g GroupID) (iter.Seq[PackageID], error) {
	return union(fanOut(ctx, c, func(ctx context.Context, r Resolver) []PackageID {
		return slices.Collect(SafeGroupPackages(ctx, r, g))
	})), nil
}

func (c *Chain) PackageVersions(ctx context.Context, p PackageID) (iter.Seq[VersionID], error) {
	return union(fanOut(ctx, c, func(ctx context.Context, r Resolver) []VersionID {
		return slices.Collect(SafePackageVersions(ctx, r, p))
	})), nil
}

// fetchResult is the outcome of one resolver's GetPackage call.
type fetchResult struct {
	source string
	pkg    *PrePackage
	err    error
}

// GetPackage asks every resolver for v and returns the single PrePackage
// found. Resolver errors count as "not provided". No resolvers providing v is
// an ErrNotFound; more than one is a *ConflictError.
func (c *Chain) GetPackage(ctx context.Context, v VersionID) (*PrePackage, error) {
	results := fanOut(ctx, c, func(ctx context.Context, r Resolver) fetchResult {
		pkg, err := r.GetPackage(ctx, v)
		if err == nil && pkg == nil {
			err = ErrNotFound
		}
		return fetchResult{source: r.Name(), pkg: pkg, err: err}
	})

	var found []fetchResult
	for _, res := range results {
		if res.err != nil {
			c.logger.Debug("resolver does not provide package",
				zap.String("resolver", res.source),
				zap.Stringer("package", v),
				zap.Error(res.err))
			continue
		}
		found = append(found, res)
	}

	switch len(found) {
	case 1:
		return found[0].pkg, nil
	case 0:
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: "get package", Source: c.name, ID: v.String(), Err: err}
		}
		return nil, &Error{Op: "get package", Source: c.name, ID: v.String(), Err: ErrNotFound}
	default:
		sources := make([]string, 0, len(found))
		for _, res := range found {
			sources = append(sources, res.source)
		}
		c.logger.Warn("package provided by multiple resolvers",
			zap.Stringer("package", v),
			zap.Strings("resolvers", sources))
		return nil, &Error{
			Op:     "get package",
			Source: c.name,
			ID:     v.String(),
			Err:    &ConflictError{ID: v, Count: len(found), Sources: sources},
		}
	}
}

// fanOut calls fn once per resolver, at most c.concurrency at a time, and
// returns the results in resolver order once every call has returned. Each
// call writes only its own slot, so no locking is needed.
func fanOut[T any](ctx context.Context, c *Chain, fn func(context.Context, Resolver) T) []T {
	results := make([]T, len(c.resolvers))
	if c.concurrency == 1 {
		for i, r := range c.resolvers {
			results[i] = fn(ctx, r)
		}
		return results
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.concurrency)
	for i, r := range c.resolvers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = fn(ctx, r)
		}()
	}
	wg.Wait()
	return results
}

func anyTrue(results []bool) bool {
	return slices.Contains(results, true)
}

// union flattens per-resolver results, dropping exact duplicates and keeping
// the first occurrence.
func union[T comparable](parts [][]T) iter.Seq[T] {
	seen := make(map[T]struct{})
	var out []T
	for _, part := range parts {
		for _, item := range part {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return slices.Values(out)
}
