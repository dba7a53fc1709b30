// Package memory provides a resolver that serves packages held in memory.
// It backs tests and callers that assemble package sets programmatically.
package memory

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/git-pkgs/resolve"
)

// Resolver serves the PrePackages added to it. It is safe for concurrent use.
type Resolver struct {
	name string

	mu       sync.RWMutex
	packages map[resolve.VersionID]*resolve.PrePackage
}

var _ resolve.Resolver = (*Resolver)(nil)

// New returns a resolver named name holding pkgs.
func New(name string, pkgs ...*resolve.PrePackage) *Resolver {
	r := &Resolver{
		name:     name,
		packages: make(map[resolve.VersionID]*resolve.PrePackage, len(pkgs)),
	}
	for _, pkg := range pkgs {
		r.Add(pkg)
	}
	return r
}

// Add stores pkg under pkg.ID, replacing any previous entry. An empty Source
// is set to the resolver's name.
func (r *Resolver) Add(pkg *resolve.PrePackage) {
	if pkg.Source == "" {
		pkg.Source = r.name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[pkg.ID] = pkg
}

// Remove deletes v if present.
func (r *Resolver) Remove(v resolve.VersionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.packages, v)
}

func (r *Resolver) Name() string {
	return r.name
}

func (r *Resolver) GroupExists(_ context.Context, g resolve.GroupID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.packages {
		if id.Package.Group == g {
			return true
		}
	}
	return false
}

func (r *Resolver) PackageExists(_ context.Context, p resolve.PackageID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.packages {
		if id.Package == p {
			return true
		}
	}
	return false
}

func (r *Resolver) VersionExists(_ context.Context, v resolve.VersionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.packages[v]
	return ok
}

func (r *Resolver) Groups(context.Context) (iter.Seq[resolve.GroupID], error) {
	return collect(r, func(id resolve.VersionID) (resolve.GroupID, bool) {
		return id.Package.Group, true
	}), nil
}

func (r *Resolver) GroupPackages(_ context.Context, g resolve.GroupID) (iter.Seq[resolve.PackageID], error) {
	if err := g.Validate(); err != nil {
		return nil, resolve.NewError("list packages", r.name, g.String(), err)
	}
	return collect(r, func(id resolve.VersionID) (resolve.PackageID, bool) {
		return id.Package, id.Package.Group == g
	}), nil
}

func (r *Resolver) PackageVersions(_ context.Context, p resolve.PackageID) (iter.Seq[resolve.VersionID], error) {
	if err := p.Validate(); err != nil {
		return nil, resolve.NewError("list versions", r.name, p.String(), err)
	}
	return collect(r, func(id resolve.VersionID) (resolve.VersionID, bool) {
		return id, id.Package == p
	}), nil
}

func (r *Resolver) GetPackage(_ context.Context, v resolve.VersionID) (*resolve.PrePackage, error) {
	r.mu.RLock()
	pkg, ok := r.packages[v]
	r.mu.RUnlock()
	if !ok {
		return nil, resolve.NewError("get package", r.name, v.String(), resolve.ErrNotFound)
	}
	return pkg, nil
}

// collect snapshots the distinct keys selected by pick so the returned
// sequence is unaffected by later Add or Remove calls.
func collect[T comparable](r *Resolver, pick func(resolve.VersionID) (T, bool)) iter.Seq[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[T]struct{})
	for id := range r.packages {
		if item, ok := pick(id); ok {
			seen[item] = struct{}{}
		}
	}
	return slices.Values(slices.Collect(maps.Keys(seen)))
}
