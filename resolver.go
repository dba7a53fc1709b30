// Package resolve identifies packages and locates them across several
// independent sources (a local directory, package registries, ecosyste.ms,
// deps.dev) behind a single interface.
//
// Sources are combined with a Chain. Enumeration through a chain is the union
// of every source; fetching a version requires exactly one source to provide
// it, and two sources offering the same version is a conflict rather than a
// precedence decision.
package resolve

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/git-pkgs/vers"
)

// Resolver is a source of packages.
type Resolver interface {
	// Name identifies the resolver in errors, logs and PrePackage.Source.
	Name() string

	// GroupExists, PackageExists and VersionExists report membership at each
	// level. They have no side effects and never fail; a resolver that cannot
	// answer reports false.
	GroupExists(ctx context.Context, g GroupID) bool
	PackageExists(ctx context.Context, p PackageID) bool
	VersionExists(ctx context.Context, v VersionID) bool

	// Groups lists the groups the resolver knows about. Each call returns a
	// fresh, finite sequence in no particular order.
	Groups(ctx context.Context) (iter.Seq[GroupID], error)

	// GroupPackages lists the packages of g. An unknown group yields an empty
	// sequence; an identifier the resolver cannot address is an error.
	GroupPackages(ctx context.Context, g GroupID) (iter.Seq[PackageID], error)

	// PackageVersions lists the versions of p, with the same contract as
	// GroupPackages.
	PackageVersions(ctx context.Context, p PackageID) (iter.Seq[VersionID], error)

	// GetPackage locates v. It fails when the resolver cannot locate v or
	// cannot read its metadata.
	GetPackage(ctx context.Context, v VersionID) (*PrePackage, error)
}

// PrePackage is a located but not yet materialized package version. The
// resolver that returns it hands ownership to the caller.
type PrePackage struct {
	ID          VersionID
	Source      string // Name of the resolver that located it
	Location    string // Path or URL of the artifact
	Integrity   string // sha256-..., sha512-..., if known
	License     string
	PublishedAt time.Time
	Metadata    map[string]any
}

// SafeGroups is Groups with errors turned into an empty sequence.
func SafeGroups(ctx context.Context, r Resolver) iter.Seq[GroupID] {
	seq, err := r.Groups(ctx)
	if err != nil || seq == nil {
		return empty[GroupID]
	}
	return seq
}

// SafeGroupPackages is GroupPackages with errors turned into an empty sequence.
func SafeGroupPackages(ctx context.Context, r Resolver, g GroupID) iter.Seq[PackageID] {
	seq, err := r.GroupPackages(ctx, g)
	if err != nil || seq == nil {
		return empty[PackageID]
	}
	return seq
}

// SafePackageVersions is PackageVersions with errors turned into an empty sequence.
func SafePackageVersions(ctx context.Context, r Resolver, p PackageID) iter.Seq[VersionID] {
	seq, err := r.PackageVersions(ctx, p)
	if err != nil || seq == nil {
		return empty[VersionID]
	}
	return seq
}

// LatestVersion returns the highest version of p known to r.
func LatestVersion(ctx context.Context, r Resolver, p PackageID) (VersionID, error) {
	versions := slices.Collect(SafePackageVersions(ctx, r, p))
	if len(versions) == 0 {
		return VersionID{}, &Error{Op: "latest version", Source: r.Name(), ID: p.String(), Err: ErrNotFound}
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if vers.Compare(v.Version, latest.Version) > 0 {
			latest = v
		}
	}
	return latest, nil
}

func empty[T any](func(T) bool) {}
