package memory

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/git-pkgs/resolve"
)

var (
	org  = resolve.NewGroupID("org")
	foo  = org.Package("foo")
	foo1 = foo.At("1.0")
	foo2 = foo.At("2.0")
	bar1 = org.Package("bar").At("1.0")
	baz1 = resolve.NewGroupID("other").Package("baz").At("1.0")
)

func names[T interface{ String() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	slices.Sort(out)
	return out
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	p := &resolve.PrePackage{ID: foo1}
	r := New("mem", p, &resolve.PrePackage{ID: foo2}, &resolve.PrePackage{ID: bar1}, &resolve.PrePackage{ID: baz1})

	if p.Source != "mem" {
		t.Errorf("Source = %q, want %q", p.Source, "mem")
	}

	groups, err := r.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups() error: %v", err)
	}
	if got := names(slices.Collect(groups)); !slices.Equal(got, []string{"org", "other"}) {
		t.Errorf("Groups() = %v", got)
	}

	pkgs, err := r.GroupPackages(ctx, org)
	if err != nil {
		t.Fatalf("GroupPackages() error: %v", err)
	}
	if got := names(slices.Collect(pkgs)); !slices.Equal(got, []string{"org/bar", "org/foo"}) {
		t.Errorf("GroupPackages() = %v", got)
	}

	versions, err := r.PackageVersions(ctx, foo)
	if err != nil {
		t.Fatalf("PackageVersions() error: %v", err)
	}
	if got := names(slices.Collect(versions)); !slices.Equal(got, []string{"org/foo@1.0", "org/foo@2.0"}) {
		t.Errorf("PackageVersions() = %v", got)
	}

	got, err := r.GetPackage(ctx, foo1)
	if err != nil {
		t.Fatalf("GetPackage() error: %v", err)
	}
	if got != p {
		t.Error("GetPackage() did not return the stored PrePackage")
	}

	_, err = r.GetPackage(ctx, foo.At("3.0"))
	if !errors.Is(err, resolve.ErrNotFound) {
		t.Errorf("GetPackage(missing) error = %v, want ErrNotFound", err)
	}
}

func TestResolverExists(t *testing.T) {
	ctx := context.Background()
	r := New("mem", &resolve.PrePackage{ID: foo1})

	if !r.GroupExists(ctx, org) || !r.PackageExists(ctx, foo) || !r.VersionExists(ctx, foo1) {
		t.Error("exists reports false for a stored package")
	}
	if r.GroupExists(ctx, baz1.Package.Group) || r.PackageExists(ctx, bar1.Package) || r.VersionExists(ctx, foo2) {
		t.Error("exists reports true for a missing package")
	}
}

func TestResolverSequencesAreSnapshots(t *testing.T) {
	ctx := context.Background()
	r := New("mem", &resolve.PrePackage{ID: foo1})

	versions, _ := r.PackageVersions(ctx, foo)
	r.Add(&resolve.PrePackage{ID: foo2})
	r.Remove(foo1)

	if got := names(slices.Collect(versions)); !slices.Equal(got, []string{"org/foo@1.0"}) {
		t.Errorf("earlier sequence = %v, want [org/foo@1.0]", got)
	}
	again, _ := r.PackageVersions(ctx, foo)
	if got := names(slices.Collect(again)); !slices.Equal(got, []string{"org/foo@2.0"}) {
		t.Errorf("fresh sequence = %v, want [org/foo@2.0]", got)
	}
}

func TestResolverInvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	r := New("mem")

	if _, err := r.GroupPackages(ctx, resolve.GroupID{}); !errors.Is(err, resolve.ErrInvalidIdentifier) {
		t.Errorf("GroupPackages() error = %v, want ErrInvalidIdentifier", err)
	}
	if _, err := r.PackageVersions(ctx, org.Package("")); !errors.Is(err, resolve.ErrInvalidIdentifier) {
		t.Errorf("PackageVersions() error = %v, want ErrInvalidIdentifier", err)
	}
	seq, err := r.GroupPackages(ctx, resolve.NewGroupID("unknown"))
	if err != nil {
		t.Fatalf("GroupPackages(unknown) error: %v", err)
	}
	if got := slices.Collect(seq); len(got) != 0 {
		t.Errorf("GroupPackages(unknown) = %v, want empty", got)
	}
}
