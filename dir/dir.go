// Package dir provides a resolver over a package tree on disk laid out as
//
//	<root>/<group>/<package>/<version>/package.yaml
//
// The manifest is optional. When present it supplies the PrePackage metadata.
package dir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/git-pkgs/resolve"
	"gopkg.in/yaml.v3"
)

// ManifestName is the per-version metadata file.
const ManifestName = "package.yaml"

// Manifest is the content of a package.yaml file.
type Manifest struct {
	Artifact    string         `yaml:"artifact"`
	Integrity   string         `yaml:"integrity"`
	License     string         `yaml:"license"`
	PublishedAt time.Time      `yaml:"published_at"`
	Metadata    map[string]any `yaml:"metadata"`
}

// Resolver serves packages from a directory tree.
type Resolver struct {
	name string
	root string
}

var _ resolve.Resolver = (*Resolver)(nil)

// New returns a resolver named name rooted at root. The root does not have to
// exist; a missing root holds no packages.
func New(name, root string) *Resolver {
	return &Resolver{name: name, root: root}
}

func (r *Resolver) Name() string {
	return r.name
}

// Root returns the directory the resolver reads from.
func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) GroupExists(_ context.Context, g resolve.GroupID) bool {
	path, err := r.groupPath(g)
	return err == nil && isDir(path)
}

func (r *Resolver) PackageExists(_ context.Context, p resolve.PackageID) bool {
	path, err := r.packagePath(p)
	return err == nil && isDir(path)
}

func (r *Resolver) VersionExists(_ context.Context, v resolve.VersionID) bool {
	path, err := r.versionPath(v)
	return err == nil && isDir(path)
}

func (r *Resolver) Groups(context.Context) (iter.Seq[resolve.GroupID], error) {
	return subdirs(r.root, resolve.NewGroupID), nil
}

func (r *Resolver) GroupPackages(_ context.Context, g resolve.GroupID) (iter.Seq[resolve.PackageID], error) {
	path, err := r.groupPath(g)
	if err != nil {
		return nil, resolve.NewError("list packages", r.name, g.String(), err)
	}
	return subdirs(path, g.Package), nil
}

func (r *Resolver) PackageVersions(_ context.Context, p resolve.PackageID) (iter.Seq[resolve.VersionID], error) {
	path, err := r.packagePath(p)
	if err != nil {
		return nil, resolve.NewError("list versions", r.name, p.String(), err)
	}
	return subdirs(path, p.At), nil
}

func (r *Resolver) GetPackage(_ context.Context, v resolve.VersionID) (*resolve.PrePackage, error) {
	path, err := r.versionPath(v)
	if err != nil {
		return nil, resolve.NewError("get package", r.name, v.String(), err)
	}
	if !isDir(path) {
		return nil, resolve.NewError("get package", r.name, v.String(), resolve.ErrNotFound)
	}

	pkg := &resolve.PrePackage{
		ID:       v,
		Source:   r.name,
		Location: path,
	}

	m, err := readManifest(filepath.Join(path, ManifestName))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return pkg, nil
	case err != nil:
		return nil, resolve.NewError("get package", r.name, v.String(), err)
	}

	if m.Artifact != "" {
		pkg.Location = filepath.Join(path, filepath.FromSlash(m.Artifact))
	}
	pkg.Integrity = m.Integrity
	pkg.License = m.License
	pkg.PublishedAt = m.PublishedAt
	pkg.Metadata = m.Metadata
	return pkg, nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Artifact != "" && !filepath.IsLocal(filepath.FromSlash(m.Artifact)) {
		return nil, fmt.Errorf("parsing %s: artifact %q escapes the version directory", path, m.Artifact)
	}
	return &m, nil
}

func (r *Resolver) groupPath(g resolve.GroupID) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if err := checkSegment(g.Name); err != nil {
		return "", err
	}
	return filepath.Join(r.root, g.Name), nil
}

func (r *Resolver) packagePath(p resolve.PackageID) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	base, err := r.groupPath(p.Group)
	if err != nil {
		return "", err
	}
	if err := checkSegment(p.Name); err != nil {
		return "", err
	}
	return filepath.Join(base, p.Name), nil
}

func (r *Resolver) versionPath(v resolve.VersionID) (string, error) {
	if err := v.Validate(); err != nil {
		return "", err
	}
	base, err := r.packagePath(v.Package)
	if err != nil {
		return "", err
	}
	if err := checkSegment(v.Version); err != nil {
		return "", err
	}
	return filepath.Join(base, v.Version), nil
}

// checkSegment rejects names that cannot be a single directory entry. Hidden
// entries are never listed by subdirs, so they cannot be addressed either.
func checkSegment(name string) error {
	if strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q is not a valid path segment", resolve.ErrInvalidIdentifier, name)
	}
	return nil
}

// subdirs lazily lists the subdirectories of path. A missing or unreadable
// directory yields nothing.
func subdirs[T any](path string, convert func(string) T) iter.Seq[T] {
	return func(yield func(T) bool) {
		entries, err := os.ReadDir(path)
		if err != nil {
			return
		}
		for _, e := range entries {
			if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if !yield(convert(e.Name())) {
				return
			}
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
