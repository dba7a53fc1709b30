package resolve

import (
	"fmt"
	"strings"
)

// GroupID names a family of packages, such as an ecosystem ("npm") or an
// organisation ("org").
type GroupID struct {
	Name string
}

// PackageID names a single package within a group.
type PackageID struct {
	Group GroupID
	Name  string
}

// VersionID names one concrete version of a package. A VersionID designates
// exactly one artifact across every resolver a caller combines.
type VersionID struct {
	Package PackageID
	Version string
}

// NewGroupID returns the group with the given name.
func NewGroupID(name string) GroupID {
	return GroupID{Name: name}
}

// Package returns the identifier of the named package within g.
func (g GroupID) Package(name string) PackageID {
	return PackageID{Group: g, Name: name}
}

// At returns the identifier of version v of p.
func (p PackageID) At(v string) VersionID {
	return VersionID{Package: p, Version: v}
}

func (g GroupID) String() string {
	return g.Name
}

func (p PackageID) String() string {
	return p.Group.Name + "/" + p.Name
}

func (v VersionID) String() string {
	return v.Package.String() + "@" + v.Version
}

func (g GroupID) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: empty group name", ErrInvalidIdentifier)
	}
	return nil
}

func (p PackageID) Validate() error {
	if err := p.Group.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: empty package name in group %q", ErrInvalidIdentifier, p.Group.Name)
	}
	return nil
}

func (v VersionID) Validate() error {
	if err := v.Package.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(v.Version) == "" {
		return fmt.Errorf("%w: empty version for %s", ErrInvalidIdentifier, v.Package)
	}
	return nil
}

// ParseGroupID parses a bare group name.
func ParseGroupID(s string) (GroupID, error) {
	if strings.Contains(s, "/") {
		return GroupID{}, fmt.Errorf("%w: %q is not a group", ErrInvalidIdentifier, s)
	}
	g := NewGroupID(s)
	return g, g.Validate()
}

// ParsePackageID parses "group/name". The name may itself contain slashes,
// as in "npm/@babel/core".
func ParsePackageID(s string) (PackageID, error) {
	group, name, ok := strings.Cut(s, "/")
	if !ok {
		return PackageID{}, fmt.Errorf("%w: %q is missing a package name", ErrInvalidIdentifier, s)
	}
	p := NewGroupID(group).Package(name)
	return p, p.Validate()
}

// ParseVersionID parses "group/name@version".
func ParseVersionID(s string) (VersionID, error) {
	i := strings.LastIndex(s, "@")
	// An "@" directly after a slash starts a scoped name, not a version.
	if i <= 0 || s[i-1] == '/' {
		return VersionID{}, fmt.Errorf("%w: %q is missing a version", ErrInvalidIdentifier, s)
	}
	p, err := ParsePackageID(s[:i])
	if err != nil {
		return VersionID{}, err
	}
	v := p.At(s[i+1:])
	return v, v.Validate()
}
