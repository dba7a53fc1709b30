package resolve

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
)

// ParsePURL converts a package URL into a VersionID. The purl type becomes
// the group and the namespaced name becomes the package name. A purl without
// a version yields a VersionID with an empty Version; use Package on the
// result for package-level lookups.
func ParsePURL(s string) (VersionID, error) {
	p, err := purl.Parse(s)
	if err != nil {
		return VersionID{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	id := NewGroupID(p.Type).Package(p.FullName()).At(p.Version)
	if err := id.Package.Validate(); err != nil {
		return VersionID{}, err
	}
	return id, nil
}

// PURL renders p as a version-less package URL.
func (p PackageID) PURL() string {
	return p.At("").PURL()
}

// PURL renders v as a package URL.
func (v VersionID) PURL() string {
	return v.purl(nil)
}

func (v VersionID) purl(qualifiers map[string]string) string {
	namespace, name := splitName(v.Package)
	return purl.New(v.Package.Group.Name, namespace, name, v.Version, qualifiers).String()
}

// splitName undoes purl.FullName: maven joins namespace and name with ":",
// every other type with "/".
func splitName(p PackageID) (namespace, name string) {
	sep := "/"
	if p.Group.Name == "maven" {
		sep = ":"
	}
	if i := strings.LastIndex(p.Name, sep); i > 0 {
		return p.Name[:i], p.Name[i+1:]
	}
	return "", p.Name
}
