package resolve

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/git-pkgs/purl"
	"github.com/git-pkgs/registries"
	_ "github.com/git-pkgs/registries/all"
)

// RegistriesResolver queries package registries directly.
type RegistriesResolver struct {
	remote
	client      *registries.Client
	registryURL string
}

var _ Resolver = (*RegistriesResolver)(nil)

// NewRegistriesResolver creates a resolver that queries package registries
// directly. Without WithEcosystems it answers for any purl type. With
// WithRegistryURL every request goes to that registry instead of the
// ecosystem's public one.
func NewRegistriesResolver(opts ...RemoteOption) *RegistriesResolver {
	o := buildRemoteOptions(opts)
	client := registries.DefaultClient().WithUserAgent(o.userAgent)
	if o.httpClient != nil {
		client.HTTPClient = o.httpClient
	}
	return &RegistriesResolver{
		remote:      remote{name: "registries", ecosystems: o.ecosystems},
		client:      client,
		registryURL: o.registryURL,
	}
}

func (r *RegistriesResolver) PackageExists(ctx context.Context, p PackageID) bool {
	if !r.covers(p) {
		return false
	}
	numbers, err := r.fetchVersions(ctx, p)
	return err == nil && len(numbers) > 0
}

func (r *RegistriesResolver) VersionExists(ctx context.Context, v VersionID) bool {
	_, err := r.GetPackage(ctx, v)
	return err == nil
}

func (r *RegistriesResolver) PackageVersions(ctx context.Context, p PackageID) (iter.Seq[VersionID], error) {
	if err := p.Validate(); err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}
	if !r.ecosystems.allows(p.Group) {
		return empty[VersionID], nil
	}
	numbers, err := r.fetchVersions(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return empty[VersionID], nil
	}
	if err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}
	return versionSeq(p, numbers), nil
}

// purl renders v for the registries client, carrying the private registry
// URL when one is configured.
func (r *RegistriesResolver) purl(v VersionID) string {
	if r.registryURL == "" {
		return v.PURL()
	}
	return v.purl(map[string]string{"repository_url": r.registryURL})
}

func (r *RegistriesResolver) fetchVersions(ctx context.Context, p PackageID) ([]string, error) {
	reg, name, _, err := registries.NewFromPURL(r.purl(p.At("")), r.client)
	if err != nil {
		return nil, err
	}
	versions, err := reg.FetchVersions(ctx, name)
	if err != nil {
		return nil, registryError(err)
	}
	numbers := make([]string, 0, len(versions))
	for _, v := range versions {
		numbers = append(numbers, v.Number)
	}
	return numbers, nil
}

func (r *RegistriesResolver) GetPackage(ctx context.Context, id VersionID) (*PrePackage, error) {
	if err := id.Validate(); err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}
	if !r.ecosystems.allows(id.Package.Group) {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: ErrNotFound}
	}

	purlStr := r.purl(id)
	v, err := registries.FetchVersionFromPURL(ctx, purlStr, r.client)
	if err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: registryError(err)}
	}
	if v == nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: ErrNotFound}
	}

	return &PrePackage{
		ID:          id,
		Source:      r.name,
		Location:    extractRegistryURL(purlStr, id.Package.Group.Name),
		Integrity:   v.Integrity,
		License:     v.Licenses,
		PublishedAt: v.PublishedAt,
	}, nil
}

// registryError maps the registries client's not-found errors onto ErrNotFound.
func registryError(err error) error {
	if errors.Is(err, registries.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// extractRegistryURL extracts the registry URL from a PURL qualifier or returns the default.
func extractRegistryURL(purlStr, ecosystem string) string {
	p, err := purl.Parse(purlStr)
	if err != nil {
		return registries.DefaultURL(ecosystem)
	}
	if url := p.RepositoryURL(); url != "" {
		return url
	}
	return registries.DefaultURL(ecosystem)
}
