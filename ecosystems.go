package resolve

import (
	"context"
	"iter"
	"time"

	"github.com/ecosyste-ms/ecosystems-go"
	"github.com/git-pkgs/registries"
)

// EcosystemsResolver resolves packages through the ecosyste.ms API.
type EcosystemsResolver struct {
	remote
	client *ecosystems.Client
}

var _ Resolver = (*EcosystemsResolver)(nil)

// NewEcosystemsResolver creates a resolver that uses the ecosyste.ms API.
// Without WithEcosystems it answers for any purl type.
func NewEcosystemsResolver(opts ...RemoteOption) (*EcosystemsResolver, error) {
	o := buildRemoteOptions(opts)
	var clientOpts []ecosystems.Option
	if o.httpClient != nil {
		clientOpts = append(clientOpts, ecosystems.WithHTTPClient(o.httpClient))
	}
	client, err := ecosystems.NewClient(o.userAgent, clientOpts...)
	if err != nil {
		return nil, err
	}
	return &EcosystemsResolver{
		remote: remote{name: "ecosystems", ecosystems: o.ecosystems},
		client: client,
	}, nil
}

func (r *EcosystemsResolver) PackageExists(ctx context.Context, p PackageID) bool {
	if !r.covers(p) {
		return false
	}
	numbers, err := r.fetchVersions(ctx, p)
	return err == nil && len(numbers) > 0
}

func (r *EcosystemsResolver) VersionExists(ctx context.Context, v VersionID) bool {
	_, err := r.GetPackage(ctx, v)
	return err == nil
}

func (r *EcosystemsResolver) PackageVersions(ctx context.Context, p PackageID) (iter.Seq[VersionID], error) {
	if err := p.Validate(); err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}
	if !r.ecosystems.allows(p.Group) {
		return empty[VersionID], nil
	}
	numbers, err := r.fetchVersions(ctx, p)
	if err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}
	return versionSeq(p, numbers), nil
}

func (r *EcosystemsResolver) fetchVersions(ctx context.Context, p PackageID) ([]string, error) {
	ep, err := ecosystems.ParsePURL(p.PURL())
	if err != nil {
		return nil, err
	}
	versions, err := r.client.GetAllVersionsPURL(ctx, ep)
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(versions))
	for _, v := range versions {
		numbers = append(numbers, v.Number)
	}
	return numbers, nil
}

func (r *EcosystemsResolver) GetPackage(ctx context.Context, id VersionID) (*PrePackage, error) {
	if err := id.Validate(); err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}
	if !r.ecosystems.allows(id.Package.Group) {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: ErrNotFound}
	}

	ep, err := ecosystems.ParsePURL(id.PURL())
	if err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}
	v, err := r.client.GetVersionPURL(ctx, ep)
	if err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}
	if v == nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: ErrNotFound}
	}

	pkg := &PrePackage{
		ID:       id,
		Source:   r.name,
		Location: registries.DefaultURL(id.Package.Group.Name),
	}
	if v.PublishedAt != nil {
		pkg.PublishedAt, _ = time.Parse(time.RFC3339, *v.PublishedAt)
	}
	if v.Integrity != nil {
		pkg.Integrity = *v.Integrity
	}
	if v.Licenses != nil {
		pkg.License = *v.Licenses
	}
	return pkg, nil
}
