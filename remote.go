package resolve

import (
	"context"
	"iter"
	"net/http"
	"slices"
)

// RemoteOption configures a resolver backed by a web service.
type RemoteOption func(*remoteOptions)

type remoteOptions struct {
	ecosystems  []string
	userAgent   string
	httpClient  *http.Client
	registryURL string
}

// WithEcosystems restricts the resolver to the given purl types.
func WithEcosystems(names ...string) RemoteOption {
	return func(o *remoteOptions) {
		o.ecosystems = append(o.ecosystems, names...)
	}
}

// WithUserAgent sets the User-Agent header for API requests.
func WithUserAgent(ua string) RemoteOption {
	return func(o *remoteOptions) {
		o.userAgent = ua
	}
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(o *remoteOptions) {
		o.httpClient = c
	}
}

// WithRegistryURL points a RegistriesResolver at a private registry. The URL
// travels as the purl repository_url qualifier. Other resolvers ignore it.
func WithRegistryURL(url string) RemoteOption {
	return func(o *remoteOptions) {
		o.registryURL = url
	}
}

func buildRemoteOptions(opts []RemoteOption) remoteOptions {
	var o remoteOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.userAgent == "" {
		o.userAgent = defaultUserAgent
	}
	return o
}

// ecosystemSet is the set of purl types a remote resolver answers for. An
// empty set answers for every type but lists no groups.
type ecosystemSet []string

func (s ecosystemSet) allows(g GroupID) bool {
	return len(s) == 0 || slices.Contains(s, g.Name)
}

func (s ecosystemSet) groups() iter.Seq[GroupID] {
	return func(yield func(GroupID) bool) {
		for _, name := range s {
			if !yield(NewGroupID(name)) {
				return
			}
		}
	}
}

// remote holds the behaviour shared by resolvers backed by a web service:
// groups come from configuration and packages cannot be enumerated.
type remote struct {
	name       string
	ecosystems ecosystemSet
}

func (r *remote) Name() string {
	return r.name
}

func (r *remote) GroupExists(_ context.Context, g GroupID) bool {
	return g.Validate() == nil && len(r.ecosystems) > 0 && r.ecosystems.allows(g)
}

// covers reports whether p is a well-formed package in one of the resolver's
// ecosystems. Nothing outside it is ever sent to the service.
func (r *remote) covers(p PackageID) bool {
	return p.Validate() == nil && r.ecosystems.allows(p.Group)
}

func (r *remote) Groups(context.Context) (iter.Seq[GroupID], error) {
	return r.ecosystems.groups(), nil
}

// GroupPackages is always empty: registries do not expose their catalogues.
func (r *remote) GroupPackages(_ context.Context, g GroupID) (iter.Seq[PackageID], error) {
	if err := g.Validate(); err != nil {
		return nil, &Error{Op: "list packages", Source: r.name, ID: g.String(), Err: err}
	}
	return empty[PackageID], nil
}

func versionSeq(p PackageID, numbers []string) iter.Seq[VersionID] {
	return func(yield func(VersionID) bool) {
		for _, n := range numbers {
			if !yield(p.At(n)) {
				return
			}
		}
	}
}
