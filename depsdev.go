package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/git-pkgs/purl"
)

// DepsDevResolver resolves packages through the deps.dev v3 REST API.
type DepsDevResolver struct {
	remote
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

var _ Resolver = (*DepsDevResolver)(nil)

// NewDepsDevResolver creates a resolver for the deps.dev API. Without
// WithEcosystems it answers for every purl type deps.dev supports.
func NewDepsDevResolver(opts ...RemoteOption) *DepsDevResolver {
	o := buildRemoteOptions(opts)
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &DepsDevResolver{
		remote:     remote{name: "depsdev", ecosystems: o.ecosystems},
		baseURL:    "https://api.deps.dev",
		httpClient: httpClient,
		userAgent:  o.userAgent,
	}
}

var errUnsupportedSystem = errors.New("unsupported by deps.dev")

func (r *DepsDevResolver) system(g GroupID) (string, error) {
	if !r.ecosystems.allows(g) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, g)
	}
	system := purl.PURLTypeToDepsdev(g.Name)
	if system == "" {
		return "", fmt.Errorf("%w: purl type %s", errUnsupportedSystem, g.Name)
	}
	return system, nil
}

func (r *DepsDevResolver) GroupExists(ctx context.Context, g GroupID) bool {
	if !r.remote.GroupExists(ctx, g) {
		return false
	}
	_, err := r.system(g)
	return err == nil
}

func (r *DepsDevResolver) PackageExists(ctx context.Context, p PackageID) bool {
	if !r.covers(p) {
		return false
	}
	system, err := r.system(p.Group)
	if err != nil {
		return false
	}
	resp, err := r.getPackage(ctx, system, p.Name)
	return err == nil && len(resp.Versions) > 0
}

func (r *DepsDevResolver) VersionExists(ctx context.Context, v VersionID) bool {
	_, err := r.GetPackage(ctx, v)
	return err == nil
}

func (r *DepsDevResolver) PackageVersions(ctx context.Context, p PackageID) (iter.Seq[VersionID], error) {
	if err := p.Validate(); err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}
	system, err := r.system(p.Group)
	if errors.Is(err, ErrNotFound) {
		return empty[VersionID], nil
	}
	if err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}

	resp, err := r.getPackage(ctx, system, p.Name)
	if errors.Is(err, ErrNotFound) {
		return empty[VersionID], nil
	}
	if err != nil {
		return nil, &Error{Op: "list versions", Source: r.name, ID: p.String(), Err: err}
	}

	numbers := make([]string, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		numbers = append(numbers, v.VersionKey.Version)
	}
	return versionSeq(p, numbers), nil
}

func (r *DepsDevResolver) GetPackage(ctx context.Context, id VersionID) (*PrePackage, error) {
	if err := id.Validate(); err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}
	system, err := r.system(id.Package.Group)
	if err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}

	resp, err := r.getVersion(ctx, system, id.Package.Name, id.Version)
	if err != nil {
		return nil, &Error{Op: "get package", Source: r.name, ID: id.String(), Err: err}
	}

	pkg := &PrePackage{
		ID:     id,
		Source: r.name,
	}
	if resp.PublishedAt != "" {
		pkg.PublishedAt, _ = time.Parse(time.RFC3339, resp.PublishedAt)
	}
	if len(resp.Licenses) > 0 {
		pkg.License = strings.Join(resp.Licenses, " AND ")
	}
	for _, link := range resp.Links {
		switch link.Label {
		case "ORIGIN":
			pkg.Location = link.URL
		case "HOMEPAGE", "SOURCE_REPO":
			if pkg.Metadata == nil {
				pkg.Metadata = make(map[string]any)
			}
			pkg.Metadata[strings.ToLower(link.Label)] = link.URL
		}
	}
	return pkg, nil
}

type depsdevVersionKey struct {
	System  string `json:"system"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type depsdevPackageResponse struct {
	PackageKey struct {
		System string `json:"system"`
		Name   string `json:"name"`
	} `json:"packageKey"`
	Versions []depsdevVersion `json:"versions"`
}

type depsdevVersion struct {
	VersionKey  depsdevVersionKey `json:"versionKey"`
	PublishedAt string            `json:"publishedAt"`
	IsDefault   bool              `json:"isDefault"`
}

type depsdevLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type depsdevVersionResponse struct {
	VersionKey  depsdevVersionKey `json:"versionKey"`
	PublishedAt string            `json:"publishedAt"`
	IsDefault   bool              `json:"isDefault"`
	Licenses    []string          `json:"licenses"`
	Links       []depsdevLink     `json:"links"`
}

func (r *DepsDevResolver) getPackage(ctx context.Context, system, name string) (*depsdevPackageResponse, error) {
	u := fmt.Sprintf("%s/v3/systems/%s/packages/%s", r.baseURL, system, url.PathEscape(name))

	var result depsdevPackageResponse
	if err := r.get(ctx, u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *DepsDevResolver) getVersion(ctx context.Context, system, name, version string) (*depsdevVersionResponse, error) {
	u := fmt.Sprintf("%s/v3/systems/%s/packages/%s/versions/%s",
		r.baseURL, system, url.PathEscape(name), url.PathEscape(version))

	var result depsdevVersionResponse
	if err := r.get(ctx, u, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *DepsDevResolver) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("deps.dev: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
