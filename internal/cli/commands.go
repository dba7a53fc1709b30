package cli

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/resolve"
)

func newGroupsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the groups known to any source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, err := a.resolver.Groups(cmd.Context())
			if err != nil {
				return err
			}
			names := sortedStrings(seq)
			return a.print(cmd.OutOrStdout(), names, lines(names))
		},
	}
}

func newPackagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "packages GROUP",
		Short: "List the packages of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := resolve.ParseGroupID(args[0])
			if err != nil {
				return err
			}
			seq, err := a.resolver.GroupPackages(cmd.Context(), g)
			if err != nil {
				return err
			}
			names := sortedStrings(seq)
			return a.print(cmd.OutOrStdout(), names, lines(names))
		},
	}
}

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions GROUP/PACKAGE",
		Short: "List the versions of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolve.ParsePackageID(args[0])
			if err != nil {
				return err
			}
			seq, err := a.resolver.PackageVersions(cmd.Context(), p)
			if err != nil {
				return err
			}
			names := sortedStrings(seq)
			return a.print(cmd.OutOrStdout(), names, lines(names))
		},
	}
}

func newExistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists ID",
		Short: "Report whether a group, package or version exists",
		Long: `Report whether any source knows the identifier. ID is a group ("npm"),
a package ("npm/lodash") or a version ("npm/lodash@4.17.21").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			var found bool
			switch {
			case !strings.Contains(id, "/"):
				g, err := resolve.ParseGroupID(id)
				if err != nil {
					return err
				}
				found = a.resolver.GroupExists(ctx, g)
			case hasVersion(id):
				v, err := resolve.ParseVersionID(id)
				if err != nil {
					return err
				}
				found = a.resolver.VersionExists(ctx, v)
			default:
				p, err := resolve.ParsePackageID(id)
				if err != nil {
					return err
				}
				found = a.resolver.PackageExists(ctx, p)
			}

			return a.print(cmd.OutOrStdout(), map[string]any{"id": id, "exists": found}, func(w io.Writer) {
				fmt.Fprintln(w, found)
			})
		},
	}
}

// hasVersion reports whether id carries an "@version" suffix. An "@" that
// opens a name segment, as in "npm/@babel/core", belongs to the name.
func hasVersion(id string) bool {
	_, name, _ := strings.Cut(id, "/")
	i := strings.LastIndex(name, "@")
	return i > 0 && name[i-1] != '/'
}

type packageOutput struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Location    string         `json:"location,omitempty"`
	Integrity   string         `json:"integrity,omitempty"`
	License     string         `json:"license,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get GROUP/PACKAGE@VERSION",
		Short: "Locate a package version in exactly one source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := resolve.ParseVersionID(args[0])
			if err != nil {
				return err
			}
			pkg, err := a.resolver.GetPackage(cmd.Context(), v)
			if err != nil {
				return err
			}
			return printPackage(a, cmd.OutOrStdout(), pkg)
		},
	}
}

func newLatestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latest GROUP/PACKAGE",
		Short: "Locate the highest known version of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolve.ParsePackageID(args[0])
			if err != nil {
				return err
			}
			v, err := resolve.LatestVersion(cmd.Context(), a.resolver, p)
			if err != nil {
				return err
			}
			pkg, err := a.resolver.GetPackage(cmd.Context(), v)
			if err != nil {
				return err
			}
			return printPackage(a, cmd.OutOrStdout(), pkg)
		},
	}
}

func printPackage(a *app, w io.Writer, pkg *resolve.PrePackage) error {
	out := packageOutput{
		ID:        pkg.ID.String(),
		Source:    pkg.Source,
		Location:  pkg.Location,
		Integrity: pkg.Integrity,
		License:   pkg.License,
		Metadata:  pkg.Metadata,
	}
	if !pkg.PublishedAt.IsZero() {
		out.PublishedAt = &pkg.PublishedAt
	}

	return a.print(w, out, func(w io.Writer) {
		fmt.Fprintf(w, "Package: %s\n", out.ID)
		fmt.Fprintf(w, "Source: %s\n", out.Source)
		if out.Location != "" {
			fmt.Fprintf(w, "Location: %s\n", out.Location)
		}
		if out.Integrity != "" {
			fmt.Fprintf(w, "Integrity: %s\n", out.Integrity)
		}
		if out.License != "" {
			fmt.Fprintf(w, "License: %s\n", out.License)
		}
		if out.PublishedAt != nil {
			fmt.Fprintf(w, "Published: %s\n", out.PublishedAt.Format(time.RFC3339))
		}
	})
}

func sortedStrings[T fmt.Stringer](seq iter.Seq[T]) []string {
	names := []string{}
	for item := range seq {
		names = append(names, item.String())
	}
	slices.Sort(names)
	return names
}

func lines(items []string) func(io.Writer) {
	return func(w io.Writer) {
		for _, item := range items {
			fmt.Fprintln(w, item)
		}
	}
}
