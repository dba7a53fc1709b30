package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/git-pkgs/resolve"
	"github.com/git-pkgs/resolve/internal/config"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgFile string
	verbose bool
	asJSON  bool

	logger   *zap.Logger
	resolver resolve.Resolver
}

// Execute runs the pkgresolve command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the pkgresolve command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pkgresolve",
		Short: "Resolve packages across several sources",
		Long: `pkgresolve - multi-source package resolver

Looks packages up in every configured source at once. Listings are merged;
fetching a version fails when no source or more than one source provides it.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./pkgresolve.yaml or $XDG_CONFIG_HOME/pkgresolve/pkgresolve.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newGroupsCmd(a),
		newPackagesCmd(a),
		newVersionsCmd(a),
		newExistsCmd(a),
		newGetCmd(a),
		newLatestCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(a.verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	a.logger = logger

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	chain, err := config.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("building resolvers: %w", err)
	}
	a.resolver = chain

	logger.Debug("resolvers ready",
		zap.String("chain", chain.Name()),
		zap.Int("resolvers", len(chain.Resolvers())))
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

func (a *app) print(w io.Writer, v any, text func(io.Writer)) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
