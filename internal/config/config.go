// Package config loads the pkgresolve configuration and builds the resolver
// chain it describes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/git-pkgs/resolve"
	"github.com/git-pkgs/resolve/dir"
)

const (
	// AppName names the config directory and file.
	AppName = "pkgresolve"
	// EnvPrefix prefixes environment overrides, e.g. PKGRESOLVE_CONCURRENCY.
	EnvPrefix = "PKGRESOLVE"
)

// Backend types accepted in the configuration.
const (
	TypeDir        = "dir"
	TypeRegistries = "registries"
	TypeEcosystems = "ecosystems"
	TypeDepsDev    = "depsdev"
	TypeChain      = "chain"
)

// Config is the top-level configuration. Its backends form the root chain.
type Config struct {
	Name        string    `mapstructure:"name"`
	Concurrency int       `mapstructure:"concurrency"`
	Backends    []Backend `mapstructure:"backends"`
}

// Backend describes one resolver. Chain backends nest further backends.
type Backend struct {
	Type        string    `mapstructure:"type"`
	Name        string    `mapstructure:"name"`
	Path        string    `mapstructure:"path"`
	Ecosystems  []string  `mapstructure:"ecosystems"`
	UserAgent   string    `mapstructure:"user_agent"`
	RegistryURL string    `mapstructure:"registry_url"`
	Concurrency int       `mapstructure:"concurrency"`
	Backends    []Backend `mapstructure:"backends"`
}

// DefaultConfig queries package registries directly.
func DefaultConfig() *Config {
	return &Config{
		Name:        "chain",
		Concurrency: 10,
		Backends:    []Backend{{Type: TypeRegistries}},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration from path, or when path is empty from
// pkgresolve.yaml in the working directory or the user config directory.
// A missing default file yields DefaultConfig.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("concurrency", defaults.Concurrency)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if cfgDir, err := Dir(); err == nil {
			v.AddConfigPath(cfgDir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !v.IsSet("backends") {
		cfg.Backends = defaults.Backends
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every backend entry.
func (c *Config) Validate() error {
	return validateBackends("backends", c.Backends)
}

func validateBackends(path string, backends []Backend) error {
	for i, b := range backends {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch b.Type {
		case TypeDir:
			if b.Path == "" {
				return fmt.Errorf("%s: dir backend requires a path", at)
			}
		case TypeRegistries:
			if b.RegistryURL != "" && len(b.Ecosystems) != 1 {
				return fmt.Errorf("%s: registry_url requires exactly one ecosystem", at)
			}
		case TypeEcosystems, TypeDepsDev:
		case TypeChain:
			if err := validateBackends(at+".backends", b.Backends); err != nil {
				return err
			}
		case "":
			return fmt.Errorf("%s: missing type", at)
		default:
			return fmt.Errorf("%s: unknown backend type %q", at, b.Type)
		}
	}
	return nil
}

// Build constructs the root chain described by c.
func Build(c *Config, logger *zap.Logger) (*resolve.Chain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return buildChain(c.Name, c.Concurrency, c.Backends, logger)
}

func buildChain(name string, concurrency int, backends []Backend, logger *zap.Logger) (*resolve.Chain, error) {
	resolvers := make([]resolve.Resolver, 0, len(backends))
	for _, b := range backends {
		r, err := buildBackend(b, logger)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, r)
	}

	opts := []resolve.Option{resolve.WithLogger(logger.Named(name))}
	if name != "" {
		opts = append(opts, resolve.WithName(name))
	}
	if concurrency > 0 {
		opts = append(opts, resolve.WithConcurrency(concurrency))
	}
	return resolve.NewChain(resolvers, opts...), nil
}

func buildBackend(b Backend, logger *zap.Logger) (resolve.Resolver, error) {
	switch b.Type {
	case TypeDir:
		name := b.Name
		if name == "" {
			name = TypeDir + ":" + b.Path
		}
		return dir.New(name, expandHome(b.Path)), nil
	case TypeRegistries:
		return resolve.NewRegistriesResolver(append(remoteOptions(b), resolve.WithRegistryURL(b.RegistryURL))...), nil
	case TypeEcosystems:
		r, err := resolve.NewEcosystemsResolver(remoteOptions(b)...)
		if err != nil {
			return nil, fmt.Errorf("creating ecosystems backend: %w", err)
		}
		return r, nil
	case TypeDepsDev:
		return resolve.NewDepsDevResolver(remoteOptions(b)...), nil
	case TypeChain:
		name := b.Name
		if name == "" {
			name = TypeChain
		}
		return buildChain(name, b.Concurrency, b.Backends, logger)
	default:
		return nil, fmt.Errorf("unknown backend type %q", b.Type)
	}
}

func remoteOptions(b Backend) []resolve.RemoteOption {
	return []resolve.RemoteOption{
		resolve.WithEcosystems(b.Ecosystems...),
		resolve.WithUserAgent(b.UserAgent),
	}
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
