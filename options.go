package govet

import (
	"log/slog"

	"github.com/codacy/codacy-govet/internal/config"
	"github.com/codacy/codacy-govet/internal/manifest"
	"github.com/codacy/codacy-govet/internal/policy"
)

// runConfig holds the resolved configuration for a run.
type runConfig struct {
	configPath   string
	sourceRoot   string
	manifestPath string
	scratchDir   string
	workers      int
	logger       *slog.Logger
	deny         policy.DenyList
	category     string // only for rule listings
}

// Option configures a run.
type Option func(*runConfig)

// WithConfigPath sets the run configuration file (default /.codacyrc).
func WithConfigPath(path string) Option {
	return func(c *runConfig) {
		c.configPath = path
	}
}

// WithSourceRoot sets the directory files are resolved against (default /src).
func WithSourceRoot(dir string) Option {
	return func(c *runConfig) {
		c.sourceRoot = dir
	}
}

// WithManifestPath overrides the cached manifest location
// (default <source root>/.govet-rules.json).
func WithManifestPath(path string) Option {
	return func(c *runConfig) {
		c.manifestPath = path
	}
}

// WithScratchDir sets where the per-run scratch directory is created.
func WithScratchDir(dir string) Option {
	return func(c *runConfig) {
		c.scratchDir = dir
	}
}

// WithWorkers sets the number of concurrent workers (default: NumCPU).
func WithWorkers(n int) Option {
	return func(c *runConfig) {
		c.workers = n
	}
}

// WithLogger sets the diagnostic logger. Nothing is logged by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithDenyList replaces the default deny-list.
func WithDenyList(ids ...string) Option {
	return func(c *runConfig) {
		c.deny = policy.NewDenyList(ids...)
	}
}

// WithCategory filters rules by category (only applies to rule listings).
func WithCategory(cat string) Option {
	return func(c *runConfig) {
		c.category = cat
	}
}

func applyOpts(opts []Option) *runConfig {
	cfg := &runConfig{
		configPath: config.DefaultConfigPath,
		sourceRoot: config.DefaultSourceRoot,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.manifestPath == "" {
		cfg.manifestPath = manifest.Path(cfg.sourceRoot)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.deny == nil {
		cfg.deny = policy.DefaultDenyList()
	}
	return cfg
}
