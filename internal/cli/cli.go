// Package cli implements the gafetes command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/buildinfo"
	"github.com/matzehuels/gafetes/pkg/observability"
	"github.com/matzehuels/gafetes/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gafetes"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool

	cacheStats  *observability.CacheCounter
	rasterStats *observability.RasterCounter
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		cacheStats:  &observability.CacheCounter{},
		rasterStats: &observability.RasterCounter{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Gafetes prints event badges in roster order",
		Long: `Gafetes turns an attendee roster into print-ready badge sheets.

It renders one badge per director and companion, scales every badge to the
print size, orders them by the roster's ordering key and lays each director
and companion pair onto one sheet of the final PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			c.registerHooks()
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+displayConfigPath()+")")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the raster cache")

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.scaleCommand())
	root.AddCommand(c.manifestCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// registerHooks wires the counters behind the end-of-run summary and a
// debug line per stage.
func (c *CLI) registerHooks() {
	observability.SetCacheHooks(c.cacheStats)
	observability.SetRasterHooks(c.rasterStats)
	observability.SetStageHooks(stageLogger{logger: c.Logger})
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadOptions reads the config file and applies the command's flags on
// top, so the precedence is defaults < config < flags.
func (c *CLI) loadOptions(cmd *cobra.Command, f *stageFlags) (pipeline.Options, error) {
	opts, err := pipeline.LoadConfig(c.configPath)
	if err != nil {
		return opts, err
	}
	if f != nil {
		f.apply(cmd, &opts)
	}
	if c.noCache {
		opts.Cache.Backend = pipeline.CacheNone
	}
	opts.Logger = c.Logger
	return opts, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, opts pipeline.Options) (*pipeline.Runner, error) {
	return pipeline.NewRunner(ctx, opts, c.Logger)
}

func displayConfigPath() string {
	if p := pipeline.DefaultConfigPath(); p != "" {
		return p
	}
	return "$XDG_CONFIG_HOME/" + appName + "/config.toml"
}
