package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gafetes/pkg/cache"
	"github.com/matzehuels/gafetes/pkg/pipeline"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the raster cache",
		Long: `Rasterised and fitted badges are cached by content hash, DPI and size so
re-running a stage only renders what changed. The backend is chosen in the
config file: a directory (default) or a shared redis instance.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached raster",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := pipeline.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			if opts.Cache.Backend == pipeline.CacheNone {
				printInfo("Cache is disabled")
				return nil
			}

			store, err := pipeline.OpenCache(ctx, opts.Cache)
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("cache backend %q cannot be cleared", opts.Cache.Backend)
			}

			entries := -1
			if fc, ok := store.(*cache.FileCache); ok {
				if n, _, err := fc.Stats(); err == nil {
					entries = n
				}
			}
			if err := clearer.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if entries >= 0 {
				printSuccess("Cleared %d cached entries", entries)
			} else {
				printSuccess("Cleared cache")
			}
			printDetail("Location: %s", cacheLocation(opts.Cache))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pipeline.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			fmt.Println(cacheLocation(opts.Cache))
			return nil
		},
	}
}

// cacheLocation describes the configured backend: a directory for the file
// cache, an address and key prefix for redis.
func cacheLocation(opts pipeline.CacheOptions) string {
	switch opts.Backend {
	case pipeline.CacheRedis:
		return fmt.Sprintf("redis://%s/%d (prefix %q)", opts.RedisAddr, opts.RedisDB, opts.Prefix)
	case pipeline.CacheNone:
		return "disabled"
	}
	if opts.Dir != "" {
		return opts.Dir
	}
	return cache.DefaultDir()
}
