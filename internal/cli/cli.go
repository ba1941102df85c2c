// Package cli implements the rigmeta command-line interface.
//
// This package provides commands for inspecting scene documents, scanning
// type manifests, rendering the metadata graph, and serving a read-only
// HTTP view of a scene. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - import: Load a scene document and report what was rebuilt
//   - export: Re-export a scene document in compacted form
//   - inspect: Show nodes and attribute values from a document
//   - graph: Render the metadata graph as DOT or SVG
//   - types: List metadata types registered from manifests
//   - serve: Serve a read-only HTTP API for a document
//   - cache: Manage the render artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mhalstead/rigmeta/pkg/buildinfo"
	"github.com/mhalstead/rigmeta/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "rigmeta"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Rigmeta inspects and renders typed attribute graph documents",
		Long:         `Rigmeta is a CLI tool for working with rig metadata scene documents: importing and re-exporting them, inspecting node attributes, scanning type manifests, and rendering the metadata graph.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.typesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// redisAddrEnv selects a shared Redis artifact cache when set; otherwise
// artifacts land in the per-user file cache.
const redisAddrEnv = "RIGMETA_REDIS_ADDR"

// newArtifactCache creates the cache used for rendered graph artifacts:
// Redis when RIGMETA_REDIS_ADDR is set, the XDG file cache otherwise.
// Falls back to a null cache when the cache directory is unavailable.
func newArtifactCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := os.Getenv(redisAddrEnv); addr != "" {
		cfg := cache.DefaultRedisConfig()
		cfg.Addr = addr
		inner, err := cache.NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return cache.WithHooks(inner, "artifact"), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	inner, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.WithHooks(inner, "artifact"), nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/rigmeta/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
