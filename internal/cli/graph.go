package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhalstead/rigmeta/pkg/cache"
	"github.com/mhalstead/rigmeta/pkg/render"
	"github.com/mhalstead/rigmeta/pkg/scene"
	"github.com/mhalstead/rigmeta/pkg/sceneio"
)

// artifactTTL bounds how long rendered artifacts stay cached.
const artifactTTL = 7 * 24 * time.Hour

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output    string   // output file path
	format    string   // "svg" or "dot"
	detailed  bool     // include type tags and attribute values in labels
	all       bool     // include plain nodes reached through relations
	noCache   bool     // bypass the artifact cache
	typePaths []string // manifest paths for the type registry
}

// graphCommand creates the graph command, which renders the metadata graph
// of a scene document as DOT or SVG. SVG artifacts are cached by content
// hash so re-rendering an unchanged document is instant.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Render the metadata graph as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "svg" && opts.format != "dot" {
				return fmt.Errorf("invalid format: %s (must be 'svg' or 'dot')", opts.format)
			}
			return runGraph(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: derived from input)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include type tags and attribute values in labels")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include non-metadata nodes reached through relations")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the artifact cache")
	cmd.Flags().StringSliceVarP(&opts.typePaths, "types", "t", nil, "type manifest files or directories (also reads RIGMETA_TYPE_PATHS)")
	return cmd
}

func runGraph(ctx context.Context, input string, opts *graphOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	reg, err := loadRegistry(ctx, opts.typePaths)
	if err != nil {
		return err
	}

	rec, err := readSceneRecord(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	sc := scene.New()
	result := sceneio.Import(sc, rec, sceneio.ImportOptions{
		Loaders: requirementLoaders(reg),
	})
	if err := reportImport(result, false); err != nil {
		return err
	}
	logger.Debugf("Loaded %d nodes", sc.Len())

	dot := render.ToDOT(sc, render.Options{
		Detailed:     opts.detailed,
		IncludePlain: opts.all,
	})

	data := []byte(dot)
	cached := false
	if opts.format == "svg" {
		data, cached, err = renderCachedSVG(ctx, dot, opts.noCache)
		if err != nil {
			return err
		}
	}

	path := opts.output
	if path == "" {
		path = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Rendered %s", path))
	printSuccess("Generated %s graph", opts.format)
	printFile(path)
	printStats(sc.Len(), strings.Count(dot, "->"), cached)
	return nil
}

// renderCachedSVG renders DOT to SVG through the artifact cache. The cache
// key is derived from the DOT text, so label and edge changes invalidate it.
func renderCachedSVG(ctx context.Context, dot string, noCache bool) (data []byte, cached bool, err error) {
	store, err := newArtifactCache(ctx, noCache)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	keyer := cache.NewDefaultKeyer()
	key := keyer.ArtifactKey(cache.Hash([]byte(dot)), cache.ArtifactKeyOpts{Format: "svg"})

	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		return data, true, nil
	}

	svg, err := render.RenderSVG(dot)
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(ctx, key, svg, artifactTTL); err != nil {
		loggerFromContext(ctx).Debugf("Cache write failed: %v", err)
	}
	return svg, false, nil
}
