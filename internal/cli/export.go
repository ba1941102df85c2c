package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhalstead/rigmeta/pkg/sceneio"
)

// exportCommand creates the export command, which re-exports a scene
// document in compacted form: attributes still at their defaults are
// dropped and record order is normalized.
func (c *CLI) exportCommand() *cobra.Command {
	var typePaths []string
	var output string
	var strict bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Re-export a scene document in compacted form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			sc, _, result, err := importDocument(ctx, args[0], typePaths)
			if err != nil {
				return err
			}
			if err := reportImport(result, strict); err != nil {
				return err
			}

			rec := sceneio.Export(sc, sceneio.ExportOptions{})

			path := output
			if path == "" {
				ext := filepath.Ext(args[0])
				path = strings.TrimSuffix(args[0], ext) + "_compact" + ext
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := sceneio.Encode(f, rec); err != nil {
				return err
			}

			prog.done(fmt.Sprintf("Exported %d nodes", len(rec.Nodes)))
			printSuccess("Wrote compacted document")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&typePaths, "types", "t", nil, "type manifest files or directories (also reads RIGMETA_TYPE_PATHS)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>_compact.json)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any record is skipped or partially restored")
	return cmd
}
