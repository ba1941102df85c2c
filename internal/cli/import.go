package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// importCommand creates the import command, which loads a scene document
// and reports what was rebuilt. It is the dry-run counterpart to export:
// nothing is written, but every record is exercised.
func (c *CLI) importCommand() *cobra.Command {
	var typePaths []string
	var strict bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Load a scene document and report what was rebuilt",
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

			prog.done(fmt.Sprintf("Imported %d nodes", len(result.Created)))
			printSuccess("Loaded %s", args[0])
			printDetail("%d nodes in scene, %d skipped", sc.Len(), len(result.Skipped))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&typePaths, "types", "t", nil, "type manifest files or directories (also reads RIGMETA_TYPE_PATHS)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any record is skipped or partially restored")
	return cmd
}
