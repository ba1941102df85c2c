package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhalstead/rigmeta/pkg/meta"
)

// typesCommand creates the types command, which scans type manifests and
// lists every registered metadata type.
func (c *CLI) typesCommand() *cobra.Command {
	var typePaths []string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List metadata types registered from manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(cmd.Context(), typePaths)
			if err != nil {
				return err
			}

			tbl := newTable("TYPE", "SOURCE")
			for _, name := range reg.Types() {
				source := "manifest"
				if name == meta.GenericType {
					source = "built-in"
				}
				tbl.Row(name, source)
			}
			fmt.Println(tbl)

			searched := append([]string{}, typePaths...)
			searched = append(searched, meta.PathsFromEnv()...)
			if len(searched) > 0 {
				printDetail("Searched: %s", strings.Join(searched, string(os.PathListSeparator)))
			} else {
				printDetail("No manifest paths given; set %s or pass --types", meta.TypePathsEnv)
			}
			printDetail("%d types registered", len(reg.Types()))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&typePaths, "types", "t", nil, "type manifest files or directories (also reads RIGMETA_TYPE_PATHS)")
	return cmd
}
