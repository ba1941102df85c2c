package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/meta"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// inspectCommand creates the inspect command, which prints the nodes of a
// scene document, or the attribute table of a single node.
func (c *CLI) inspectCommand() *cobra.Command {
	var typePaths []string

	cmd := &cobra.Command{
		Use:   "inspect [file] [node]",
		Short: "Show nodes and attribute values from a scene document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, _, result, err := importDocument(cmd.Context(), args[0], typePaths)
			if err != nil {
				return err
			}
			if err := reportImport(result, false); err != nil {
				return err
			}

			if len(args) == 2 {
				return inspectNode(sc, args[1])
			}
			inspectScene(sc)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&typePaths, "types", "t", nil, "type manifest files or directories (also reads RIGMETA_TYPE_PATHS)")
	return cmd
}

// inspectScene prints a one-row-per-node summary table.
func inspectScene(sc *scene.Scene) {
	tbl := newTable("NODE", "TYPE", "CLASS", "ATTRS", "LOCKED")
	for _, n := range sc.Nodes() {
		class := ""
		if m := meta.FromHost(n); meta.IsMetaNode(n) {
			if tag, err := m.TypeTag(); err == nil {
				class = tag
			}
		}
		locked := ""
		if n.Locked() {
			locked = "yes"
		}
		tbl.Row(n.Name(), n.TypeName(), class, fmt.Sprintf("%d", len(n.Attributes())), locked)
	}
	fmt.Println(tbl)
	printDetail("%d nodes", sc.Len())
}

// inspectNode prints the attribute table of one node.
func inspectNode(sc *scene.Scene, name string) error {
	n, ok := sc.Node(name)
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "node %q not found", name)
	}

	fmt.Println(StyleTitle.Render(n.Name()) + " " + StyleDim.Render("("+n.TypeName()+")"))

	tbl := newTable("ATTRIBUTE", "KIND", "VALUE", "FLAGS")
	for _, s := range n.Attributes() {
		tbl.Row(s.Name(), s.Kind().String(), formatSlotValue(s), slotFlags(s))
	}
	fmt.Println(tbl)
	return nil
}

// formatSlotValue renders a slot's value for display. Connected message
// slots show their source path instead of a value.
func formatSlotValue(s *scene.Slot) string {
	if s.Kind() == attr.KindMessage {
		if src := s.Source(); src != nil {
			return iconArrow + " " + src.FullPath()
		}
		if outs := s.Outputs(); len(outs) > 0 {
			dests := make([]string, len(outs))
			for i, o := range outs {
				dests[i] = o.FullPath()
			}
			return strings.Join(dests, ", ") + " " + iconArrow
		}
		return "-"
	}
	v, err := s.Value()
	if err != nil {
		return "?"
	}
	return attr.FormatValue(v)
}

// slotFlags summarizes a slot's state as a comma-separated flag list.
func slotFlags(s *scene.Slot) string {
	var flags []string
	if s.IsDynamic() {
		flags = append(flags, "dynamic")
	}
	if s.IsArray() {
		flags = append(flags, fmt.Sprintf("array[%d]", len(s.Indices())))
	}
	if s.Locked() {
		flags = append(flags, "locked")
	}
	if s.Keyable() {
		flags = append(flags, "keyable")
	}
	return strings.Join(flags, ",")
}
