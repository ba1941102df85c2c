// Package render draws the metadata graph of a scene as Graphviz DOT and
// rasterizes it to SVG.
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/meta"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// Options configures metadata graph rendering.
type Options struct {
	// Detailed includes the type tag and the non-default value attributes
	// in node labels. When false, only the node name is shown.
	Detailed bool

	// IncludePlain also draws non-metadata nodes reached through named
	// relations, dashed, so ConnectTo targets stay visible.
	IncludePlain bool
}

// ToDOT converts the scene's metadata graph to Graphviz DOT: meta nodes as
// boxes, parent/child links as solid edges, named relations as dashed edges
// labeled with the relation name. Output is deterministic for a given scene,
// so the text can key a content-addressed artifact cache. The result renders
// with [RenderSVG].
func ToDOT(sc *scene.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph rigmeta {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	plain := make(map[string]bool)
	for _, n := range sc.Nodes() {
		if !meta.IsMetaNode(n) {
			continue
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.Name(), nodeLabel(n, opts.Detailed))
		if opts.IncludePlain {
			for _, peer := range relationTargets(n) {
				if !meta.IsMetaNode(peer) {
					plain[peer.Name()] = true
				}
			}
		}
	}
	for _, name := range slices.Sorted(maps.Keys(plain)) {
		fmt.Fprintf(&buf, "  %q [style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n", name)
	}

	buf.WriteString("\n")
	for _, n := range sc.Nodes() {
		if !meta.IsMetaNode(n) {
			continue
		}
		writeEdges(&buf, n, opts, plain)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *scene.Node, detailed bool) string {
	if !detailed {
		return n.Name()
	}
	parts := []string{n.Name()}
	if s, ok := n.Attribute(meta.AttrClass); ok {
		if v, err := s.Value(); err == nil {
			parts[0] = fmt.Sprintf("%s (%v)", n.Name(), v)
		}
	}
	for _, s := range n.Attributes() {
		if !s.IsDynamic() || s.Kind() == attr.KindMessage || s.IsDefault() {
			continue
		}
		if isStandard(s.Name()) {
			continue
		}
		if v, err := s.Value(); err == nil {
			parts = append(parts, fmt.Sprintf("%s: %s", s.Name(), attr.FormatValue(v)))
		}
	}
	return strings.Join(parts, "\n")
}

func isStandard(name string) bool {
	switch name {
	case meta.AttrClass, meta.AttrVersion, meta.AttrUUID, meta.AttrRoot,
		meta.AttrParent, meta.AttrChildren:
		return true
	}
	return false
}

// writeEdges emits the node's outgoing edges: child links from the
// mMetaChildren slot, named relations from every other message slot.
func writeEdges(buf *bytes.Buffer, n *scene.Node, opts Options, plain map[string]bool) {
	for _, s := range n.Attributes() {
		if s.Kind() != attr.KindMessage {
			continue
		}
		for _, dst := range s.Outputs() {
			target := dst.Node()
			if s.Name() == meta.AttrChildren {
				fmt.Fprintf(buf, "  %q -> %q;\n", n.Name(), target.Name())
				continue
			}
			if !meta.IsMetaNode(target) && !plain[target.Name()] {
				continue
			}
			fmt.Fprintf(buf, "  %q -> %q [style=dashed, label=%q, fontsize=10];\n",
				n.Name(), target.Name(), s.Name())
		}
	}
}

// relationTargets lists the nodes this meta node points at through message
// edges, standard relations included.
func relationTargets(n *scene.Node) []*scene.Node {
	var out []*scene.Node
	for _, s := range n.Attributes() {
		if s.Kind() != attr.KindMessage {
			continue
		}
		for _, dst := range s.Outputs() {
			out = append(out, dst.Node())
		}
	}
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the <svg> tag so the viewBox starts at the
// origin, which keeps downstream scaling simple.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
