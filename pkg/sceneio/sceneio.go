// Package sceneio serializes scenes to a JSON node-record format and
// rebuilds them, resiliently, from the same records.
//
// Each node serializes as {name, type, parent?, requirements?, attributes,
// connections}. Attribute records follow the compaction policy from package
// scene: dynamic attributes in full, built-ins only when off their default.
// Connections are applied in a second pass once every node exists, so
// forward references between records are fine.
//
// Import is resilient per record: a node whose requirements cannot be
// satisfied, or whose attributes fail to apply, is skipped and reported
// while its siblings still load. Nothing short of unreadable input aborts
// the whole batch.
package sceneio

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// FormatVersion is written into every scene record for forward
// compatibility checks.
const FormatVersion = 1

// ConnectionRecord is one directed edge, stored on the destination node.
type ConnectionRecord struct {
	// Destination is the node-relative slot path on the owning node.
	Destination string `json:"destinationAttrPath"`

	// SourceNode and SourceAttr identify the feeding slot.
	SourceNode string `json:"sourceNodeName"`
	SourceAttr string `json:"sourceAttrPath"`
}

// NodeRecord is the serialized form of one node.
type NodeRecord struct {
	Name         string             `json:"name"`
	Type         string             `json:"type"`
	Parent       string             `json:"parent,omitempty"`
	Requirements []string           `json:"requirements,omitempty"`
	Attributes   []attr.Record      `json:"attributes,omitempty"`
	Connections  []ConnectionRecord `json:"connections,omitempty"`
	Locked       bool               `json:"locked,omitempty"`
}

// SceneRecord is the top-level save format.
type SceneRecord struct {
	Version int          `json:"version"`
	Nodes   []NodeRecord `json:"nodes"`
}

// ExportOptions tune serialization.
type ExportOptions struct {
	// Requirements, when set, names the extension modules a node needs at
	// import time. Called once per node.
	Requirements func(*scene.Node) []string
}

// Export serializes the whole scene deterministically (nodes in creation
// order, attributes in slot order, array elements by ascending index).
func Export(sc *scene.Scene, opts ExportOptions) SceneRecord {
	rec := SceneRecord{Version: FormatVersion}
	for _, n := range sc.Nodes() {
		rec.Nodes = append(rec.Nodes, exportNode(n, opts))
	}
	return rec
}

func exportNode(n *scene.Node, opts ExportOptions) NodeRecord {
	rec := NodeRecord{
		Name:   n.Name(),
		Type:   n.TypeName(),
		Locked: n.Locked(),
	}
	if p := n.Parent(); p != nil {
		rec.Parent = p.Name()
	}
	if opts.Requirements != nil {
		rec.Requirements = opts.Requirements(n)
	}
	for _, s := range n.Attributes() {
		if r, emit := scene.SerializeSlot(s, false); emit {
			rec.Attributes = append(rec.Attributes, r)
		}
		collectConnections(s, &rec.Connections)
	}
	return rec
}

// collectConnections records the incoming edge of the slot and of every
// element and compound child under it.
func collectConnections(s *scene.Slot, out *[]ConnectionRecord) {
	if src := s.Source(); src != nil {
		*out = append(*out, ConnectionRecord{
			Destination: s.Path(),
			SourceNode:  src.Node().Name(),
			SourceAttr:  src.Path(),
		})
	}
	for _, i := range s.Indices() {
		if e, ok := s.ElementAt(i); ok {
			collectConnections(e, out)
		}
	}
	for _, c := range s.Children() {
		collectConnections(c, out)
	}
}

// RequirementLoader satisfies one named requirement, typically by loading
// an extension module. A nil error means the requirement is available.
type RequirementLoader func() error

// ImportOptions tune deserialization.
type ImportOptions struct {
	// Loaders maps requirement names to loaders. A record naming a
	// requirement with no loader, or whose loader fails, is skipped.
	Loaders map[string]RequirementLoader
}

// SkippedNode reports one record the import gave up on and why.
type SkippedNode struct {
	Name string
	Err  error
}

// Result summarizes an import.
type Result struct {
	// Created lists the node names built by this import, in record order.
	Created []string

	// Skipped lists records dropped with their reasons.
	Skipped []SkippedNode

	// Errs collects non-fatal problems on nodes that still imported,
	// connection failures included.
	Errs []error
}

// Import rebuilds nodes from the record into the scene. Per-record failures
// skip that record only; the returned Result says what happened. Connections
// and hierarchy are wired after all nodes exist. Locks are applied last so
// they cannot interfere with restoration.
func Import(sc *scene.Scene, rec SceneRecord, opts ImportOptions) *Result {
	res := &Result{}

	imported := make(map[string]NodeRecord)
	for _, nr := range rec.Nodes {
		if err := checkRequirements(nr, opts); err != nil {
			res.Skipped = append(res.Skipped, SkippedNode{Name: nr.Name, Err: err})
			continue
		}
		if err := importNode(sc, nr); err != nil {
			res.Skipped = append(res.Skipped, SkippedNode{Name: nr.Name, Err: err})
			continue
		}
		imported[nr.Name] = nr
		res.Created = append(res.Created, nr.Name)
	}

	// Second pass: hierarchy and connections between surviving nodes.
	for _, name := range res.Created {
		nr := imported[name]
		n, ok := sc.Node(name)
		if !ok {
			continue
		}
		if nr.Parent != "" {
			if p, ok := sc.Node(nr.Parent); ok {
				if err := n.SetParent(p); err != nil {
					res.Errs = append(res.Errs, err)
				}
			}
		}
		for _, cr := range nr.Connections {
			if err := applyConnection(sc, n, cr); err != nil {
				res.Errs = append(res.Errs, err)
			}
		}
	}
	for _, name := range res.Created {
		if n, ok := sc.Node(name); ok && imported[name].Locked {
			n.SetLocked(true)
		}
	}
	return res
}

func checkRequirements(nr NodeRecord, opts ImportOptions) error {
	for _, req := range nr.Requirements {
		loader, ok := opts.Loaders[req]
		if !ok {
			return errors.New(errors.ErrCodeMissingRequirement,
				"node %s requires %q, which is not available", nr.Name, req)
		}
		if err := loader(); err != nil {
			return errors.Wrap(errors.ErrCodeMissingRequirement, err,
				"node %s requires %q", nr.Name, req)
		}
	}
	return nil
}

func importNode(sc *scene.Scene, nr NodeRecord) error {
	n, err := sc.CreateNode(nr.Name, nr.Type)
	if err != nil {
		return err
	}
	for _, ar := range nr.Attributes {
		if err := scene.DeserializeSlot(n, ar); err != nil {
			// Roll the half-built node back so a retry can recreate it.
			_ = sc.DeleteNode(nr.Name)
			return err
		}
	}
	return nil
}

// applyConnection wires one recorded edge. Destinations restore under a
// lock guard because values and locks were already applied; missing array
// elements on message destinations are created on demand through FindSlot's
// caller, so the destination path must name existing structure.
func applyConnection(sc *scene.Scene, n *scene.Node, cr ConnectionRecord) error {
	dst, err := findOrGrowSlot(n, cr.Destination)
	if err != nil {
		return err
	}
	src, err := sc.FindSlot(cr.SourceNode + "." + cr.SourceAttr)
	if err != nil {
		return err
	}
	return scene.WithUnlocked(dst, func() error {
		return scene.Connect(src, dst, true)
	})
}

// findOrGrowSlot resolves a node-relative path, creating trailing array
// elements that do not exist yet. Message arrays serialize no values, so
// their element structure exists only through the connection records.
func findOrGrowSlot(n *scene.Node, path string) (*scene.Slot, error) {
	if s, err := n.FindSlot(path); err == nil {
		return s, nil
	}
	// Retry, growing one trailing "[i]" on an existing array slot.
	open := strings.LastIndexByte(path, '[')
	if open < 0 || !strings.HasSuffix(path, "]") {
		return n.FindSlot(path)
	}
	base, err := n.FindSlot(path[:open])
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(path[open+1 : len(path)-1])
	if err != nil || idx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidPath, "bad slot path %q", path)
	}
	return base.Element(idx)
}

// Encode writes the record as indented JSON.
func Encode(w io.Writer, rec SceneRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// Decode reads a scene record and normalizes every attribute value into its
// canonical representation.
func Decode(r io.Reader) (SceneRecord, error) {
	var rec SceneRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return rec, errors.Wrap(errors.ErrCodeInvalidInput, err, "decoding scene record")
	}
	if rec.Version > FormatVersion {
		return rec, errors.New(errors.ErrCodeUnsupported,
			"scene record version %d is newer than %d", rec.Version, FormatVersion)
	}
	for i := range rec.Nodes {
		for j := range rec.Nodes[i].Attributes {
			if err := rec.Nodes[i].Attributes[j].NormalizeValues(); err != nil {
				return rec, errors.Wrap(errors.ErrCodeInvalidInput, err,
					"node %s attribute %s", rec.Nodes[i].Name, rec.Nodes[i].Attributes[j].Name)
			}
		}
	}
	return rec, nil
}
