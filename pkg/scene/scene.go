package scene

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/observability"
)

// Scene owns the node table. Node names are unique scene-wide; iteration
// order is creation order, so exports are deterministic.
type Scene struct {
	nodes map[string]*Node
	order []string
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{nodes: make(map[string]*Node)}
}

// CreateNode adds a node with the given unique name and type tag.
// Returns INVALID_NAME for malformed names and DUPLICATE_NODE when the name
// is taken.
func (sc *Scene) CreateNode(name, typeName string) (*Node, error) {
	if err := errors.ValidateNodeName(name); err != nil {
		return nil, err
	}
	if typeName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node %s has no type", name)
	}
	if _, exists := sc.nodes[name]; exists {
		return nil, errors.New(errors.ErrCodeDuplicateNode, "node %s already exists", name)
	}
	n := &Node{
		scene:    sc,
		name:     name,
		typeName: typeName,
		slotIdx:  make(map[string]*Slot),
		alive:    true,
	}
	sc.nodes[name] = n
	sc.order = append(sc.order, name)
	observability.Scene().OnNodeCreated(name, typeName)
	return n, nil
}

// Node returns the named node.
func (sc *Scene) Node(name string) (*Node, bool) {
	n, ok := sc.nodes[name]
	return n, ok
}

// Has reports whether a node with the name exists.
func (sc *Scene) Has(name string) bool {
	_, ok := sc.nodes[name]
	return ok
}

// Nodes returns all nodes in creation order.
func (sc *Scene) Nodes() []*Node {
	out := make([]*Node, 0, len(sc.order))
	for _, name := range sc.order {
		out = append(out, sc.nodes[name])
	}
	return out
}

// Len returns the number of nodes.
func (sc *Scene) Len() int { return len(sc.nodes) }

// DeleteNode tears a node down and removes it from the scene. Teardown order
// is fixed: unlock the node, unlock and disconnect every slot, detach from
// the hierarchy, then mark the node dead so handles fail fast.
// Returns UNKNOWN_NODE for names not in the scene.
func (sc *Scene) DeleteNode(name string) error {
	n, ok := sc.nodes[name]
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "no node named %s", name)
	}
	n.locked = false
	for _, s := range n.slots {
		s.unlockTree()
		s.disconnectAll()
	}
	for _, c := range n.Children() {
		// Children of a deleted node become roots rather than vanishing.
		_ = c.SetParent(nil)
	}
	_ = n.SetParent(nil)
	n.alive = false
	delete(sc.nodes, name)
	sc.order = slices.DeleteFunc(sc.order, func(s string) bool { return s == name })
	observability.Scene().OnNodeDeleted(name)
	return nil
}

// RenameNode changes a node's name, keeping handles valid.
func (sc *Scene) RenameNode(oldName, newName string) error {
	n, ok := sc.nodes[oldName]
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "no node named %s", oldName)
	}
	if err := errors.ValidateNodeName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, exists := sc.nodes[newName]; exists {
		return errors.New(errors.ErrCodeDuplicateNode, "node %s already exists", newName)
	}
	if n.locked {
		return errors.New(errors.ErrCodeNodeLocked, "node %s is locked", oldName)
	}
	delete(sc.nodes, oldName)
	n.name = newName
	sc.nodes[newName] = n
	for i, name := range sc.order {
		if name == oldName {
			sc.order[i] = newName
			break
		}
	}
	return nil
}

// FindSlot resolves a node-qualified slot path: "node.attr", "node.attr[3]",
// "node.limits.min", "node.weights[2].x". Array elements named in the path
// must already exist; FindSlot never creates them.
func (sc *Scene) FindSlot(path string) (*Slot, error) {
	nodeName, attrPath, ok := strings.Cut(path, ".")
	if !ok || attrPath == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath,
			"slot path %q must have a node and attribute part", path)
	}
	n, found := sc.nodes[nodeName]
	if !found {
		return nil, errors.New(errors.ErrCodeUnknownNode, "no node named %s", nodeName)
	}
	return n.FindSlot(attrPath)
}

// FindSlot resolves a node-relative slot path ("attr", "attr[3]",
// "parent.child").
func (n *Node) FindSlot(attrPath string) (*Slot, error) {
	segments := strings.Split(attrPath, ".")
	var cur *Slot
	for i, seg := range segments {
		name, indices, err := parseSegment(seg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err,
				"bad slot path %q", attrPath)
		}
		if i == 0 {
			s, ok := n.Attribute(name)
			if !ok {
				return nil, errors.New(errors.ErrCodeAttributeNotFound,
					"node %s has no attribute %q", n.name, name)
			}
			cur = s
		} else {
			c, ok := cur.Child(name)
			if !ok {
				return nil, errors.New(errors.ErrCodeAttributeNotFound,
					"%s has no child %q", cur.Path(), name)
			}
			cur = c
		}
		for _, idx := range indices {
			e, ok := cur.ElementAt(idx)
			if !ok {
				return nil, errors.New(errors.ErrCodeAttributeNotFound,
					"%s has no element [%d]", cur.Path(), idx)
			}
			cur = e
		}
	}
	return cur, nil
}

// parseSegment splits "weights[2]" into name and trailing indices.
func parseSegment(seg string) (string, []int, error) {
	open := strings.IndexByte(seg, '[')
	if open < 0 {
		return seg, nil, nil
	}
	name := seg[:open]
	var indices []int
	rest := seg[open:]
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, errors.New(errors.ErrCodeInvalidPath, "malformed index in %q", seg)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, errors.New(errors.ErrCodeInvalidPath, "unclosed index in %q", seg)
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil || idx < 0 {
			return "", nil, errors.New(errors.ErrCodeInvalidPath, "bad index in %q", seg)
		}
		indices = append(indices, idx)
		rest = rest[end+1:]
	}
	if name == "" {
		return "", nil, errors.New(errors.ErrCodeInvalidPath, "empty name in %q", seg)
	}
	return name, indices, nil
}
