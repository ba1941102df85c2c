package scene

import (
	"slices"

	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/observability"
)

// Node is one scene-graph node: a unique name, a type name, an optional
// hierarchy parent, and an ordered table of attribute slots.
//
// Nodes are created through Scene.CreateNode and torn down through
// Scene.DeleteNode. After deletion the node object stays around so handles
// can detect staleness, but every mutating method fails.
type Node struct {
	scene    *Scene
	name     string
	typeName string

	parent   *Node
	children []*Node

	slots   []*Slot
	slotIdx map[string]*Slot

	locked bool
	alive  bool
}

// Name returns the node's unique scene name.
func (n *Node) Name() string { return n.name }

// TypeName returns the node's type tag ("network", "joint", ...).
func (n *Node) TypeName() string { return n.typeName }

// Scene returns the owning scene.
func (n *Node) Scene() *Scene { return n.scene }

// Alive reports whether the node still exists in its scene.
func (n *Node) Alive() bool { return n.alive }

// Locked reports the node's lock flag.
func (n *Node) Locked() bool { return n.locked }

// SetLocked sets the node's lock flag. Works on dead nodes too so teardown
// paths never get stuck.
func (n *Node) SetLocked(locked bool) { n.locked = locked }

// Parent returns the hierarchy parent, or nil for roots.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the hierarchy children in attachment order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// SetParent moves the node under a new hierarchy parent. A nil parent makes
// the node a root. Reparenting under a descendant is rejected.
func (n *Node) SetParent(parent *Node) error {
	if !n.alive {
		return staleErr(n.name)
	}
	if parent == n {
		return errors.New(errors.ErrCodeInvalidInput, "cannot parent %s under itself", n.name)
	}
	if parent != nil {
		if !parent.alive {
			return staleErr(parent.name)
		}
		for a := parent; a != nil; a = a.parent {
			if a == n {
				return errors.New(errors.ErrCodeInvalidInput,
					"cannot parent %s under its descendant %s", n.name, parent.name)
			}
		}
	}
	if n.parent != nil {
		n.parent.children = slices.DeleteFunc(n.parent.children, func(c *Node) bool { return c == n })
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	return nil
}

// Handle returns a weak reference to the node.
func (n *Node) Handle() Handle { return Handle{node: n} }

// AddAttribute creates a new top-level dynamic attribute from the spec.
// Fails with ATTRIBUTE_EXISTS when the name is taken, NODE_LOCKED when the
// node is locked, and STALE_REFERENCE on a deleted node.
func (n *Node) AddAttribute(spec AttrSpec) (*Slot, error) {
	return n.addAttribute(spec, true)
}

// InstallAttribute creates a built-in (static) attribute. Node types use it
// while constructing their standard attribute set; the slots it creates are
// not re-emitted by serialization unless their value changes.
func (n *Node) InstallAttribute(spec AttrSpec) (*Slot, error) {
	return n.addAttribute(spec, false)
}

func (n *Node) addAttribute(spec AttrSpec, dynamic bool) (*Slot, error) {
	if !n.alive {
		return nil, staleErr(n.name)
	}
	if n.locked {
		return nil, errors.New(errors.ErrCodeNodeLocked,
			"node %s is locked", n.name)
	}
	if _, exists := n.slotIdx[spec.Name]; exists {
		return nil, errors.New(errors.ErrCodeAttributeExists,
			"node %s already has attribute %q", n.name, spec.Name)
	}
	s, err := newSlot(n, nil, spec)
	if err != nil {
		return nil, err
	}
	s.dynamic = dynamic
	markDynamic(s, dynamic)
	n.slots = append(n.slots, s)
	n.slotIdx[s.name] = s
	observability.Scene().OnAttributeAdded(n.name, s.name)
	return s, nil
}

// markDynamic propagates the dynamic flag to compound children.
func markDynamic(s *Slot, dynamic bool) {
	s.dynamic = dynamic
	for _, c := range s.children {
		markDynamic(c, dynamic)
	}
}

// Attribute returns the named top-level slot.
func (n *Node) Attribute(name string) (*Slot, bool) {
	s, ok := n.slotIdx[name]
	return s, ok
}

// HasAttribute reports whether the node has a top-level slot with the name.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.slotIdx[name]
	return ok
}

// Attributes returns the node's top-level slots in creation order.
func (n *Node) Attributes() []*Slot { return slices.Clone(n.slots) }

// RemoveAttribute deletes a top-level slot, breaking its connections first.
// The slot's own lock is cleared before removal; the node lock still gates
// the operation.
func (n *Node) RemoveAttribute(name string) error {
	if !n.alive {
		return staleErr(n.name)
	}
	if n.locked {
		return errors.New(errors.ErrCodeNodeLocked, "node %s is locked", n.name)
	}
	s, ok := n.slotIdx[name]
	if !ok {
		return errors.New(errors.ErrCodeAttributeNotFound,
			"node %s has no attribute %q", n.name, name)
	}
	s.unlockTree()
	s.disconnectAll()
	n.slots = slices.DeleteFunc(n.slots, func(x *Slot) bool { return x == s })
	delete(n.slotIdx, name)
	observability.Scene().OnAttributeRemoved(n.name, name)
	return nil
}

func staleErr(name string) error {
	return errors.New(errors.ErrCodeStaleReference, "node %s no longer exists", name)
}

// Handle is a weak reference to a node. Unlike a bare *Node it survives the
// node's deletion gracefully: Valid turns false and Resolve fails with
// STALE_REFERENCE instead of touching dead state. Renames do not invalidate
// handles.
type Handle struct {
	node *Node
}

// Valid reports whether the referenced node still exists.
func (h Handle) Valid() bool { return h.node != nil && h.node.alive }

// Resolve returns the live node, or a STALE_REFERENCE error after deletion.
func (h Handle) Resolve() (*Node, error) {
	if h.node == nil {
		return nil, errors.New(errors.ErrCodeStaleReference, "empty node handle")
	}
	if !h.node.alive {
		return nil, staleErr(h.node.name)
	}
	return h.node, nil
}

// Name returns the last known node name, usable even after deletion.
func (h Handle) Name() string {
	if h.node == nil {
		return ""
	}
	return h.node.name
}
