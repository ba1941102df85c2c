package scene

import (
	"fmt"
	"slices"
	"sort"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/observability"
)

// Slot is one attribute on a node: a typed value holder that doubles as a
// connection endpoint. Slots form a small tree per attribute - an array slot
// owns sparse element slots, a compound slot owns named child slots - and
// Path() renders the position in that tree ("weights[3]", "limits.min").
//
// A slot holds at most one incoming connection (its source) and any number
// of outgoing connections. Slots are created through Node.AddAttribute or
// the node type's built-in set, never directly.
type Slot struct {
	node   *Node
	parent *Slot // compound parent or array owner, nil for top-level
	name   string
	index  int // logical array index, -1 unless an array element

	kind    attr.Kind
	isArray bool
	dynamic bool

	value    any
	defValue any

	min, max         *float64
	softMin, softMax *float64
	enumOptions      []string

	keyable    bool
	channelBox bool
	locked     bool

	elements map[int]*Slot // sparse array elements
	children []*Slot       // compound children, declaration order
	childIdx map[string]*Slot

	source  *Slot   // incoming connection
	outputs []*Slot // outgoing connections, insertion order
}

// AttrSpec describes an attribute to create. Name and Kind are required;
// everything else is optional. Value and Default accept any representation
// attr.Coerce understands.
type AttrSpec struct {
	Name    string
	Kind    attr.Kind
	IsArray bool

	Value   any
	Default any

	Min, Max         *float64
	SoftMin, SoftMax *float64
	EnumOptions      []string

	Keyable    bool
	ChannelBox bool
	Locked     bool

	// Children declares compound children. Only valid for KindCompound.
	Children []AttrSpec
}

// newSlot builds a slot from a spec without attaching it to the node's slot
// table. Value coercion errors surface before any state is shared.
func newSlot(n *Node, parent *Slot, spec AttrSpec) (*Slot, error) {
	if err := errors.ValidateAttributeName(spec.Name); err != nil {
		return nil, err
	}
	if spec.Kind == attr.KindInvalid {
		return nil, errors.New(errors.ErrCodeUnsupportedKind, "attribute %q has no kind", spec.Name)
	}
	if spec.IsArray && spec.Kind == attr.KindCompound {
		return nil, errors.New(errors.ErrCodeUnsupportedKind,
			"attribute %q: compound arrays are not supported", spec.Name)
	}

	s := &Slot{
		node:        n,
		parent:      parent,
		name:        spec.Name,
		index:       -1,
		kind:        spec.Kind,
		isArray:     spec.IsArray,
		min:         spec.Min,
		max:         spec.Max,
		softMin:     spec.SoftMin,
		softMax:     spec.SoftMax,
		enumOptions: slices.Clone(spec.EnumOptions),
		keyable:     spec.Keyable,
		channelBox:  spec.ChannelBox,
	}

	if spec.Kind == attr.KindCompound {
		if len(spec.Children) == 0 {
			return nil, errors.New(errors.ErrCodeUnsupportedKind,
				"compound attribute %q declares no children", spec.Name)
		}
		s.childIdx = make(map[string]*Slot, len(spec.Children))
		for _, cs := range spec.Children {
			if _, exists := s.childIdx[cs.Name]; exists {
				return nil, errors.New(errors.ErrCodeAttributeExists,
					"compound %q already has child %q", spec.Name, cs.Name)
			}
			child, err := newSlot(n, s, cs)
			if err != nil {
				return nil, err
			}
			s.children = append(s.children, child)
			s.childIdx[child.name] = child
		}
	}

	if s.kind.CarriesValue() && !s.isArray {
		def := spec.Default
		if def == nil {
			def = s.kind.DefaultValue()
		}
		coerced, err := attr.Coerce(s.kind, def)
		if err != nil {
			return nil, err
		}
		s.defValue = coerced

		val := spec.Value
		if val == nil {
			s.value = s.defValue
		} else {
			coerced, err := attr.Coerce(s.kind, val)
			if err != nil {
				return nil, err
			}
			s.value = coerced
		}
	}

	// Lock last so value initialization above is never gated.
	s.locked = spec.Locked
	return s, nil
}

// Node returns the owning node.
func (s *Slot) Node() *Node { return s.node }

// Name returns the slot's short name without index or parent path.
func (s *Slot) Name() string { return s.name }

// Kind returns the slot's attribute kind.
func (s *Slot) Kind() attr.Kind { return s.kind }

// IsArray reports whether the slot holds sparse indexed elements.
func (s *Slot) IsArray() bool { return s.isArray }

// IsDynamic reports whether the slot was added at runtime rather than
// installed by the node type.
func (s *Slot) IsDynamic() bool { return s.dynamic }

// IsElement reports whether the slot is an array element.
func (s *Slot) IsElement() bool { return s.index >= 0 }

// Index returns the logical array index, or -1 for non-elements.
func (s *Slot) Index() int { return s.index }

// Locked reports the slot's lock flag.
func (s *Slot) Locked() bool { return s.locked }

// SetLocked sets the slot's lock flag.
func (s *Slot) SetLocked(locked bool) { s.locked = locked }

// Keyable reports the keyable display flag.
func (s *Slot) Keyable() bool { return s.keyable }

// SetKeyable sets the keyable display flag.
func (s *Slot) SetKeyable(v bool) { s.keyable = v }

// ChannelBox reports the channel-box display flag.
func (s *Slot) ChannelBox() bool { return s.channelBox }

// SetChannelBox sets the channel-box display flag.
func (s *Slot) SetChannelBox(v bool) { s.channelBox = v }

// EnumOptions returns the enum field labels, nil for non-enum slots.
func (s *Slot) EnumOptions() []string { return slices.Clone(s.enumOptions) }

// Default returns the slot's default value in canonical form.
func (s *Slot) Default() any { return s.defValue }

// Min returns the hard lower bound, or nil if unset.
func (s *Slot) Min() *float64 { return s.min }

// Max returns the hard upper bound, or nil if unset.
func (s *Slot) Max() *float64 { return s.max }

// SoftMin returns the UI lower bound, or nil if unset.
func (s *Slot) SoftMin() *float64 { return s.softMin }

// SoftMax returns the UI upper bound, or nil if unset.
func (s *Slot) SoftMax() *float64 { return s.softMax }

// SetMin sets the hard lower bound. Fails with UNSUPPORTED_KIND for kinds
// without numeric bounds.
func (s *Slot) SetMin(v float64) error { return s.setBound(&s.min, v) }

// SetMax sets the hard upper bound. Fails with UNSUPPORTED_KIND for kinds
// without numeric bounds.
func (s *Slot) SetMax(v float64) error { return s.setBound(&s.max, v) }

// SetSoftMin sets the UI lower bound. Fails with UNSUPPORTED_KIND for kinds
// without numeric bounds.
func (s *Slot) SetSoftMin(v float64) error { return s.setBound(&s.softMin, v) }

// SetSoftMax sets the UI upper bound. Fails with UNSUPPORTED_KIND for kinds
// without numeric bounds.
func (s *Slot) SetSoftMax(v float64) error { return s.setBound(&s.softMax, v) }

func (s *Slot) setBound(dst **float64, v float64) error {
	if !s.kind.HasBounds() {
		return errors.New(errors.ErrCodeUnsupportedKind,
			"kind %s has no numeric bounds", s.kind)
	}
	*dst = &v
	return nil
}

// Path renders the slot's attribute path relative to its node:
// "attr" for top-level slots, "attr[3]" for elements, "parent.child" for
// compound children.
func (s *Slot) Path() string {
	if s.parent == nil {
		return s.name
	}
	if s.IsElement() {
		return fmt.Sprintf("%s[%d]", s.parent.Path(), s.index)
	}
	return s.parent.Path() + "." + s.name
}

// FullPath renders the node-qualified path ("joint3.weights[2]").
func (s *Slot) FullPath() string {
	return s.node.Name() + "." + s.Path()
}

// root returns the top-level ancestor slot.
func (s *Slot) root() *Slot {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Element returns the array element at the logical index, creating it on
// demand. Fails with UNSUPPORTED_KIND on non-array slots.
func (s *Slot) Element(i int) (*Slot, error) {
	if !s.isArray {
		return nil, errors.New(errors.ErrCodeUnsupportedKind,
			"%s is not an array attribute", s.Path())
	}
	if i < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"array index %d out of range on %s", i, s.Path())
	}
	if e, ok := s.elements[i]; ok {
		return e, nil
	}
	e, err := newSlot(s.node, s, AttrSpec{
		Name:        s.name,
		Kind:        s.kind,
		Default:     s.defValue,
		Min:         s.min,
		Max:         s.max,
		SoftMin:     s.softMin,
		SoftMax:     s.softMax,
		EnumOptions: s.enumOptions,
		Keyable:     s.keyable,
		ChannelBox:  s.channelBox,
	})
	if err != nil {
		return nil, err
	}
	e.index = i
	e.dynamic = s.dynamic
	if s.elements == nil {
		s.elements = make(map[int]*Slot)
	}
	s.elements[i] = e
	return e, nil
}

// ElementAt returns the existing element at the index without creating it.
func (s *Slot) ElementAt(i int) (*Slot, bool) {
	e, ok := s.elements[i]
	return e, ok
}

// Indices returns the existing element indices in ascending order.
func (s *Slot) Indices() []int {
	out := make([]int, 0, len(s.elements))
	for i := range s.elements {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Child returns the named compound child.
func (s *Slot) Child(name string) (*Slot, bool) {
	c, ok := s.childIdx[name]
	return c, ok
}

// Children returns the compound children in declaration order.
func (s *Slot) Children() []*Slot { return slices.Clone(s.children) }

// Source returns the slot feeding this one, or nil.
func (s *Slot) Source() *Slot { return s.source }

// Outputs returns the slots this one feeds, in connection order.
func (s *Slot) Outputs() []*Slot { return slices.Clone(s.outputs) }

// IsConnected reports whether the slot has any incoming or outgoing edge.
func (s *Slot) IsConnected() bool {
	return s.source != nil || len(s.outputs) > 0
}

// Connect creates the directed edge src -> dst. A destination holds at most
// one incoming edge: if dst is already fed and force is false the call fails
// with CONNECTION_CONFLICT; with force the existing edge is broken first.
// Self-loops and locked destinations are rejected.
func Connect(src, dst *Slot, force bool) error {
	if src == nil || dst == nil {
		return errors.New(errors.ErrCodeInvalidInput, "connect requires both endpoints")
	}
	if src == dst {
		return errors.New(errors.ErrCodeConnectionConflict,
			"cannot connect %s to itself", src.FullPath())
	}
	if !src.node.Alive() || !dst.node.Alive() {
		return errors.New(errors.ErrCodeStaleReference,
			"connect touches a deleted node")
	}
	if dst.locked {
		return errors.New(errors.ErrCodeAttributeLocked,
			"destination %s is locked", dst.FullPath())
	}
	if dst.source == src {
		return nil // already connected, idempotent
	}
	if dst.source != nil {
		if !force {
			return errors.New(errors.ErrCodeConnectionConflict,
				"%s is already connected to %s", dst.FullPath(), dst.source.FullPath())
		}
		disconnectEdge(dst.source, dst)
	}
	dst.source = src
	src.outputs = append(src.outputs, dst)
	observability.Scene().OnConnect(src.FullPath(), dst.FullPath())
	return nil
}

// Disconnect breaks the slot's edges: the incoming edge when source is true,
// every outgoing edge when outputs is true. Breaking edges that do not exist
// is a no-op.
func (s *Slot) Disconnect(source, outputs bool) {
	if source && s.source != nil {
		disconnectEdge(s.source, s)
	}
	if outputs {
		for _, dst := range slices.Clone(s.outputs) {
			disconnectEdge(s, dst)
		}
	}
}

// disconnectEdge removes the src -> dst edge from both endpoints.
func disconnectEdge(src, dst *Slot) {
	dst.source = nil
	src.outputs = slices.DeleteFunc(src.outputs, func(o *Slot) bool { return o == dst })
	observability.Scene().OnDisconnect(src.FullPath(), dst.FullPath())
}

// disconnectAll breaks every edge on the slot and its elements and children,
// recursively. Used during node deletion.
func (s *Slot) disconnectAll() {
	s.Disconnect(true, true)
	for _, i := range s.Indices() {
		s.elements[i].disconnectAll()
	}
	for _, c := range s.children {
		c.disconnectAll()
	}
}

// unlockTree clears the lock flag on the slot and everything under it.
func (s *Slot) unlockTree() {
	s.locked = false
	for _, e := range s.elements {
		e.unlockTree()
	}
	for _, c := range s.children {
		c.unlockTree()
	}
}
