package meta

import (
	"github.com/google/uuid"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// Standard attribute names every meta node carries.
const (
	AttrClass    = "mClass"
	AttrVersion  = "mVersion"
	AttrUUID     = "mUUID"
	AttrRoot     = "mRoot"
	AttrParent   = "mMetaParent"
	AttrChildren = "mMetaChildren"

	// PeerAttr is the default attribute name ConnectTo creates on the
	// target side of a named relation.
	PeerAttr = "metaNode"

	// HostType is the scene type tag used for freshly created host nodes.
	HostType = "network"

	// Version written into mVersion at creation time.
	Version = "1.0.0"
)

// standardAttrs gates deletion cleanup: slots with these names are never
// treated as transient relation attributes.
var standardAttrs = map[string]bool{
	AttrClass:    true,
	AttrVersion:  true,
	AttrUUID:     true,
	AttrRoot:     true,
	AttrParent:   true,
	AttrChildren: true,
}

// Node is a metadata record bound to exactly one host node. The binding is
// a weak handle: once the host is deleted every operation fails with
// STALE_REFERENCE rather than touching dead state.
type Node struct {
	handle scene.Handle
}

// Typed is a concrete meta node type. Implementations embed or wrap the
// base Node and may install extra attributes at construction.
type Typed interface {
	// Base returns the underlying meta node.
	Base() *Node

	// TypeName returns the concrete type tag stored in mClass.
	TypeName() string
}

// New creates a fresh host node and installs the standard attribute set in
// one atomic batch. The type tag is written and locked; the host node name
// follows the usual scene rules.
func New(sc *scene.Scene, name, typeName string) (*Node, error) {
	if typeName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "meta node %s needs a type tag", name)
	}
	host, err := sc.CreateNode(name, HostType)
	if err != nil {
		return nil, err
	}
	if err := installStandardAttrs(host, typeName); err != nil {
		// Leave no half-built node behind.
		_ = sc.DeleteNode(name)
		return nil, err
	}
	return &Node{handle: host.Handle()}, nil
}

// Adopt attaches metadata to a pre-existing host node, installing whatever
// standard attributes are missing. An existing type tag wins over the
// requested one; pass the existing tag (or read it afterwards) when
// rehydrating.
func Adopt(host *scene.Node, typeName string) (*Node, error) {
	if !host.Alive() {
		return nil, errors.New(errors.ErrCodeStaleReference, "node %s no longer exists", host.Name())
	}
	if !host.HasAttribute(AttrClass) {
		if err := installStandardAttrs(host, typeName); err != nil {
			return nil, err
		}
	}
	return &Node{handle: host.Handle()}, nil
}

// FromHost wraps a host node that already carries the standard attributes.
// Used by traversal and rehydration, which must not install anything.
func FromHost(host *scene.Node) *Node {
	return &Node{handle: host.Handle()}
}

// IsMetaNode reports whether the host carries a type tag.
func IsMetaNode(host *scene.Node) bool {
	return host.Alive() && host.HasAttribute(AttrClass)
}

// installStandardAttrs builds the standard set as one modifier batch so a
// failure leaves the host untouched.
func installStandardAttrs(host *scene.Node, typeName string) error {
	m := scene.NewModifier()
	m.AddAttribute(host, scene.AttrSpec{
		Name: AttrClass, Kind: attr.KindString, Value: typeName, Locked: true,
	})
	m.AddAttribute(host, scene.AttrSpec{
		Name: AttrVersion, Kind: attr.KindString, Value: Version,
	})
	m.AddAttribute(host, scene.AttrSpec{
		Name: AttrUUID, Kind: attr.KindString, Value: uuid.NewString(), Locked: true,
	})
	m.AddAttribute(host, scene.AttrSpec{
		Name: AttrRoot, Kind: attr.KindBool,
	})
	m.AddAttribute(host, scene.AttrSpec{
		Name: AttrParent, Kind: attr.KindMessage, IsArray: true,
	})
	m.AddAttribute(host, scene.AttrSpec{
		Name: AttrChildren, Kind: attr.KindMessage,
	})
	return scene.WithUnlockedNode(host, m.DoIt)
}

// Host returns the live host node, or STALE_REFERENCE after deletion.
func (n *Node) Host() (*scene.Node, error) {
	return n.handle.Resolve()
}

// Valid reports whether the host node still exists.
func (n *Node) Valid() bool { return n.handle.Valid() }

// Name returns the last known host node name, usable even after deletion.
func (n *Node) Name() string { return n.handle.Name() }

// TypeTag reads the stored type tag.
func (n *Node) TypeTag() (string, error) {
	return n.stringAttr(AttrClass)
}

// UUID reads the stored UUID.
func (n *Node) UUID() (string, error) {
	return n.stringAttr(AttrUUID)
}

// MetaVersion reads the stored version string.
func (n *Node) MetaVersion() (string, error) {
	return n.stringAttr(AttrVersion)
}

func (n *Node) stringAttr(name string) (string, error) {
	host, err := n.handle.Resolve()
	if err != nil {
		return "", err
	}
	s, ok := host.Attribute(name)
	if !ok {
		return "", errors.New(errors.ErrCodeAttributeNotFound,
			"node %s has no %s attribute", host.Name(), name)
	}
	v, err := s.Value()
	if err != nil {
		return "", err
	}
	str, _ := v.(string)
	return str, nil
}

// IsRoot reads the root marker.
func (n *Node) IsRoot() (bool, error) {
	host, err := n.handle.Resolve()
	if err != nil {
		return false, err
	}
	s, ok := host.Attribute(AttrRoot)
	if !ok {
		return false, nil
	}
	v, err := s.Value()
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// SetRoot writes the root marker.
func (n *Node) SetRoot(root bool) error {
	host, err := n.handle.Resolve()
	if err != nil {
		return err
	}
	s, ok := host.Attribute(AttrRoot)
	if !ok {
		return errors.New(errors.ErrCodeAttributeNotFound,
			"node %s has no %s attribute", host.Name(), AttrRoot)
	}
	return scene.WithUnlocked(s, func() error { return s.SetValue(root) })
}

// AddAttribute creates a dynamic attribute on the host, clearing and
// restoring the node lock around the creation.
func (n *Node) AddAttribute(spec scene.AttrSpec) (*scene.Slot, error) {
	host, err := n.handle.Resolve()
	if err != nil {
		return nil, err
	}
	var slot *scene.Slot
	err = scene.WithUnlockedNode(host, func() error {
		s, err := host.AddAttribute(spec)
		if err != nil {
			return err
		}
		slot = s
		return nil
	})
	return slot, err
}

// Attribute returns the named slot, reporting absence without an error.
func (n *Node) Attribute(name string) (*scene.Slot, bool, error) {
	host, err := n.handle.Resolve()
	if err != nil {
		return nil, false, err
	}
	s, ok := host.Attribute(name)
	return s, ok, nil
}

// RequireAttribute returns the named slot or fails with ATTRIBUTE_NOT_FOUND.
func (n *Node) RequireAttribute(name string) (*scene.Slot, error) {
	s, ok, err := n.Attribute(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeAttributeNotFound,
			"node %s has no attribute %q", n.Name(), name)
	}
	return s, nil
}

// ConnectTo establishes the named relation from this node to an arbitrary
// host node: the edge runs from this node's attrName slot to targetAttr on
// the target (PeerAttr when empty). Both endpoints are created on demand.
//
// The relation is at-most-one-outgoing per name: any previous target is
// disconnected and its now-unused peer attribute removed, so repeated calls
// silently retarget the relation.
func (n *Node) ConnectTo(attrName string, target *scene.Node, targetAttr string) error {
	host, err := n.handle.Resolve()
	if err != nil {
		return err
	}
	if !target.Alive() {
		return errors.New(errors.ErrCodeStaleReference, "target %s no longer exists", target.Name())
	}
	if targetAttr == "" {
		targetAttr = PeerAttr
	}

	src, err := ensureMessageAttr(host, attrName)
	if err != nil {
		return err
	}
	dst, err := ensureMessageAttr(target, targetAttr)
	if err != nil {
		return err
	}
	if dst.Source() == src {
		return nil
	}

	// Retarget: drop previous outgoing edges and their transient peers.
	for _, old := range src.Outputs() {
		old.Disconnect(true, false)
		cleanupPeerSlot(old)
	}
	return scene.Connect(src, dst, true)
}

// ensureMessageAttr returns the named message slot, creating it as a dynamic
// attribute when missing. An existing slot of another kind is an error.
func ensureMessageAttr(host *scene.Node, name string) (*scene.Slot, error) {
	if s, ok := host.Attribute(name); ok {
		if s.Kind() != attr.KindMessage {
			return nil, errors.New(errors.ErrCodeUnsupportedKind,
				"%s.%s is %s, need message", host.Name(), name, s.Kind())
		}
		return s, nil
	}
	var slot *scene.Slot
	err := scene.WithUnlockedNode(host, func() error {
		s, err := host.AddAttribute(scene.AttrSpec{Name: name, Kind: attr.KindMessage})
		if err != nil {
			return err
		}
		slot = s
		return nil
	})
	return slot, err
}

// cleanupPeerSlot removes a relation endpoint from its node once nothing is
// connected to it, provided it is a transient dynamic message slot rather
// than part of the standard set.
func cleanupPeerSlot(s *scene.Slot) {
	if !s.IsDynamic() || s.Kind() != attr.KindMessage || s.IsConnected() {
		return
	}
	if s.IsElement() || standardAttrs[s.Name()] {
		return
	}
	host := s.Node()
	if !host.Alive() {
		return
	}
	_ = scene.WithUnlockedNode(host, func() error {
		return host.RemoveAttribute(s.Name())
	})
}

// AddParent links this node under an additional parent. Parents live in the
// mMetaParent array, so a node can sit under several parents at once (the
// meta graph is a DAG, not a tree). Linking the same parent twice is a
// no-op.
func (n *Node) AddParent(parent *Node) error {
	host, err := n.handle.Resolve()
	if err != nil {
		return err
	}
	parentHost, err := parent.handle.Resolve()
	if err != nil {
		return err
	}
	if parentHost == host {
		return errors.New(errors.ErrCodeConnectionConflict,
			"%s cannot be its own parent", host.Name())
	}

	src, err := ensureMessageAttr(parentHost, AttrChildren)
	if err != nil {
		return err
	}
	parentSlot, err := host.FindSlot(AttrParent)
	if err != nil {
		return err
	}

	// Already linked?
	next := 0
	for _, i := range parentSlot.Indices() {
		e, _ := parentSlot.ElementAt(i)
		if e.Source() == src {
			return nil
		}
		if e.Source() != nil && i >= next {
			next = i + 1
		}
	}
	dst, err := parentSlot.Element(next)
	if err != nil {
		return err
	}
	return scene.Connect(src, dst, true)
}

// AddChild makes this node the child's sole parent: the child's existing
// parent links are removed first, then the child is linked under this node.
func (n *Node) AddChild(child *Node) error {
	if err := child.RemoveParent(nil); err != nil {
		return err
	}
	return child.AddParent(n)
}

// RemoveParent unlinks the given parent; a nil parent unlinks all of them.
func (n *Node) RemoveParent(parent *Node) error {
	host, err := n.handle.Resolve()
	if err != nil {
		return err
	}
	var parentHost *scene.Node
	if parent != nil {
		parentHost, err = parent.handle.Resolve()
		if err != nil {
			return err
		}
	}
	parentSlot, ok := host.Attribute(AttrParent)
	if !ok {
		return nil
	}
	for _, i := range parentSlot.Indices() {
		e, _ := parentSlot.ElementAt(i)
		src := e.Source()
		if src == nil {
			continue
		}
		if parentHost == nil || src.Node() == parentHost {
			e.Disconnect(true, false)
		}
	}
	return nil
}

// RemoveChild unlinks a child from this node.
func (n *Node) RemoveChild(child *Node) error {
	return child.RemoveParent(n)
}

// Delete disconnects every edge touching the host node, removes the
// transient peer attributes those edges created on other nodes, and then
// deletes the host. Handles held elsewhere turn stale.
func (n *Node) Delete() error {
	host, err := n.handle.Resolve()
	if err != nil {
		return err
	}
	for _, s := range host.Attributes() {
		detachAndCleanup(s)
	}
	return host.Scene().DeleteNode(host.Name())
}

// detachAndCleanup breaks the slot's edges (including element and child
// slots) and removes transient endpoints left behind on peer nodes.
func detachAndCleanup(s *scene.Slot) {
	for _, dst := range s.Outputs() {
		dst.Disconnect(true, false)
		cleanupPeerSlot(dst)
	}
	if src := s.Source(); src != nil {
		s.Disconnect(true, false)
		cleanupPeerSlot(src)
	}
	for _, i := range s.Indices() {
		e, _ := s.ElementAt(i)
		detachAndCleanup(e)
	}
	for _, c := range s.Children() {
		detachAndCleanup(c)
	}
}
