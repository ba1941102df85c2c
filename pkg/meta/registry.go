package meta

import (
	"sort"

	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/observability"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// Constructor builds the concrete type around an already-bound base node.
// Constructors run both at creation and at rehydration, so they must be
// idempotent about the attributes they install: check before adding.
type Constructor func(base *Node) (Typed, error)

// Registry maps type tags to constructors. It is an explicit object handed
// to the call sites that need it, not ambient process state; build one at
// startup, optionally ScanPaths it, and inject it.
//
// Registration is first-wins: a second Register under the same name is a
// no-op, which makes re-scanning manifest paths idempotent.
type Registry struct {
	types map[string]Constructor
}

// NewRegistry returns an empty registry with the generic fallback type
// pre-registered under its own tag.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]Constructor)}
	r.Register(GenericType, newGeneric)
	return r
}

// Register adds a constructor under the type tag. Returns false when the
// tag was already taken; the existing registration is kept.
func (r *Registry) Register(name string, ctor Constructor) bool {
	if err := errors.ValidateTypeName(name); err != nil {
		return false
	}
	if _, exists := r.types[name]; exists {
		observability.Registry().OnTypeRegistered(name, true)
		return false
	}
	r.types[name] = ctor
	observability.Registry().OnTypeRegistered(name, false)
	return true
}

// LookUp returns the constructor registered under the tag.
func (r *Registry) LookUp(name string) (Constructor, bool) {
	ctor, ok := r.types[name]
	return ctor, ok
}

// Has reports whether the tag is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

// Types returns the registered tags in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create builds a fresh meta node of the registered type: host node,
// standard attributes, then the concrete constructor.
func (r *Registry) Create(sc *scene.Scene, name, typeName string) (Typed, error) {
	ctor, ok := r.types[typeName]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownType, "no registered type %q", typeName)
	}
	base, err := New(sc, name, typeName)
	if err != nil {
		return nil, err
	}
	typed, err := ctor(base)
	if err != nil {
		_ = base.Delete()
		return nil, err
	}
	return typed, nil
}

// FromNode rehydrates the meta node stored on a host. The stored type tag
// decides the concrete type, regardless of what the caller holds: asking
// for a base view of a node created as "Rig" still yields the Rig type.
// Hosts without a type tag fail with ATTRIBUTE_NOT_FOUND, unknown tags with
// UNKNOWN_TYPE.
func (r *Registry) FromNode(host *scene.Node) (Typed, error) {
	base := FromHost(host)
	tag, err := base.TypeTag()
	if err != nil {
		observability.Registry().OnRehydrate(host.Name(), "", err)
		return nil, err
	}
	ctor, ok := r.types[tag]
	if !ok {
		err := errors.New(errors.ErrCodeUnknownType,
			"node %s stores unregistered type %q", host.Name(), tag)
		observability.Registry().OnRehydrate(host.Name(), tag, err)
		return nil, err
	}
	typed, err := ctor(base)
	observability.Registry().OnRehydrate(host.Name(), tag, err)
	return typed, err
}

// GenericType is the tag of the fallback concrete type.
const GenericType = "MetaBase"

// Generic is the concrete type used when no richer one is registered: the
// base node behavior with its stored tag reported verbatim.
type Generic struct {
	base *Node
	tag  string
}

func newGeneric(base *Node) (Typed, error) {
	tag, err := base.TypeTag()
	if err != nil {
		return nil, err
	}
	return &Generic{base: base, tag: tag}, nil
}

// Base returns the underlying meta node.
func (g *Generic) Base() *Node { return g.base }

// TypeName returns the stored type tag.
func (g *Generic) TypeName() string { return g.tag }
