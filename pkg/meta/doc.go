// Package meta layers typed metadata records over scene nodes.
//
// A meta node is an ordinary scene node carrying a standard attribute set: a
// locked type tag (mClass), a version, a UUID, a root marker, and the two
// relation slots mMetaParent and mMetaChildren that link meta nodes into a
// graph. The type tag drives polymorphic rehydration: a Registry maps tag
// names to constructors, so retrieving a stored node always yields its
// original concrete type no matter what the caller asked for.
//
// Relations beyond parent/child are arbitrary named message edges made with
// ConnectTo, which auto-creates the endpoints and replaces any previous
// target. Traversal (Children, Parents, Tree) walks these edges lazily with
// a strict depth bound; the walk carries the starting slot's name from hop
// to hop and a branch ends at the first node lacking that attribute.
package meta
