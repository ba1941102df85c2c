package meta

import (
	"iter"

	"github.com/mhalstead/rigmeta/pkg/scene"
)

// Children walks the descendant meta nodes reachable through the
// mMetaChildren relation, depth-first, in connection order. depth strictly
// bounds the hop count: Children(1) yields only direct children, depth < 1
// yields nothing. The sequence is lazy and restartable; breaking out early
// costs nothing.
//
// The walk carries the relation name hop to hop: from each visited node it
// continues through that node's own mMetaChildren slot, and a node without
// one ends the branch. There is no cycle detection beyond the depth bound,
// so a cyclic graph revisits nodes until the bound cuts the walk off.
//
// Children is null-safe on a deleted node: the sequence is empty rather
// than an error, since an iterator has nowhere to report one.
func (n *Node) Children(depth int) iter.Seq[*Node] {
	return n.walkRelation(AttrChildren, depth, downstream)
}

// Parents walks the ancestor meta nodes reachable through the mMetaParent
// relation, with the same depth, laziness, and null-safety rules as
// Children: on a deleted node the sequence is empty.
func (n *Node) Parents(depth int) iter.Seq[*Node] {
	return n.walkRelation(AttrParent, depth, upstream)
}

type direction int

const (
	downstream direction = iota
	upstream
)

func (n *Node) walkRelation(attrName string, depth int, dir direction) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		host, err := n.handle.Resolve()
		if err != nil {
			return
		}
		start, ok := host.Attribute(attrName)
		if !ok {
			return
		}
		walk(start, depth, dir, yield)
	}
}

// walk visits the neighbors of slot in the given direction, recursing into
// the same-named slot on each neighbor with one less hop to spend. Returns
// false when the consumer stopped the walk.
func walk(slot *scene.Slot, depth int, dir direction, yield func(*Node) bool) bool {
	if depth < 1 {
		return true
	}
	name := slot.Name()
	for _, peer := range neighborSlots(slot, dir) {
		host := peer.Node()
		if !yield(FromHost(host)) {
			return false
		}
		next, ok := host.Attribute(name)
		if !ok {
			continue // branch ends, walk goes on
		}
		if !walk(next, depth-1, dir, yield) {
			return false
		}
	}
	return true
}

// neighborSlots lists the slots one hop away: edge destinations when going
// downstream, edge sources when going upstream. Array slots contribute the
// edges of their elements.
func neighborSlots(slot *scene.Slot, dir direction) []*scene.Slot {
	var out []*scene.Slot
	collect := func(s *scene.Slot) {
		if dir == downstream {
			out = append(out, s.Outputs()...)
		} else if src := s.Source(); src != nil {
			out = append(out, src)
		}
	}
	collect(slot)
	for _, i := range slot.Indices() {
		if e, ok := slot.ElementAt(i); ok {
			collect(e)
		}
	}
	return out
}

// Tree scans the whole connected metadata neighborhood: every node reachable
// through message edges in either direction, within depth hops, that itself
// carries a type tag. Unlike Children and Parents it is not restricted to
// the standard relation slots, so it also crosses ConnectTo-style named
// relations. Each qualifying node is yielded once per walk. Like Children
// and Parents, Tree on a deleted node yields an empty sequence.
func (n *Node) Tree(depth int) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		host, err := n.handle.Resolve()
		if err != nil {
			return
		}
		visited := map[*scene.Node]bool{host: true}
		treeWalk(host, depth, visited, yield)
	}
}

func treeWalk(host *scene.Node, depth int, visited map[*scene.Node]bool, yield func(*Node) bool) bool {
	if depth < 1 {
		return true
	}
	for _, peer := range connectedHosts(host) {
		if visited[peer] {
			continue
		}
		visited[peer] = true
		if IsMetaNode(peer) && !yield(FromHost(peer)) {
			return false
		}
		if !treeWalk(peer, depth-1, visited, yield) {
			return false
		}
	}
	return true
}

// connectedHosts lists the distinct nodes one message edge away from host,
// in either direction, walking every slot including elements and compound
// children.
func connectedHosts(host *scene.Node) []*scene.Node {
	var out []*scene.Node
	seen := make(map[*scene.Node]bool)
	add := func(n *scene.Node) {
		if n != host && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	var visit func(s *scene.Slot)
	visit = func(s *scene.Slot) {
		if src := s.Source(); src != nil {
			add(src.Node())
		}
		for _, dst := range s.Outputs() {
			add(dst.Node())
		}
		for _, i := range s.Indices() {
			if e, ok := s.ElementAt(i); ok {
				visit(e)
			}
		}
		for _, c := range s.Children() {
			visit(c)
		}
	}
	for _, s := range host.Attributes() {
		visit(s)
	}
	return out
}
