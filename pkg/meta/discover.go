package meta

import (
	"iter"

	"github.com/mhalstead/rigmeta/pkg/scene"
)

// SceneMetaNodes iterates every meta node in the scene, in node creation
// order. A node qualifies by carrying the type tag attribute; whether its
// tag is registered anywhere does not matter here.
func SceneMetaNodes(sc *scene.Scene) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, host := range sc.Nodes() {
			if !IsMetaNode(host) {
				continue
			}
			if !yield(FromHost(host)) {
				return
			}
		}
	}
}

// FindSceneRoots iterates the meta nodes that have no meta parent. Root
// status is structural - an empty mMetaParent relation - not the mRoot
// flag, so a node whose parent edge was broken counts as a root again.
func FindSceneRoots(sc *scene.Scene) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range SceneMetaNodes(sc) {
			if hasMetaParent(n) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

func hasMetaParent(n *Node) bool {
	for range n.Parents(1) {
		return true
	}
	return false
}

// FindByType iterates the meta nodes whose stored tag equals typeName,
// rehydrated through the registry so each yielded value has its concrete
// type. Nodes whose tag is not registered are skipped.
func FindByType(sc *scene.Scene, reg *Registry, typeName string) iter.Seq[Typed] {
	return func(yield func(Typed) bool) {
		for n := range SceneMetaNodes(sc) {
			tag, err := n.TypeTag()
			if err != nil || tag != typeName {
				continue
			}
			host, err := n.Host()
			if err != nil {
				continue
			}
			typed, err := reg.FromNode(host)
			if err != nil {
				continue
			}
			if !yield(typed) {
				return
			}
		}
	}
}
