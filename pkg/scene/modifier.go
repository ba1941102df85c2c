package scene

import (
	"strconv"
	"strings"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
)

// operation pairs a mutation with its inverse. The undo closure may capture
// state recorded by the do closure, so do always runs before undo exists in
// any meaningful sense.
type operation struct {
	do   func() error
	undo func() error
}

// Modifier batches scene mutations into one undoable command. Operations
// queue without side effects and run together at DoIt: if any operation
// fails, the ones already applied are reversed so the batch is atomic.
// UndoIt reverses a completed batch in LIFO order; DoIt after UndoIt
// replays it.
type Modifier struct {
	ops     []operation
	applied int
}

// NewModifier returns an empty batch.
func NewModifier() *Modifier { return &Modifier{} }

// Add queues a raw operation. Most callers use the typed helpers instead.
// undo may be nil for operations that need no reversal.
func (m *Modifier) Add(do, undo func() error) {
	if undo == nil {
		undo = func() error { return nil }
	}
	m.ops = append(m.ops, operation{do: do, undo: undo})
}

// Len returns the number of queued operations.
func (m *Modifier) Len() int { return len(m.ops) }

// DoIt applies the queued operations in order. On failure it rolls back the
// operations already applied and returns the original error; the batch is
// left fully unapplied. Calling DoIt on an applied batch is a no-op.
func (m *Modifier) DoIt() error {
	if m.applied == len(m.ops) && len(m.ops) > 0 {
		return nil
	}
	for i := m.applied; i < len(m.ops); i++ {
		if err := m.ops[i].do(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.ops[j].undo()
			}
			m.applied = 0
			return err
		}
		m.applied = i + 1
	}
	return nil
}

// UndoIt reverses an applied batch in LIFO order. The first reversal error
// is returned; the remaining operations are still reversed.
func (m *Modifier) UndoIt() error {
	var firstErr error
	for i := m.applied - 1; i >= 0; i-- {
		if err := m.ops[i].undo(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.applied = 0
	return firstErr
}

// CreateNode queues a node creation. Undo deletes the node.
func (m *Modifier) CreateNode(sc *Scene, name, typeName string) {
	m.Add(
		func() error {
			_, err := sc.CreateNode(name, typeName)
			return err
		},
		func() error { return sc.DeleteNode(name) },
	)
}

// RenameNode queues a rename. Undo restores the old name.
func (m *Modifier) RenameNode(sc *Scene, oldName, newName string) {
	m.Add(
		func() error { return sc.RenameNode(oldName, newName) },
		func() error { return sc.RenameNode(newName, oldName) },
	)
}

// SetValue queues a value write. The previous value is captured when the
// operation runs, so queuing order does not matter. For message slots the
// previous incoming connection is what gets restored.
func (m *Modifier) SetValue(s *Slot, v any) {
	var prev any
	m.Add(
		func() error {
			if s.Kind() == attr.KindMessage {
				if src := s.Source(); src != nil {
					prev = src
				}
			} else {
				old, err := s.Value()
				if err != nil {
					return err
				}
				prev = old
			}
			return s.SetValue(v)
		},
		func() error { return s.SetValue(prev) },
	)
}

// SetLocked queues a lock flag change on a slot.
func (m *Modifier) SetLocked(s *Slot, locked bool) {
	var prev bool
	m.Add(
		func() error {
			prev = s.Locked()
			s.SetLocked(locked)
			return nil
		},
		func() error {
			s.SetLocked(prev)
			return nil
		},
	)
}

// Connect queues an edge creation. Undo breaks the edge and, when force
// displaced a previous source, restores it.
func (m *Modifier) Connect(src, dst *Slot, force bool) {
	var displaced *Slot
	m.Add(
		func() error {
			displaced = dst.Source()
			if displaced == src {
				displaced = nil
			}
			return Connect(src, dst, force)
		},
		func() error {
			dst.Disconnect(true, false)
			if displaced != nil {
				return Connect(displaced, dst, false)
			}
			return nil
		},
	)
}

// Disconnect queues breaking the slot's incoming edge. Undo reconnects the
// recorded source.
func (m *Modifier) Disconnect(dst *Slot) {
	var src *Slot
	m.Add(
		func() error {
			src = dst.Source()
			dst.Disconnect(true, false)
			return nil
		},
		func() error {
			if src != nil {
				return Connect(src, dst, false)
			}
			return nil
		},
	)
}

// AddAttribute queues a dynamic attribute creation. Undo removes the
// attribute under a node-lock guard.
func (m *Modifier) AddAttribute(n *Node, spec AttrSpec) {
	m.Add(
		func() error {
			_, err := n.AddAttribute(spec)
			return err
		},
		func() error {
			return WithUnlockedNode(n, func() error {
				return n.RemoveAttribute(spec.Name)
			})
		},
	)
}

// RemoveAttribute queues a dynamic attribute removal. The slot is serialized
// before removal so undo can rebuild it, connections included.
func (m *Modifier) RemoveAttribute(n *Node, name string) {
	var rec attr.Record
	var srcPath string          // incoming connection, full path
	var outPaths []string       // outgoing connections, full paths
	m.Add(
		func() error {
			s, ok := n.Attribute(name)
			if !ok {
				return errors.New(errors.ErrCodeAttributeNotFound,
					"node %s has no attribute %q", n.Name(), name)
			}
			rec, _ = SerializeSlot(s, true)
			if src := s.Source(); src != nil {
				srcPath = src.FullPath()
			}
			for _, o := range s.Outputs() {
				outPaths = append(outPaths, o.FullPath())
			}
			return n.RemoveAttribute(name)
		},
		func() error {
			if err := DeserializeSlot(n, rec); err != nil {
				return err
			}
			s, ok := n.Attribute(name)
			if !ok {
				return errors.New(errors.ErrCodeInternal,
					"attribute %q did not come back", name)
			}
			if srcPath != "" {
				src, err := n.Scene().FindSlot(srcPath)
				if err != nil {
					return err
				}
				if err := Connect(src, s, true); err != nil {
					return err
				}
			}
			for _, p := range outPaths {
				dst, err := n.Scene().FindSlot(p)
				if err != nil {
					return err
				}
				if err := Connect(s, dst, true); err != nil {
					return err
				}
			}
			srcPath, outPaths = "", nil
			return nil
		},
	)
}

// SetParent queues a reparent. Undo restores the previous parent, nil
// included, so a node moved to the root moves back.
func (m *Modifier) SetParent(n *Node, parent *Node) {
	var prev *Node
	m.Add(
		func() error {
			prev = n.Parent()
			return n.SetParent(parent)
		},
		func() error { return n.SetParent(prev) },
	)
}

// slotEdge records one connection by its endpoint paths. Paths survive the
// deletion of either endpoint's node, slot pointers do not.
type slotEdge struct {
	src, dst string
}

// DeleteNode queues a node deletion. The node's full shape is captured
// before teardown - type, parent, children, lock flag, every attribute
// record, and every edge touching one of its slots - so undo rebuilds the
// node and splices it back into the graph.
func (m *Modifier) DeleteNode(sc *Scene, name string) {
	var (
		typeName   string
		parentName string
		locked     bool
		childNames []string
		records    []attr.Record
		edges      []slotEdge
	)
	m.Add(
		func() error {
			n, ok := sc.Node(name)
			if !ok {
				return errors.New(errors.ErrCodeUnknownNode, "no node named %s", name)
			}
			typeName = n.TypeName()
			locked = n.Locked()
			parentName, childNames = "", nil
			if p := n.Parent(); p != nil {
				parentName = p.Name()
			}
			for _, c := range n.Children() {
				childNames = append(childNames, c.Name())
			}
			records, edges = nil, nil
			for _, s := range n.Attributes() {
				rec, _ := SerializeSlot(s, true)
				records = append(records, rec)
				collectEdges(n, s, &edges)
			}
			return sc.DeleteNode(name)
		},
		func() error {
			n, err := sc.CreateNode(name, typeName)
			if err != nil {
				return err
			}
			if parentName != "" {
				p, ok := sc.Node(parentName)
				if !ok {
					return errors.New(errors.ErrCodeUnknownNode,
						"parent %s of %s is gone", parentName, name)
				}
				if err := n.SetParent(p); err != nil {
					return err
				}
			}
			for _, childName := range childNames {
				c, ok := sc.Node(childName)
				if !ok {
					continue // child deleted since; nothing to reattach
				}
				if err := c.SetParent(n); err != nil {
					return err
				}
			}
			for _, rec := range records {
				if !rec.Dynamic {
					if _, err := n.InstallAttribute(recordToSpec(rec)); err != nil {
						return err
					}
				}
				if err := DeserializeSlot(n, rec); err != nil {
					return err
				}
			}
			for _, e := range edges {
				src, err := growSlot(sc, e.src)
				if err != nil {
					return err
				}
				dst, err := growSlot(sc, e.dst)
				if err != nil {
					return err
				}
				if err := WithUnlocked(dst, func() error {
					return Connect(src, dst, true)
				}); err != nil {
					return err
				}
			}
			n.SetLocked(locked)
			return nil
		},
	)
}

// collectEdges walks a slot subtree and records every connection touching
// it. Incoming edges from the node's own slots are skipped; they reappear
// as outgoing edges when their slot is walked.
func collectEdges(n *Node, s *Slot, edges *[]slotEdge) {
	if src := s.Source(); src != nil && src.Node() != n {
		*edges = append(*edges, slotEdge{src: src.FullPath(), dst: s.FullPath()})
	}
	for _, dst := range s.Outputs() {
		*edges = append(*edges, slotEdge{src: s.FullPath(), dst: dst.FullPath()})
	}
	for _, i := range s.Indices() {
		if e, ok := s.ElementAt(i); ok {
			collectEdges(n, e, edges)
		}
	}
	for _, c := range s.Children() {
		collectEdges(n, c, edges)
	}
}

// growSlot resolves a scene-qualified slot path, creating a trailing array
// element when it does not exist yet. Message elements carry no serialized
// value, so after a rebuild only the recorded edges know about them.
func growSlot(sc *Scene, path string) (*Slot, error) {
	if s, err := sc.FindSlot(path); err == nil {
		return s, nil
	}
	open := strings.LastIndexByte(path, '[')
	if open < 0 || !strings.HasSuffix(path, "]") {
		return sc.FindSlot(path)
	}
	base, err := sc.FindSlot(path[:open])
	if err != nil {
		return nil, err
	}
	idx, err := strconv.Atoi(path[open+1 : len(path)-1])
	if err != nil || idx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidPath, "bad slot path %q", path)
	}
	return base.Element(idx)
}

// Executor runs modifiers and keeps the undo/redo history. Do pushes the
// batch onto the undo stack and clears the redo stack; Undo and Redo move
// batches between the two.
type Executor struct {
	undoStack []*Modifier
	redoStack []*Modifier
}

// NewExecutor returns an executor with empty history.
func NewExecutor() *Executor { return &Executor{} }

// Do applies the modifier and records it for undo. A failed batch leaves no
// trace in the history.
func (e *Executor) Do(m *Modifier) error {
	if err := m.DoIt(); err != nil {
		return err
	}
	e.undoStack = append(e.undoStack, m)
	e.redoStack = nil
	return nil
}

// Undo reverses the most recent batch. Returns NOT_FOUND when the history
// is empty.
func (e *Executor) Undo() error {
	if len(e.undoStack) == 0 {
		return errors.New(errors.ErrCodeNotFound, "nothing to undo")
	}
	m := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	if err := m.UndoIt(); err != nil {
		return err
	}
	e.redoStack = append(e.redoStack, m)
	return nil
}

// Redo replays the most recently undone batch.
func (e *Executor) Redo() error {
	if len(e.redoStack) == 0 {
		return errors.New(errors.ErrCodeNotFound, "nothing to redo")
	}
	m := e.redoStack[len(e.redoStack)-1]
	e.redoStack = e.redoStack[:len(e.redoStack)-1]
	if err := m.DoIt(); err != nil {
		return err
	}
	e.undoStack = append(e.undoStack, m)
	return nil
}

// CanUndo reports whether the undo stack is non-empty.
func (e *Executor) CanUndo() bool { return len(e.undoStack) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (e *Executor) CanRedo() bool { return len(e.redoStack) > 0 }

// Clear drops the history.
func (e *Executor) Clear() {
	e.undoStack = nil
	e.redoStack = nil
}
