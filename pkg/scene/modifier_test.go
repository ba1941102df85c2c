package scene

import (
	stderrors "errors"
	"testing"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
)

func TestModifierBatchUndoRedo(t *testing.T) {
	sc := New()
	ex := NewExecutor()

	m := NewModifier()
	m.CreateNode(sc, "rig_meta", "network")
	m.CreateNode(sc, "spine_meta", "network")
	if err := ex.Do(m); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if sc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sc.Len())
	}

	if err := ex.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	if sc.Len() != 0 {
		t.Errorf("Len() after undo = %d, want 0", sc.Len())
	}

	if err := ex.Redo(); err != nil {
		t.Fatalf("Redo() error: %v", err)
	}
	if sc.Len() != 2 {
		t.Errorf("Len() after redo = %d, want 2", sc.Len())
	}
}

func TestModifierAtomicRollback(t *testing.T) {
	sc := New()
	sc.CreateNode("taken", "network")

	m := NewModifier()
	m.CreateNode(sc, "one", "network")
	m.CreateNode(sc, "taken", "network") // fails: duplicate

	err := m.DoIt()
	if !errors.Is(err, errors.ErrCodeDuplicateNode) {
		t.Fatalf("DoIt() code = %s, want DUPLICATE_NODE", errors.GetCode(err))
	}
	if sc.Has("one") {
		t.Error("failed batch should roll back the applied operations")
	}
}

func TestModifierSetValueUndo(t *testing.T) {
	sc := New()
	n, _ := sc.CreateNode("n", "network")
	s, _ := n.AddAttribute(AttrSpec{Name: "count", Kind: attr.KindInt, Value: 1})
	ex := NewExecutor()

	m := NewModifier()
	m.SetValue(s, 5)
	if err := ex.Do(m); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	v, _ := s.Value()
	if v != int64(5) {
		t.Fatalf("value = %v, want 5", v)
	}

	if err := ex.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	v, _ = s.Value()
	if v != int64(1) {
		t.Errorf("value after undo = %v, want 1", v)
	}
}

func TestModifierConnectUndoRestoresDisplacedSource(t *testing.T) {
	sc := New()
	a, _ := sc.CreateNode("a", "network")
	b, _ := sc.CreateNode("b", "network")
	c, _ := sc.CreateNode("c", "network")
	out1, _ := a.AddAttribute(AttrSpec{Name: "message", Kind: attr.KindMessage})
	out2, _ := b.AddAttribute(AttrSpec{Name: "message", Kind: attr.KindMessage})
	in, _ := c.AddAttribute(AttrSpec{Name: "parent", Kind: attr.KindMessage})
	if err := Connect(out1, in, false); err != nil {
		t.Fatal(err)
	}

	ex := NewExecutor()
	m := NewModifier()
	m.Connect(out2, in, true)
	if err := ex.Do(m); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if in.Source() != out2 {
		t.Fatal("connect did not replace source")
	}

	if err := ex.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	if in.Source() != out1 {
		t.Error("undo should restore the displaced source")
	}
}

func TestModifierRemoveAttributeUndo(t *testing.T) {
	sc := New()
	a, _ := sc.CreateNode("a", "network")
	b, _ := sc.CreateNode("b", "network")
	s, _ := a.AddAttribute(AttrSpec{Name: "link", Kind: attr.KindMessage})
	dst, _ := b.AddAttribute(AttrSpec{Name: "input", Kind: attr.KindMessage})
	if err := Connect(s, dst, false); err != nil {
		t.Fatal(err)
	}

	ex := NewExecutor()
	m := NewModifier()
	m.RemoveAttribute(a, "link")
	if err := ex.Do(m); err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if a.HasAttribute("link") {
		t.Fatal("attribute should be removed")
	}

	if err := ex.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	restored, ok := a.Attribute("link")
	if !ok {
		t.Fatal("undo should recreate the attribute")
	}
	if dst.Source() != restored {
		t.Error("undo should restore outgoing connections")
	}
}

func TestModifierSetParentUndo(t *testing.T) {
	sc := New()
	root, _ := sc.CreateNode("root", "transform")
	branch, _ := sc.CreateNode("branch", "transform")
	leaf, _ := sc.CreateNode("leaf", "transform")
	leaf.SetParent(root)

	m := NewModifier()
	m.SetParent(leaf, branch)
	if err := m.DoIt(); err != nil {
		t.Fatalf("DoIt() error: %v", err)
	}
	if leaf.Parent() != branch {
		t.Fatal("SetParent should move the node under branch")
	}

	if err := m.UndoIt(); err != nil {
		t.Fatalf("UndoIt() error: %v", err)
	}
	if leaf.Parent() != root {
		t.Error("undo should restore the previous parent")
	}
	if len(branch.Children()) != 0 {
		t.Error("undo should detach the node from the new parent")
	}
}

func TestModifierDeleteNodeUndo(t *testing.T) {
	sc := New()
	parent, _ := sc.CreateNode("parent", "transform")
	n, _ := sc.CreateNode("doomed", "network")
	child, _ := sc.CreateNode("child", "transform")
	n.SetParent(parent)
	child.SetParent(n)

	count, _ := n.AddAttribute(AttrSpec{Name: "count", Kind: attr.KindInt, Value: int64(3)})
	count.SetLocked(true)
	out, _ := n.AddAttribute(AttrSpec{Name: "out", Kind: attr.KindMessage})
	in, _ := n.AddAttribute(AttrSpec{Name: "in", Kind: attr.KindMessage})
	peerDst, _ := parent.AddAttribute(AttrSpec{Name: "ref", Kind: attr.KindMessage})
	peerSrc, _ := child.AddAttribute(AttrSpec{Name: "feed", Kind: attr.KindMessage})
	if err := Connect(out, peerDst, false); err != nil {
		t.Fatalf("Connect out: %v", err)
	}
	if err := Connect(peerSrc, in, false); err != nil {
		t.Fatalf("Connect in: %v", err)
	}
	n.SetLocked(true)

	m := NewModifier()
	m.DeleteNode(sc, "doomed")
	if err := m.DoIt(); err != nil {
		t.Fatalf("DoIt() error: %v", err)
	}
	if sc.Has("doomed") {
		t.Fatal("node should be gone after DoIt")
	}
	if peerDst.Source() != nil {
		t.Fatal("deletion should break the outgoing edge")
	}

	if err := m.UndoIt(); err != nil {
		t.Fatalf("UndoIt() error: %v", err)
	}
	back, ok := sc.Node("doomed")
	if !ok {
		t.Fatal("undo should recreate the node")
	}
	if back.TypeName() != "network" {
		t.Errorf("TypeName() = %s, want network", back.TypeName())
	}
	if back.Parent() != parent {
		t.Error("undo should restore the parent link")
	}
	if child.Parent() != back {
		t.Error("undo should reattach the children")
	}
	if !back.Locked() {
		t.Error("undo should restore the node lock")
	}

	s, ok := back.Attribute("count")
	if !ok {
		t.Fatal("undo should rebuild the dynamic attribute")
	}
	if v, _ := s.Value(); v != int64(3) {
		t.Errorf("count = %v, want 3", v)
	}
	if !s.Locked() {
		t.Error("undo should restore the attribute lock")
	}

	if peerDst.Source() == nil || peerDst.Source().Node() != back {
		t.Error("undo should restore the outgoing edge")
	}
	restoredIn, _ := back.Attribute("in")
	if restoredIn.Source() != peerSrc {
		t.Error("undo should restore the incoming edge")
	}

	// Redo deletes it again, edges included.
	if err := m.DoIt(); err != nil {
		t.Fatalf("redo DoIt() error: %v", err)
	}
	if sc.Has("doomed") || peerDst.Source() != nil {
		t.Error("redo should delete the node and its edges again")
	}
}

func TestExecutorHistory(t *testing.T) {
	sc := New()
	ex := NewExecutor()

	if err := ex.Undo(); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("empty Undo() code = %s, want NOT_FOUND", errors.GetCode(err))
	}
	if err := ex.Redo(); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("empty Redo() code = %s, want NOT_FOUND", errors.GetCode(err))
	}

	m1 := NewModifier()
	m1.CreateNode(sc, "one", "network")
	m2 := NewModifier()
	m2.CreateNode(sc, "two", "network")
	ex.Do(m1)
	ex.Do(m2)

	ex.Undo()
	if !ex.CanRedo() {
		t.Error("CanRedo() should be true after undo")
	}

	// A fresh Do clears the redo stack.
	m3 := NewModifier()
	m3.CreateNode(sc, "three", "network")
	ex.Do(m3)
	if ex.CanRedo() {
		t.Error("Do() should clear the redo stack")
	}
}

func TestModifierRawOperation(t *testing.T) {
	var calls []string
	m := NewModifier()
	m.Add(
		func() error { calls = append(calls, "do"); return nil },
		func() error { calls = append(calls, "undo"); return nil },
	)
	m.Add(
		func() error { return stderrors.New("boom") },
		nil,
	)

	if err := m.DoIt(); err == nil {
		t.Fatal("DoIt() should surface the failure")
	}
	if len(calls) != 2 || calls[1] != "undo" {
		t.Errorf("calls = %v, want rollback of the first op", calls)
	}
}
