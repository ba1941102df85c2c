package scene

import (
	"testing"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
)

func TestCreateNode(t *testing.T) {
	sc := New()

	n, err := sc.CreateNode("spine_meta", "network")
	if err != nil {
		t.Fatalf("CreateNode() error: %v", err)
	}
	if n.Name() != "spine_meta" || n.TypeName() != "network" {
		t.Errorf("node = %s/%s", n.Name(), n.TypeName())
	}
	if !n.Alive() {
		t.Error("new node should be alive")
	}

	if _, err := sc.CreateNode("spine_meta", "network"); !errors.Is(err, errors.ErrCodeDuplicateNode) {
		t.Errorf("duplicate create code = %s, want DUPLICATE_NODE", errors.GetCode(err))
	}
	if _, err := sc.CreateNode("3bad", "network"); !errors.Is(err, errors.ErrCodeInvalidName) {
		t.Errorf("bad name code = %s, want INVALID_NAME", errors.GetCode(err))
	}
	if _, err := sc.CreateNode("ns:ok", "network"); err != nil {
		t.Errorf("namespaced name should be valid: %v", err)
	}
}

func TestNodesOrderIsDeterministic(t *testing.T) {
	sc := New()
	names := []string{"c", "a", "b"}
	for _, n := range names {
		if _, err := sc.CreateNode(n, "network"); err != nil {
			t.Fatalf("CreateNode(%s): %v", n, err)
		}
	}
	got := sc.Nodes()
	for i, n := range got {
		if n.Name() != names[i] {
			t.Fatalf("Nodes()[%d] = %s, want %s", i, n.Name(), names[i])
		}
	}
}

func TestDeleteNodeInvalidatesHandles(t *testing.T) {
	sc := New()
	n, _ := sc.CreateNode("tmp", "network")
	h := n.Handle()

	if !h.Valid() {
		t.Fatal("handle should be valid before delete")
	}
	if err := sc.DeleteNode("tmp"); err != nil {
		t.Fatalf("DeleteNode() error: %v", err)
	}
	if h.Valid() {
		t.Error("handle should be invalid after delete")
	}
	if _, err := h.Resolve(); !errors.Is(err, errors.ErrCodeStaleReference) {
		t.Errorf("Resolve() code = %s, want STALE_REFERENCE", errors.GetCode(err))
	}
	if sc.Has("tmp") {
		t.Error("scene should not contain deleted node")
	}
	if err := sc.DeleteNode("tmp"); !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Errorf("double delete code = %s, want UNKNOWN_NODE", errors.GetCode(err))
	}
}

func TestDeleteNodeBreaksConnectionsAndLocks(t *testing.T) {
	sc := New()
	a, _ := sc.CreateNode("a", "network")
	b, _ := sc.CreateNode("b", "network")
	src, _ := a.AddAttribute(AttrSpec{Name: "message", Kind: attr.KindMessage})
	dst, _ := b.AddAttribute(AttrSpec{Name: "input", Kind: attr.KindMessage})
	if err := Connect(src, dst, false); err != nil {
		t.Fatalf("Connect(): %v", err)
	}
	dst.SetLocked(true)
	b.SetLocked(true)

	if err := sc.DeleteNode("b"); err != nil {
		t.Fatalf("DeleteNode(locked) error: %v", err)
	}
	if dst.Source() != nil {
		t.Error("deleted node's slot should be disconnected")
	}
	if len(src.Outputs()) != 0 {
		t.Error("surviving slot should have no dangling outputs")
	}
}

func TestDeleteNodeReleasesChildren(t *testing.T) {
	sc := New()
	parent, _ := sc.CreateNode("parent", "transform")
	child, _ := sc.CreateNode("child", "transform")
	if err := child.SetParent(parent); err != nil {
		t.Fatalf("SetParent(): %v", err)
	}
	if err := sc.DeleteNode("parent"); err != nil {
		t.Fatalf("DeleteNode(): %v", err)
	}
	if child.Parent() != nil {
		t.Error("orphaned child should become a root")
	}
	if !child.Alive() {
		t.Error("child must survive parent deletion")
	}
}

func TestRenameNode(t *testing.T) {
	sc := New()
	n, _ := sc.CreateNode("old", "network")
	h := n.Handle()

	if err := sc.RenameNode("old", "new"); err != nil {
		t.Fatalf("RenameNode() error: %v", err)
	}
	if !sc.Has("new") || sc.Has("old") {
		t.Error("rename did not move the table entry")
	}
	if !h.Valid() || h.Name() != "new" {
		t.Errorf("handle after rename: valid=%v name=%s", h.Valid(), h.Name())
	}

	sc.CreateNode("taken", "network")
	if err := sc.RenameNode("new", "taken"); !errors.Is(err, errors.ErrCodeDuplicateNode) {
		t.Errorf("rename onto taken name code = %s", errors.GetCode(err))
	}

	n.SetLocked(true)
	if err := sc.RenameNode("new", "other"); !errors.Is(err, errors.ErrCodeNodeLocked) {
		t.Errorf("rename of locked node code = %s", errors.GetCode(err))
	}
}

func TestSetParentRejectsCycles(t *testing.T) {
	sc := New()
	a, _ := sc.CreateNode("a", "transform")
	b, _ := sc.CreateNode("b", "transform")
	c, _ := sc.CreateNode("c", "transform")
	if err := b.SetParent(a); err != nil {
		t.Fatalf("SetParent(b, a): %v", err)
	}
	if err := c.SetParent(b); err != nil {
		t.Fatalf("SetParent(c, b): %v", err)
	}
	if err := a.SetParent(c); err == nil {
		t.Error("parenting under a descendant should fail")
	}
	if err := a.SetParent(a); err == nil {
		t.Error("parenting under itself should fail")
	}
}

func TestFindSlot(t *testing.T) {
	sc := New()
	n, _ := sc.CreateNode("joint1", "joint")
	n.AddAttribute(AttrSpec{Name: "radius", Kind: attr.KindDouble})
	weights, _ := n.AddAttribute(AttrSpec{Name: "weights", Kind: attr.KindDouble, IsArray: true})
	weights.Element(3)
	n.AddAttribute(AttrSpec{
		Name: "limits",
		Kind: attr.KindCompound,
		Children: []AttrSpec{
			{Name: "min", Kind: attr.KindDouble},
			{Name: "max", Kind: attr.KindDouble},
		},
	})

	tests := []struct {
		path     string
		wantPath string
	}{
		{"joint1.radius", "radius"},
		{"joint1.weights[3]", "weights[3]"},
		{"joint1.limits.min", "limits.min"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			s, err := sc.FindSlot(tt.path)
			if err != nil {
				t.Fatalf("FindSlot(%q) error: %v", tt.path, err)
			}
			if s.Path() != tt.wantPath {
				t.Errorf("Path() = %s, want %s", s.Path(), tt.wantPath)
			}
			if s.FullPath() != tt.path {
				t.Errorf("FullPath() = %s, want %s", s.FullPath(), tt.path)
			}
		})
	}

	failures := []struct {
		path string
		code errors.Code
	}{
		{"nope.radius", errors.ErrCodeUnknownNode},
		{"joint1.bogus", errors.ErrCodeAttributeNotFound},
		{"joint1.weights[9]", errors.ErrCodeAttributeNotFound},
		{"joint1.limits.mid", errors.ErrCodeAttributeNotFound},
		{"joint1", errors.ErrCodeInvalidPath},
		{"joint1.weights[x]", errors.ErrCodeInvalidPath},
	}
	for _, tt := range failures {
		t.Run("fail "+tt.path, func(t *testing.T) {
			_, err := sc.FindSlot(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("FindSlot(%q) code = %s, want %s", tt.path, errors.GetCode(err), tt.code)
			}
		})
	}
}
