package scene

import (
	"testing"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
)

func testNode(t *testing.T, name string) *Node {
	t.Helper()
	sc := New()
	n, err := sc.CreateNode(name, "network")
	if err != nil {
		t.Fatalf("CreateNode(%s): %v", name, err)
	}
	return n
}

func TestAddAttribute(t *testing.T) {
	n := testNode(t, "rig")

	s, err := n.AddAttribute(AttrSpec{Name: "jointCount", Kind: attr.KindInt, Value: 5})
	if err != nil {
		t.Fatalf("AddAttribute() error: %v", err)
	}
	if !s.IsDynamic() {
		t.Error("AddAttribute should create dynamic slots")
	}
	v, err := s.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if v != int64(5) {
		t.Errorf("Value() = %v, want 5", v)
	}

	if _, err := n.AddAttribute(AttrSpec{Name: "jointCount", Kind: attr.KindInt}); !errors.Is(err, errors.ErrCodeAttributeExists) {
		t.Errorf("duplicate add code = %s, want ATTRIBUTE_EXISTS", errors.GetCode(err))
	}
	if _, err := n.AddAttribute(AttrSpec{Name: "bad name", Kind: attr.KindInt}); !errors.Is(err, errors.ErrCodeInvalidName) {
		t.Errorf("bad name code = %s, want INVALID_NAME", errors.GetCode(err))
	}

	n.SetLocked(true)
	if _, err := n.AddAttribute(AttrSpec{Name: "other", Kind: attr.KindInt}); !errors.Is(err, errors.ErrCodeNodeLocked) {
		t.Errorf("locked node add code = %s, want NODE_LOCKED", errors.GetCode(err))
	}
}

func TestInstallAttributeIsStatic(t *testing.T) {
	n := testNode(t, "rig")
	s, err := n.InstallAttribute(AttrSpec{Name: "visibility", Kind: attr.KindBool, Default: true})
	if err != nil {
		t.Fatalf("InstallAttribute() error: %v", err)
	}
	if s.IsDynamic() {
		t.Error("InstallAttribute should create static slots")
	}
}

func TestRemoveAttribute(t *testing.T) {
	n := testNode(t, "rig")
	s, _ := n.AddAttribute(AttrSpec{Name: "temp", Kind: attr.KindMessage})
	other := testNode(t, "other")
	dst, _ := other.AddAttribute(AttrSpec{Name: "input", Kind: attr.KindMessage})
	if err := Connect(s, dst, false); err != nil {
		t.Fatalf("Connect(): %v", err)
	}
	s.SetLocked(true)

	if err := n.RemoveAttribute("temp"); err != nil {
		t.Fatalf("RemoveAttribute(locked slot) error: %v", err)
	}
	if n.HasAttribute("temp") {
		t.Error("attribute should be gone")
	}
	if dst.Source() != nil {
		t.Error("removal should disconnect downstream slots")
	}

	if err := n.RemoveAttribute("temp"); !errors.Is(err, errors.ErrCodeAttributeNotFound) {
		t.Errorf("missing remove code = %s", errors.GetCode(err))
	}
}

func TestConnectSemantics(t *testing.T) {
	sc := New()
	a, _ := sc.CreateNode("a", "network")
	b, _ := sc.CreateNode("b", "network")
	c, _ := sc.CreateNode("c", "network")
	out1, _ := a.AddAttribute(AttrSpec{Name: "message", Kind: attr.KindMessage})
	out2, _ := b.AddAttribute(AttrSpec{Name: "message", Kind: attr.KindMessage})
	in, _ := c.AddAttribute(AttrSpec{Name: "parent", Kind: attr.KindMessage})

	if err := Connect(out1, in, false); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if in.Source() != out1 {
		t.Fatal("source not recorded")
	}

	// Reconnecting the same edge is a no-op.
	if err := Connect(out1, in, false); err != nil {
		t.Errorf("idempotent connect error: %v", err)
	}
	if len(out1.Outputs()) != 1 {
		t.Errorf("outputs = %d, want 1", len(out1.Outputs()))
	}

	// Occupied destination: conflict without force, replace with it.
	if err := Connect(out2, in, false); !errors.Is(err, errors.ErrCodeConnectionConflict) {
		t.Errorf("occupied connect code = %s, want CONNECTION_CONFLICT", errors.GetCode(err))
	}
	if err := Connect(out2, in, true); err != nil {
		t.Fatalf("forced connect error: %v", err)
	}
	if in.Source() != out2 {
		t.Error("force should replace the source")
	}
	if len(out1.Outputs()) != 0 {
		t.Error("displaced source should drop its output")
	}

	if err := Connect(in, in, true); !errors.Is(err, errors.ErrCodeConnectionConflict) {
		t.Errorf("self-loop code = %s, want CONNECTION_CONFLICT", errors.GetCode(err))
	}

	in.SetLocked(true)
	if err := Connect(out1, in, true); !errors.Is(err, errors.ErrCodeAttributeLocked) {
		t.Errorf("locked destination code = %s, want ATTRIBUTE_LOCKED", errors.GetCode(err))
	}
}

func TestDisconnect(t *testing.T) {
	sc := New()
	a, _ := sc.CreateNode("a", "network")
	b, _ := sc.CreateNode("b", "network")
	out, _ := a.AddAttribute(AttrSpec{Name: "message", Kind: attr.KindMessage})
	in1, _ := b.AddAttribute(AttrSpec{Name: "in1", Kind: attr.KindMessage})
	in2, _ := b.AddAttribute(AttrSpec{Name: "in2", Kind: attr.KindMessage})
	Connect(out, in1, false)
	Connect(out, in2, false)

	out.Disconnect(false, true)
	if in1.Source() != nil || in2.Source() != nil || len(out.Outputs()) != 0 {
		t.Error("Disconnect(outputs) should break every outgoing edge")
	}

	// Disconnecting nothing is fine.
	out.Disconnect(true, true)
}

func TestArrayElements(t *testing.T) {
	n := testNode(t, "skin")
	s, err := n.AddAttribute(AttrSpec{Name: "weights", Kind: attr.KindDouble, IsArray: true})
	if err != nil {
		t.Fatalf("AddAttribute(array) error: %v", err)
	}

	// Sparse creation in arbitrary order.
	for _, i := range []int{7, 0, 3} {
		e, err := s.Element(i)
		if err != nil {
			t.Fatalf("Element(%d) error: %v", i, err)
		}
		if err := e.SetValue(float64(i) * 0.1); err != nil {
			t.Fatalf("SetValue element %d: %v", i, err)
		}
	}

	indices := s.Indices()
	want := []int{0, 3, 7}
	if len(indices) != len(want) {
		t.Fatalf("Indices() = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("Indices() = %v, want %v", indices, want)
		}
	}

	e, _ := s.ElementAt(3)
	if e.Path() != "weights[3]" {
		t.Errorf("element Path() = %s", e.Path())
	}
	if _, ok := s.ElementAt(5); ok {
		t.Error("ElementAt should not create elements")
	}

	scalar, _ := n.AddAttribute(AttrSpec{Name: "radius", Kind: attr.KindDouble})
	if _, err := scalar.Element(0); !errors.Is(err, errors.ErrCodeUnsupportedKind) {
		t.Errorf("Element on scalar code = %s", errors.GetCode(err))
	}
	if _, err := s.Element(-1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("negative index code = %s", errors.GetCode(err))
	}
}

func TestCompoundChildren(t *testing.T) {
	n := testNode(t, "rig")
	s, err := n.AddAttribute(AttrSpec{
		Name: "limits",
		Kind: attr.KindCompound,
		Children: []AttrSpec{
			{Name: "min", Kind: attr.KindDouble, Value: -1.0},
			{Name: "max", Kind: attr.KindDouble, Value: 1.0},
		},
	})
	if err != nil {
		t.Fatalf("AddAttribute(compound) error: %v", err)
	}
	min, ok := s.Child("min")
	if !ok {
		t.Fatal("missing child min")
	}
	if min.Path() != "limits.min" {
		t.Errorf("child Path() = %s", min.Path())
	}
	if !min.IsDynamic() {
		t.Error("children of a dynamic compound are dynamic")
	}

	if _, err := n.AddAttribute(AttrSpec{Name: "empty", Kind: attr.KindCompound}); err == nil {
		t.Error("compound without children should fail")
	}
	if _, err := n.AddAttribute(AttrSpec{
		Name: "dup", Kind: attr.KindCompound,
		Children: []AttrSpec{
			{Name: "x", Kind: attr.KindDouble},
			{Name: "x", Kind: attr.KindDouble},
		},
	}); !errors.Is(err, errors.ErrCodeAttributeExists) {
		t.Errorf("duplicate child code = %s", errors.GetCode(err))
	}
}

func TestBoundsSetters(t *testing.T) {
	n := testNode(t, "rig")
	num, _ := n.AddAttribute(AttrSpec{Name: "twist", Kind: attr.KindAngle})
	str, _ := n.AddAttribute(AttrSpec{Name: "label", Kind: attr.KindString})

	if err := num.SetMin(-180); err != nil {
		t.Fatalf("SetMin() error: %v", err)
	}
	if err := num.SetSoftMax(90); err != nil {
		t.Fatalf("SetSoftMax() error: %v", err)
	}
	if num.Min() == nil || *num.Min() != -180 {
		t.Error("Min not stored")
	}
	if num.SoftMax() == nil || *num.SoftMax() != 90 {
		t.Error("SoftMax not stored")
	}

	for name, fn := range map[string]func(float64) error{
		"SetMin": str.SetMin, "SetMax": str.SetMax,
		"SetSoftMin": str.SetSoftMin, "SetSoftMax": str.SetSoftMax,
	} {
		if err := fn(0); !errors.Is(err, errors.ErrCodeUnsupportedKind) {
			t.Errorf("%s on string code = %s, want UNSUPPORTED_KIND", name, errors.GetCode(err))
		}
	}
}
