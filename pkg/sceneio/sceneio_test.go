package sceneio

import (
	"bytes"
	"testing"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
	"github.com/mhalstead/rigmeta/pkg/meta"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

// buildTestScene makes a small metadata scene: a rig meta node with one
// child, a named relation to a control, and a handful of value attributes.
func buildTestScene(t *testing.T) *scene.Scene {
	t.Helper()
	sc := scene.New()

	rig, err := meta.New(sc, "rig_meta", "MetaBase")
	if err != nil {
		t.Fatal(err)
	}
	spine, err := meta.New(sc, "spine_meta", "MetaBase")
	if err != nil {
		t.Fatal(err)
	}
	if err := spine.AddParent(rig); err != nil {
		t.Fatal(err)
	}

	if _, err := spine.AddAttribute(scene.AttrSpec{
		Name: "jointCount", Kind: attr.KindInt, Value: 7,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := spine.AddAttribute(scene.AttrSpec{
		Name: "offsets", Kind: attr.KindDouble, IsArray: true,
	}); err != nil {
		t.Fatal(err)
	}
	slot, _ := sc.FindSlot("spine_meta.offsets")
	if err := slot.SetValue(map[int]any{0: 0.5, 2: 1.5}); err != nil {
		t.Fatal(err)
	}

	ctrl, _ := sc.CreateNode("root_ctrl", "transform")
	if err := spine.ConnectTo("rootCtrl", ctrl, ""); err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestExportImportRoundTrip(t *testing.T) {
	src := buildTestScene(t)
	rec := Export(src, ExportOptions{})

	// Through the wire format, so JSON number decay is part of the test.
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		t.Fatalf("Encode(): %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}

	dst := scene.New()
	res := Import(dst, decoded, ImportOptions{})
	if len(res.Skipped) != 0 || len(res.Errs) != 0 {
		t.Fatalf("import problems: skipped=%v errs=%v", res.Skipped, res.Errs)
	}
	if dst.Len() != src.Len() {
		t.Fatalf("imported %d nodes, want %d", dst.Len(), src.Len())
	}

	v, err := mustSlotValue(dst, "spine_meta.jointCount")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(7) {
		t.Errorf("jointCount = %v, want 7", v)
	}
	off, err := mustSlotValue(dst, "spine_meta.offsets")
	if err != nil {
		t.Fatal(err)
	}
	offsets := off.(map[int]any)
	if offsets[0] != 0.5 || offsets[2] != 1.5 || len(offsets) != 2 {
		t.Errorf("offsets = %v", offsets)
	}

	// The parent link came back as an mMetaParent connection.
	parentSlot, err := dst.FindSlot("spine_meta.mMetaParent[0]")
	if err != nil {
		t.Fatalf("mMetaParent[0]: %v", err)
	}
	if parentSlot.Source() == nil || parentSlot.Source().Node().Name() != "rig_meta" {
		t.Error("parent edge not restored")
	}

	// The named relation too.
	peer, err := dst.FindSlot("root_ctrl.metaNode")
	if err != nil {
		t.Fatalf("metaNode: %v", err)
	}
	if peer.Source() == nil || peer.Source().Node().Name() != "spine_meta" {
		t.Error("named relation not restored")
	}

	// Locked type tags restore locked.
	classSlot, _ := dst.FindSlot("spine_meta.mClass")
	if !classSlot.Locked() {
		t.Error("mClass should come back locked")
	}
}

func mustSlotValue(sc *scene.Scene, path string) (any, error) {
	s, err := sc.FindSlot(path)
	if err != nil {
		return nil, err
	}
	return s.Value()
}

func TestImportSkipsMissingRequirements(t *testing.T) {
	rec := SceneRecord{
		Version: FormatVersion,
		Nodes: []NodeRecord{
			{Name: "needs_plugin", Type: "network", Requirements: []string{"spaceSwitch"}},
			{Name: "plain", Type: "network"},
		},
	}

	sc := scene.New()
	res := Import(sc, rec, ImportOptions{})
	if len(res.Created) != 1 || res.Created[0] != "plain" {
		t.Fatalf("Created = %v, want [plain]", res.Created)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("Skipped = %v", res.Skipped)
	}
	if !errors.Is(res.Skipped[0].Err, errors.ErrCodeMissingRequirement) {
		t.Errorf("skip code = %s, want MISSING_REQUIREMENT", errors.GetCode(res.Skipped[0].Err))
	}
	if sc.Has("needs_plugin") {
		t.Error("skipped node must not exist")
	}
}

func TestImportRunsRequirementLoaders(t *testing.T) {
	rec := SceneRecord{
		Version: FormatVersion,
		Nodes: []NodeRecord{
			{Name: "a", Type: "network", Requirements: []string{"spaceSwitch"}},
			{Name: "b", Type: "network", Requirements: []string{"broken"}},
		},
	}

	loaded := false
	opts := ImportOptions{Loaders: map[string]RequirementLoader{
		"spaceSwitch": func() error { loaded = true; return nil },
		"broken": func() error {
			return errors.New(errors.ErrCodeInternal, "plugin load failed")
		},
	}}

	sc := scene.New()
	res := Import(sc, rec, opts)
	if !loaded {
		t.Error("loader was not invoked")
	}
	if len(res.Created) != 1 || res.Created[0] != "a" {
		t.Errorf("Created = %v, want [a]", res.Created)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Name != "b" {
		t.Errorf("Skipped = %v", res.Skipped)
	}
}

func TestImportBadRecordDoesNotAbortSiblings(t *testing.T) {
	rec := SceneRecord{
		Version: FormatVersion,
		Nodes: []NodeRecord{
			{Name: "broken", Type: "network", Attributes: []attr.Record{
				{Name: "x", Kind: attr.KindInt, Dynamic: true, Value: "not an int"},
			}},
			{Name: "fine", Type: "network"},
		},
	}

	sc := scene.New()
	res := Import(sc, rec, ImportOptions{})
	if len(res.Created) != 1 || res.Created[0] != "fine" {
		t.Fatalf("Created = %v, want [fine]", res.Created)
	}
	if sc.Has("broken") {
		t.Error("half-built node should be rolled back")
	}
}

func TestImportConnectionToSkippedNodeIsReported(t *testing.T) {
	rec := SceneRecord{
		Version: FormatVersion,
		Nodes: []NodeRecord{
			{Name: "gone", Type: "network", Requirements: []string{"missing"}},
			{
				Name: "stays", Type: "network",
				Attributes: []attr.Record{
					{Name: "input", Kind: attr.KindMessage, Dynamic: true},
				},
				Connections: []ConnectionRecord{
					{Destination: "input", SourceNode: "gone", SourceAttr: "message"},
				},
			},
		},
	}

	sc := scene.New()
	res := Import(sc, rec, ImportOptions{})
	if len(res.Created) != 1 {
		t.Fatalf("Created = %v", res.Created)
	}
	if len(res.Errs) != 1 {
		t.Fatalf("Errs = %v, want the dangling connection reported", res.Errs)
	}
}

func TestDecodeRejectsNewerVersions(t *testing.T) {
	data := []byte(`{"version": 99, "nodes": []}`)
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("code = %s, want UNSUPPORTED", errors.GetCode(err))
	}
}

func TestHierarchyRoundTrip(t *testing.T) {
	src := scene.New()
	p, _ := src.CreateNode("parent", "transform")
	c, _ := src.CreateNode("child", "transform")
	c.SetParent(p)

	rec := Export(src, ExportOptions{})
	dst := scene.New()
	res := Import(dst, rec, ImportOptions{})
	if len(res.Skipped) > 0 {
		t.Fatalf("Skipped = %v", res.Skipped)
	}
	got, _ := dst.Node("child")
	if got.Parent() == nil || got.Parent().Name() != "parent" {
		t.Error("hierarchy not restored")
	}
}
