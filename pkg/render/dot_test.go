package render

import (
	"strings"
	"testing"

	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/meta"
	"github.com/mhalstead/rigmeta/pkg/scene"
)

func buildGraphScene(t *testing.T) *scene.Scene {
	t.Helper()
	sc := scene.New()

	rig, err := meta.New(sc, "rig_meta", "Rig")
	if err != nil {
		t.Fatalf("New rig_meta: %v", err)
	}
	spine, err := meta.New(sc, "spine_meta", "Module")
	if err != nil {
		t.Fatalf("New spine_meta: %v", err)
	}
	if err := rig.AddChild(spine); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	if _, err := spine.AddAttribute(scene.AttrSpec{
		Name: "jointCount", Kind: attr.KindInt, Value: int64(7),
	}); err != nil {
		t.Fatalf("AddAttribute: %v", err)
	}

	ctl, err := sc.CreateNode("root_ctrl", "transform")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if err := spine.ConnectTo("rootControl", ctl, "metaNode"); err != nil {
		t.Fatalf("ConnectTo: %v", err)
	}
	return sc
}

func TestToDOT(t *testing.T) {
	sc := buildGraphScene(t)
	dot := ToDOT(sc, Options{})

	if !strings.HasPrefix(dot, "digraph rigmeta {") {
		t.Fatalf("unexpected DOT header: %q", dot[:30])
	}
	if !strings.Contains(dot, `"rig_meta" [label=`) {
		t.Error("missing rig_meta node")
	}
	if !strings.Contains(dot, `"spine_meta" [label=`) {
		t.Error("missing spine_meta node")
	}
	if !strings.Contains(dot, `"rig_meta" -> "spine_meta";`) {
		t.Error("missing parent->child edge")
	}

	// Plain nodes are excluded unless requested, so the named relation
	// edge to root_ctrl should not appear.
	if strings.Contains(dot, "root_ctrl") {
		t.Error("plain node should be excluded by default")
	}
}

func TestToDOTIncludePlain(t *testing.T) {
	sc := buildGraphScene(t)
	dot := ToDOT(sc, Options{IncludePlain: true})

	if !strings.Contains(dot, `"root_ctrl" [style=`) {
		t.Error("missing plain node declaration")
	}
	if !strings.Contains(dot, `"spine_meta" -> "root_ctrl" [style=dashed, label="rootControl"`) {
		t.Error("missing named relation edge")
	}
}

func TestToDOTIsDeterministic(t *testing.T) {
	sc := scene.New()
	hub, err := meta.New(sc, "hub_meta", "Rig")
	if err != nil {
		t.Fatalf("New hub_meta: %v", err)
	}
	for _, name := range []string{"legL", "legR", "armL", "armR", "head", "tail", "neck", "jaw"} {
		ctl, err := sc.CreateNode(name+"_ctrl", "transform")
		if err != nil {
			t.Fatalf("CreateNode %s: %v", name, err)
		}
		if err := hub.ConnectTo(name, ctl, "metaNode"); err != nil {
			t.Fatalf("ConnectTo %s: %v", name, err)
		}
	}

	first := ToDOT(sc, Options{IncludePlain: true})
	for i := 0; i < 20; i++ {
		if got := ToDOT(sc, Options{IncludePlain: true}); got != first {
			t.Fatalf("ToDOT output varies between calls:\n%s\n---\n%s", first, got)
		}
	}

	// Plain-node declarations come out sorted by name.
	armL := strings.Index(first, `"armL_ctrl" [style=`)
	tail := strings.Index(first, `"tail_ctrl" [style=`)
	if armL < 0 || tail < 0 || armL > tail {
		t.Errorf("plain nodes not sorted: armL at %d, tail at %d", armL, tail)
	}
}

func TestToDOTDetailed(t *testing.T) {
	sc := buildGraphScene(t)
	dot := ToDOT(sc, Options{Detailed: true})

	if !strings.Contains(dot, "spine_meta (Module)") {
		t.Error("detailed label should include type tag")
	}
	if !strings.Contains(dot, "jointCount: 7") {
		t.Error("detailed label should include off-default values")
	}
	// Standard bookkeeping attributes stay out of labels.
	if strings.Contains(dot, "mUUID") {
		t.Error("standard attributes should not appear in labels")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="100pt" viewBox="10.5 20.25 300.00 150.00"><g/></svg>`)
	out := string(normalizeViewBox(svg))

	if !strings.Contains(out, `viewBox="0 0 300.00 150.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="300" height="150"`) {
		t.Errorf("dimensions not rewritten: %s", out)
	}

	// SVG without a viewBox passes through untouched.
	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
