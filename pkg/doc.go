// Package pkg provides the core libraries for rigmeta, a typed attribute
// graph layer for rig metadata.
//
// # Overview
//
// Rigmeta models rigging metadata as a graph of nodes carrying typed,
// serializable attributes. The pkg directory is organized into:
//
//  1. [attr] - Attribute kind catalog, value coercion, serialized records
//  2. [scene] - Scene/Node/Slot model, connections, batched undoable mutation
//  3. [meta] - Metadata node layer: typed nodes, registry, manifests, traversal
//  4. [sceneio] - JSON export/import of scene documents
//  5. [render] - Metadata graph rendering (DOT, SVG)
//  6. [cache] - Render artifact caching (file, Redis, null backends)
//
// # Architecture
//
// The typical data flow:
//
//	TOML type manifests
//	         ↓
//	    [meta] registry (register constructors)
//	         ↓
//	    [scene] nodes + attributes (create, connect, mutate)
//	         ↓
//	    [sceneio] documents (export/import)
//	         ↓
//	    [render] DOT/SVG output
//
// # Quick Start
//
// Create a metadata node, link it into a hierarchy and export the scene:
//
//	sc := scene.New()
//	rig, _ := meta.New(sc, "rig_meta", "Rig")
//	spine, _ := meta.New(sc, "spine_meta", "Module")
//	_ = rig.AddChild(spine)
//
//	rec := sceneio.Export(sc, sceneio.ExportOptions{})
//	_ = sceneio.Encode(os.Stdout, rec)
//
// Supporting packages: [errors] for coded errors, [observability] for hook
// interfaces, [buildinfo] for ldflags build metadata.
package pkg
