// Package attr defines the closed catalog of attribute value kinds and the
// value coercion and record types shared by the scene and metadata layers.
//
// # Overview
//
// Every attribute slot on a scene node carries exactly one [Kind], fixed at
// creation. The kind determines the Go type of the slot's value, whether the
// slot supports numeric bounds (min/max/softMin/softMax), and whether it
// carries a value at all: [KindMessage] slots are edge-only and encode
// relationships purely through connections.
//
// # Values
//
// Values are stored as `any` with one canonical Go representation per kind
// (bool, int64, float64, string, []float64 vectors, 16-element matrices,
// typed slices for array kinds). [Coerce] normalizes caller- or
// JSON-supplied values into that representation and rejects shapes the kind
// cannot hold.
//
// # Records
//
// [Record] is the serialized form of a single attribute: kind, value,
// default and bounds metadata, enum options, and the keyable/channelBox/
// locked flags. Records round-trip through JSON and are the unit of
// attribute persistence used by the sceneio package.
package attr
