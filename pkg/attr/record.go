package attr

import "encoding/json"

// Record is the canonical serialized form of one attribute slot.
//
// For dynamically added attributes the record carries everything needed to
// recreate the attribute from scratch: kind, value, default and bounds
// metadata, enum options, and flags. For static (built-in) attributes only
// value and flags are meaningful - the attribute already exists on any node
// of the owning type, so serialization emits a record only when the value
// differs from its default.
//
// The round-trip contract: deserializing a record produced from a slot must
// yield a slot observably identical in kind, value and flags.
type Record struct {
	// Name is the fully-qualified slot name including any array index or
	// compound child path (e.g. "weights[3]", "limits.min").
	Name string `json:"name"`

	// Kind determines the value type. Serialized as the canonical kind name.
	Kind Kind `json:"kind"`

	// Dynamic marks attributes added at runtime as opposed to built-ins
	// installed by the node type itself.
	Dynamic bool `json:"isDynamic"`

	// IsArray marks sparse array slots. Element values are stored in Value
	// as an index-ordered list alongside Indices.
	IsArray bool `json:"isArray,omitempty"`

	// Value is the current value in canonical form, nil for edge-only kinds.
	Value any `json:"value,omitempty"`

	// Indices lists the existing logical indices of a sparse array slot,
	// parallel to the Value list.
	Indices []int `json:"indices,omitempty"`

	// Default and the bounds fields apply only to kinds with HasBounds or a
	// meaningful default; they are omitted otherwise.
	Default any      `json:"default,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	SoftMin *float64 `json:"softMin,omitempty"`
	SoftMax *float64 `json:"softMax,omitempty"`

	// EnumOptions holds the field labels for enum kinds.
	EnumOptions []string `json:"enumOptions,omitempty"`

	// Display and edit flags.
	Keyable    bool `json:"keyable"`
	ChannelBox bool `json:"channelBox"`
	Locked     bool `json:"locked"`

	// Children holds the serialized compound children in declaration order.
	Children []Record `json:"children,omitempty"`
}

// NormalizeValues coerces the record's value and default into the canonical
// representation for its kind. Called after JSON decoding, where numbers
// arrive as float64 and slices as []any.
func (r *Record) NormalizeValues() error {
	if !r.Kind.CarriesValue() {
		r.Value = nil
		r.Default = nil
		return nil
	}
	if r.IsArray {
		values, ok := r.Value.([]any)
		if !ok && r.Value != nil {
			// A single bare value for an array record is treated as one
			// element at index 0.
			values = []any{r.Value}
			if len(r.Indices) == 0 {
				r.Indices = []int{0}
			}
		}
		normalized := make([]any, len(values))
		for i, v := range values {
			nv, err := Coerce(r.Kind, v)
			if err != nil {
				return err
			}
			normalized[i] = nv
		}
		r.Value = normalized
		return nil
	}
	if r.Value != nil {
		v, err := Coerce(r.Kind, r.Value)
		if err != nil {
			return err
		}
		r.Value = v
	}
	if r.Default != nil {
		d, err := Coerce(r.Kind, r.Default)
		if err != nil {
			return err
		}
		r.Default = d
	}
	for i := range r.Children {
		if err := r.Children[i].NormalizeValues(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the record via JSON round-trip. Records are
// small; clarity wins over speed here.
func (r Record) Clone() Record {
	data, err := json.Marshal(r)
	if err != nil {
		return r
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return r
	}
	_ = out.NormalizeValues()
	return out
}
