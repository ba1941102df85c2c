package scene

import (
	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
)

// SerializeSlot converts a top-level slot into its attribute record.
//
// With full set, the record always carries everything. Without it the
// compaction rule applies: dynamic slots always serialize in full (kind,
// value, bounds, flags - everything needed to recreate them from nothing),
// while built-in slots emit a value-and-flags record only when they moved
// off their default or were locked; an untouched built-in returns emit ==
// false and should be skipped by the caller.
func SerializeSlot(s *Slot, full bool) (attr.Record, bool) {
	if !full && !s.dynamic && s.IsDefault() && !s.locked {
		return attr.Record{}, false
	}

	rec := attr.Record{
		Name:       s.Path(),
		Kind:       s.kind,
		Dynamic:    s.dynamic,
		IsArray:    s.isArray,
		Keyable:    s.keyable,
		ChannelBox: s.channelBox,
		Locked:     s.locked,
	}

	// Creation metadata only matters when the attribute must be rebuilt.
	if s.dynamic || full {
		rec.Default = s.defValue
		rec.Min = s.min
		rec.Max = s.max
		rec.SoftMin = s.softMin
		rec.SoftMax = s.softMax
		rec.EnumOptions = s.EnumOptions()
	}

	switch {
	case s.isArray:
		for _, i := range s.Indices() {
			e := s.elements[i]
			if e.kind == attr.KindMessage {
				continue // edges serialize as connections, not values
			}
			rec.Indices = append(rec.Indices, i)
			values, _ := rec.Value.([]any)
			rec.Value = append(values, e.value)
		}
	case s.kind == attr.KindCompound:
		for _, c := range s.children {
			childRec, _ := SerializeSlot(c, true)
			// Children are looked up by short name inside their parent.
			childRec.Name = c.name
			rec.Children = append(rec.Children, childRec)
		}
	case s.kind.CarriesValue():
		rec.Value = s.value
	}

	return rec, true
}

// DeserializeSlot applies a top-level attribute record to a node. Dynamic
// records recreate the attribute when missing; built-in records expect the
// node type to have installed the slot already and fail with
// ATTRIBUTE_NOT_FOUND otherwise.
//
// Restore order is fixed: creation metadata, then value, then display flags,
// then the lock flag last - so a record that is both locked and non-default
// round-trips.
func DeserializeSlot(n *Node, rec attr.Record) error {
	s, ok := n.Attribute(rec.Name)
	if !ok {
		if !rec.Dynamic {
			return errors.New(errors.ErrCodeAttributeNotFound,
				"node %s has no built-in attribute %q", n.Name(), rec.Name)
		}
		created, err := n.AddAttribute(recordToSpec(rec))
		if err != nil {
			return err
		}
		s = created
	}
	if s.kind != rec.Kind {
		return errors.New(errors.ErrCodeUnsupportedKind,
			"attribute %s is %s, record says %s", s.FullPath(), s.kind, rec.Kind)
	}
	return applyRecord(s, rec)
}

// recordToSpec rebuilds the creation spec from a dynamic record. Values are
// applied afterwards by applyRecord, and locks last, so the spec itself
// carries neither.
func recordToSpec(rec attr.Record) AttrSpec {
	spec := AttrSpec{
		Name:        rec.Name,
		Kind:        rec.Kind,
		IsArray:     rec.IsArray,
		Default:     rec.Default,
		Min:         rec.Min,
		Max:         rec.Max,
		SoftMin:     rec.SoftMin,
		SoftMax:     rec.SoftMax,
		EnumOptions: rec.EnumOptions,
		Keyable:     rec.Keyable,
		ChannelBox:  rec.ChannelBox,
	}
	for _, c := range rec.Children {
		spec.Children = append(spec.Children, recordToSpec(c))
	}
	return spec
}

func applyRecord(s *Slot, rec attr.Record) error {
	err := WithUnlocked(s, func() error {
		switch {
		case rec.IsArray:
			values, _ := rec.Value.([]any)
			for i, idx := range rec.Indices {
				if i >= len(values) {
					break
				}
				e, err := s.Element(idx)
				if err != nil {
					return err
				}
				if err := e.SetValue(values[i]); err != nil {
					return err
				}
			}
		case rec.Kind == attr.KindCompound:
			for _, childRec := range rec.Children {
				c, ok := s.Child(childRec.Name)
				if !ok {
					return errors.New(errors.ErrCodeAttributeNotFound,
						"%s has no child %q", s.Path(), childRec.Name)
				}
				if err := applyRecord(c, childRec); err != nil {
					return err
				}
			}
		case rec.Kind.CarriesValue() && rec.Value != nil:
			if err := s.SetValue(rec.Value); err != nil {
				return err
			}
		}
		s.keyable = rec.Keyable
		s.channelBox = rec.ChannelBox
		return nil
	})
	if err != nil {
		return err
	}
	s.SetLocked(rec.Locked)
	return nil
}
