package scene

import (
	"github.com/mhalstead/rigmeta/pkg/attr"
	"github.com/mhalstead/rigmeta/pkg/errors"
)

// Value returns the slot's current value in canonical form.
//
// Scalars and typed arrays return their canonical representation directly.
// Array slots return a map of logical index to element value; compound slots
// return a map of child name to child value. Message slots carry no value
// and return nil.
func (s *Slot) Value() (any, error) {
	if !s.node.alive {
		return nil, staleErr(s.node.name)
	}
	switch {
	case s.kind == attr.KindMessage:
		return nil, nil
	case s.isArray && !s.IsElement():
		out := make(map[int]any, len(s.elements))
		for _, i := range s.Indices() {
			v, err := s.elements[i].Value()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case s.kind == attr.KindCompound:
		out := make(map[string]any, len(s.children))
		for _, c := range s.children {
			v, err := c.Value()
			if err != nil {
				return nil, err
			}
			out[c.name] = v
		}
		return out, nil
	default:
		return s.value, nil
	}
}

// SetValue stores a value on the slot after coercing it to the canonical
// representation for the slot's kind.
//
// Array slots accept a []any (elements created at indices 0..n-1) or a
// map[int]any (sparse); compound slots accept a map[string]any keyed by
// child name. Message slots accept a *Slot, which connects that slot into
// this one, or nil, which breaks the incoming edge.
//
// Fails with ATTRIBUTE_LOCKED on locked slots and STALE_REFERENCE on deleted
// nodes.
func (s *Slot) SetValue(v any) error {
	if !s.node.alive {
		return staleErr(s.node.name)
	}
	if s.locked {
		return errors.New(errors.ErrCodeAttributeLocked,
			"%s is locked", s.FullPath())
	}

	switch {
	case s.kind == attr.KindMessage:
		return s.setMessageValue(v)
	case s.isArray && !s.IsElement():
		return s.setArrayValue(v)
	case s.kind == attr.KindCompound:
		return s.setCompoundValue(v)
	default:
		coerced, err := attr.Coerce(s.kind, v)
		if err != nil {
			return err
		}
		s.value = coerced
		return nil
	}
}

func (s *Slot) setMessageValue(v any) error {
	switch src := v.(type) {
	case nil:
		s.Disconnect(true, false)
		return nil
	case *Slot:
		return Connect(src, s, true)
	default:
		return errors.New(errors.ErrCodeUnsupportedKind,
			"message attribute %s takes a slot, not %T", s.FullPath(), v)
	}
}

func (s *Slot) setArrayValue(v any) error {
	switch vals := v.(type) {
	case nil:
		return nil
	case []any:
		for i, ev := range vals {
			e, err := s.Element(i)
			if err != nil {
				return err
			}
			if err := e.SetValue(ev); err != nil {
				return err
			}
		}
		return nil
	case map[int]any:
		for i, ev := range vals {
			e, err := s.Element(i)
			if err != nil {
				return err
			}
			if err := e.SetValue(ev); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New(errors.ErrCodeUnsupportedKind,
			"array attribute %s takes []any or map[int]any, not %T", s.FullPath(), v)
	}
}

func (s *Slot) setCompoundValue(v any) error {
	vals, ok := v.(map[string]any)
	if !ok {
		return errors.New(errors.ErrCodeUnsupportedKind,
			"compound attribute %s takes map[string]any, not %T", s.FullPath(), v)
	}
	for name, cv := range vals {
		c, found := s.Child(name)
		if !found {
			return errors.New(errors.ErrCodeAttributeNotFound,
				"%s has no child %q", s.Path(), name)
		}
		if err := c.SetValue(cv); err != nil {
			return err
		}
	}
	return nil
}

// IsDefault reports whether the slot's value still equals its default.
// Array slots are at default when they have no elements; compounds when
// every child is at default. Message slots are always at default.
func (s *Slot) IsDefault() bool {
	switch {
	case s.kind == attr.KindMessage:
		return true
	case s.isArray && !s.IsElement():
		return len(s.elements) == 0
	case s.kind == attr.KindCompound:
		for _, c := range s.children {
			if !c.IsDefault() {
				return false
			}
		}
		return true
	default:
		return attr.Equal(s.value, s.defValue)
	}
}
