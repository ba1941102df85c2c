package attr

import (
	"fmt"

	"github.com/mhalstead/rigmeta/pkg/errors"
)

// Coerce normalizes v into the canonical Go representation for the kind.
// It accepts the usual aliases produced by JSON decoding (float64 for
// integers, []any for slices) and by callers (int, float32, []int, ...).
//
// Returns an UNSUPPORTED_KIND error when v cannot represent a value of the
// kind, including wrong vector lengths and non 16-element matrices.
// Coercing nil returns the kind's default value. Message and compound kinds
// never carry direct values and always fail.
func Coerce(kind Kind, v any) (any, error) {
	if !kind.CarriesValue() {
		return nil, errors.New(errors.ErrCodeUnsupportedKind,
			"kind %s does not carry a value", kind)
	}
	if v == nil {
		return kind.DefaultValue(), nil
	}

	switch {
	case kind == KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case kind.IsIntScalar():
		if i, ok := toInt64(v); ok {
			return i, nil
		}
	case kind.IsFloatScalar():
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case kind == KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case kind == KindMatrix:
		if m, ok := toFloatSlice(v, 16); ok {
			return m, nil
		}
	case kind.ComponentCount() > 0:
		n := kind.ComponentCount()
		if kind.hasIntComponents() {
			if iv, ok := toIntSlice(v, n); ok {
				return iv, nil
			}
		} else if fv, ok := toFloatSlice(v, n); ok {
			return fv, nil
		}
	case kind == KindFloatArray, kind == KindDoubleArray:
		if fv, ok := toFloatSlice(v, -1); ok {
			return fv, nil
		}
	case kind == KindIntArray:
		if iv, ok := toIntSlice(v, -1); ok {
			return iv, nil
		}
	case kind == KindStringArray:
		if sv, ok := toStringSlice(v); ok {
			return sv, nil
		}
	case kind == KindPointArray:
		if nv, ok := toNestedFloatSlice(v, 4); ok {
			return nv, nil
		}
	case kind == KindVectorArray:
		if nv, ok := toNestedFloatSlice(v, 3); ok {
			return nv, nil
		}
	case kind == KindMatrixArray:
		if nv, ok := toNestedFloatSlice(v, 16); ok {
			return nv, nil
		}
	}

	return nil, errors.New(errors.ErrCodeUnsupportedKind,
		"cannot store %T value in %s attribute", v, kind)
}

// Equal reports whether two canonical values of the same kind are equal.
// Used by the serialization layer to detect attributes still at their
// default value.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case []float64:
		bv, ok := b.([]float64)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []int64:
		bv, ok := b.([]int64)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case [][]float64:
		bv, ok := b.([][]float64)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case float32:
		return int64(n), true
	case float64:
		// JSON decodes every number as float64.
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toFloatSlice converts v to []float64. A non-negative want enforces an
// exact element count.
func toFloatSlice(v any, want int) ([]float64, bool) {
	var out []float64
	switch s := v.(type) {
	case []float64:
		out = append([]float64(nil), s...)
	case []int:
		out = make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
	case []int64:
		out = make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
	case []any:
		out = make([]float64, len(s))
		for i, e := range s {
			f, ok := toFloat64(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
	default:
		return nil, false
	}
	if want >= 0 && len(out) != want {
		return nil, false
	}
	return out, true
}

func toIntSlice(v any, want int) ([]int64, bool) {
	var out []int64
	switch s := v.(type) {
	case []int64:
		out = append([]int64(nil), s...)
	case []int:
		out = make([]int64, len(s))
		for i, n := range s {
			out[i] = int64(n)
		}
	case []float64:
		out = make([]int64, len(s))
		for i, n := range s {
			out[i] = int64(n)
		}
	case []any:
		out = make([]int64, len(s))
		for i, e := range s {
			n, ok := toInt64(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
	default:
		return nil, false
	}
	if want >= 0 && len(out) != want {
		return nil, false
	}
	return out, true
}

func toStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return append([]string(nil), s...), true
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}
		return out, true
	}
	return nil, false
}

// toNestedFloatSlice converts v to [][]float64 with fixed inner length.
func toNestedFloatSlice(v any, inner int) ([][]float64, bool) {
	switch s := v.(type) {
	case [][]float64:
		out := make([][]float64, len(s))
		for i, e := range s {
			if len(e) != inner {
				return nil, false
			}
			out[i] = append([]float64(nil), e...)
		}
		return out, true
	case []any:
		out := make([][]float64, len(s))
		for i, e := range s {
			f, ok := toFloatSlice(e, inner)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// FormatValue renders a canonical value for display in CLI tables and DOT
// labels. Slices are rendered compactly; nil renders as "-".
func FormatValue(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%v", v)
}
