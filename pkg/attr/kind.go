package attr

import "fmt"

// Kind identifies one of the supported attribute value shapes.
// The set is closed: every slot is created with exactly one kind and the
// kind never changes for the lifetime of the slot.
type Kind int

// The attribute kind catalog. Scalar numeric kinds are followed by the
// fixed-size numeric vectors, unit kinds, data kinds, typed arrays, and the
// two structural kinds (compound, message).
const (
	KindInvalid Kind = iota

	// Scalars
	KindBool
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindInt64
	KindFloat
	KindDouble

	// Fixed-size numeric vectors
	KindDouble2
	KindFloat2
	KindInt2
	KindLong2
	KindShort2
	KindDouble3
	KindFloat3
	KindInt3
	KindLong3
	KindShort3
	KindDouble4

	// Unit scalars
	KindDistance
	KindAngle
	KindTime

	// Data kinds
	KindEnum
	KindString
	KindMatrix

	// Typed arrays
	KindFloatArray
	KindDoubleArray
	KindIntArray
	KindPointArray
	KindVectorArray
	KindStringArray
	KindMatrixArray

	// Structural kinds
	KindCompound
	KindMessage
)

var kindNames = map[Kind]string{
	KindBool:        "bool",
	KindByte:        "byte",
	KindChar:        "char",
	KindShort:       "short",
	KindInt:         "int",
	KindLong:        "long",
	KindInt64:       "int64",
	KindFloat:       "float",
	KindDouble:      "double",
	KindDouble2:     "double2",
	KindFloat2:      "float2",
	KindInt2:        "int2",
	KindLong2:       "long2",
	KindShort2:      "short2",
	KindDouble3:     "double3",
	KindFloat3:      "float3",
	KindInt3:        "int3",
	KindLong3:       "long3",
	KindShort3:      "short3",
	KindDouble4:     "double4",
	KindDistance:    "distance",
	KindAngle:       "angle",
	KindTime:        "time",
	KindEnum:        "enum",
	KindString:      "string",
	KindMatrix:      "matrix",
	KindFloatArray:  "floatArray",
	KindDoubleArray: "doubleArray",
	KindIntArray:    "intArray",
	KindPointArray:  "pointArray",
	KindVectorArray: "vectorArray",
	KindStringArray: "stringArray",
	KindMatrixArray: "matrixArray",
	KindCompound:    "compound",
	KindMessage:     "message",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// String returns the canonical lowercase name for the kind
// (e.g. "double3", "message"). Unknown kinds render as "invalid".
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// ParseKind resolves a canonical kind name back to its Kind.
// Returns KindInvalid and an error for unknown names.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return KindInvalid, fmt.Errorf("unknown attribute kind %q", name)
}

// MarshalText encodes the kind as its canonical name so that records
// serialize with readable kind strings rather than integers.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("cannot marshal invalid attribute kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a canonical kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindBool; k <= KindMessage; k++ {
		out = append(out, k)
	}
	return out
}

// IsIntScalar reports whether the kind stores a single integer value.
// Enum values are integer indices and count as integer scalars.
func (k Kind) IsIntScalar() bool {
	switch k {
	case KindByte, KindChar, KindShort, KindInt, KindLong, KindInt64, KindEnum:
		return true
	}
	return false
}

// IsFloatScalar reports whether the kind stores a single floating-point
// value. The unit kinds (distance, angle, time) store plain float64 values
// in their canonical unit.
func (k Kind) IsFloatScalar() bool {
	switch k {
	case KindFloat, KindDouble, KindDistance, KindAngle, KindTime:
		return true
	}
	return false
}

// IsNumeric reports whether the kind stores numeric data, including the
// fixed-size numeric vectors.
func (k Kind) IsNumeric() bool {
	return k.IsIntScalar() || k.IsFloatScalar() || k == KindBool || k.ComponentCount() > 0
}

// ComponentCount returns the number of vector components for the fixed-size
// numeric vector kinds (2, 3 or 4) and 0 for everything else.
func (k Kind) ComponentCount() int {
	switch k {
	case KindDouble2, KindFloat2, KindInt2, KindLong2, KindShort2:
		return 2
	case KindDouble3, KindFloat3, KindInt3, KindLong3, KindShort3:
		return 3
	case KindDouble4:
		return 4
	}
	return 0
}

// hasIntComponents reports whether a vector kind carries integer components.
func (k Kind) hasIntComponents() bool {
	switch k {
	case KindInt2, KindLong2, KindShort2, KindInt3, KindLong3, KindShort3:
		return true
	}
	return false
}

// HasBounds reports whether min/max/softMin/softMax metadata applies to the
// kind. Only scalar numeric, unit and enum kinds carry bounds; strings,
// matrices, arrays and structural kinds do not.
func (k Kind) HasBounds() bool {
	return k.IsIntScalar() || k.IsFloatScalar()
}

// IsTypedArray reports whether the kind is one of the typed-array data
// kinds. These hold a whole array as a single value, as opposed to sparse
// array slots which hold one element value per logical index.
func (k Kind) IsTypedArray() bool {
	return k >= KindFloatArray && k <= KindMatrixArray
}

// ElementKind returns the per-element kind for the typed-array kinds, and
// KindInvalid for every other kind.
func (k Kind) ElementKind() Kind {
	switch k {
	case KindFloatArray:
		return KindFloat
	case KindDoubleArray:
		return KindDouble
	case KindIntArray:
		return KindInt
	case KindPointArray:
		return KindDouble4
	case KindVectorArray:
		return KindDouble3
	case KindStringArray:
		return KindString
	case KindMatrixArray:
		return KindMatrix
	}
	return KindInvalid
}

// CarriesValue reports whether slots of this kind hold a value of their own.
// Message slots are edge-only: the existence of a connection is the
// information. Compound slots carry values only through their children.
func (k Kind) CarriesValue() bool {
	return k != KindMessage && k != KindCompound
}

// identityMatrix is the default value for matrix kinds.
var identityMatrix = []float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// DefaultValue returns the zero value stored in a freshly created slot of
// this kind: false, 0, empty string, identity matrix, or an empty slice for
// array kinds. Message and compound kinds default to nil.
func (k Kind) DefaultValue() any {
	switch {
	case k == KindBool:
		return false
	case k.IsIntScalar():
		return int64(0)
	case k.IsFloatScalar():
		return float64(0)
	case k == KindString:
		return ""
	case k == KindMatrix:
		return append([]float64(nil), identityMatrix...)
	case k.ComponentCount() > 0:
		if k.hasIntComponents() {
			return make([]int64, k.ComponentCount())
		}
		return make([]float64, k.ComponentCount())
	case k == KindFloatArray, k == KindDoubleArray:
		return []float64{}
	case k == KindIntArray:
		return []int64{}
	case k == KindStringArray:
		return []string{}
	case k == KindPointArray, k == KindVectorArray, k == KindMatrixArray:
		return [][]float64{}
	}
	return nil
}
