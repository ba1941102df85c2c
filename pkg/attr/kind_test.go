package attr

import (
	"encoding/json"
	"testing"
)

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		name := k.String()
		if name == "invalid" {
			t.Fatalf("kind %d has no name", int(k))
		}
		parsed, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", name, err)
		}
		if parsed != k {
			t.Errorf("ParseKind(%q) = %v, want %v", name, parsed, k)
		}
	}
}

func TestParseKindUnknown(t *testing.T) {
	if _, err := ParseKind("quaternion"); err == nil {
		t.Error("ParseKind(quaternion) expected error")
	}
}

func TestKindJSON(t *testing.T) {
	data, err := json.Marshal(KindDouble3)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"double3"` {
		t.Errorf("marshal = %s, want %q", data, "double3")
	}

	var k Kind
	if err := json.Unmarshal([]byte(`"message"`), &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if k != KindMessage {
		t.Errorf("unmarshal = %v, want %v", k, KindMessage)
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind      Kind
		bounds    bool
		numeric   bool
		carries   bool
		component int
	}{
		{KindBool, false, true, true, 0},
		{KindInt, true, true, true, 0},
		{KindDouble, true, true, true, 0},
		{KindAngle, true, true, true, 0},
		{KindEnum, true, true, true, 0},
		{KindString, false, false, true, 0},
		{KindMatrix, false, false, true, 0},
		{KindDouble3, false, true, true, 3},
		{KindInt2, false, true, true, 2},
		{KindDouble4, false, true, true, 4},
		{KindIntArray, false, false, true, 0},
		{KindMessage, false, false, false, 0},
		{KindCompound, false, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.HasBounds(); got != tt.bounds {
				t.Errorf("HasBounds() = %v, want %v", got, tt.bounds)
			}
			if got := tt.kind.IsNumeric(); got != tt.numeric {
				t.Errorf("IsNumeric() = %v, want %v", got, tt.numeric)
			}
			if got := tt.kind.CarriesValue(); got != tt.carries {
				t.Errorf("CarriesValue() = %v, want %v", got, tt.carries)
			}
			if got := tt.kind.ComponentCount(); got != tt.component {
				t.Errorf("ComponentCount() = %v, want %v", got, tt.component)
			}
		})
	}
}

func TestElementKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want Kind
	}{
		{KindFloatArray, KindFloat},
		{KindDoubleArray, KindDouble},
		{KindIntArray, KindInt},
		{KindPointArray, KindDouble4},
		{KindVectorArray, KindDouble3},
		{KindStringArray, KindString},
		{KindMatrixArray, KindMatrix},
		{KindDouble, KindInvalid},
		{KindMessage, KindInvalid},
	}

	for _, tt := range tests {
		if got := tt.kind.ElementKind(); got != tt.want {
			t.Errorf("%v.ElementKind() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestDefaultValue(t *testing.T) {
	if v := KindBool.DefaultValue(); v != false {
		t.Errorf("bool default = %v", v)
	}
	if v := KindInt.DefaultValue(); v != int64(0) {
		t.Errorf("int default = %v", v)
	}
	if v := KindString.DefaultValue(); v != "" {
		t.Errorf("string default = %v", v)
	}
	m, ok := KindMatrix.DefaultValue().([]float64)
	if !ok || len(m) != 16 || m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Errorf("matrix default = %v, want identity", m)
	}
	v3, ok := KindDouble3.DefaultValue().([]float64)
	if !ok || len(v3) != 3 {
		t.Errorf("double3 default = %v", v3)
	}
	if v := KindMessage.DefaultValue(); v != nil {
		t.Errorf("message default = %v, want nil", v)
	}
}
