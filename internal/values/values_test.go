package values_test

import (
	"testing"

	"github.com/docstore/docstore/internal/values"
)

func TestEqualAcrossNumericTypes(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{1, float64(1), true},
		{int64(2), 2, true},
		{1, float64(1.5), false},
		{"1", 1, false},
		{nil, nil, true},
		{nil, 0, false},
		{true, true, true},
		{true, 1, false},
		{"a", "a", true},
		{[]any{1, "x"}, []any{1, "x"}, true},
		{map[string]any{"k": "v"}, map[string]any{"k": "v"}, true},
	}
	for _, tc := range cases {
		if got := values.Equal(tc.a, tc.b); got != tc.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompare(t *testing.T) {
	if cmp, ok := values.Compare(1, float64(2)); !ok || cmp != -1 {
		t.Errorf("Compare(1, 2.0) = %d, %v", cmp, ok)
	}
	if cmp, ok := values.Compare("b", "a"); !ok || cmp != 1 {
		t.Errorf("Compare(b, a) = %d, %v", cmp, ok)
	}
	if _, ok := values.Compare("a", 1); ok {
		t.Error("mixed types must be incomparable")
	}
	if _, ok := values.Compare(nil, 1); ok {
		t.Error("nil must be incomparable")
	}
}

func TestKeyDistinguishesTypes(t *testing.T) {
	if values.Key("1") == values.Key(1) {
		t.Error("the string \"1\" and the number 1 must not collide")
	}
	if values.Key(1) != values.Key(float64(1)) {
		t.Error("1 and 1.0 must produce the same key")
	}
	if values.Key(nil) == values.Key("") {
		t.Error("nil and the empty string must not collide")
	}
}
