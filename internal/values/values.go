// Package values holds the scalar comparison helpers shared by the query
// matcher, the sorter and the index manager. Documents round-trip through
// JSON, so integers and floats must compare as the same number before and
// after a reload.
package values

import (
	"fmt"
	"reflect"
	"strconv"
)

// Numeric widens any numeric variant to float64.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Equal compares two document values. Numbers compare numerically across
// int/float variants; nested maps and slices fall back to deep equality.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := Numeric(a); ok {
		bn, ok := Numeric(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Compare orders two values: numerically when both are numbers,
// lexicographically when both are text. Mixed or non-scalar operands are
// incomparable and report ok=false.
func Compare(a, b any) (int, bool) {
	if an, aok := Numeric(a); aok {
		bn, bok := Numeric(b)
		if !bok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	default:
		return 0, true
	}
}

// Key derives a deterministic text key for a value, used to bucket index
// entries and to give mixed-type sorts a stable total order. The type tag
// keeps the string "1" distinct from the number 1.
func Key(v any) string {
	if v == nil {
		return "null:"
	}
	if n, ok := Numeric(v); ok {
		return "num:" + strconv.FormatFloat(n, 'g', -1, 64)
	}
	switch s := v.(type) {
	case string:
		return "str:" + s
	case bool:
		return "bool:" + strconv.FormatBool(s)
	default:
		return fmt.Sprintf("raw:%v", v)
	}
}
