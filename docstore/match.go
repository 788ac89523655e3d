package docstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docstore/docstore/internal/values"
	"github.com/docstore/docstore/types"
)

// matchDocument reports whether a document satisfies every per-field
// condition in the query. An empty query matches every document.
// Top-level keys starting with "$" are reserved for future logical
// combinators and are skipped. The only error path is a condition that
// cannot be evaluated at all, such as an invalid $regex pattern.
func matchDocument(doc types.Document, q types.Query) (bool, error) {
	for field, cond := range q {
		if strings.HasPrefix(field, "$") {
			continue
		}
		val, present := doc[field]
		ok, err := matchField(val, present, cond)
		if err != nil {
			return false, fmt.Errorf("field %q: %w", field, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchField(val any, present bool, cond any) (bool, error) {
	switch c := cond.(type) {
	case []any:
		// A bare slice is an implicit $in.
		return present && containsValue(c, val), nil
	case []string:
		if !present {
			return false, nil
		}
		s, ok := val.(string)
		if !ok {
			return false, nil
		}
		for _, candidate := range c {
			if s == candidate {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		if hasQueryOperator(c) {
			return matchOperators(val, present, c)
		}
		// A plain nested map compares as a literal value.
		return present && values.Equal(val, c), nil
	case types.Document:
		return matchField(val, present, map[string]any(c))
	default:
		return present && values.Equal(val, c), nil
	}
}

func hasQueryOperator(m map[string]any) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

// matchOperators evaluates an operator mapping against a field value.
// Every operator present must hold. Comparison operators on a missing
// field, or across incomparable types, simply fail the match.
func matchOperators(val any, present bool, ops map[string]any) (bool, error) {
	for op, operand := range ops {
		switch op {
		case "$eq":
			if !present || !values.Equal(val, operand) {
				return false, nil
			}
		case "$ne":
			if present && values.Equal(val, operand) {
				return false, nil
			}
		case "$gt", "$gte", "$lt", "$lte":
			if !present {
				return false, nil
			}
			cmp, comparable := values.Compare(val, operand)
			if !comparable {
				return false, nil
			}
			var ok bool
			switch op {
			case "$gt":
				ok = cmp > 0
			case "$gte":
				ok = cmp >= 0
			case "$lt":
				ok = cmp < 0
			case "$lte":
				ok = cmp <= 0
			}
			if !ok {
				return false, nil
			}
		case "$in":
			members, err := operandSlice(op, operand)
			if err != nil {
				return false, err
			}
			if !present || !containsValue(members, val) {
				return false, nil
			}
		case "$nin":
			members, err := operandSlice(op, operand)
			if err != nil {
				return false, err
			}
			if present && containsValue(members, val) {
				return false, nil
			}
		case "$regex":
			ok, err := matchRegex(val, present, operand, ops["$options"])
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		case "$options":
			// Consumed alongside $regex.
		default:
			// Unrecognized operators impose no constraint.
		}
	}
	return true, nil
}

func matchRegex(val any, present bool, pattern, options any) (bool, error) {
	expr, ok := pattern.(string)
	if !ok {
		return false, fmt.Errorf("$regex pattern must be a string, got %T", pattern)
	}
	if flags, ok := options.(string); ok && flags != "" {
		var set strings.Builder
		for _, f := range []struct {
			flag rune
			mode string
		}{{'i', "i"}, {'m', "m"}, {'s', "s"}} {
			if strings.ContainsRune(flags, f.flag) {
				set.WriteString(f.mode)
			}
		}
		if set.Len() > 0 {
			expr = "(?" + set.String() + ")" + expr
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, fmt.Errorf("invalid $regex pattern: %w", err)
	}
	s, isString := val.(string)
	if !present || !isString {
		return false, nil
	}
	return re.MatchString(s), nil
}

func operandSlice(op string, operand any) ([]any, error) {
	switch members := operand.(type) {
	case []any:
		return members, nil
	case []string:
		out := make([]any, len(members))
		for i, m := range members {
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s requires a list, got %T", op, operand)
	}
}

func containsValue(members []any, val any) bool {
	for _, m := range members {
		if values.Equal(val, m) {
			return true
		}
	}
	return false
}
