package docstore

import (
	"testing"

	"github.com/docstore/docstore/types"
)

func mustMatch(t *testing.T, doc types.Document, q types.Query) bool {
	t.Helper()
	ok, err := matchDocument(doc, q)
	if err != nil {
		t.Fatalf("unexpected match error: %v", err)
	}
	return ok
}

func TestMatchEmptyQueryMatchesEverything(t *testing.T) {
	if !mustMatch(t, types.Document{"a": 1}, types.Query{}) {
		t.Fatal("empty query should match any document")
	}
	if !mustMatch(t, types.Document{}, types.Query{}) {
		t.Fatal("empty query should match an empty document")
	}
}

func TestMatchLiteralEquality(t *testing.T) {
	doc := types.Document{"name": "Ada", "age": float64(36), "active": true, "note": nil}

	cases := []struct {
		name  string
		query types.Query
		want  bool
	}{
		{"string equal", types.Query{"name": "Ada"}, true},
		{"string not equal", types.Query{"name": "Bob"}, false},
		{"number equal across int and float", types.Query{"age": 36}, true},
		{"bool equal", types.Query{"active": true}, true},
		{"null equal", types.Query{"note": nil}, true},
		{"missing field never matches a literal", types.Query{"ghost": "x"}, false},
		{"missing field never matches null", types.Query{"ghost": nil}, false},
		{"two fields AND", types.Query{"name": "Ada", "age": 36}, true},
		{"two fields AND with one miss", types.Query{"name": "Ada", "age": 35}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustMatch(t, doc, tc.query); got != tc.want {
				t.Errorf("query %v: got %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestMatchImplicitIn(t *testing.T) {
	doc := types.Document{"status": "open"}
	if !mustMatch(t, doc, types.Query{"status": []any{"open", "closed"}}) {
		t.Fatal("slice condition should behave as $in")
	}
	if mustMatch(t, doc, types.Query{"status": []any{"stale", "closed"}}) {
		t.Fatal("value outside the slice should not match")
	}
}

func TestMatchComparisonOperators(t *testing.T) {
	doc := types.Document{"age": float64(30), "name": "carol"}

	cases := []struct {
		name  string
		query types.Query
		want  bool
	}{
		{"gt true", types.Query{"age": map[string]any{"$gt": 25}}, true},
		{"gt false on equal", types.Query{"age": map[string]any{"$gt": 30}}, false},
		{"gte on equal", types.Query{"age": map[string]any{"$gte": 30}}, true},
		{"lt", types.Query{"age": map[string]any{"$lt": 40}}, true},
		{"lte false", types.Query{"age": map[string]any{"$lte": 29}}, false},
		{"lexicographic text ordering", types.Query{"name": map[string]any{"$gt": "bob"}}, true},
		{"missing field fails gracefully", types.Query{"ghost": map[string]any{"$gt": 1}}, false},
		{"incomparable types fail gracefully", types.Query{"name": map[string]any{"$gt": 5}}, false},
		{"operators AND within a field", types.Query{"age": map[string]any{"$gt": 25, "$lt": 35}}, true},
		{"operators AND within a field, one fails", types.Query{"age": map[string]any{"$gt": 25, "$lt": 30}}, false},
		{"eq operator", types.Query{"age": map[string]any{"$eq": 30}}, true},
		{"ne operator", types.Query{"age": map[string]any{"$ne": 31}}, true},
		{"ne on missing field holds", types.Query{"ghost": map[string]any{"$ne": 1}}, true},
		{"in operator", types.Query{"age": map[string]any{"$in": []any{29, 30}}}, true},
		{"nin operator", types.Query{"age": map[string]any{"$nin": []any{29, 31}}}, true},
		{"nin on missing field holds", types.Query{"ghost": map[string]any{"$nin": []any{1}}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustMatch(t, doc, tc.query); got != tc.want {
				t.Errorf("query %v: got %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestMatchRegex(t *testing.T) {
	doc := types.Document{"email": "Ada@Example.com"}

	if !mustMatch(t, doc, types.Query{"email": map[string]any{"$regex": "@example", "$options": "i"}}) {
		t.Fatal("case-insensitive regex should match")
	}
	if mustMatch(t, doc, types.Query{"email": map[string]any{"$regex": "@example"}}) {
		t.Fatal("case-sensitive regex should not match")
	}
	if mustMatch(t, doc, types.Query{"missing": map[string]any{"$regex": "x"}}) {
		t.Fatal("regex against a missing field should not match")
	}
}

func TestMatchInvalidRegexSurfacesError(t *testing.T) {
	_, err := matchDocument(types.Document{"a": "x"}, types.Query{"a": map[string]any{"$regex": "("}})
	if err == nil {
		t.Fatal("expected an error for an invalid pattern")
	}
}

func TestMatchTopLevelOperatorKeysIgnored(t *testing.T) {
	doc := types.Document{"a": float64(1)}
	q := types.Query{"$comment": "future combinator", "a": 1}
	if !mustMatch(t, doc, q) {
		t.Fatal("reserved top-level keys must not affect matching")
	}
}

func TestMatchNestedMapLiteral(t *testing.T) {
	doc := types.Document{"meta": map[string]any{"k": "v"}}
	if !mustMatch(t, doc, types.Query{"meta": map[string]any{"k": "v"}}) {
		t.Fatal("operator-free maps should compare as literals")
	}
	if mustMatch(t, doc, types.Query{"meta": map[string]any{"k": "other"}}) {
		t.Fatal("different nested map should not match")
	}
}
