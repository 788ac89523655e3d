package docstore

import (
	"time"

	"github.com/docstore/docstore/internal/values"
	"github.com/docstore/docstore/types"
)

// updateOperators are the recognized update-expression operators. Their
// presence switches applyUpdate into operator mode.
var updateOperators = []string{"$set", "$unset", "$inc"}

func hasUpdateOperators(update types.Document) bool {
	for _, op := range updateOperators {
		if _, ok := update[op]; ok {
			return true
		}
	}
	return false
}

// applyUpdate computes a document's prospective new state without touching
// the original, so uniqueness can be validated before anything commits.
//
// Operator mode applies $set, then $unset, then $inc: a field named in
// both $set and $unset ends up removed, and $inc accumulates onto the
// current numeric value (missing or non-numeric counts as 0). Without any
// recognized operator the expression is a partial merge: named fields are
// overwritten, everything else is left alone.
//
// _id and _createdAt are never altered; _updatedAt is refreshed to now.
func applyUpdate(doc types.Document, update types.Document, now time.Time) types.Document {
	next := doc.Clone()
	if hasUpdateOperators(update) {
		if set, ok := asFieldMap(update["$set"]); ok {
			for field, v := range set {
				if !types.Reserved(field) {
					next[field] = v
				}
			}
		}
		for _, field := range unsetFields(update["$unset"]) {
			if !types.Reserved(field) {
				delete(next, field)
			}
		}
		if inc, ok := asFieldMap(update["$inc"]); ok {
			for field, delta := range inc {
				if types.Reserved(field) {
					continue
				}
				d, ok := values.Numeric(delta)
				if !ok {
					continue
				}
				current, _ := values.Numeric(next[field])
				next[field] = current + d
			}
		}
	} else {
		for field, v := range update {
			if !types.Reserved(field) {
				next[field] = v
			}
		}
	}
	next[types.FieldUpdatedAt] = now.UTC().Format(time.RFC3339Nano)
	return next
}

func asFieldMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case types.Document:
		return m, true
	default:
		return nil, false
	}
}

func unsetFields(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
