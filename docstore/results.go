package docstore

import (
	"sort"

	"github.com/docstore/docstore/internal/values"
	"github.com/docstore/docstore/types"
)

// applyFindOptions post-processes a filtered result set in a fixed order:
// sort, skip, limit, projection. The input slice holds references into the
// collection's document set; the output never aliases stored documents.
func applyFindOptions(docs []types.Document, opts types.FindOptions) []types.Document {
	result := make([]types.Document, len(docs))
	copy(result, docs)

	if len(opts.Sort) > 0 {
		sortDocuments(result, opts.Sort)
	}

	if opts.Skip != nil && *opts.Skip > 0 {
		if *opts.Skip >= len(result) {
			result = result[:0]
		} else {
			result = result[*opts.Skip:]
		}
	}

	if opts.Limit != nil && *opts.Limit >= 0 && *opts.Limit < len(result) {
		result = result[:*opts.Limit]
	}

	out := make([]types.Document, len(result))
	for i, doc := range result {
		if len(opts.Projection) > 0 {
			out[i] = projectDocument(doc, opts.Projection)
		} else {
			out[i] = doc.Clone()
		}
	}
	return out
}

// sortDocuments performs a stable multi-key sort: keys are consulted in
// the order given, ties fall through to the next key, and the final tie
// keeps the documents' pre-sort relative order.
func sortDocuments(docs []types.Document, keys []types.SortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			cmp := compareForSort(docs[i][key.Field], docs[j][key.Field])
			if cmp == 0 {
				continue
			}
			if key.Descending() {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareForSort totally orders two field values: native ordering when the
// types allow it, otherwise the deterministic key form so mixed-type sorts
// stay stable across runs.
func compareForSort(a, b any) int {
	if cmp, ok := values.Compare(a, b); ok {
		return cmp
	}
	ak, bk := values.Key(a), values.Key(b)
	switch {
	case ak < bk:
		return -1
	case ak > bk:
		return 1
	default:
		return 0
	}
}

// projectDocument copies the requested fields out of a document. A field
// with a truthy flag is copied when present on the source; _id is carried
// whenever it is requested. The source document is never mutated.
func projectDocument(doc types.Document, projection map[string]any) types.Document {
	out := make(types.Document, len(projection))
	for field, flag := range projection {
		if !truthy(flag) {
			continue
		}
		if field == types.FieldID {
			if id := doc.ID(); id != "" {
				out[types.FieldID] = id
			}
			continue
		}
		if v, ok := doc[field]; ok {
			out[field] = v
		}
	}
	return out
}

func truthy(flag any) bool {
	switch v := flag.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	default:
		if n, ok := values.Numeric(v); ok {
			return n != 0
		}
		return true
	}
}
