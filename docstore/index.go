package docstore

import (
	"github.com/docstore/docstore/internal/values"
	"github.com/docstore/docstore/types"
)

// Index maintains a value-to-id-set mapping for one field. Unique indexes
// additionally enforce that every value maps to at most one live document.
// Sparse is stored for compatibility but does not change behavior.
//
// Indexes are owned by their collection and kept in sync with every
// insert, update and delete for the collection's lifetime. They are never
// consulted by the query path, which always scans the full document set.
type Index struct {
	Field  string
	Unique bool
	Sparse bool

	// Values maps the normalized field value to the ids holding it.
	// An entry is removed as soon as its last id is removed.
	Values map[string]map[string]struct{}
}

// buildIndex scans the current document set once, inserting every id under
// its field value. Documents lacking the field are skipped. Building a
// unique index over existing duplicates fails, since the at-most-one-id
// invariant could not hold from the start.
func buildIndex(field string, opts types.IndexOptions, docs []types.Document) (*Index, error) {
	ix := &Index{
		Field:  field,
		Unique: opts.Unique,
		Sparse: opts.Sparse,
		Values: make(map[string]map[string]struct{}),
	}
	for _, doc := range docs {
		v, ok := doc[field]
		if !ok {
			continue
		}
		if ix.Unique && len(ix.Values[values.Key(v)]) > 0 {
			return nil, &types.UniquenessError{Field: field, Value: v}
		}
		ix.add(doc)
	}
	return ix, nil
}

// add records the document's id under its field value, if the field is
// present.
func (ix *Index) add(doc types.Document) {
	v, ok := doc[ix.Field]
	if !ok {
		return
	}
	key := values.Key(v)
	ids := ix.Values[key]
	if ids == nil {
		ids = make(map[string]struct{})
		ix.Values[key] = ids
	}
	ids[doc.ID()] = struct{}{}
}

// remove drops the document's id from its value entry, deleting the entry
// outright when the last id is gone.
func (ix *Index) remove(doc types.Document) {
	v, ok := doc[ix.Field]
	if !ok {
		return
	}
	key := values.Key(v)
	ids := ix.Values[key]
	if ids == nil {
		return
	}
	delete(ids, doc.ID())
	if len(ids) == 0 {
		delete(ix.Values, key)
	}
}

// refresh re-registers a document that changed state. It runs remove(old)
// then add(new) unconditionally, even when the indexed value did not
// change; callers must not special-case unchanged fields.
func (ix *Index) refresh(old, next types.Document) {
	ix.remove(old)
	ix.add(next)
}

// validateUnique checks a prospective document state against every unique
// index before any document or index mutation commits. excludeID names the
// document being updated so it does not conflict with itself; inserts pass
// "".
func validateUnique(indexes []*Index, doc types.Document, excludeID string) error {
	for _, ix := range indexes {
		if !ix.Unique {
			continue
		}
		v, ok := doc[ix.Field]
		if !ok {
			continue
		}
		for id := range ix.Values[values.Key(v)] {
			if id != excludeID {
				return &types.UniquenessError{Field: ix.Field, Value: v}
			}
		}
	}
	return nil
}
