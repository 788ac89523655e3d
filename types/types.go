// Package types defines the shared vocabulary of the document store:
// documents, queries, find/update/delete options, index options and the
// DocumentStore persistence contract.
package types

import (
	"errors"
	"fmt"
)

// Reserved document fields, owned exclusively by the collection.
const (
	FieldID        = "_id"
	FieldCreatedAt = "_createdAt"
	FieldUpdatedAt = "_updatedAt"
)

// Document is an open mapping from field name to value. Values are the
// JSON-compatible variants: nil, bool, float64 (or int before a round
// trip), string, map[string]any and []any. The reserved fields above are
// stamped by the collection and carry RFC3339Nano timestamps as text.
type Document map[string]any

// ID returns the document's identifier, or "" if it has not been assigned.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Clone returns a shallow copy of the document. Top-level fields can be
// added or removed on the copy without affecting the original.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Reserved reports whether a field name is owned by the collection and
// therefore never writable through inserts or updates.
func Reserved(field string) bool {
	return field == FieldID || field == FieldCreatedAt || field == FieldUpdatedAt
}

// Query is a mapping from field name to a match condition: a literal
// scalar, a slice of scalars (implicit $in), or an operator mapping
// ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $regex + $options).
// All per-field conditions must hold; an empty query matches everything.
// Top-level keys beginning with "$" are reserved and ignored.
type Query map[string]any

// SortKey is one entry of an ordered sort specification. Direction accepts
// 1, -1, "asc" or "desc"; anything else sorts ascending.
type SortKey struct {
	Field     string
	Direction any
}

// Descending reports whether the key sorts in descending order.
func (k SortKey) Descending() bool {
	switch d := k.Direction.(type) {
	case int:
		return d < 0
	case int64:
		return d < 0
	case float64:
		return d < 0
	case string:
		return d == "desc" || d == "DESC"
	default:
		return false
	}
}

// FindOptions configures post-filter processing of a result set.
// The stages run in a fixed order: sort, skip, limit, projection.
type FindOptions struct {
	// Sort lists keys in priority order; ties fall through to the next
	// key and the final tie preserves insertion order.
	Sort []SortKey

	// Skip drops the first N results. nil or negative means no skip;
	// values beyond the result length yield an empty result.
	Skip *int

	// Limit keeps at most N results. nil or negative means no limit;
	// 0 returns no results.
	Limit *int

	// Projection selects output fields: a field with a truthy flag is
	// copied into the result when present on the source document.
	// Fields not listed (or listed with a falsy flag) are omitted.
	Projection map[string]any
}

// UpdateOptions configures an update operation.
type UpdateOptions struct {
	// Multi selects how many matches are updated. Unset or true updates
	// every match; only an explicit false restricts to the first.
	Multi *bool

	// Upsert inserts the query's literal fields as a new document when
	// nothing matches, then applies the update to it.
	Upsert bool
}

// DeleteOptions configures a delete operation. Multi follows the same
// default-true convention as UpdateOptions.
type DeleteOptions struct {
	Multi *bool
}

// UpdateResult reports what an update operation did.
type UpdateResult struct {
	Modified int
	Upserted int
}

// IndexOptions configures a secondary index. Sparse is accepted and
// persisted but does not change matching behavior.
type IndexOptions struct {
	Unique bool
	Sparse bool
}

// DocumentStore is the injected persistence collaborator. Load returns the
// previously saved document sequence, degrading to an empty sequence (with
// a logged warning) when the backing resource is absent or unparsable.
// Save replaces the entire persisted set and must fail loudly.
type DocumentStore interface {
	Load() ([]Document, error)
	Save(docs []Document) error
}

// ErrUniqueViolation is the sentinel matched by errors.Is for any
// uniqueness failure raised by a unique index.
var ErrUniqueViolation = errors.New("unique constraint violation")

// UniquenessError reports which field and value collided under a unique
// index. It wraps ErrUniqueViolation.
type UniquenessError struct {
	Field string
	Value any
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("unique constraint violation: duplicate value %v for field %q", e.Value, e.Field)
}

func (e *UniquenessError) Unwrap() error {
	return ErrUniqueViolation
}
