package docstore

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docstore/docstore/docstore/storage"
	"github.com/docstore/docstore/types"
)

// Collection owns an ordered document set, its secondary indexes and an
// injected DocumentStore. Every public operation is a single synchronous
// unit of work: mutate in memory, keep indexes in sync, persist the full
// set once, return. Two Collection instances pointed at the same store
// will diverge; the later save wins.
type Collection struct {
	name    string
	store   types.DocumentStore
	docs    []types.Document
	indexes []*Index
	ids     *idGenerator
	locks   *storage.LockManager
	logger  *slog.Logger

	// timeFunc supplies timestamps; overridable for deterministic tests.
	timeFunc func() time.Time
}

// CollectionOption configures a Collection.
type CollectionOption func(*Collection)

// WithTimeFunc overrides the clock used for _createdAt/_updatedAt stamps
// and id generation.
func WithTimeFunc(fn func() time.Time) CollectionOption {
	return func(c *Collection) { c.timeFunc = fn }
}

// WithLogger sets the collection's logger.
func WithLogger(l *slog.Logger) CollectionOption {
	return func(c *Collection) { c.logger = l }
}

// NewCollection loads the persisted document set from the store and wires
// up the collection around it. A store read failure is recovered by
// starting from an empty set; the condition is logged, not returned, so a
// damaged file behaves like a fresh collection.
func NewCollection(name string, store types.DocumentStore, opts ...CollectionOption) *Collection {
	c := &Collection{
		name:     name,
		store:    store,
		locks:    storage.NewLockManager(),
		timeFunc: time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ids = newIDGenerator(c.timeFunc)

	docs, err := store.Load()
	if err != nil {
		c.logger.Warn("failed to load collection, starting empty",
			"collection", name, "error", err)
		docs = nil
	}
	c.docs = docs
	c.ids.seed(docs)
	return c
}

// Name returns the collection's name.
func (c *Collection) Name() string {
	return c.name
}

// newDocument clones the input and stamps the reserved fields. Any caller
// supplied values for reserved fields are discarded; the collection owns
// them exclusively.
func (c *Collection) newDocument(in types.Document) types.Document {
	doc := in.Clone()
	now := c.timeFunc().UTC().Format(time.RFC3339Nano)
	doc[types.FieldID] = c.ids.next()
	doc[types.FieldCreatedAt] = now
	doc[types.FieldUpdatedAt] = now
	return doc
}

// Insert adds one document: stamps _id/_createdAt/_updatedAt, validates
// uniqueness, appends, updates indexes and persists. The returned document
// is the stored state including the reserved fields.
func (c *Collection) Insert(doc types.Document) (types.Document, error) {
	inserted, err := c.InsertMany([]types.Document{doc})
	if err != nil {
		return nil, err
	}
	return inserted[0], nil
}

// InsertMany inserts a batch in input order and persists once afterwards.
// A uniqueness failure aborts the call, but documents accepted earlier in
// the same batch stay accepted and are persisted; the returned slice holds
// exactly the accepted documents. Callers needing all-or-nothing batches
// must pre-validate.
func (c *Collection) InsertMany(docs []types.Document) ([]types.Document, error) {
	result, err := c.locks.ExecuteWithResult(storage.WriteOperation, func() (any, error) {
		accepted := make([]types.Document, 0, len(docs))
		var failure error
		for _, in := range docs {
			doc := c.newDocument(in)
			if err := validateUnique(c.indexes, doc, ""); err != nil {
				failure = err
				break
			}
			c.docs = append(c.docs, doc)
			for _, ix := range c.indexes {
				ix.add(doc)
			}
			accepted = append(accepted, doc)
		}
		if len(accepted) > 0 {
			if err := c.store.Save(c.docs); err != nil {
				// Nothing reached disk: undo the in-memory batch so
				// memory and file stay in agreement.
				c.docs = c.docs[:len(c.docs)-len(accepted)]
				for _, doc := range accepted {
					for _, ix := range c.indexes {
						ix.remove(doc)
					}
				}
				return nil, fmt.Errorf("failed to save collection %q: %w", c.name, err)
			}
		}
		if failure != nil {
			return accepted, fmt.Errorf("insert into %q aborted: %w", c.name, failure)
		}
		return accepted, nil
	})
	accepted, _ := result.([]types.Document)
	if err != nil {
		return accepted, err
	}
	return accepted, nil
}

// Find returns every document matching the query, post-processed by the
// options (sort, skip, limit, projection, in that order). The query path
// never consults indexes; it always scans the full document set.
func (c *Collection) Find(q types.Query, opts types.FindOptions) ([]types.Document, error) {
	result, err := c.locks.ExecuteWithResult(storage.ReadOperation, func() (any, error) {
		matched, err := c.filter(q)
		if err != nil {
			return nil, err
		}
		return applyFindOptions(matched, opts), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.Document), nil
}

// FindOne returns the first match or nil. The options' limit is forced
// to 1.
func (c *Collection) FindOne(q types.Query, opts types.FindOptions) (types.Document, error) {
	one := 1
	opts.Limit = &one
	docs, err := c.Find(q, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Update applies an update expression to every match (or only the first
// when Multi is explicitly false). Each target's prospective state is
// validated against the unique indexes before its mutation commits, so a
// rejected target leaves documents and indexes untouched; targets already
// committed earlier in the batch stay committed. With Upsert set and no
// matches, the query's literal fields become a new document which the
// update is then applied to.
func (c *Collection) Update(q types.Query, update types.Document, opts types.UpdateOptions) (types.UpdateResult, error) {
	result, err := c.locks.ExecuteWithResult(storage.WriteOperation, func() (any, error) {
		var res types.UpdateResult

		targets, err := c.matchIndices(q)
		if err != nil {
			return res, err
		}

		if len(targets) == 0 {
			if !opts.Upsert {
				return res, nil
			}
			res, err := c.upsert(q, update)
			return res, err
		}

		if !multiEnabled(opts.Multi) {
			targets = targets[:1]
		}

		now := c.timeFunc()
		dirty := false
		for _, i := range targets {
			old := c.docs[i]
			next := applyUpdate(old, update, now)
			if err := validateUnique(c.indexes, next, old.ID()); err != nil {
				return res, c.finishWrite(dirty, fmt.Errorf("update in %q aborted: %w", c.name, err))
			}
			c.docs[i] = next
			for _, ix := range c.indexes {
				ix.refresh(old, next)
			}
			res.Modified++
			dirty = true
		}
		return res, c.finishWrite(dirty, nil)
	})
	res, _ := result.(types.UpdateResult)
	return res, err
}

// upsert inserts the query's literal fields as a new document and applies
// the update expression to it. Operator conditions and reserved top-level
// keys contribute no fields.
func (c *Collection) upsert(q types.Query, update types.Document) (types.UpdateResult, error) {
	var res types.UpdateResult

	seed := make(types.Document, len(q))
	for field, cond := range q {
		if strings.HasPrefix(field, "$") || types.Reserved(field) {
			continue
		}
		switch cond.(type) {
		case map[string]any, types.Document, []any, []string:
			// Not a literal value.
		default:
			seed[field] = cond
		}
	}

	doc := c.newDocument(seed)
	next := applyUpdate(doc, update, c.timeFunc())
	if err := validateUnique(c.indexes, next, ""); err != nil {
		return res, fmt.Errorf("upsert into %q aborted: %w", c.name, err)
	}
	c.docs = append(c.docs, next)
	for _, ix := range c.indexes {
		ix.add(next)
	}
	res.Upserted = 1
	return res, c.finishWrite(true, nil)
}

// Delete removes every match (or only the first when Multi is explicitly
// false) from the indexes and the document set, persisting once, and
// returns the number of documents deleted.
func (c *Collection) Delete(q types.Query, opts types.DeleteOptions) (int, error) {
	result, err := c.locks.ExecuteWithResult(storage.WriteOperation, func() (any, error) {
		targets, err := c.matchIndices(q)
		if err != nil {
			return 0, err
		}
		if len(targets) == 0 {
			return 0, nil
		}
		if !multiEnabled(opts.Multi) {
			targets = targets[:1]
		}

		// Walk backwards so earlier indices stay valid while splicing.
		deleted := 0
		for i := len(targets) - 1; i >= 0; i-- {
			idx := targets[i]
			doc := c.docs[idx]
			for _, ix := range c.indexes {
				ix.remove(doc)
			}
			c.docs = append(c.docs[:idx], c.docs[idx+1:]...)
			deleted++
		}
		return deleted, c.finishWrite(deleted > 0, nil)
	})
	n, _ := result.(int)
	return n, err
}

// Count returns the number of documents matching the query. No side
// effects; like Find, it scans rather than consulting indexes.
func (c *Collection) Count(q types.Query) (int, error) {
	result, err := c.locks.ExecuteWithResult(storage.ReadOperation, func() (any, error) {
		matched, err := c.filter(q)
		if err != nil {
			return 0, err
		}
		return len(matched), nil
	})
	n, _ := result.(int)
	return n, err
}

// RemoveAll discards every document unconditionally and persists the empty
// set. Indexes survive, emptied, and keep tracking later inserts.
func (c *Collection) RemoveAll() error {
	return c.locks.Execute(storage.WriteOperation, func() error {
		c.docs = nil
		for _, ix := range c.indexes {
			ix.Values = make(map[string]map[string]struct{})
		}
		return c.finishWrite(true, nil)
	})
}

// CreateIndex builds a secondary index on the field from the current
// document set and keeps it in sync with every later mutation. Creating a
// unique index over existing duplicate values fails.
func (c *Collection) CreateIndex(field string, opts types.IndexOptions) error {
	return c.locks.Execute(storage.WriteOperation, func() error {
		ix, err := buildIndex(field, opts, c.docs)
		if err != nil {
			return fmt.Errorf("failed to index %q on %q: %w", field, c.name, err)
		}
		c.indexes = append(c.indexes, ix)
		return nil
	})
}

// CreateUniqueIndex is CreateIndex with the unique option forced on.
func (c *Collection) CreateUniqueIndex(field string, opts types.IndexOptions) error {
	opts.Unique = true
	return c.CreateIndex(field, opts)
}

// filter returns the stored documents matching the query, in insertion
// order.
func (c *Collection) filter(q types.Query) ([]types.Document, error) {
	var matched []types.Document
	for _, doc := range c.docs {
		ok, err := matchDocument(doc, q)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

// matchIndices returns the positions of matching documents, in insertion
// order.
func (c *Collection) matchIndices(q types.Query) ([]int, error) {
	var targets []int
	for i, doc := range c.docs {
		ok, err := matchDocument(doc, q)
		if err != nil {
			return nil, err
		}
		if ok {
			targets = append(targets, i)
		}
	}
	return targets, nil
}

// finishWrite persists the document set when anything changed, preferring
// an earlier batch error over a save error but never swallowing either.
func (c *Collection) finishWrite(dirty bool, batchErr error) error {
	if !dirty {
		return batchErr
	}
	if err := c.store.Save(c.docs); err != nil {
		if batchErr != nil {
			return fmt.Errorf("%w (additionally failed to save: %v)", batchErr, err)
		}
		return fmt.Errorf("failed to save collection %q: %w", c.name, err)
	}
	return batchErr
}

func multiEnabled(multi *bool) bool {
	return multi == nil || *multi
}
