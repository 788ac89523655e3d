// Package docstore is an embedded, file-backed document store with a
// MongoDB-style API: collections of schemaless documents, a query
// predicate language ($eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $regex),
// update operators ($set, $unset, $inc), secondary indexes with optional
// uniqueness enforcement, and synchronous whole-set persistence through an
// injected DocumentStore.
//
// A minimal session:
//
//	db, err := docstore.Open("/tmp/data")
//	if err != nil { ... }
//	users := db.Collection("users")
//	doc, err := users.Insert(types.Document{"name": "Ada", "age": 36})
//	found, err := users.Find(types.Query{"age": map[string]any{"$gte": 30}}, types.FindOptions{})
//
// Every mutating operation rewrites the collection's entire backing file,
// so write cost is proportional to the collection size; callers needing
// throughput should batch. Secondary indexes enforce uniqueness but are
// never used to accelerate queries, which always scan.
package docstore
