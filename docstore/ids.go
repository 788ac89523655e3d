package docstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docstore/docstore/types"
	"github.com/google/uuid"
)

// idGenerator produces collection-local identifiers of the form
// <unix-ms hex>-<counter>-<random>. The counter makes ids unique within
// the generator's lifetime and the random fragment guards against two
// collections stamping documents in the same millisecond.
type idGenerator struct {
	counter uint64
	now     func() time.Time
}

func newIDGenerator(now func() time.Time) *idGenerator {
	return &idGenerator{now: now}
}

func (g *idGenerator) next() string {
	g.counter++
	// First group of a v4 UUID: 8 hex chars of entropy is plenty here.
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%x-%d-%s", g.now().UnixMilli(), g.counter, suffix)
}

// seed re-bases the counter above any counter value parsable from the
// persisted ids, so ids generated after a reload never collide with ones
// already on disk. When nothing parses, the document count is the bound.
func (g *idGenerator) seed(docs []types.Document) {
	var highest uint64
	parsed := false
	for _, doc := range docs {
		parts := strings.Split(doc.ID(), "-")
		if len(parts) < 3 {
			continue
		}
		n, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			continue
		}
		parsed = true
		if n > highest {
			highest = n
		}
	}
	if parsed {
		g.counter = highest
	} else {
		g.counter = uint64(len(docs)) + 1
	}
}
