package docstore

import (
	"strings"
	"testing"
	"time"

	"github.com/docstore/docstore/types"
)

func TestIDGeneratorUniqueness(t *testing.T) {
	gen := newIDGenerator(time.Now)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := gen.next()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIDGeneratorShape(t *testing.T) {
	gen := newIDGenerator(time.Now)
	id := gen.next()
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("id %q should have time, counter and random segments", id)
	}
	if parts[1] != "1" {
		t.Errorf("first counter segment = %q, want 1", parts[1])
	}
}

func TestSeedFromPersistedIDs(t *testing.T) {
	gen := newIDGenerator(time.Now)
	docs := []types.Document{
		{"_id": "18f0a-3-aabbccdd"},
		{"_id": "18f0a-7-00112233"},
		{"_id": "18f0a-5-99887766"},
	}
	gen.seed(docs)

	id := gen.next()
	if !strings.Contains(id, "-8-") {
		t.Fatalf("id %q should continue strictly above the highest persisted counter 7", id)
	}
}

func TestSeedFallsBackToDocumentCount(t *testing.T) {
	gen := newIDGenerator(time.Now)
	docs := []types.Document{
		{"_id": "opaque"},
		{"_id": "also-opaque"},
	}
	gen.seed(docs)
	if gen.counter != 3 {
		t.Fatalf("counter = %d, want len(docs)+1 = 3", gen.counter)
	}
}
