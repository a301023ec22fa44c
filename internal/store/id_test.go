package store

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewIDsAreUniqueUUIDs(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		for _, id := range []string{NewTaskID(), NewFileID()} {
			if _, err := uuid.Parse(id); err != nil {
				t.Fatalf("expected uuid, got %q: %v", id, err)
			}
			if _, ok := seen[id]; ok {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = struct{}{}
		}
	}
}
