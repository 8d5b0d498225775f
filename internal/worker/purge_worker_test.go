package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/resource"
	"github.com/yourorg/workstream/internal/store"
	"github.com/yourorg/workstream/internal/store/memory"
)

func insertDeal(t *testing.T, st *memory.Store, deleted bool, deletedAt time.Time) string {
	t.Helper()
	doc := domain.Document{
		"name":      "x",
		"companyId": "acme_corp",
		"isDeleted": deleted,
	}
	if deleted {
		doc["deletedAt"] = deletedAt
	}
	id, err := st.InsertOne(context.Background(), "deals", doc)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return id
}

func TestPurgeRemovesOnlyExpiredTrash(t *testing.T) {
	st := memory.New()
	now := time.Now().UTC()

	insertDeal(t, st, false, time.Time{})
	insertDeal(t, st, true, now.Add(-48*time.Hour)) // past retention
	insertDeal(t, st, true, now.Add(-time.Hour))    // still in retention

	w := NewPurgeWorker(st, resource.Catalog(), slog.Default(), time.Minute, 24*time.Hour)
	w.purgeExpiredTrash(context.Background())

	remaining, err := st.Count(context.Background(), "deals", store.Query{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining = %d, want active doc plus recent trash", remaining)
	}

	trashed, _ := st.Count(context.Background(), "deals",
		store.Query{}.Where(domain.FieldIsDeleted, store.OpEq, true))
	if trashed != 1 {
		t.Errorf("trashed = %d, want only the recent one", trashed)
	}
}

func TestPurgeSkipsHardDeleteCollections(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	// A stray marked row in a hard-delete collection must not be touched;
	// the policy says hard-delete resources never accumulate trash.
	if _, err := st.InsertOne(ctx, "tickets", domain.Document{
		"subject":   "stray",
		"companyId": "acme_corp",
		"isDeleted": true,
		"deletedAt": time.Now().UTC().Add(-96 * time.Hour),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w := NewPurgeWorker(st, resource.Catalog(), slog.Default(), time.Minute, 24*time.Hour)
	w.purgeExpiredTrash(ctx)

	n, _ := st.Count(ctx, "tickets", store.Query{})
	if n != 1 {
		t.Errorf("tickets = %d, hard-delete collection should be untouched", n)
	}
}

func TestPurgeDryRunCountsWithoutDeleting(t *testing.T) {
	t.Setenv("FLAG_PURGE_DRY_RUN", "true")

	st := memory.New()
	insertDeal(t, st, true, time.Now().UTC().Add(-48*time.Hour))

	w := NewPurgeWorker(st, resource.Catalog(), slog.Default(), time.Minute, 24*time.Hour)
	w.purgeExpiredTrash(context.Background())

	n, _ := st.Count(context.Background(), "deals", store.Query{})
	if n != 1 {
		t.Errorf("deals = %d, dry run must not delete", n)
	}
}
