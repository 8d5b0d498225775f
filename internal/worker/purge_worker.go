package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/featureflags"
	"github.com/yourorg/workstream/internal/observability/metrics"
	"github.com/yourorg/workstream/internal/resource"
	"github.com/yourorg/workstream/internal/store"
)

// PurgeWorker permanently removes soft-deleted documents once they age past
// the retention window. Only resources declared soft-delete are touched;
// hard-delete resources never leave trash behind.
type PurgeWorker struct {
	store     store.Store
	catalog   map[string]resource.Descriptor
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
}

func NewPurgeWorker(st store.Store, catalog map[string]resource.Descriptor, logger *slog.Logger, interval, retention time.Duration) *PurgeWorker {
	return &PurgeWorker{
		store:     st,
		catalog:   catalog,
		logger:    logger,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the purge loop. It runs until the context is cancelled.
func (w *PurgeWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("purge worker started",
		slog.Duration("interval", w.interval),
		slog.Duration("retention", w.retention))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("purge worker stopped")
			return
		case <-ticker.C:
			w.purgeExpiredTrash(ctx)
		}
	}
}

func (w *PurgeWorker) purgeExpiredTrash(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.retention)
	dryRun := featureflags.Enabled("purge_dry_run")

	for _, desc := range w.catalog {
		if desc.Delete != resource.SoftDelete {
			continue
		}

		q := store.Query{}.
			Where(domain.FieldIsDeleted, store.OpEq, true).
			Where(domain.FieldDeletedAt, store.OpLte, cutoff)

		if dryRun {
			count, err := w.store.Count(ctx, desc.Collection, q)
			if err != nil {
				w.logger.Error("purge dry run count failed",
					slog.String("resource", desc.Name),
					slog.String("error", err.Error()))
				continue
			}
			w.logger.Info("purge dry run",
				slog.String("resource", desc.Name),
				slog.Int64("would_purge", count))
			continue
		}

		removed, err := w.store.DeleteMany(ctx, desc.Collection, q)
		if err != nil {
			w.logger.Error("purge failed",
				slog.String("resource", desc.Name),
				slog.String("error", err.Error()))
			metrics.ObservePurge(desc.Name, "error", 0)
			continue
		}
		if removed > 0 {
			w.logger.Info("purged soft-deleted documents",
				slog.String("resource", desc.Name),
				slog.Int64("count", removed))
		}
		metrics.ObservePurge(desc.Name, "success", removed)
	}
}
