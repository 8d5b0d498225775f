package service

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

// Stats aggregates counts for the tenant: total active documents, a
// breakdown per declared group field, and recent-window creation counts.
// Results are cached briefly; every mutation invalidates the entry.
func (r *Resource) Stats(ctx context.Context, tenant string) (domain.Document, error) {
	ctx, span := r.span(ctx, "stats", tenant)
	defer span.End()

	key := statsKey(tenant, r.desc.Name)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			if doc, ok := cached.(domain.Document); ok {
				return doc, nil
			}
		}
	}

	base := r.scoped(tenant)

	total, err := r.store.Count(ctx, r.desc.Collection, base)
	if err != nil {
		return nil, r.internal("aggregate", tenant, err)
	}

	out := domain.Document{"total": total}

	for _, field := range r.desc.StatsGroups {
		groups, err := r.store.CountGroups(ctx, r.desc.Collection, base, field)
		if err != nil {
			return nil, r.internal("aggregate", tenant, err)
		}
		out[groupKey(field)] = groups
	}

	now := time.Now().UTC()
	recent := domain.Document{}
	for label, window := range map[string]time.Duration{
		"last7Days":  7 * 24 * time.Hour,
		"last30Days": 30 * 24 * time.Hour,
	} {
		n, err := r.store.Count(ctx, r.desc.Collection,
			base.Where(domain.FieldCreatedAt, store.OpGte, now.Add(-window)))
		if err != nil {
			return nil, r.internal("aggregate", tenant, err)
		}
		recent[label] = n
	}
	out["recent"] = recent

	if r.cache != nil {
		r.cache.Set(key, out, statsTTL)
	}
	return out, nil
}

// groupKey turns a field name into its breakdown key: "status" becomes
// "byStatus".
func groupKey(field string) string {
	if field == "" {
		return "by"
	}
	return "by" + strings.ToUpper(field[:1]) + field[1:]
}
