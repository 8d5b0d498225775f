package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yourorg/workstream/internal/observability/metrics"
	"github.com/yourorg/workstream/internal/reliability/retry"
	"github.com/yourorg/workstream/internal/service"
)

const syncTimeout = 5 * time.Second

// Broadcaster refreshes the first list page for a tenant's room after a
// mutation. The refresh is best effort: it runs off the request path,
// retries transient store failures, and only logs when it gives up. The
// acknowledgement to the mutating client never waits on it.
type Broadcaster struct {
	registry *service.Registry
	hub      *Hub
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewBroadcaster(reg *service.Registry, hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: reg, hub: hub, logger: logger}
}

// Sync schedules a list refresh broadcast for one resource and tenant.
func (b *Broadcaster) Sync(resourceName, companyID string) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.sync(resourceName, companyID)
	}()
}

func (b *Broadcaster) sync(resourceName, companyID string) {
	res, ok := b.registry.Get(resourceName)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	page, err := retry.Do(ctx, retry.DefaultConfig(), b.logger, "list refresh",
		func(ctx context.Context) (service.Page, error) {
			return res.List(ctx, companyID, service.ListFilters{Page: 1, Limit: service.DefaultPageSize})
		})
	if err != nil {
		b.logger.Error("list refresh failed",
			slog.String("resource", resourceName),
			slog.String("company_id", companyID),
			slog.String("error", err.Error()))
		metrics.ObserveBroadcast(resourceName, "error")
		return
	}

	frame := Response{Event: resourceName + ":list-update", Done: true, Data: page}
	if err := b.hub.Publish(ctx, RoomForTenant(companyID), frame); err != nil {
		b.logger.Error("list refresh broadcast failed",
			slog.String("resource", resourceName),
			slog.String("error", err.Error()))
		metrics.ObserveBroadcast(resourceName, "error")
		return
	}
	metrics.ObserveBroadcast(resourceName, "success")
}

// Wait blocks until every scheduled refresh has finished. Tests and
// shutdown use it to drain in-flight broadcasts.
func (b *Broadcaster) Wait() {
	b.wg.Wait()
}
