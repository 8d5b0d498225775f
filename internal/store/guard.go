package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/observability/metrics"
	"github.com/yourorg/workstream/internal/reliability/circuitbreaker"
)

// Guarded decorates a Store with a circuit breaker and per-operation
// metrics. When the backing store fails repeatedly, calls fast-fail with
// ErrOpen instead of piling up on a dead database.
type Guarded struct {
	inner   Store
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// Guard wraps a store. Five consecutive failures trip the circuit; after a
// ten second cooldown two probe successes close it again.
func Guard(inner Store, logger *slog.Logger) *Guarded {
	cb := circuitbreaker.New(5, 2, 10*time.Second)
	cb.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warn("store circuit state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &Guarded{inner: inner, breaker: cb, logger: logger}
}

func (g *Guarded) observe(op string, fn func() error) error {
	start := time.Now()
	err := g.breaker.Execute(fn)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObserveStoreOp(op, result, time.Since(start))
	return err
}

func (g *Guarded) Find(ctx context.Context, collection string, q Query, opts FindOptions) ([]domain.Document, error) {
	var out []domain.Document
	err := g.observe("find", func() error {
		var err error
		out, err = g.inner.Find(ctx, collection, q, opts)
		return err
	})
	return out, err
}

func (g *Guarded) FindOne(ctx context.Context, collection string, q Query) (domain.Document, error) {
	var out domain.Document
	err := g.observe("find_one", func() error {
		doc, err := g.inner.FindOne(ctx, collection, q)
		if err == ErrNoDocument {
			// An empty result is an answer, not a store failure.
			out = nil
			return nil
		}
		out = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNoDocument
	}
	return out, nil
}

func (g *Guarded) InsertOne(ctx context.Context, collection string, doc domain.Document) (string, error) {
	var id string
	err := g.observe("insert_one", func() error {
		var err error
		id, err = g.inner.InsertOne(ctx, collection, doc)
		return err
	})
	return id, err
}

func (g *Guarded) UpdateOne(ctx context.Context, collection string, q Query, set domain.Document) (int64, error) {
	var matched int64
	err := g.observe("update_one", func() error {
		var err error
		matched, err = g.inner.UpdateOne(ctx, collection, q, set)
		return err
	})
	return matched, err
}

func (g *Guarded) DeleteOne(ctx context.Context, collection string, q Query) (int64, error) {
	var deleted int64
	err := g.observe("delete_one", func() error {
		var err error
		deleted, err = g.inner.DeleteOne(ctx, collection, q)
		return err
	})
	return deleted, err
}

func (g *Guarded) DeleteMany(ctx context.Context, collection string, q Query) (int64, error) {
	var deleted int64
	err := g.observe("delete_many", func() error {
		var err error
		deleted, err = g.inner.DeleteMany(ctx, collection, q)
		return err
	})
	return deleted, err
}

func (g *Guarded) Count(ctx context.Context, collection string, q Query) (int64, error) {
	var n int64
	err := g.observe("count", func() error {
		var err error
		n, err = g.inner.Count(ctx, collection, q)
		return err
	})
	return n, err
}

func (g *Guarded) CountGroups(ctx context.Context, collection string, q Query, field string) (map[string]int64, error) {
	var groups map[string]int64
	err := g.observe("count_groups", func() error {
		var err error
		groups, err = g.inner.CountGroups(ctx, collection, q, field)
		return err
	})
	return groups, err
}

func (g *Guarded) ValidID(id string) bool { return g.inner.ValidID(id) }

func (g *Guarded) Ping(ctx context.Context) error { return g.inner.Ping(ctx) }

func (g *Guarded) Close(ctx context.Context) error { return g.inner.Close(ctx) }
