// Package service implements the generic tenant-scoped resource engine:
// normalize, validate, persist, re-read. One Resource instance serves one
// descriptor; every operation is scoped to the caller's tenant and
// excludes soft-deleted documents.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/resource"
	"github.com/yourorg/workstream/internal/store"
	"github.com/yourorg/workstream/pkg/cache"
)

const (
	// DefaultPageSize is the page the broadcast synchronizer re-queries
	// after every mutation.
	DefaultPageSize = 10
	maxPageSize     = 100

	statsTTL = 30 * time.Second
)

// ListFilters carries the query surface of the getAll action.
type ListFilters struct {
	Page   int64
	Limit  int64
	Search string
	// Fields maps a declared filter field to accepted values; one value is
	// an exact match, several are set membership.
	Fields   map[string][]string
	From     *time.Time
	To       *time.Time
	SortBy   string
	SortAsc  bool
}

// Page is one page of documents plus the total count of matches.
type Page struct {
	Items []domain.Document `json:"items"`
	Total int64             `json:"total"`
	Page  int64             `json:"page"`
	Limit int64             `json:"limit"`
}

// Resource is the per-descriptor service instance.
type Resource struct {
	desc   resource.Descriptor
	store  store.Store
	logger *slog.Logger
	cache  *cache.Cache
	tracer trace.Tracer

	// seqMu serializes sequence-id allocation within this process; the
	// bounded retry in allocateSequence covers races between processes.
	seqMu sync.Mutex
}

// NewResource builds a service for one descriptor.
func NewResource(desc resource.Descriptor, st store.Store, logger *slog.Logger, c *cache.Cache) *Resource {
	return &Resource{
		desc:   desc,
		store:  st,
		logger: logger,
		cache:  c,
		tracer: otel.Tracer("workstream/service"),
	}
}

// Descriptor exposes the resource configuration to the gateway.
func (r *Resource) Descriptor() resource.Descriptor { return r.desc }

// scoped returns the base query every operation starts from: tenant match
// plus, for soft-delete resources, exclusion of deleted documents.
func (r *Resource) scoped(tenant string) store.Query {
	q := store.Query{}.Where(domain.FieldCompanyID, store.OpEq, tenant)
	if r.desc.Delete == resource.SoftDelete {
		q = q.Where(domain.FieldIsDeleted, store.OpNe, true)
	}
	return q
}

func (r *Resource) span(ctx context.Context, op, tenant string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, r.desc.Name+"."+op,
		trace.WithAttributes(attribute.String("company_id", tenant)))
}

// Create normalizes and validates input, assigns identity fields, persists
// the document and returns the canonical stored form.
func (r *Resource) Create(ctx context.Context, tenant string, input domain.Document) (domain.Document, error) {
	ctx, span := r.span(ctx, "create", tenant)
	defer span.End()

	doc := resource.Normalize(r.desc, input)
	if msg := resource.Validate(r.desc, doc); msg != "" {
		return nil, domain.Validation(msg)
	}

	now := time.Now().UTC()
	doc[domain.FieldCompanyID] = tenant
	doc[domain.FieldCreatedAt] = now
	doc[domain.FieldUpdatedAt] = now
	if r.desc.Delete == resource.SoftDelete {
		doc[domain.FieldIsDeleted] = false
	}

	if r.desc.Seq != nil {
		seq, err := r.allocateSequence(ctx, tenant)
		if err != nil {
			return nil, err
		}
		doc[r.desc.Seq.Field] = seq
	}

	id, err := r.store.InsertOne(ctx, r.desc.Collection, doc)
	if err != nil {
		r.logger.Error("create failed",
			slog.String("resource", r.desc.Name),
			slog.String("company_id", tenant),
			slog.String("error", err.Error()),
		)
		return nil, domain.Internal(fmt.Sprintf("failed to create %s", strings.ToLower(r.desc.Label)), err)
	}

	r.invalidateStats(tenant)
	return r.fetch(ctx, tenant, id)
}

// List returns one page of active documents matching the filters, newest
// created first unless the caller sorts otherwise.
func (r *Resource) List(ctx context.Context, tenant string, f ListFilters) (Page, error) {
	ctx, span := r.span(ctx, "list", tenant)
	defer span.End()

	q := r.scoped(tenant)

	for _, field := range r.desc.FilterFields {
		values := f.Fields[field]
		switch {
		case len(values) == 1:
			q = q.Where(field, store.OpEq, values[0])
		case len(values) > 1:
			q = q.Where(field, store.OpIn, values)
		}
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		for _, field := range r.desc.SearchFields {
			q = q.OrWhere(field, store.OpContains, search)
		}
	}

	if r.desc.DateField != "" {
		if f.From != nil {
			q = q.Where(r.desc.DateField, store.OpGte, f.From.UTC())
		}
		if f.To != nil {
			q = q.Where(r.desc.DateField, store.OpLte, f.To.UTC())
		}
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	sortField := domain.FieldCreatedAt
	sortDesc := true
	if f.SortBy != "" {
		if _, ok := r.desc.FieldByName(f.SortBy); ok || f.SortBy == domain.FieldCreatedAt || f.SortBy == domain.FieldUpdatedAt {
			sortField = f.SortBy
			sortDesc = !f.SortAsc
		}
	}

	total, err := r.store.Count(ctx, r.desc.Collection, q)
	if err != nil {
		return Page{}, r.internal("list", tenant, err)
	}

	items, err := r.store.Find(ctx, r.desc.Collection, q, store.FindOptions{
		SortField: sortField,
		SortDesc:  sortDesc,
		Skip:      (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return Page{}, r.internal("list", tenant, err)
	}
	if items == nil {
		items = []domain.Document{}
	}

	return Page{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Get returns one active document by id. A malformed id is rejected
// without touching the store.
func (r *Resource) Get(ctx context.Context, tenant, id string) (domain.Document, error) {
	ctx, span := r.span(ctx, "get", tenant)
	defer span.End()

	if !r.store.ValidID(id) {
		return nil, domain.NotFound(r.desc.Label)
	}
	return r.fetch(ctx, tenant, id)
}

// Update applies a partial patch: only fields present in the patch are
// normalized and written, derived fields are recomputed from the merged
// document, and the write is scoped to (id, tenant, active) so a
// soft-deleted or cross-tenant document can never match.
func (r *Resource) Update(ctx context.Context, tenant, id string, patch domain.Document) (domain.Document, error) {
	ctx, span := r.span(ctx, "update", tenant)
	defer span.End()

	if !r.store.ValidID(id) {
		return nil, domain.NotFound(r.desc.Label)
	}

	current, err := r.fetch(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	set := resource.NormalizePatch(r.desc, patch)

	merged := current.Clone()
	for k, v := range set {
		merged[k] = v
	}
	if r.desc.Derive != nil {
		r.desc.Derive(merged)
		for _, field := range r.desc.DerivedFields {
			set[field] = merged[field]
		}
	}

	if msg := resource.ValidatePatch(r.desc, set, merged); msg != "" {
		return nil, domain.Validation(msg)
	}

	set[domain.FieldUpdatedAt] = time.Now().UTC()

	matched, err := r.store.UpdateOne(ctx, r.desc.Collection, r.scoped(tenant).Where(domain.FieldID, store.OpEq, id), set)
	if err != nil {
		return nil, r.internal("update", tenant, err)
	}
	if matched == 0 {
		return nil, domain.NotFound(r.desc.Label)
	}

	r.invalidateStats(tenant)
	return r.fetch(ctx, tenant, id)
}

// Delete applies the resource's declared policy: soft-delete resources
// flip the marker, hard-delete resources remove the row.
func (r *Resource) Delete(ctx context.Context, tenant, id string) error {
	ctx, span := r.span(ctx, "delete", tenant)
	defer span.End()

	if !r.store.ValidID(id) {
		return domain.NotFound(r.desc.Label)
	}

	q := r.scoped(tenant).Where(domain.FieldID, store.OpEq, id)

	switch r.desc.Delete {
	case resource.SoftDelete:
		now := time.Now().UTC()
		matched, err := r.store.UpdateOne(ctx, r.desc.Collection, q, domain.Document{
			domain.FieldIsDeleted: true,
			domain.FieldDeletedAt: now,
			domain.FieldUpdatedAt: now,
		})
		if err != nil {
			return r.internal("delete", tenant, err)
		}
		if matched == 0 {
			return domain.NotFound(r.desc.Label)
		}
	case resource.HardDelete:
		deleted, err := r.store.DeleteOne(ctx, r.desc.Collection, q)
		if err != nil {
			return r.internal("delete", tenant, err)
		}
		if deleted == 0 {
			return domain.NotFound(r.desc.Label)
		}
	}

	r.invalidateStats(tenant)
	return nil
}

// fetch re-reads the canonical stored document, enforcing tenant scope and
// soft-delete exclusion.
func (r *Resource) fetch(ctx context.Context, tenant, id string) (domain.Document, error) {
	doc, err := r.store.FindOne(ctx, r.desc.Collection, r.scoped(tenant).Where(domain.FieldID, store.OpEq, id))
	if err == store.ErrNoDocument {
		return nil, domain.NotFound(r.desc.Label)
	}
	if err != nil {
		return nil, r.internal("fetch", tenant, err)
	}
	return doc, nil
}

func (r *Resource) internal(op, tenant string, err error) error {
	r.logger.Error("store operation failed",
		slog.String("resource", r.desc.Name),
		slog.String("op", op),
		slog.String("company_id", tenant),
		slog.String("error", err.Error()),
	)
	return domain.Internal(fmt.Sprintf("failed to %s %s", op, strings.ToLower(r.desc.Label)), err)
}

func (r *Resource) invalidateStats(tenant string) {
	if r.cache != nil {
		r.cache.Delete(statsKey(tenant, r.desc.Name))
	}
}

func statsKey(tenant, name string) string {
	return "stats:" + tenant + ":" + name
}

// Registry holds one service per catalog descriptor.
type Registry struct {
	services map[string]*Resource
	order    []string
}

// NewRegistry builds services for every descriptor in the catalog.
func NewRegistry(st store.Store, logger *slog.Logger, c *cache.Cache) *Registry {
	reg := &Registry{services: map[string]*Resource{}}
	for name, desc := range resource.Catalog() {
		reg.services[name] = NewResource(desc, st, logger, c)
		reg.order = append(reg.order, name)
	}
	return reg
}

// Get returns the service for a resource name.
func (reg *Registry) Get(name string) (*Resource, bool) {
	svc, ok := reg.services[name]
	return svc, ok
}

// All returns every registered service.
func (reg *Registry) All() []*Resource {
	out := make([]*Resource, 0, len(reg.services))
	for _, name := range reg.order {
		out = append(out, reg.services[name])
	}
	return out
}
