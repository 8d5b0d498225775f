// Package store defines the generic document-store contract the resource
// engine runs against, plus a small query model both backends translate.
package store

import (
	"context"
	"errors"

	"github.com/yourorg/workstream/internal/domain"
)

// ErrNoDocument is returned by FindOne when nothing matches.
var ErrNoDocument = errors.New("store: no matching document")

// Op enumerates the comparison operators the query model supports.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpIn
	OpContains // case-insensitive substring match
	OpPrefix   // anchored prefix match
	OpGte
	OpLte
)

// Cond is a single field comparison.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Query combines conditions: everything in All must hold, and at least one
// condition in Any must hold when Any is non-empty.
type Query struct {
	All []Cond
	Any []Cond
}

// Where appends an AND condition and returns the query for chaining.
func (q Query) Where(field string, op Op, value any) Query {
	q.All = append(q.All, Cond{Field: field, Op: op, Value: value})
	return q
}

// OrWhere appends an OR condition.
func (q Query) OrWhere(field string, op Op, value any) Query {
	q.Any = append(q.Any, Cond{Field: field, Op: op, Value: value})
	return q
}

// FindOptions controls sorting and pagination of Find.
type FindOptions struct {
	SortField string
	SortDesc  bool
	Skip      int64
	Limit     int64
}

// Store is the document-store contract: tenant scoping, soft-delete
// filtering and every other policy live in the service layer; a Store only
// evaluates the query it is handed. UpdateOne's filter doubles as an
// optimistic precondition: zero matched means the document is absent,
// deleted, or out of scope.
type Store interface {
	Find(ctx context.Context, collection string, q Query, opts FindOptions) ([]domain.Document, error)
	FindOne(ctx context.Context, collection string, q Query) (domain.Document, error)
	InsertOne(ctx context.Context, collection string, doc domain.Document) (string, error)
	UpdateOne(ctx context.Context, collection string, q Query, set domain.Document) (int64, error)
	DeleteOne(ctx context.Context, collection string, q Query) (int64, error)
	DeleteMany(ctx context.Context, collection string, q Query) (int64, error)
	Count(ctx context.Context, collection string, q Query) (int64, error)
	// CountGroups returns document counts grouped by a field's value,
	// backed by the store's aggregation primitive.
	CountGroups(ctx context.Context, collection string, q Query, field string) (map[string]int64, error)
	// ValidID reports whether id is well-formed for this backend. Services
	// reject malformed ids without querying.
	ValidID(id string) bool
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
