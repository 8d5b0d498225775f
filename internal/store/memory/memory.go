// Package memory provides an in-process Store used by tests and by dev
// mode when no database is configured. It is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string][]domain.Document
}

func New() *Store {
	return &Store{collections: map[string][]domain.Document{}}
}

func (s *Store) Find(_ context.Context, collection string, q store.Query, opts store.FindOptions) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Document
	for _, doc := range s.collections[collection] {
		if matches(doc, q) {
			out = append(out, doc.Clone())
		}
	}

	if opts.SortField != "" {
		sortDocs(out, opts.SortField, opts.SortDesc)
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(out)) {
			out = nil
		} else {
			out = out[opts.Skip:]
		}
	}
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) FindOne(_ context.Context, collection string, q store.Query) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.collections[collection] {
		if matches(doc, q) {
			return doc.Clone(), nil
		}
	}
	return nil, store.ErrNoDocument
}

func (s *Store) InsertOne(_ context.Context, collection string, doc domain.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := doc.Clone()
	id := stored.String(domain.FieldID)
	if id == "" {
		id = uuid.NewString()
		stored[domain.FieldID] = id
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return id, nil
}

func (s *Store) UpdateOne(_ context.Context, collection string, q store.Query, set domain.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, doc := range s.collections[collection] {
		if !matches(doc, q) {
			continue
		}
		updated := doc.Clone()
		for k, v := range set {
			updated[k] = v
		}
		s.collections[collection][i] = updated
		return 1, nil
	}
	return 0, nil
}

func (s *Store) DeleteOne(_ context.Context, collection string, q store.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, q) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) DeleteMany(_ context.Context, collection string, q store.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []domain.Document
	var removed int64
	for _, doc := range s.collections[collection] {
		if matches(doc, q) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	s.collections[collection] = kept
	return removed, nil
}

func (s *Store) Count(_ context.Context, collection string, q store.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.collections[collection] {
		if matches(doc, q) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountGroups(_ context.Context, collection string, q store.Query, field string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int64{}
	for _, doc := range s.collections[collection] {
		if matches(doc, q) {
			out[doc.String(field)]++
		}
	}
	return out, nil
}

func (s *Store) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

func matches(doc domain.Document, q store.Query) bool {
	for _, c := range q.All {
		if !evaluate(doc, c) {
			return false
		}
	}
	if len(q.Any) == 0 {
		return true
	}
	for _, c := range q.Any {
		if evaluate(doc, c) {
			return true
		}
	}
	return false
}

func evaluate(doc domain.Document, c store.Cond) bool {
	v := doc[c.Field]
	switch c.Op {
	case store.OpEq:
		return equal(v, c.Value)
	case store.OpNe:
		return !equal(v, c.Value)
	case store.OpIn:
		values, _ := c.Value.([]string)
		s, _ := v.(string)
		for _, candidate := range values {
			if s == candidate {
				return true
			}
		}
		return false
	case store.OpContains:
		s, _ := v.(string)
		needle, _ := c.Value.(string)
		return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case store.OpPrefix:
		s, _ := v.(string)
		prefix, _ := c.Value.(string)
		return strings.HasPrefix(s, prefix)
	case store.OpGte:
		cmp, ok := compare(v, c.Value)
		return ok && cmp >= 0
	case store.OpLte:
		cmp, ok := compare(v, c.Value)
		return ok && cmp <= 0
	default:
		return false
	}
}

func equal(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		return ok && an == bn
	}
	return a == b
}

// compare orders times and numbers; incomparable values fail every range
// condition.
func compare(a, b any) (int, bool) {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	}
	an, aok := toFloat(a)
	bn, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case an < bn:
		return -1, true
	case an > bn:
		return 1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sortDocs(docs []domain.Document, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		less := lessValue(docs[i][field], docs[j][field])
		if desc {
			return !less && !equal(docs[i][field], docs[j][field])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Before(bt)
	}
	if an, ok := toFloat(a); ok {
		bn, ok := toFloat(b)
		return ok && an < bn
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return as < bs
}
