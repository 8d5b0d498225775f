package memory

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

func seed(t *testing.T, s *Store, docs ...domain.Document) []string {
	t.Helper()
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, err := s.InsertOne(context.Background(), "docs", doc)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestInsertAssignsID(t *testing.T) {
	s := New()
	ids := seed(t, s, domain.Document{"name": "a"})

	if ids[0] == "" {
		t.Fatal("no id assigned")
	}
	if !s.ValidID(ids[0]) {
		t.Errorf("assigned id %q does not validate", ids[0])
	}
	if s.ValidID("nonsense") {
		t.Error("arbitrary string validated as id")
	}
}

func TestFindOneIsolatesStoredDocument(t *testing.T) {
	s := New()
	ids := seed(t, s, domain.Document{"name": "a"})

	got, err := s.FindOne(context.Background(), "docs",
		store.Query{}.Where(domain.FieldID, store.OpEq, ids[0]))
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	// Mutating the returned copy must not touch the stored document.
	got["name"] = "tampered"
	again, _ := s.FindOne(context.Background(), "docs",
		store.Query{}.Where(domain.FieldID, store.OpEq, ids[0]))
	if again.String("name") != "a" {
		t.Error("stored document was mutated through a returned copy")
	}
}

func TestFindOneNoMatch(t *testing.T) {
	s := New()
	_, err := s.FindOne(context.Background(), "docs",
		store.Query{}.Where("name", store.OpEq, "missing"))
	if err != store.ErrNoDocument {
		t.Fatalf("err = %v, want ErrNoDocument", err)
	}
}

func TestQueryOperators(t *testing.T) {
	s := New()
	now := time.Now().UTC()
	seed(t, s,
		domain.Document{"name": "Alpha deal", "stage": "New", "value": float64(10), "at": now.Add(-time.Hour)},
		domain.Document{"name": "Beta deal", "stage": "Won", "value": float64(20), "at": now},
		domain.Document{"name": "Gamma", "stage": "Won", "value": float64(30), "at": now.Add(time.Hour)},
	)
	ctx := context.Background()

	cases := []struct {
		name string
		q    store.Query
		want int64
	}{
		{"eq", store.Query{}.Where("stage", store.OpEq, "Won"), 2},
		{"ne", store.Query{}.Where("stage", store.OpNe, "Won"), 1},
		{"in", store.Query{}.Where("stage", store.OpIn, []string{"New", "Won"}), 3},
		{"contains is case-insensitive", store.Query{}.Where("name", store.OpContains, "DEAL"), 2},
		{"prefix", store.Query{}.Where("name", store.OpPrefix, "Ga"), 1},
		{"gte number", store.Query{}.Where("value", store.OpGte, float64(20)), 2},
		{"lte time", store.Query{}.Where("at", store.OpLte, now), 2},
		{"or clauses", store.Query{}.
			OrWhere("name", store.OpContains, "alpha").
			OrWhere("name", store.OpContains, "gamma"), 2},
		{"and with or", store.Query{}.
			Where("stage", store.OpEq, "Won").
			OrWhere("name", store.OpContains, "beta").
			OrWhere("name", store.OpContains, "alpha"), 1},
		{"range on missing field fails", store.Query{}.Where("missing", store.OpLte, float64(5)), 0},
	}
	for _, tc := range cases {
		n, err := s.Count(ctx, "docs", tc.q)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if n != tc.want {
			t.Errorf("%s: count = %d, want %d", tc.name, n, tc.want)
		}
	}
}

func TestFindSortSkipLimit(t *testing.T) {
	s := New()
	seed(t, s,
		domain.Document{"name": "b", "rank": float64(2)},
		domain.Document{"name": "c", "rank": float64(3)},
		domain.Document{"name": "a", "rank": float64(1)},
	)

	docs, err := s.Find(context.Background(), "docs", store.Query{}, store.FindOptions{
		SortField: "rank", SortDesc: true, Skip: 1, Limit: 1,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 1 || docs[0].String("name") != "b" {
		t.Errorf("got %v, want the middle-ranked document", docs)
	}

	docs, err = s.Find(context.Background(), "docs", store.Query{}, store.FindOptions{
		SortField: "rank", Skip: 10,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("skip beyond end returned %v", docs)
	}
}

func TestUpdateOneMergesSet(t *testing.T) {
	s := New()
	ids := seed(t, s, domain.Document{"name": "a", "stage": "New"})
	ctx := context.Background()

	matched, err := s.UpdateOne(ctx, "docs",
		store.Query{}.Where(domain.FieldID, store.OpEq, ids[0]),
		domain.Document{"stage": "Won"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if matched != 1 {
		t.Fatalf("matched = %d, want 1", matched)
	}

	doc, _ := s.FindOne(ctx, "docs", store.Query{}.Where(domain.FieldID, store.OpEq, ids[0]))
	if doc.String("stage") != "Won" || doc.String("name") != "a" {
		t.Errorf("after update: %v", doc)
	}

	matched, _ = s.UpdateOne(ctx, "docs",
		store.Query{}.Where("name", store.OpEq, "missing"), domain.Document{"x": 1})
	if matched != 0 {
		t.Errorf("matched = %d for no-match update", matched)
	}
}

func TestDeleteOneAndMany(t *testing.T) {
	s := New()
	seed(t, s,
		domain.Document{"name": "a", "old": true},
		domain.Document{"name": "b", "old": true},
		domain.Document{"name": "c", "old": false},
	)
	ctx := context.Background()

	n, err := s.DeleteOne(ctx, "docs", store.Query{}.Where("name", store.OpEq, "a"))
	if err != nil || n != 1 {
		t.Fatalf("delete one: n=%d err=%v", n, err)
	}

	n, err = s.DeleteMany(ctx, "docs", store.Query{}.Where("old", store.OpEq, true))
	if err != nil || n != 1 {
		t.Fatalf("delete many: n=%d err=%v", n, err)
	}

	remaining, _ := s.Count(ctx, "docs", store.Query{})
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}
}

func TestCountGroups(t *testing.T) {
	s := New()
	seed(t, s,
		domain.Document{"stage": "New"},
		domain.Document{"stage": "New"},
		domain.Document{"stage": "Won"},
	)

	groups, err := s.CountGroups(context.Background(), "docs", store.Query{}, "stage")
	if err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if groups["New"] != 2 || groups["Won"] != 1 {
		t.Errorf("groups = %v", groups)
	}
}
