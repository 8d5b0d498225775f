package mongodb

import (
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yourorg/workstream/internal/domain"
	"github.com/yourorg/workstream/internal/store"
)

func TestBuildFilterIDBecomesObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	q := store.Query{}.Where(domain.FieldID, store.OpEq, oid.Hex())

	filter := buildFilter(q)

	got, ok := filter["_id"].(primitive.ObjectID)
	if !ok {
		t.Fatalf("_id = %T, want ObjectID", filter["_id"])
	}
	if got != oid {
		t.Errorf("_id = %v, want %v", got, oid)
	}
}

func TestBuildFilterMergesRangeOperators(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	q := store.Query{}.
		Where("createdAt", store.OpGte, from).
		Where("createdAt", store.OpLte, to)

	filter := buildFilter(q)

	rng, ok := filter["createdAt"].(bson.M)
	if !ok {
		t.Fatalf("createdAt = %T, want operator document", filter["createdAt"])
	}
	if rng["$gte"] != from || rng["$lte"] != to {
		t.Errorf("range = %v, want folded gte/lte", rng)
	}
}

func TestBuildFilterSearchClauses(t *testing.T) {
	q := store.Query{}.
		Where("companyId", store.OpEq, "acme_corp").
		OrWhere("name", store.OpContains, "a+b").
		OrWhere("email", store.OpContains, "a+b")

	filter := buildFilter(q)

	if filter["companyId"] != "acme_corp" {
		t.Errorf("companyId = %v", filter["companyId"])
	}

	or, ok := filter["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("$or = %v, want two clauses", filter["$or"])
	}
	first, _ := or[0].(bson.M)
	rx, _ := first["name"].(bson.M)
	if rx["$regex"] != `a\+b` {
		t.Errorf("regex = %v, want metacharacters quoted", rx["$regex"])
	}
	if rx["$options"] != "i" {
		t.Errorf("options = %v, want case-insensitive", rx["$options"])
	}
}

func TestBuildFilterPrefixAnchored(t *testing.T) {
	q := store.Query{}.Where("ticketNumber", store.OpPrefix, "TIC-")

	filter := buildFilter(q)

	rx, ok := filter["ticketNumber"].(bson.M)
	if !ok {
		t.Fatalf("ticketNumber = %T", filter["ticketNumber"])
	}
	if rx["$regex"] != "^TIC-" {
		t.Errorf("regex = %v, want anchored quoted prefix", rx["$regex"])
	}
}

func TestBuildFilterNeAndIn(t *testing.T) {
	q := store.Query{}.
		Where("isDeleted", store.OpNe, true).
		Where("stage", store.OpIn, []string{"New", "Won"})

	filter := buildFilter(q)

	ne, _ := filter["isDeleted"].(bson.M)
	if ne["$ne"] != true {
		t.Errorf("isDeleted = %v", filter["isDeleted"])
	}
	in, _ := filter["stage"].(bson.M)
	if !reflect.DeepEqual(in["$in"], []string{"New", "Won"}) {
		t.Errorf("stage = %v", filter["stage"])
	}
}

func TestToBSONDropsIDAndNestsObjects(t *testing.T) {
	doc := domain.Document{
		"id":    "abc",
		"name":  "MacBook",
		"owner": domain.Document{"name": "Dana"},
		"extra": map[string]any{"k": "v"},
	}

	out := toBSON(doc)

	if _, ok := out["id"]; ok {
		t.Error("id should not be written")
	}
	owner, ok := out["owner"].(bson.M)
	if !ok || owner["name"] != "Dana" {
		t.Errorf("owner = %v", out["owner"])
	}
	extra, ok := out["extra"].(bson.M)
	if !ok || extra["k"] != "v" {
		t.Errorf("extra = %v", out["extra"])
	}
}

func TestFromBSONRehydratesTypes(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	doc := fromBSON(bson.M{
		"_id":       oid,
		"createdAt": primitive.NewDateTimeFromTime(when),
		"tags":      primitive.A{"a", "b"},
		"openings":  int32(3),
		"total":     int64(7),
		"owner":     bson.M{"name": "Dana"},
	})

	if doc.String(domain.FieldID) != oid.Hex() {
		t.Errorf("id = %q", doc.String(domain.FieldID))
	}
	if got, ok := doc["createdAt"].(time.Time); !ok || !got.Equal(when) {
		t.Errorf("createdAt = %v", doc["createdAt"])
	}
	if !reflect.DeepEqual(doc["tags"], []string{"a", "b"}) {
		t.Errorf("tags = %v", doc["tags"])
	}
	if doc.Number("openings") != 3 || doc.Number("total") != 7 {
		t.Errorf("numbers = %v / %v", doc["openings"], doc["total"])
	}
	if doc.Object("owner").String("name") != "Dana" {
		t.Errorf("owner = %v", doc["owner"])
	}
}
