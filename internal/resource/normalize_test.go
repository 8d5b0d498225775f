package resource

import (
	"testing"
	"time"

	"github.com/yourorg/workstream/internal/domain"
)

func catalogDeal(t *testing.T) Descriptor {
	t.Helper()
	desc, ok := Catalog()["deal"]
	if !ok {
		t.Fatal("deal descriptor missing from catalog")
	}
	return desc
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	desc := catalogDeal(t)

	doc := Normalize(desc, domain.Document{"name": "  Acme renewal  "})

	if got := doc.String("name"); got != "Acme renewal" {
		t.Errorf("name = %q, want trimmed", got)
	}
	if got := doc.String("stage"); got != "New" {
		t.Errorf("stage default = %q, want New", got)
	}
	if got := doc.String("status"); got != "Open" {
		t.Errorf("status default = %q, want Open", got)
	}
}

func TestNormalizeClampsRanges(t *testing.T) {
	desc := catalogDeal(t)

	doc := Normalize(desc, domain.Document{
		"name":        "Over the top",
		"probability": float64(250),
		"dealValue":   float64(-10),
	})

	if got := doc.Number("probability"); got != 100 {
		t.Errorf("probability = %v, want clamped to 100", got)
	}
	if got := doc.Number("dealValue"); got != 0 {
		t.Errorf("dealValue = %v, want clamped to 0", got)
	}
}

func TestNormalizeEnumFallsBackToDefault(t *testing.T) {
	desc := catalogDeal(t)

	doc := Normalize(desc, domain.Document{"name": "x", "stage": "Imagined"})

	if got := doc.String("stage"); got != "New" {
		t.Errorf("stage = %q, want default New for unknown value", got)
	}
}

func TestNormalizeCoercesStringToObject(t *testing.T) {
	desc := catalogDeal(t)

	doc := Normalize(desc, domain.Document{"name": "x", "owner": "  Dana  "})

	owner := doc.Object("owner")
	if owner == nil {
		t.Fatal("owner object is nil")
	}
	if got := owner.String("name"); got != "Dana" {
		t.Errorf("owner.name = %q, want Dana", got)
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	desc := catalogDeal(t)

	cases := map[string]any{
		"rfc3339":   "2026-03-10T12:00:00Z",
		"date only": "2026-03-10",
		"datetime":  "2026-03-10 12:00:00",
		"millis":    float64(1772712000000),
	}
	for name, raw := range cases {
		doc := Normalize(desc, domain.Document{"name": "x", "expectedClosedDate": raw})
		if _, ok := doc["expectedClosedDate"].(time.Time); !ok {
			t.Errorf("%s: expectedClosedDate = %T, want time.Time", name, doc["expectedClosedDate"])
		}
	}

	doc := Normalize(desc, domain.Document{"name": "x", "expectedClosedDate": "not a date"})
	if doc["expectedClosedDate"] != nil {
		t.Errorf("invalid date = %v, want nil", doc["expectedClosedDate"])
	}
}

func TestNormalizeResolvesAliases(t *testing.T) {
	desc := catalogDeal(t)

	patch := NormalizePatch(desc, domain.Document{"expectedClosingDate": "2026-03-10"})

	if _, ok := patch["expectedClosedDate"]; !ok {
		t.Fatal("alias expectedClosingDate was not folded into expectedClosedDate")
	}
	if _, ok := patch["expectedClosingDate"]; ok {
		t.Error("alias key should not survive normalization")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	desc := catalogDeal(t)

	once := Normalize(desc, domain.Document{
		"name":        "Stable",
		"stage":       "Qualified",
		"probability": float64(60),
		"owner":       "Dana",
		"tags":        []string{"q3", "q3", "renewal"},
	})
	twice := Normalize(desc, once.Clone())

	for _, field := range []string{"name", "stage", "probability"} {
		if once[field] != twice[field] {
			t.Errorf("field %s changed on second pass: %v != %v", field, once[field], twice[field])
		}
	}
	if twice.Object("owner").String("name") != "Dana" {
		t.Error("owner object changed on second pass")
	}
}

func TestNormalizePreservesListDuplicates(t *testing.T) {
	desc := catalogDeal(t)

	doc := Normalize(desc, domain.Document{"name": "x", "tags": []any{"a", "a", "b"}})

	tags, ok := doc["tags"].([]string)
	if !ok || len(tags) != 3 {
		t.Fatalf("tags = %v, want three entries with duplicates kept", doc["tags"])
	}
}

func TestDeriveAssetWarranty(t *testing.T) {
	desc, ok := Catalog()["asset"]
	if !ok {
		t.Fatal("asset descriptor missing from catalog")
	}

	purchase := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	doc := Normalize(desc, domain.Document{
		"name":           "MacBook",
		"purchaseDate":   purchase,
		"warrantyMonths": float64(24),
	})

	end, ok := doc["warrantyEndDate"].(time.Time)
	if !ok {
		t.Fatalf("warrantyEndDate = %T, want time.Time", doc["warrantyEndDate"])
	}
	if want := purchase.AddDate(0, 24, 0); !end.Equal(want) {
		t.Errorf("warrantyEndDate = %v, want %v", end, want)
	}

	doc = Normalize(desc, domain.Document{"name": "MacBook"})
	if doc["warrantyEndDate"] != nil {
		t.Errorf("warrantyEndDate = %v, want nil without purchase date", doc["warrantyEndDate"])
	}
}
