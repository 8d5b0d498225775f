package domain

import "time"

// Document is the canonical loosely-typed record shape shared by the
// normalizer, the services, and the stores. Field access helpers keep the
// map plumbing in one place.
type Document map[string]any

// Reserved field names assigned by the service layer, never settable
// through normalization.
const (
	FieldID        = "id"
	FieldCompanyID = "companyId"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldIsDeleted = "isDeleted"
	FieldDeletedAt = "deletedAt"
)

// String returns the string value of a field, or "" when absent or not a
// string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Number returns the numeric value of a field. JSON decoding yields
// float64; integer values written by Go code are accepted too.
func (d Document) Number(field string) float64 {
	switch v := d[field].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Time returns the time value of a field, or the zero time when absent.
func (d Document) Time(field string) time.Time {
	t, _ := d[field].(time.Time)
	return t
}

// Object returns the nested object value of a field, or nil.
func (d Document) Object(field string) Document {
	switch v := d[field].(type) {
	case Document:
		return v
	case map[string]any:
		return Document(v)
	default:
		return nil
	}
}

// Bool returns the boolean value of a field.
func (d Document) Bool(field string) bool {
	b, _ := d[field].(bool)
	return b
}

// Clone returns a shallow copy with nested objects copied one level deep,
// enough to keep callers from mutating a stored document through a shared
// map.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		switch nested := v.(type) {
		case Document:
			inner := make(Document, len(nested))
			for nk, nv := range nested {
				inner[nk] = nv
			}
			out[k] = inner
		case map[string]any:
			inner := make(Document, len(nested))
			for nk, nv := range nested {
				inner[nk] = nv
			}
			out[k] = inner
		case []string:
			out[k] = append([]string(nil), nested...)
		default:
			out[k] = v
		}
	}
	return out
}
