package resource

import (
	"strings"
	"time"

	"github.com/yourorg/workstream/internal/domain"
)

// Normalize converts loosely-typed input into the canonical document shape
// for a resource. It is pure and total: it never fails, unknown input is
// dropped, missing or ill-typed fields become type-appropriate defaults.
// Identity fields (id, companyId, timestamps, soft-delete markers, sequence
// ids) are never settable here; the service layer assigns them.
//
// Normalizing an already-canonical document is a no-op.
func Normalize(desc Descriptor, input domain.Document) domain.Document {
	out := make(domain.Document, len(desc.Fields))
	for _, f := range desc.Fields {
		out[f.Name] = normalizeField(f, fieldSource(f, input))
	}
	if desc.Derive != nil {
		desc.Derive(out)
	}
	return out
}

// NormalizePatch normalizes only the fields present in a partial update,
// resolving aliases to their canonical names. Fields absent from the patch
// are left untouched so the update stays a partial write.
func NormalizePatch(desc Descriptor, patch domain.Document) domain.Document {
	out := domain.Document{}
	for _, f := range desc.Fields {
		raw, ok := fieldPresent(f, patch)
		if !ok {
			continue
		}
		out[f.Name] = normalizeField(f, raw)
	}
	return out
}

// fieldSource resolves the raw input value for a field, falling back to
// legacy aliases when the canonical name is absent.
func fieldSource(f Field, input domain.Document) any {
	if v, ok := input[f.Name]; ok && v != nil {
		return v
	}
	for _, alias := range f.Aliases {
		if v, ok := input[alias]; ok && v != nil {
			return v
		}
	}
	return nil
}

func fieldPresent(f Field, input domain.Document) (any, bool) {
	if v, ok := input[f.Name]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := input[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func normalizeField(f Field, raw any) any {
	switch f.Kind {
	case KindString:
		return normalizeString(f, raw)
	case KindNumber:
		return normalizeNumber(f, raw)
	case KindBool:
		b, _ := raw.(bool)
		return b
	case KindEnum:
		return normalizeEnum(f, raw)
	case KindDate:
		return normalizeDate(raw)
	case KindObject:
		return normalizeObject(f, raw)
	case KindStringList:
		return normalizeStringList(raw)
	default:
		return nil
	}
}

func normalizeString(f Field, raw any) string {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return f.DefaultString
}

// normalizeNumber passes genuine numbers through and clamps them to the
// field's bounds. Everything else, including numeric strings, becomes the
// field default. Range violations are always clamped here, on every code
// path; the validator never rejects a numeric range.
func normalizeNumber(f Field, raw any) float64 {
	n, ok := toNumber(raw)
	if !ok {
		n = f.DefaultNumber
	}
	if f.Min != nil && n < *f.Min {
		n = *f.Min
	}
	if f.Max != nil && n > *f.Max {
		n = *f.Max
	}
	return n
}

func toNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// normalizeEnum replaces anything outside the allowed set with the field
// default rather than rejecting it.
func normalizeEnum(f Field, raw any) string {
	s, ok := raw.(string)
	if !ok {
		return f.DefaultString
	}
	s = strings.TrimSpace(s)
	for _, allowed := range f.Enum {
		if s == allowed {
			return s
		}
	}
	return f.DefaultString
}

// normalizeDate accepts a time.Time, an RFC3339 or date-only string, or a
// millisecond timestamp. Anything unparseable becomes nil.
func normalizeDate(raw any) any {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		return nil
	case float64:
		if v <= 0 {
			return nil
		}
		return time.UnixMilli(int64(v)).UTC()
	case int64:
		if v <= 0 {
			return nil
		}
		return time.UnixMilli(v).UTC()
	default:
		return nil
	}
}

// normalizeObject enforces the nested value-object shape. A bare string is
// wrapped as {Primary: trimmed}; a map has each declared sub-field
// normalized; anything else becomes the fully-defaulted object. The result
// is never nil.
func normalizeObject(f Field, raw any) domain.Document {
	var src domain.Document
	switch v := raw.(type) {
	case string:
		src = domain.Document{f.Primary: v}
	case domain.Document:
		src = v
	case map[string]any:
		src = domain.Document(v)
	default:
		src = domain.Document{}
	}

	out := make(domain.Document, len(f.ObjectFields))
	for _, sub := range f.ObjectFields {
		out[sub.Name] = normalizeField(sub, fieldSource(sub, src))
	}
	return out
}

// normalizeStringList keeps well-typed string elements in their input
// order. Duplicates are preserved for compatibility with the stored data.
func normalizeStringList(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return []string{}
	}
}
