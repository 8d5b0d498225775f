package resource

import (
	"fmt"
	"time"

	"github.com/yourorg/workstream/internal/domain"
)

// Validate checks a canonical document against the resource's rules and
// returns the first violated rule's human-readable message, or "" when the
// document is valid. Callers surface the message verbatim.
//
// Rules run in schema order: required-field presence first, then enum
// membership, then cross-field date ordering. Numeric ranges are never
// rejected here; Normalize clamps them on every path.
func Validate(desc Descriptor, doc domain.Document) string {
	for _, f := range desc.Fields {
		if !f.Required {
			continue
		}
		if msg := requiredError(desc, f, doc); msg != "" {
			return msg
		}
	}
	for _, f := range desc.Fields {
		if f.Kind != KindEnum {
			continue
		}
		if msg := enumError(desc, f, doc); msg != "" {
			return msg
		}
	}
	for _, f := range desc.Fields {
		if f.Kind != KindDate || f.NotBefore == "" {
			continue
		}
		if msg := orderingError(desc, f, doc); msg != "" {
			return msg
		}
	}
	return ""
}

// ValidatePatch applies the same rules to only the fields present in a
// normalized patch. Cross-field ordering is checked against the merged
// document, which the service supplies.
func ValidatePatch(desc Descriptor, patch domain.Document, merged domain.Document) string {
	for _, f := range desc.Fields {
		if _, ok := patch[f.Name]; !ok {
			continue
		}
		if f.Required {
			if msg := requiredError(desc, f, patch); msg != "" {
				return msg
			}
		}
		if f.Kind == KindEnum {
			if msg := enumError(desc, f, patch); msg != "" {
				return msg
			}
		}
	}
	for _, f := range desc.Fields {
		if f.Kind != KindDate || f.NotBefore == "" {
			continue
		}
		if msg := orderingError(desc, f, merged); msg != "" {
			return msg
		}
	}
	return ""
}

func requiredError(desc Descriptor, f Field, doc domain.Document) string {
	switch f.Kind {
	case KindString, KindEnum:
		if doc.String(f.Name) == "" {
			return fmt.Sprintf("%s %s is required", desc.Label, f.Label)
		}
	case KindNumber:
		if doc.Number(f.Name) == 0 {
			return fmt.Sprintf("%s %s is required", desc.Label, f.Label)
		}
	case KindDate:
		if _, ok := doc[f.Name].(time.Time); !ok {
			return fmt.Sprintf("%s %s is required", desc.Label, f.Label)
		}
	case KindObject:
		obj := doc.Object(f.Name)
		if obj == nil || obj.String(f.Primary) == "" {
			return fmt.Sprintf("%s %s is required", desc.Label, f.Label)
		}
	case KindStringList:
		list, _ := doc[f.Name].([]string)
		if len(list) == 0 {
			return fmt.Sprintf("%s %s is required", desc.Label, f.Label)
		}
	}
	return ""
}

// enumError should not fire after Normalize, which defaults unknown values.
// It exists so a document that bypassed normalization still cannot persist
// an out-of-set value.
func enumError(desc Descriptor, f Field, doc domain.Document) string {
	v := doc.String(f.Name)
	if v == "" && !f.Required {
		return ""
	}
	for _, allowed := range f.Enum {
		if v == allowed {
			return ""
		}
	}
	return fmt.Sprintf("%s %s must be one of %v", desc.Label, f.Label, f.Enum)
}

func orderingError(desc Descriptor, f Field, doc domain.Document) string {
	this, ok := doc[f.Name].(time.Time)
	if !ok {
		return ""
	}
	other, ok := doc[f.NotBefore].(time.Time)
	if !ok {
		return ""
	}
	if this.Before(other) {
		ref, _ := desc.FieldByName(f.NotBefore)
		return fmt.Sprintf("%s %s cannot be before %s", desc.Label, f.Label, ref.Label)
	}
	return ""
}
