package resource

import (
	"github.com/yourorg/workstream/internal/domain"
)

// Kind enumerates the value shapes a schema field can take.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindEnum
	KindDate
	KindObject
	KindStringList
)

// Action names the operations the engine exposes for every resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionGetAll  Action = "getAll"
	ActionGetByID Action = "getById"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionStats   Action = "stats"
)

// MutatingActions are the actions that change stored state and trigger a
// room broadcast on success.
var MutatingActions = map[Action]bool{
	ActionCreate: true,
	ActionUpdate: true,
	ActionDelete: true,
}

// Field describes one schema field and its normalization/validation policy.
type Field struct {
	Name  string
	Label string // human label used in error messages, e.g. "name"
	Kind  Kind

	// Aliases are legacy input field names accepted as fallback sources.
	Aliases []string

	// Defaults. DefaultString doubles as the enum default.
	DefaultString string
	DefaultNumber float64

	// Enum membership for KindEnum.
	Enum []string

	// Clamp bounds for KindNumber. Nil means unbounded on that side.
	Min *float64
	Max *float64

	// Required fields fail validation when empty (strings/objects), nil
	// (dates) or zero (numbers).
	Required bool

	// NotBefore names another date field this field must not precede when
	// both are set.
	NotBefore string

	// Object shape for KindObject. Primary is the sub-field a bare string
	// input is coerced into.
	ObjectFields []Field
	Primary      string
}

// DeletePolicy declares how delete behaves for a resource. The source
// system was inconsistent across resources; here the choice is an explicit
// property instead of a difference buried in handler code.
type DeletePolicy int

const (
	SoftDelete DeletePolicy = iota
	HardDelete
)

// Sequence configures a human-readable display id such as TIC-001.
type Sequence struct {
	Field  string
	Prefix string
	Width  int
}

// Descriptor is the full declarative configuration of one resource type.
// The generic service and gateway engines are parametrized by it.
type Descriptor struct {
	Name       string // event prefix and registry key, e.g. "deal"
	Label      string // human label, e.g. "Deal"
	Collection string

	Fields []Field

	// SearchFields are matched case-insensitively by the free-text filter.
	SearchFields []string
	// FilterFields may be matched exactly (or by set membership) from list
	// filters.
	FilterFields []string
	// DateField is the column date-range filters apply to.
	DateField string
	// StatsGroups are the fields stats breaks counts down by.
	StatsGroups []string

	Delete DeletePolicy
	Seq    *Sequence

	// Derive, when set, recomputes derived fields on the merged document
	// during create and update. DerivedFields names the fields Derive owns
	// so partial updates persist them even when absent from the patch.
	Derive        func(doc domain.Document)
	DerivedFields []string

	// MutateRoles and ReadRoles gate gateway actions.
	MutateRoles []domain.Role
	ReadRoles   []domain.Role
}

// RolesFor returns the role set allowed to perform an action.
func (d Descriptor) RolesFor(action Action) []domain.Role {
	if MutatingActions[action] {
		return d.MutateRoles
	}
	return d.ReadRoles
}

// FieldByName looks up a schema field, also matching aliases.
func (d Descriptor) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
		for _, a := range f.Aliases {
			if a == name {
				return f, true
			}
		}
	}
	return Field{}, false
}
