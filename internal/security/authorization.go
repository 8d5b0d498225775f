package security

import "github.com/yourorg/workstream/internal/domain"

// Allowed reports whether a role is in the permitted set for an action.
// An empty permitted set denies everyone; authorization is always an
// explicit grant.
func Allowed(role domain.Role, permitted []domain.Role) bool {
	for _, r := range permitted {
		if role == r {
			return true
		}
	}
	return false
}
