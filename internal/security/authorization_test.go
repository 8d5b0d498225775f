package security

import (
	"testing"

	"github.com/yourorg/workstream/internal/domain"
)

func TestAllowed(t *testing.T) {
	crm := []domain.Role{domain.RoleAdmin, domain.RoleManager}

	if !Allowed(domain.RoleAdmin, crm) {
		t.Error("admin should be allowed")
	}
	if !Allowed(domain.RoleManager, crm) {
		t.Error("manager should be allowed")
	}
	if Allowed(domain.RoleEmployee, crm) {
		t.Error("employee should be denied")
	}
	if Allowed(domain.RoleHR, crm) {
		t.Error("hr should be denied on a crm set")
	}
}

func TestEmptyPermittedSetDeniesEveryone(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleHR, domain.RoleEmployee} {
		if Allowed(role, nil) {
			t.Errorf("role %s allowed against empty set", role)
		}
	}
}
