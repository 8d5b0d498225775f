package domain

import "regexp"

// Role is the coarse permission level carried in a session claim.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
)

// companyIDPattern bounds what we accept as a tenant identifier. Anything
// outside this set is treated as a forged or corrupted claim.
var companyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

// ValidCompanyID reports whether id is an acceptable tenant identifier.
func ValidCompanyID(id string) bool {
	return companyIDPattern.MatchString(id)
}

// Session is the immutable per-connection context established once at
// handshake time. Handlers receive it explicitly; nothing reads ambient
// connection state.
type Session struct {
	UserID    string
	Email     string
	Role      Role
	CompanyID string
	// MetadataCompanyID is the tenant recorded in the identity provider's
	// user metadata. It must equal CompanyID or the session is rejected,
	// which guards against a stale or forged tenant claim.
	MetadataCompanyID string
}

// Valid reports whether the session carries a well-formed, consistent
// tenant claim.
func (s Session) Valid() bool {
	return ValidCompanyID(s.CompanyID) && s.MetadataCompanyID == s.CompanyID
}
