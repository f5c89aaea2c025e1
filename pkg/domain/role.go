package domain

// Role is the single role an identity holds for its lifetime.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleDoctor    Role = "doctor"
	RoleStaff     Role = "staff"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleApplicant, RoleDoctor, RoleStaff:
		return true
	}
	return false
}

// Caller is the capability asserted for a request: who is acting and in which role.
// The zero value is an anonymous caller.
type Caller struct {
	ID   IdentityID
	Role Role
}

// Anonymous reports whether no identity was asserted.
func (c Caller) Anonymous() bool {
	return c.ID.IsNil()
}
