package models

// Role is the account role carried in authentication tokens.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin:
		return true
	}
	return false
}

// OrDefault returns r, or RoleStandard when r is empty or unknown.
func (r Role) OrDefault() Role {
	if r.Valid() {
		return r
	}
	return RoleStandard
}
