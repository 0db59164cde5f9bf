package models

// Role hierarchy: admin > operator.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// HasRole reports whether role meets the minimum required role.
func HasRole(role, requiredRole string) bool {
	if role == RoleAdmin {
		return true
	}
	if requiredRole == RoleOperator {
		return role == RoleOperator
	}
	return false
}
