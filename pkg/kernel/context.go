package kernel

// ============================================================================
// Request Context Types
// ============================================================================

// RoleAdmin is the role every tenant gets an initial member of.
const RoleAdmin = "admin"

// RoleUser is the default role assigned when none is requested.
const RoleUser = "user"

// AuthContext is the authenticated identity attached to a request by the
// authorization gate. It is populated exactly once and never mutated by
// downstream handlers.
type AuthContext struct {
	UserID   UserID   `json:"user_id"`
	TenantID TenantID `json:"tenant_id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Roles    []string `json:"roles"`
}

// IsValid reports whether the context identifies a user within a tenant.
func (ac *AuthContext) IsValid() bool {
	return !ac.UserID.IsEmpty() && !ac.TenantID.IsEmpty()
}

// HasRole reports whether the context carries the given role.
func (ac *AuthContext) HasRole(role string) bool {
	for _, r := range ac.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the context carries at least one of the roles.
func (ac *AuthContext) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if ac.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the context carries the admin role.
func (ac *AuthContext) IsAdmin() bool {
	return ac.HasRole(RoleAdmin)
}

// ============================================================================
// Locals Keys
// ============================================================================

// Keys under which request-scoped values live in fiber locals.
const (
	// AuthContextKey holds the *AuthContext set by the authorization gate.
	AuthContextKey = "auth_context"

	// TenantContextKey holds the claimed TenantID set by the tenant resolver.
	TenantContextKey = "tenant_id"
)
