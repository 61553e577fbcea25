package rbac

// Principal describes the authenticated actor whose access is being checked.
type Principal interface {
	PrincipalRole() Role
	GrantedPermissions() []Permission
}

// Authorizer answers permission queries for a single principal.
type Authorizer interface {
	HasAny(perms ...Permission) bool
	HasAll(perms ...Permission) bool
}

// Subject is a plain Principal value, handy when only role and grants are known.
type Subject struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// PrincipalRole implements Principal.
func (s Subject) PrincipalRole() Role { return s.Role }

// GrantedPermissions implements Principal.
func (s Subject) GrantedPermissions() []Permission { return s.Permissions }
