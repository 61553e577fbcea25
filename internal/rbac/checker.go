package rbac

import "sort"

// Checker is an immutable view of a principal's effective permissions:
// the role defaults plus any custom grants. Build one per request.
type Checker struct {
	role      Role
	effective map[Permission]struct{}
}

// NewChecker computes the effective permissions for role and granted.
// Grants only ever add to the role defaults. Grants outside the catalog are
// kept but can never satisfy a catalog permission.
func NewChecker(role Role, granted []Permission) *Checker {
	defaults := DefaultPermissions(role)
	effective := make(map[Permission]struct{}, len(defaults)+len(granted))
	for _, p := range defaults {
		effective[p] = struct{}{}
	}
	for _, p := range granted {
		effective[p] = struct{}{}
	}
	return &Checker{role: role, effective: effective}
}

// CheckerFor builds a Checker from p.
func CheckerFor(p Principal) *Checker {
	return NewChecker(p.PrincipalRole(), p.GrantedPermissions())
}

// Role returns the role the checker was built for.
func (c *Checker) Role() Role {
	return c.role
}

// Has reports whether p is an effective permission.
func (c *Checker) Has(p Permission) bool {
	_, ok := c.effective[p]
	return ok
}

// HasAny reports whether at least one of perms is held.
// An empty list is never satisfied.
func (c *Checker) HasAny(perms ...Permission) bool {
	for _, p := range perms {
		if c.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of perms is held.
// An empty list is always satisfied.
func (c *Checker) HasAll(perms ...Permission) bool {
	for _, p := range perms {
		if !c.Has(p) {
			return false
		}
	}
	return true
}

// IsSuperAdmin reports whether the role is super_admin.
func (c *Checker) IsSuperAdmin() bool {
	return c.role == RoleSuperAdmin
}

// IsAdminOrAbove reports whether the role is admin or super_admin.
func (c *Checker) IsAdminOrAbove() bool {
	return c.role == RoleAdmin || c.role == RoleSuperAdmin
}

// Count returns the number of effective permissions.
func (c *Checker) Count() int {
	return len(c.effective)
}

// Permissions returns the effective permissions, catalog entries first in
// catalog order followed by unknown grants sorted lexically.
func (c *Checker) Permissions() []Permission {
	perms := make([]Permission, 0, len(c.effective))
	for p := range c.effective {
		perms = append(perms, p)
	}
	sortPermissions(perms)
	return perms
}

func sortPermissions(perms []Permission) {
	sort.Slice(perms, func(i, j int) bool {
		ii, iok := catalogIndex[perms[i]]
		jj, jok := catalogIndex[perms[j]]
		switch {
		case iok && jok:
			return ii < jj
		case iok != jok:
			return iok
		default:
			return perms[i] < perms[j]
		}
	})
}

var _ Authorizer = (*Checker)(nil)
