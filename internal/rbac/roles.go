package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRole indicates a role value outside the known roles.
var ErrInvalidRole = errors.New("rbac: invalid role")

// Role is the account type a user is created with.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Roles lists every role from least to most privileged.
func Roles() []Role {
	return []Role{RoleCustomer, RoleAdmin, RoleSuperAdmin}
}

// ParseRole converts raw into a Role, rejecting unknown values.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.TrimSpace(strings.ToLower(raw))); r {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Label returns the display name of r.
func (r Role) Label() string {
	switch r {
	case RoleCustomer:
		return "Customer"
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "Super Admin"
	}
	return string(r)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown roles.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

var adminDefaults = []Permission{
	PermDashboardView,
	PermProductsView,
	PermProductsCreate,
	PermProductsEdit,
	PermOrdersView,
	PermOrdersEdit,
	PermCustomersView,
	PermReviewsView,
	PermReviewsModerate,
	PermBlogView,
	PermBlogCreate,
	PermBlogEdit,
	PermReportsView,
	PermShippingView,
	PermShippingManage,
	PermSettingsView,
}

// DefaultPermissions returns the baseline permissions of role.
// Super admins receive the whole catalog. It panics on an unknown role, which
// can only reach here when a record bypassed ParseRole.
func DefaultPermissions(role Role) []Permission {
	switch role {
	case RoleSuperAdmin:
		return AllPermissions()
	case RoleAdmin:
		return append([]Permission(nil), adminDefaults...)
	case RoleCustomer:
		return []Permission{}
	default:
		panic(fmt.Sprintf("rbac: no default permissions for role %q", string(role)))
	}
}
