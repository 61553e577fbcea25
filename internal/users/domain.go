package users

import (
	"time"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
)

// User represents a storefront account as seen by the back-office.
type User struct {
	ID          int64             `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Role        rbac.Role         `json:"role"`
	Permissions []rbac.Permission `json:"permissions"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// PrincipalRole implements rbac.Principal.
func (u User) PrincipalRole() rbac.Role { return u.Role }

// GrantedPermissions implements rbac.Principal.
func (u User) GrantedPermissions() []rbac.Permission { return u.Permissions }

// ListFilter narrows ListUsers.
type ListFilter struct {
	Role       rbac.Role
	OnlyActive bool
}

// Actor is the signed-in user performing a change.
type Actor struct {
	ID      int64
	Checker *rbac.Checker
}

// AccessChange describes a role or grant update applied to a user.
type AccessChange struct {
	UserID   int64             `json:"user_id"`
	Email    string            `json:"email"`
	ActorID  int64             `json:"actor_id"`
	Role     rbac.Role         `json:"role"`
	OldRole  rbac.Role         `json:"old_role,omitempty"`
	Added    []rbac.Permission `json:"added,omitempty"`
	Removed  []rbac.Permission `json:"removed,omitempty"`
	ChangeAt time.Time         `json:"changed_at"`
}

// Empty reports whether the change altered nothing.
func (c AccessChange) Empty() bool {
	return c.OldRole == "" && len(c.Added) == 0 && len(c.Removed) == 0
}

var _ rbac.Principal = User{}
