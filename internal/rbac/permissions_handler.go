package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/httpx"
)

// PermissionsHandler exposes the permission catalog to editing screens.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermAdminsView, PermAdminsPermissions))
		r.Get("/", h.listPermissions)
		r.Get("/roles", h.listRoleDefaults)
	})
}

type roleDefaults struct {
	Role        Role         `json:"role"`
	Label       string       `json:"label"`
	Permissions []Permission `json:"permissions"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	groups := Catalog()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"groups": groups,
		"total":  len(AllPermissions()),
	})
}

func (h *PermissionsHandler) listRoleDefaults(w http.ResponseWriter, r *http.Request) {
	roles := Roles()
	out := make([]roleDefaults, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleDefaults{Role: role, Label: role.Label(), Permissions: DefaultPermissions(role)})
	}
	httpx.JSON(w, http.StatusOK, out)
}
