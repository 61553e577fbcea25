package navigation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/httpx"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
)

// MenuSource yields the menu tree to filter. AdminMenu is the production source.
type MenuSource func() []rbac.NavigationItem

// Handler renders the caller's visible menu.
type Handler struct {
	logger *slog.Logger
	menu   MenuSource
}

// NewHandler builds a Handler. A nil menu falls back to AdminMenu.
func NewHandler(logger *slog.Logger, menu MenuSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if menu == nil {
		menu = AdminMenu
	}
	return &Handler{logger: logger, menu: menu}
}

// MountRoutes registers navigation routes. The request checker must already
// be attached by rbac.Middleware.Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.visibleMenu)
}

func (h *Handler) visibleMenu(w http.ResponseWriter, r *http.Request) {
	checker := rbac.CheckerFromContext(r.Context())
	if checker == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	items := rbac.FilterNavigation(h.menu(), checker)
	h.logger.Debug("navigation filtered", slog.String("role", string(checker.Role())), slog.Int("top_level", len(items)))
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}
