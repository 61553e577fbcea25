package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/httpx"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
)

// AuditReader lists recent audit entries of an entity.
type AuditReader interface {
	Recent(ctx context.Context, entity, entityID string, limit int) ([]shared.AuditLog, error)
}

// Handler manages admin user endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     AuditReader
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit AuditReader, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermAdminsView))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
		r.Get("/{id}/access", h.getAccess)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermAdminsPermissions))
		r.Put("/{id}/permissions", h.setPermissions)
		r.Post("/{id}/permissions/toggle", h.togglePermission)
		r.Post("/{id}/groups/toggle", h.toggleGroup)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermAdminsEdit))
		r.Put("/{id}/role", h.changeRole)
	})
}

type permissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type toggleRequest struct {
	Permission string `json:"permission" validate:"required"`
	Enabled    *bool  `json:"enabled" validate:"required"`
}

type groupToggleRequest struct {
	Group   string `json:"group" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

type roleRequest struct {
	Role rbac.Role `json:"role" validate:"required"`
}

type accessResponse struct {
	User    User               `json:"user"`
	Access  rbac.AccessSummary `json:"access"`
	History []shared.AuditLog  `json:"history"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{OnlyActive: r.URL.Query().Get("active") == "true"}
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role, err := rbac.ParseRole(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		filter.Role = role
	}
	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.fail(w, "list users failed", err)
		return
	}
	if users == nil {
		users = []User{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "get user failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) getAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var resp accessResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		user, err := h.service.GetUser(ctx, id)
		if err != nil {
			return err
		}
		resp.User = user
		resp.Access = rbac.Summarize(user)
		return nil
	})
	g.Go(func() error {
		if h.audit == nil {
			return nil
		}
		history, err := h.audit.Recent(ctx, AuditEntity, strconv.FormatInt(id, 10), 20)
		if err != nil {
			return err
		}
		resp.History = history
		return nil
	})
	if err := g.Wait(); err != nil {
		h.fail(w, "load access failed", err)
		return
	}
	if resp.History == nil {
		resp.History = []shared.AuditLog{}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) setPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req permissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	perms := make([]rbac.Permission, 0, len(req.Permissions))
	for _, raw := range req.Permissions {
		p, err := rbac.ParsePermission(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		perms = append(perms, p)
	}
	user, err := h.service.SetPermissions(r.Context(), h.actor(r), id, perms)
	h.respondUser(w, user, err)
}

func (h *Handler) togglePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	perm, err := rbac.ParsePermission(req.Permission)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.TogglePermission(r.Context(), h.actor(r), id, perm, *req.Enabled)
	h.respondUser(w, user, err)
}

func (h *Handler) toggleGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req groupToggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.ToggleGroup(r.Context(), h.actor(r), id, req.Group, *req.Enabled)
	h.respondUser(w, user, err)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.service.ChangeRole(r.Context(), h.actor(r), id, req.Role)
	h.respondUser(w, user, err)
}

func (h *Handler) respondUser(w http.ResponseWriter, user User, err error) {
	if err != nil {
		h.fail(w, "update access failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"access": rbac.Summarize(user),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fe.Field()+": "+fe.Tag())
			}
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(msgs, "; "))
			return false
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *Handler) actor(r *http.Request) Actor {
	actor := Actor{Checker: rbac.CheckerFromContext(r.Context())}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor.ID, _ = strconv.ParseInt(sess.User(), 10, 64)
	}
	return actor
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrForbidden) && !errors.Is(err, shared.ErrValidation) && h.logger != nil {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
