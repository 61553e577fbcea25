package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
)

// Audit actions recorded for access changes.
const (
	AuditEntity            = "users"
	AuditPermissionsUpdate = "PERMISSIONS_UPDATE"
	AuditRoleChange        = "ROLE_CHANGE"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Notifier is told about committed access changes.
type Notifier interface {
	NotifyAccessChanged(ctx context.Context, change AccessChange) error
}

// Service handles user access business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance. notifier may be nil.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// ListUsers returns users matching filter.
func (s *Service) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	return s.repo.ListUsers(ctx, filter)
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Principal loads the current state of an active user for authorization.
// Deactivated accounts are reported as not found.
func (s *Service) Principal(ctx context.Context, id int64) (rbac.Principal, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

// Access returns the effective access summary of a user.
func (s *Service) Access(ctx context.Context, id int64) (rbac.AccessSummary, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return rbac.AccessSummary{}, err
	}
	return rbac.Summarize(user), nil
}

// SetPermissions replaces the custom grants of a user.
func (s *Service) SetPermissions(ctx context.Context, actor Actor, id int64, perms []rbac.Permission) (User, error) {
	if err := rbac.ValidateGrants(perms); err != nil {
		return User{}, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	return s.updateGrants(ctx, actor, id, func([]rbac.Permission) ([]rbac.Permission, error) {
		return rbac.NormalizeGrants(perms), nil
	})
}

// TogglePermission grants or revokes a single custom permission.
func (s *Service) TogglePermission(ctx context.Context, actor Actor, id int64, perm rbac.Permission, enabled bool) (User, error) {
	if !perm.Valid() {
		return User{}, fmt.Errorf("%w: %w: %q", shared.ErrValidation, rbac.ErrUnknownPermission, perm)
	}
	return s.updateGrants(ctx, actor, id, func(current []rbac.Permission) ([]rbac.Permission, error) {
		return rbac.TogglePermission(current, perm, enabled), nil
	})
}

// ToggleGroup grants or revokes every permission of a functional group.
func (s *Service) ToggleGroup(ctx context.Context, actor Actor, id int64, group string, enabled bool) (User, error) {
	if _, ok := rbac.LookupGroup(group); !ok {
		return User{}, fmt.Errorf("%w: %w: %q", shared.ErrValidation, rbac.ErrUnknownGroup, group)
	}
	return s.updateGrants(ctx, actor, id, func(current []rbac.Permission) ([]rbac.Permission, error) {
		return rbac.ToggleGroup(current, group, enabled)
	})
}

// ChangeRole moves a user to another role. Only super admins may change
// roles and nobody may change their own.
func (s *Service) ChangeRole(ctx context.Context, actor Actor, id int64, role rbac.Role) (User, error) {
	if !role.Valid() {
		return User{}, fmt.Errorf("%w: %w: %q", shared.ErrValidation, rbac.ErrInvalidRole, role)
	}
	if actor.Checker == nil || !actor.Checker.IsSuperAdmin() {
		return User{}, fmt.Errorf("%w: only super admins can change roles", shared.ErrForbidden)
	}
	if actor.ID == id {
		return User{}, fmt.Errorf("%w: cannot change your own role", shared.ErrForbidden)
	}

	var (
		updated User
		change  AccessChange
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}
		change = AccessChange{UserID: user.ID, Email: user.Email, ActorID: actor.ID, Role: role, ChangeAt: s.now().UTC()}
		if user.Role == role {
			updated = user
			return nil
		}
		change.OldRole = user.Role
		if err := tx.SetRole(ctx, id, role); err != nil {
			return err
		}
		if err := tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   AuditRoleChange,
			Entity:   AuditEntity,
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"from": user.Role, "to": role},
			At:       change.ChangeAt,
		}); err != nil {
			return err
		}
		user.Role = role
		updated = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	s.notify(ctx, change)
	return updated, nil
}

func (s *Service) updateGrants(ctx context.Context, actor Actor, id int64, next func([]rbac.Permission) ([]rbac.Permission, error)) (User, error) {
	if err := authorizeGrantEdit(actor, id); err != nil {
		return User{}, err
	}

	var (
		updated User
		change  AccessChange
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}
		grants, err := next(user.Permissions)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		added, removed := diffGrants(user.Permissions, grants)
		if err := authorizeGrantScope(actor, added); err != nil {
			return err
		}
		change = AccessChange{
			UserID:   user.ID,
			Email:    user.Email,
			ActorID:  actor.ID,
			Role:     user.Role,
			Added:    added,
			Removed:  removed,
			ChangeAt: s.now().UTC(),
		}
		user.Permissions = grants
		updated = user
		if change.Empty() {
			return nil
		}
		if err := tx.SetPermissions(ctx, id, grants); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   AuditPermissionsUpdate,
			Entity:   AuditEntity,
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"added": added, "removed": removed},
			At:       change.ChangeAt,
		})
	})
	if err != nil {
		return User{}, err
	}
	s.notify(ctx, change)
	return updated, nil
}

// authorizeGrantEdit requires admins.permissions and blocks admins from
// editing their own grants. Super admins already hold every permission.
func authorizeGrantEdit(actor Actor, id int64) error {
	if actor.Checker == nil || !actor.Checker.Has(rbac.PermAdminsPermissions) {
		return fmt.Errorf("%w: missing %s", shared.ErrForbidden, rbac.PermAdminsPermissions)
	}
	if actor.ID == id && !actor.Checker.IsSuperAdmin() {
		return fmt.Errorf("%w: cannot edit your own permissions", shared.ErrForbidden)
	}
	return nil
}

// authorizeGrantScope keeps delegates from handing out permissions they do
// not hold themselves. Revoking is not limited.
func authorizeGrantScope(actor Actor, added []rbac.Permission) error {
	if actor.Checker.IsSuperAdmin() || actor.Checker.HasAll(added...) {
		return nil
	}
	var missing []string
	for _, p := range added {
		if !actor.Checker.Has(p) {
			missing = append(missing, p.String())
		}
	}
	return fmt.Errorf("%w: cannot grant permissions you do not hold: %s", shared.ErrForbidden, strings.Join(missing, ", "))
}

func (s *Service) notify(ctx context.Context, change AccessChange) {
	if s.notifier == nil || change.Empty() {
		return
	}
	if err := s.notifier.NotifyAccessChanged(ctx, change); err != nil {
		s.logger.Warn("notify access change", slog.Int64("user_id", change.UserID), slog.Any("error", err))
	}
}

func diffGrants(before, after []rbac.Permission) (added, removed []rbac.Permission) {
	prev := make(map[rbac.Permission]struct{}, len(before))
	for _, p := range before {
		prev[p] = struct{}{}
	}
	next := make(map[rbac.Permission]struct{}, len(after))
	for _, p := range after {
		next[p] = struct{}{}
		if _, ok := prev[p]; !ok {
			added = append(added, p)
		}
	}
	for _, p := range before {
		if _, ok := next[p]; !ok {
			removed = append(removed, p)
		}
	}
	return added, removed
}
