package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/db"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/rbac"
	"github.com/Chambu-Digital/javic-collection-sub001/internal/shared"
)

// TxRepository exposes the writes performed inside one transaction.
type TxRepository interface {
	GetUserForUpdate(ctx context.Context, id int64) (User, error)
	SetPermissions(ctx context.Context, id int64, perms []rbac.Permission) error
	SetRole(ctx context.Context, id int64, role rbac.Role) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool  *pgxpool.Pool
	audit *shared.AuditLogger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, audit *shared.AuditLogger) *Repository {
	return &Repository{pool: pool, audit: audit}
}

const selectUser = `SELECT id, email, name, role, permissions, is_active, created_at, updated_at FROM users`

// ListUsers returns users matching filter ordered by id.
func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]User, error) {
	rows, err := r.pool.Query(ctx, selectUser+` WHERE ($1 = '' OR role = $1) AND (NOT $2 OR is_active) ORDER BY id`, string(filter.Role), filter.OnlyActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// WithTx runs fn inside a read-committed transaction. Rows read with
// GetUserForUpdate stay locked until it ends.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, audit: r.audit.WithDB(tx)})
	})
}

type txRepo struct {
	tx    pgx.Tx
	audit *shared.AuditLogger
}

func (t *txRepo) GetUserForUpdate(ctx context.Context, id int64) (User, error) {
	return scanUser(t.tx.QueryRow(ctx, selectUser+` WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) SetPermissions(ctx context.Context, id int64, perms []rbac.Permission) error {
	raw := make([]string, len(perms))
	for i, p := range perms {
		raw[i] = string(p)
	}
	tag, err := t.tx.Exec(ctx, `UPDATE users SET permissions = $2, updated_at = NOW() WHERE id = $1`, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) SetRole(ctx context.Context, id int64, role rbac.Role) error {
	tag, err := t.tx.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return t.audit.Record(ctx, log)
}

// scanUser maps a row into User. A stored role outside the known roles is a
// data-integrity failure and is returned as an error, never defaulted.
func scanUser(row pgx.Row) (User, error) {
	var (
		user  User
		role  string
		perms []string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &role, &perms, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	parsed, err := rbac.ParseRole(role)
	if err != nil {
		return User{}, fmt.Errorf("users: user %d: %w", user.ID, err)
	}
	user.Role = parsed
	user.Permissions = make([]rbac.Permission, len(perms))
	for i, p := range perms {
		user.Permissions[i] = rbac.Permission(p)
	}
	return user, nil
}

var _ RepositoryPort = (*Repository)(nil)
