package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dscatalog/internal/domain"
)

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleAlreadyExists = errors.New("role with this authority already exists")
)

// RoleRepository defines the interface for role data access
type RoleRepository interface {
	FindAll(ctx context.Context) ([]*domain.Role, error)
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id int64) error
}

type roleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new instance of RoleRepository
func NewRoleRepository(db *sql.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindAll(ctx context.Context) ([]*domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, authority FROM roles ORDER BY authority, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]*domain.Role, 0)
	for rows.Next() {
		role := &domain.Role{}
		if err := rows.Scan(&role.ID, &role.Authority); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

func (r *roleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	role := &domain.Role{}
	err := r.db.QueryRowContext(ctx, `SELECT id, authority FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Authority)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to find role: %w", err)
	}

	return role, nil
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO roles (authority) VALUES ($1) RETURNING id`, role.Authority).
		Scan(&role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoleAlreadyExists
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	result, err := r.db.ExecContext(ctx, `UPDATE roles SET authority = $2 WHERE id = $1`, role.ID, role.Authority)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoleAlreadyExists
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// resolveRoles loads every role in ids, failing with a MissingReferenceError
// naming the ones that do not exist
func resolveRoles(ctx context.Context, q DBTX, ids []int64) ([]domain.Role, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Role{}, nil
	}

	query := fmt.Sprintf(`SELECT id, authority FROM roles WHERE id IN (%s) ORDER BY authority, id`, placeholders(1, len(ids)))

	rows, err := q.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.Role, 0, len(ids))
	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Authority); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		found[role.ID] = true
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	if len(roles) != len(ids) {
		var missing []int64
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, &MissingReferenceError{Entity: "role", IDs: missing, base: ErrRoleNotFound}
	}

	return roles, nil
}
