package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dscatalog/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

var userSortColumns = map[string]string{
	"id":         "id",
	"firstName":  "first_name",
	"first_name": "first_name",
	"lastName":   "last_name",
	"last_name":  "last_name",
	"email":      "email",
	"createdAt":  "created_at",
	"created_at": "created_at",
}

const userColumns = `id, email, password_hash, first_name, last_name, created_at, updated_at`

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.User, int, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindRolesFor loads the roles of exactly the given users in one query
	FindRolesFor(ctx context.Context, userIDs []int64) (map[int64][]domain.Role, error)
	Create(ctx context.Context, user *domain.User, roleIDs []int64) ([]domain.Role, error)
	// Update writes profile fields and replaces the role set. The stored
	// password hash is left unchanged.
	Update(ctx context.Context, user *domain.User, roleIDs []int64) ([]domain.Role, error)
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.User, int, error) {
	order, err := orderClause(page.Sort, userSortColumns, "firstName", "id")
	if err != nil {
		return nil, 0, err
	}

	users := make([]*domain.User, 0, page.Size)
	var total int

	err = withTx(ctx, r.db, readSnapshot, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		if page.Offset() >= total {
			return nil
		}

		query := fmt.Sprintf(`SELECT %s FROM users %s LIMIT $1 OFFSET $2`, userColumns, order)
		rows, err := tx.QueryContext(ctx, query, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("failed to scan user: %w", err)
			}
			users = append(users, user)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// FindByEmail retrieves a user by email, ignoring case
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

func (r *userRepository) FindRolesFor(ctx context.Context, userIDs []int64) (map[int64][]domain.Role, error) {
	result := make(map[int64][]domain.Role)

	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT ur.user_id, r.id, r.authority
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id IN (%s)
		ORDER BY ur.user_id, r.authority, r.id
	`, placeholders(1, len(ids)))

	rows, err := r.db.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var role domain.Role
		if err := rows.Scan(&userID, &role.ID, &role.Authority); err != nil {
			return nil, fmt.Errorf("failed to scan user role: %w", err)
		}
		result[userID] = append(result[userID], role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user roles: %w", err)
	}

	return result, nil
}

// Create inserts a new user with its roles in one transaction
func (r *userRepository) Create(ctx context.Context, user *domain.User, roleIDs []int64) ([]domain.Role, error) {
	var roles []domain.Role

	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var err error
		roles, err = resolveRoles(ctx, tx, roleIDs)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO users (email, password_hash, first_name, last_name)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.FirstName, user.LastName).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		return linkRoles(ctx, tx, user.ID, roles)
	})
	if err != nil {
		return nil, err
	}

	return roles, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User, roleIDs []int64) ([]domain.Role, error) {
	var roles []domain.Role

	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		query := `
			UPDATE users
			SET email = $2, first_name = $3, last_name = $4
			WHERE id = $1
			RETURNING password_hash, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, query, user.ID, user.Email, user.FirstName, user.LastName).
			Scan(&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			if isUniqueViolation(err) {
				return ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		roles, err = resolveRoles(ctx, tx, roleIDs)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, user.ID); err != nil {
			return fmt.Errorf("failed to clear user roles: %w", err)
		}

		return linkRoles(ctx, tx, user.ID, roles)
	})
	if err != nil {
		return nil, err
	}

	return roles, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func linkRoles(ctx context.Context, tx *sql.Tx, userID int64, roles []domain.Role) error {
	if len(roles) == 0 {
		return nil
	}

	values := make([]string, len(roles))
	args := make([]interface{}, 0, len(roles)+1)
	args = append(args, userID)
	for i, role := range roles {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, role.ID)
	}

	query := "INSERT INTO user_roles (user_id, role_id) VALUES " + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to link user roles: %w", err)
	}
	return nil
}
