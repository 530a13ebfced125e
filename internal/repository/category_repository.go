package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dscatalog/internal/domain"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

var categorySortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.Category, int, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// FindPage lists categories one page at a time
func (r *categoryRepository) FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.Category, int, error) {
	order, err := orderClause(page.Sort, categorySortColumns, "name", "id")
	if err != nil {
		return nil, 0, err
	}

	categories := make([]*domain.Category, 0, page.Size)
	var total int

	err = withTx(ctx, r.db, readSnapshot, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}

		if page.Offset() >= total {
			return nil
		}

		query := fmt.Sprintf(`
			SELECT id, name, created_at, updated_at
			FROM categories
			%s
			LIMIT $1 OFFSET $2
		`, order)

		rows, err := tx.QueryContext(ctx, query, page.Size, page.Offset())
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			category := &domain.Category{}
			if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
				return fmt.Errorf("failed to scan category: %w", err)
			}
			categories = append(categories, category)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return categories, total, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	category := &domain.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

// Create inserts a new category and fills in its generated fields
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, category.Name).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// Update renames a category
func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $2
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, category.ID, category.Name).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	return nil
}

// Delete removes a category. Categories still linked to products are
// protected by a foreign key and the driver error is returned wrapped.
func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
