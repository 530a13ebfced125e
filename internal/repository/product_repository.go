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
	ErrProductNotFound = errors.New("product not found")
)

// productSortColumns maps accepted sort fields to columns
var productSortColumns = map[string]string{
	"id":         "p.id",
	"name":       "p.name",
	"price":      "p.price",
	"date":       "p.moment",
	"moment":     "p.moment",
	"createdAt":  "p.created_at",
	"created_at": "p.created_at",
	"updatedAt":  "p.updated_at",
	"updated_at": "p.updated_at",
}

const productColumns = `p.id, p.name, p.description, p.price, p.img_url, p.moment, p.created_at, p.updated_at`

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// FindPage returns one page of products matching filter together with
	// the number of matches across all pages. Each product appears at most
	// once regardless of how many requested categories it belongs to.
	FindPage(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]*domain.Product, int, error)
	// FindCategoriesFor loads the categories of exactly the given products in
	// one query. Products without categories are absent from the map.
	FindCategoriesFor(ctx context.Context, productIDs []int64) (map[int64][]domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product, categoryIDs []int64) ([]domain.Category, error)
	Update(ctx context.Context, product *domain.Product, categoryIDs []int64) ([]domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.ImgURL,
		&product.Moment,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// productWhere builds the WHERE clause shared by the count and page queries
func productWhere(filter domain.ProductFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if ids := uniqueIDs(filter.CategoryIDs); len(ids) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id IN (%s))",
			placeholders(1, len(ids)),
		))
		args = append(args, int64Args(ids)...)
	}

	if filter.Name != "" {
		args = append(args, containsPattern(filter.Name))
		conditions = append(conditions, fmt.Sprintf(`LOWER(p.name) LIKE LOWER($%d) ESCAPE '\'`, len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// FindPage counts and fetches in one read-only snapshot so the total always
// describes the rows it accompanies
func (r *productRepository) FindPage(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]*domain.Product, int, error) {
	order, err := orderClause(page.Sort, productSortColumns, "name", "p.id")
	if err != nil {
		return nil, 0, err
	}

	where, args := productWhere(filter)
	countQuery := "SELECT COUNT(*) FROM products p " + where
	pageQuery := fmt.Sprintf(
		"SELECT %s FROM products p %s %s LIMIT $%d OFFSET $%d",
		productColumns, where, order, len(args)+1, len(args)+2,
	)

	products := make([]*domain.Product, 0, page.Size)
	var total int

	err = withTx(ctx, r.db, readSnapshot, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}

		if page.Offset() >= total {
			return nil
		}

		rows, err := tx.QueryContext(ctx, pageQuery, append(args, page.Size, page.Offset())...)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			product, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("failed to scan product: %w", err)
			}
			products = append(products, product)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating products: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// FindCategoriesFor batch-loads category associations
func (r *productRepository) FindCategoriesFor(ctx context.Context, productIDs []int64) (map[int64][]domain.Category, error) {
	return findCategoriesFor(ctx, r.db, productIDs)
}

func findCategoriesFor(ctx context.Context, q DBTX, productIDs []int64) (map[int64][]domain.Category, error) {
	result := make(map[int64][]domain.Category)

	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		SELECT pc.product_id, c.id, c.name, c.created_at, c.updated_at
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id IN (%s)
		ORDER BY pc.product_id, c.name, c.id
	`, placeholders(1, len(ids)))

	rows, err := q.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var category domain.Category
		if err := rows.Scan(&productID, &category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product category: %w", err)
		}
		result[productID] = append(result[productID], category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product categories: %w", err)
	}

	return result, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// Create inserts the product and links it to categoryIDs in one transaction.
// The generated id and timestamps are written back into product.
func (r *productRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []int64) ([]domain.Category, error) {
	var categories []domain.Category

	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		var err error
		categories, err = resolveCategories(ctx, tx, categoryIDs)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO products (name, description, price, img_url, moment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`
		err = tx.QueryRowContext(
			ctx,
			query,
			product.Name,
			product.Description,
			product.Price,
			product.ImgURL,
			product.Moment,
		).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		return linkCategories(ctx, tx, product.ID, categories)
	})
	if err != nil {
		return nil, err
	}

	return categories, nil
}

// Update overwrites the product's scalar fields and replaces its category
// set with categoryIDs. created_at is never touched.
func (r *productRepository) Update(ctx context.Context, product *domain.Product, categoryIDs []int64) ([]domain.Category, error) {
	var categories []domain.Category

	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		query := `
			UPDATE products
			SET name = $2, description = $3, price = $4, img_url = $5, moment = $6
			WHERE id = $1
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowContext(
			ctx,
			query,
			product.ID,
			product.Name,
			product.Description,
			product.Price,
			product.ImgURL,
			product.Moment,
		).Scan(&product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to update product: %w", err)
		}

		categories, err = resolveCategories(ctx, tx, categoryIDs)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("failed to clear product categories: %w", err)
		}

		return linkCategories(ctx, tx, product.ID, categories)
	})
	if err != nil {
		return nil, err
	}

	return categories, nil
}

// Delete removes a product; its category links go with it
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// resolveCategories loads every category in ids, failing with a
// MissingReferenceError naming the ones that do not exist
func resolveCategories(ctx context.Context, q DBTX, ids []int64) ([]domain.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, name, created_at, updated_at
		FROM categories
		WHERE id IN (%s)
		ORDER BY name, id
	`, placeholders(1, len(ids)))

	rows, err := q.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, len(ids))
	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		found[c.ID] = true
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	if len(categories) != len(ids) {
		missing := make([]int64, 0, len(ids)-len(categories))
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, &MissingReferenceError{Entity: "category", IDs: missing, base: ErrCategoryNotFound}
	}

	return categories, nil
}

func linkCategories(ctx context.Context, tx *sql.Tx, productID int64, categories []domain.Category) error {
	if len(categories) == 0 {
		return nil
	}

	values := make([]string, len(categories))
	args := make([]interface{}, 0, len(categories)+1)
	args = append(args, productID)
	for i, c := range categories {
		values[i] = fmt.Sprintf("($1, $%d)", i+2)
		args = append(args, c.ID)
	}

	query := "INSERT INTO product_categories (product_id, category_id) VALUES " + strings.Join(values, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to link product categories: %w", err)
	}
	return nil
}
