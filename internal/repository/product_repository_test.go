package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"dscatalog/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gotest.tools/assert"
)

var productLabels = []string{"id", "name", "description", "price", "img_url", "moment", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NilError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestProductRepository_FindPageFiltersAndPaginates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p WHERE EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id IN ($1, $2)) AND LOWER(p.name) LIKE LOWER($3)")).
		WithArgs(int64(2), int64(3), "%mac%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.name ASC, p.id ASC LIMIT $4 OFFSET $5")).
		WithArgs(int64(2), int64(3), "%mac%", 12, 0).
		WillReturnRows(sqlmock.NewRows(productLabels).
			AddRow(int64(3), "Macbook Pro", "Lorem", "1250.00", "3-big.jpg", now, now, now))
	mock.ExpectCommit()

	filter := domain.ProductFilter{CategoryIDs: []int64{3, 2, 3}, Name: "mac"}
	products, total, err := repo.FindPage(context.Background(), filter, domain.PageRequest{Page: 0, Size: 12})

	assert.NilError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, len(products))
	assert.Equal(t, "Macbook Pro", products[0].Name)
	assert.Assert(t, products[0].Price.Equal(decimal.RequireFromString("1250")))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindPageWithoutFilterHasNoWhere(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM products p$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta("FROM products p ORDER BY p.price DESC, p.id ASC LIMIT $1 OFFSET $2")).
		WithArgs(5, 10).
		WillReturnRows(sqlmock.NewRows(productLabels))
	mock.ExpectCommit()

	page := domain.PageRequest{Page: 2, Size: 5, Sort: domain.Sort{Field: "price", Direction: domain.Desc}}
	products, total, err := repo.FindPage(context.Background(), domain.ProductFilter{}, page)

	assert.NilError(t, err)
	assert.Equal(t, 25, total)
	assert.Assert(t, products != nil)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindPageBeyondLastPageSkipsFetch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectCommit()

	products, total, err := repo.FindPage(context.Background(), domain.ProductFilter{}, domain.PageRequest{Page: 1, Size: 12})

	assert.NilError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 0, len(products))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindPageRejectsUnknownSortField(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	page := domain.PageRequest{Page: 0, Size: 12, Sort: domain.Sort{Field: "password_hash"}}
	_, _, err := repo.FindPage(context.Background(), domain.ProductFilter{}, page)

	assert.Assert(t, errors.Is(err, ErrInvalidSortField))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindPageRollsBackOnCountFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("err-count"))
	mock.ExpectRollback()

	_, _, err := repo.FindPage(context.Background(), domain.ProductFilter{}, domain.PageRequest{Page: 0, Size: 12})

	assert.ErrorContains(t, err, "err-count")
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindCategoriesForGroupsByProduct(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE pc.product_id IN ($1, $2, $3)")).
		WithArgs(int64(1), int64(3), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name", "created_at", "updated_at"}).
			AddRow(int64(1), int64(1), "Books", now, now).
			AddRow(int64(3), int64(3), "Computers", now, now).
			AddRow(int64(3), int64(2), "Electronics", now, now))

	categories, err := repo.FindCategoriesFor(context.Background(), []int64{4, 3, 1, 3})

	assert.NilError(t, err)
	assert.Equal(t, 1, len(categories[1]))
	assert.Equal(t, 2, len(categories[3]))
	assert.Equal(t, "Computers", categories[3][0].Name)
	_, ok := categories[4]
	assert.Assert(t, !ok)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindCategoriesForEmptyInputSkipsQuery(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	categories, err := repo.FindCategoriesFor(context.Background(), nil)

	assert.NilError(t, err)
	assert.Equal(t, 0, len(categories))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_FindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products p WHERE p.id = $1")).
		WithArgs(int64(1000)).
		WillReturnRows(sqlmock.NewRows(productLabels))

	_, err := repo.FindByID(context.Background(), 1000)

	assert.Assert(t, errors.Is(err, ErrProductNotFound))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateLinksResolvedCategories(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now()
	moment := time.Date(2020, 7, 13, 20, 50, 7, 0, time.UTC)
	price := decimal.RequireFromString("99.90")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM categories WHERE id IN ($1, $2)")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(int64(1), "Books", now, now).
			AddRow(int64(2), "Electronics", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products (name, description, price, img_url, moment)")).
		WithArgs("Phone", "Smart", price, "phone.jpg", moment).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(26), now, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2), ($1, $3)")).
		WithArgs(int64(26), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	product := &domain.Product{Name: "Phone", Description: "Smart", Price: price, ImgURL: "phone.jpg", Moment: moment}
	categories, err := repo.Create(context.Background(), product, []int64{2, 1, 2})

	assert.NilError(t, err)
	assert.Equal(t, int64(26), product.ID)
	assert.Equal(t, 2, len(categories))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateWithUnknownCategoryRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM categories").
		WithArgs(int64(1), int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow(int64(1), "Books", now, now))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &domain.Product{Name: "Orphan"}, []int64{99, 1})

	var missing *MissingReferenceError
	assert.Assert(t, errors.As(err, &missing))
	assert.DeepEqual(t, []int64{99}, missing.IDs)
	assert.Assert(t, errors.Is(err, ErrCategoryNotFound))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateReplacesCategorySet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products SET name = $2")).
		WithArgs(int64(3), "Macbook Air", "", decimal.RequireFromString("999"), "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery("FROM categories").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).AddRow(int64(1), "Books", now, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_categories WHERE product_id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO product_categories").
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	product := &domain.Product{ID: 3, Name: "Macbook Air", Price: decimal.RequireFromString("999")}
	categories, err := repo.Update(context.Background(), product, []int64{1})

	assert.NilError(t, err)
	assert.Equal(t, 1, len(categories))
	assert.Equal(t, "Books", categories[0].Name)
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateWithEmptyCategoriesClearsLinks(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE products").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec("DELETE FROM product_categories").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	categories, err := repo.Update(context.Background(), &domain.Product{ID: 3}, nil)

	assert.NilError(t, err)
	assert.Assert(t, categories != nil)
	assert.Equal(t, 0, len(categories))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateMissingProduct(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE products").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), &domain.Product{ID: 1000}, []int64{1})

	assert.Assert(t, errors.Is(err, ErrProductNotFound))
	assert.NilError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
			WithArgs(int64(1000)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewProductRepository(db).Delete(context.Background(), 1000)
		assert.Assert(t, errors.Is(err, ErrProductNotFound))
	})

	t.Run("referenced", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("DELETE FROM products").
			WithArgs(int64(1)).
			WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

		err := NewProductRepository(db).Delete(context.Background(), 1)
		var pgErr *pgconn.PgError
		assert.Assert(t, errors.As(err, &pgErr))
		assert.Equal(t, "23503", pgErr.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec("DELETE FROM products").
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NilError(t, NewProductRepository(db).Delete(context.Background(), 1))
		assert.NilError(t, mock.ExpectationsWereMet())
	})
}
