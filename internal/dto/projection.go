// Package dto holds the shapes the API reads and writes. Projections are
// rebuilt from domain entities on every read and never persisted.
package dto

import (
	"time"

	"dscatalog/internal/domain"

	"github.com/shopspring/decimal"
)

// CategorySummary is the category shape embedded in other projections
type CategorySummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductSummary carries a product's scalar fields
type ProductSummary struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImgURL      string          `json:"imgUrl"`
	Date        time.Time       `json:"date"`
}

// ProductDetail is a product with its categories
type ProductDetail struct {
	ProductSummary
	Categories []CategorySummary `json:"categories"`
}

// RoleSummary is the public shape of a role
type RoleSummary struct {
	ID        int64  `json:"id"`
	Authority string `json:"authority"`
}

// UserSummary is the public shape of a user. The password hash never
// leaves the service layer.
type UserSummary struct {
	ID        int64         `json:"id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Email     string        `json:"email"`
	Roles     []RoleSummary `json:"roles"`
}

func NewCategorySummary(c domain.Category) CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name}
}

func NewProductSummary(p *domain.Product) ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImgURL:      p.ImgURL,
		Date:        p.Moment,
	}
}

// NewProductDetail projects a product and its categories. It never fails;
// a product with no categories projects to an empty list, not null.
func NewProductDetail(p *domain.Product, categories []domain.Category) ProductDetail {
	summaries := make([]CategorySummary, 0, len(categories))
	for _, c := range categories {
		summaries = append(summaries, NewCategorySummary(c))
	}
	return ProductDetail{
		ProductSummary: NewProductSummary(p),
		Categories:     summaries,
	}
}

// NewProductDetails projects a page of products using categories grouped by
// product id
func NewProductDetails(products []*domain.Product, categories map[int64][]domain.Category) []ProductDetail {
	details := make([]ProductDetail, 0, len(products))
	for _, p := range products {
		details = append(details, NewProductDetail(p, categories[p.ID]))
	}
	return details
}

func NewRoleSummary(r domain.Role) RoleSummary {
	return RoleSummary{ID: r.ID, Authority: r.Authority}
}

func NewUserSummary(u *domain.User, roles []domain.Role) UserSummary {
	summaries := make([]RoleSummary, 0, len(roles))
	for _, r := range roles {
		summaries = append(summaries, NewRoleSummary(r))
	}
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     summaries,
	}
}

// Authorities lists the authority names of a user's roles
func (u UserSummary) Authorities() []string {
	out := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		out[i] = r.Authority
	}
	return out
}
