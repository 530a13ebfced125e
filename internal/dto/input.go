package dto

import (
	"strings"
	"time"

	"dscatalog/internal/domain"

	"github.com/shopspring/decimal"
)

// Reference points at an existing entity by id
type Reference struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// ProductInput is the write model for creating or replacing a product
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=1,max=255"`
	Description string          `json:"description" validate:"max=10000"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	ImgURL      string          `json:"imgUrl" validate:"omitempty,url,max=500"`
	Date        time.Time       `json:"date" validate:"required"`
	Categories  []Reference     `json:"categories" validate:"dive"`
}

// Product builds the entity carrying the input's scalar fields
func (in ProductInput) Product() *domain.Product {
	return &domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ImgURL:      in.ImgURL,
		Moment:      in.Date,
	}
}

// CategoryIDs lists referenced category ids in input order
func (in ProductInput) CategoryIDs() []int64 {
	return referenceIDs(in.Categories)
}

type CategoryInput struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type RoleInput struct {
	Authority string `json:"authority" validate:"required,startswith=ROLE_,max=50"`
}

// UserInput is the write model for updating a user. Roles replace the
// user's current set.
type UserInput struct {
	FirstName string      `json:"firstName" validate:"required,max=100"`
	LastName  string      `json:"lastName" validate:"max=100"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Roles     []Reference `json:"roles" validate:"dive"`
}

func (in UserInput) User() *domain.User {
	return &domain.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
	}
}

func (in UserInput) RoleIDs() []int64 {
	return referenceIDs(in.Roles)
}

// UserInsertInput adds the initial password to UserInput
type UserInsertInput struct {
	UserInput
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// RefreshResult carries the replacement refresh token; the one presented
// is no longer valid
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func referenceIDs(refs []Reference) []int64 {
	ids := make([]int64, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
