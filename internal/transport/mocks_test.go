package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"dscatalog/internal/domain"
	"dscatalog/internal/dto"
	"dscatalog/internal/middleware"
	"dscatalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "handler-test-secret"

// mockProductService records the arguments it was called with and answers
// from canned results
type mockProductService struct {
	page   dto.Page[dto.ProductDetail]
	all    []dto.ProductDetail
	detail dto.ProductDetail
	err    error

	filter  domain.ProductFilter
	request domain.PageRequest
	sort    domain.Sort
	input   dto.ProductInput
	id      int64
}

func (m *mockProductService) FindAllPaged(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (dto.Page[dto.ProductDetail], error) {
	m.filter, m.request = filter, page
	if m.err != nil {
		return dto.Page[dto.ProductDetail]{}, m.err
	}
	if err := page.Validate(); err != nil {
		return dto.Page[dto.ProductDetail]{}, err
	}
	return m.page, nil
}

func (m *mockProductService) FindAllMatching(ctx context.Context, filter domain.ProductFilter, sort domain.Sort) ([]dto.ProductDetail, error) {
	m.filter, m.sort = filter, sort
	return m.all, m.err
}

func (m *mockProductService) FindByID(ctx context.Context, id int64) (dto.ProductDetail, error) {
	m.id = id
	return m.detail, m.err
}

func (m *mockProductService) Insert(ctx context.Context, input dto.ProductInput) (dto.ProductDetail, error) {
	m.input = input
	return m.detail, m.err
}

func (m *mockProductService) Update(ctx context.Context, id int64, input dto.ProductInput) (dto.ProductDetail, error) {
	m.id, m.input = id, input
	return m.detail, m.err
}

func (m *mockProductService) Delete(ctx context.Context, id int64) error {
	m.id = id
	return m.err
}

type mockCategoryService struct {
	page     dto.Page[dto.CategorySummary]
	category dto.CategorySummary
	err      error
	id       int64
}

func (m *mockCategoryService) FindAllPaged(ctx context.Context, page domain.PageRequest) (dto.Page[dto.CategorySummary], error) {
	return m.page, m.err
}

func (m *mockCategoryService) FindByID(ctx context.Context, id int64) (dto.CategorySummary, error) {
	m.id = id
	return m.category, m.err
}

func (m *mockCategoryService) Insert(ctx context.Context, input dto.CategoryInput) (dto.CategorySummary, error) {
	return m.category, m.err
}

func (m *mockCategoryService) Update(ctx context.Context, id int64, input dto.CategoryInput) (dto.CategorySummary, error) {
	m.id = id
	return m.category, m.err
}

func (m *mockCategoryService) Delete(ctx context.Context, id int64) error {
	m.id = id
	return m.err
}

type mockRoleService struct {
	roles []dto.RoleSummary
	err   error
}

func (m *mockRoleService) FindAll(ctx context.Context) ([]dto.RoleSummary, error) {
	return m.roles, m.err
}

func (m *mockRoleService) FindByID(ctx context.Context, id int64) (dto.RoleSummary, error) {
	for _, r := range m.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return dto.RoleSummary{}, domain.NewNotFound("role", id)
}

func (m *mockRoleService) Insert(ctx context.Context, input dto.RoleInput) (dto.RoleSummary, error) {
	role := dto.RoleSummary{ID: int64(len(m.roles) + 1), Authority: input.Authority}
	m.roles = append(m.roles, role)
	return role, m.err
}

func (m *mockRoleService) Update(ctx context.Context, id int64, input dto.RoleInput) (dto.RoleSummary, error) {
	return dto.RoleSummary{ID: id, Authority: input.Authority}, m.err
}

func (m *mockRoleService) Delete(ctx context.Context, id int64) error {
	return m.err
}

type mockUserService struct {
	user   dto.UserSummary
	login  *dto.LoginResult
	err    error
	logout struct {
		userID int64
		token  string
		called bool
	}
	insert dto.UserInsertInput
}

func (m *mockUserService) FindAllPaged(ctx context.Context, page domain.PageRequest) (dto.Page[dto.UserSummary], error) {
	return dto.NewPage([]dto.UserSummary{m.user}, page, 1), m.err
}

func (m *mockUserService) FindByID(ctx context.Context, id int64) (dto.UserSummary, error) {
	return m.user, m.err
}

func (m *mockUserService) Insert(ctx context.Context, input dto.UserInsertInput) (dto.UserSummary, error) {
	m.insert = input
	return m.user, m.err
}

func (m *mockUserService) Update(ctx context.Context, id int64, input dto.UserInput) (dto.UserSummary, error) {
	return m.user, m.err
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	return m.err
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.login, nil
}

func (m *mockUserService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	m.logout.userID, m.logout.token, m.logout.called = userID, refreshToken, true
	return m.err
}

func (m *mockUserService) RefreshToken(ctx context.Context, refreshToken string) (*dto.RefreshResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.RefreshResult{AccessToken: "new-access", RefreshToken: "new-refresh", TokenType: "Bearer", ExpiresIn: 900}, nil
}

func (m *mockUserService) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func (m *mockUserService) GetProfile(ctx context.Context, userID int64) (dto.UserSummary, error) {
	return m.user, m.err
}

// routes mounts handlers on a router the way the server does
func routes(handlers ...interface {
	RegisterRoutes(chi.Router, func(http.Handler) http.Handler)
}) http.Handler {
	r := chi.NewRouter()
	auth := middleware.AuthMiddleware(testSecret, zap.NewNop())
	for _, h := range handlers {
		h.RegisterRoutes(r, auth)
	}
	return r
}

func bearer(t *testing.T, userID int64, authorities ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":     userID,
		"authorities": authorities,
		"exp":         time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}
