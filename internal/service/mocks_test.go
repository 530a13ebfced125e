package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"dscatalog/internal/domain"
	"dscatalog/internal/repository"
)

// Mock repositories for testing

type mockProductRepository struct {
	products   map[int64]*domain.Product
	links      map[int64][]int64
	categories map[int64]domain.Category
	nextID     int64

	// referenced marks products that dependent rows block from deletion
	referenced map[int64]bool
	// failWith, when set, is returned by every call
	failWith error

	categoryCalls [][]int64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:   make(map[int64]*domain.Product),
		links:      make(map[int64][]int64),
		categories: make(map[int64]domain.Category),
		referenced: make(map[int64]bool),
		nextID:     1,
	}
}

func (m *mockProductRepository) addCategory(id int64, name string) {
	m.categories[id] = domain.Category{ID: id, Name: name}
}

func (m *mockProductRepository) addProduct(name string, categoryIDs ...int64) *domain.Product {
	p := &domain.Product{ID: m.nextID, Name: name, Moment: time.Now()}
	m.nextID++
	m.products[p.ID] = p
	m.links[p.ID] = categoryIDs
	return p
}

func (m *mockProductRepository) matches(p *domain.Product, filter domain.ProductFilter) bool {
	if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
		return false
	}
	if len(filter.CategoryIDs) == 0 {
		return true
	}
	for _, linked := range m.links[p.ID] {
		for _, wanted := range filter.CategoryIDs {
			if linked == wanted {
				return true
			}
		}
	}
	return false
}

func (m *mockProductRepository) FindPage(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]*domain.Product, int, error) {
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	if page.Sort.Field != "" && page.Sort.Field != "name" {
		return nil, 0, repository.ErrInvalidSortField
	}

	var matched []*domain.Product
	for _, p := range m.products {
		if m.matches(p, filter) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := page.Offset()
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockProductRepository) FindCategoriesFor(ctx context.Context, productIDs []int64) (map[int64][]domain.Category, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.categoryCalls = append(m.categoryCalls, productIDs)

	out := make(map[int64][]domain.Category)
	for _, id := range productIDs {
		for _, cid := range m.links[id] {
			out[id] = append(out[id], m.categories[cid])
		}
	}
	return out, nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) resolve(ids []int64) ([]domain.Category, []int64, error) {
	var missing []int64
	var out []domain.Category
	seen := make(map[int64]bool)
	var unique []int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
		c, ok := m.categories[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, c)
	}
	if len(missing) > 0 {
		return nil, nil, &repository.MissingReferenceError{Entity: "category", IDs: missing}
	}
	return out, unique, nil
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product, categoryIDs []int64) ([]domain.Category, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	categories, unique, err := m.resolve(categoryIDs)
	if err != nil {
		return nil, err
	}
	product.ID = m.nextID
	m.nextID++
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	stored := *product
	m.products[product.ID] = &stored
	m.links[product.ID] = unique
	return categories, nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product, categoryIDs []int64) ([]domain.Category, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	existing, ok := m.products[product.ID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	categories, unique, err := m.resolve(categoryIDs)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()
	stored := *product
	m.products[product.ID] = &stored
	m.links[product.ID] = unique
	return categories, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	if m.referenced[id] {
		return errForeignKey
	}
	delete(m.products, id)
	delete(m.links, id)
	return nil
}

type mockCategoryRepository struct {
	categories map[int64]*domain.Category
	inUse      map[int64]bool
	nextID     int64
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[int64]*domain.Category),
		inUse:      make(map[int64]bool),
		nextID:     1,
	}
}

func (m *mockCategoryRepository) FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.Category, int, error) {
	var all []*domain.Category
	for _, c := range m.categories {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	start := page.Offset()
	if start >= len(all) {
		return []*domain.Category{}, len(all), nil
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	category.ID = m.nextID
	m.nextID++
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	if m.inUse[id] {
		return errForeignKey
	}
	delete(m.categories, id)
	return nil
}

type mockRoleRepository struct {
	roles  map[int64]*domain.Role
	nextID int64
}

func newMockRoleRepository() *mockRoleRepository {
	return &mockRoleRepository{roles: make(map[int64]*domain.Role), nextID: 1}
}

func (m *mockRoleRepository) FindAll(ctx context.Context) ([]*domain.Role, error) {
	var out []*domain.Role
	for _, r := range m.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Authority < out[j].Authority })
	return out, nil
}

func (m *mockRoleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	return r, nil
}

func (m *mockRoleRepository) Create(ctx context.Context, role *domain.Role) error {
	for _, r := range m.roles {
		if r.Authority == role.Authority {
			return repository.ErrRoleAlreadyExists
		}
	}
	role.ID = m.nextID
	m.nextID++
	stored := *role
	m.roles[role.ID] = &stored
	return nil
}

func (m *mockRoleRepository) Update(ctx context.Context, role *domain.Role) error {
	if _, ok := m.roles[role.ID]; !ok {
		return repository.ErrRoleNotFound
	}
	stored := *role
	m.roles[role.ID] = &stored
	return nil
}

func (m *mockRoleRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return repository.ErrRoleNotFound
	}
	delete(m.roles, id)
	return nil
}

type mockUserRepository struct {
	users     map[int64]*domain.User
	userRoles map[int64][]int64
	roles     map[int64]domain.Role
	nextID    int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:     make(map[int64]*domain.User),
		userRoles: make(map[int64][]int64),
		roles: map[int64]domain.Role{
			1: {ID: 1, Authority: domain.RoleOperator},
			2: {ID: 2, Authority: domain.RoleAdmin},
		},
		nextID: 1,
	}
}

func (m *mockUserRepository) resolve(ids []int64) ([]domain.Role, []int64, error) {
	var out []domain.Role
	var unique []int64
	var missing []int64
	seen := make(map[int64]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		r, ok := m.roles[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		unique = append(unique, id)
		out = append(out, r)
	}
	if len(missing) > 0 {
		return nil, nil, &repository.MissingReferenceError{Entity: "role", IDs: missing}
	}
	return out, unique, nil
}

func (m *mockUserRepository) FindPage(ctx context.Context, page domain.PageRequest) ([]*domain.User, int, error) {
	var all []*domain.User
	for _, u := range m.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start := page.Offset()
	if start >= len(all) {
		return []*domain.User{}, len(all), nil
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindRolesFor(ctx context.Context, userIDs []int64) (map[int64][]domain.Role, error) {
	out := make(map[int64][]domain.Role)
	for _, id := range userIDs {
		for _, rid := range m.userRoles[id] {
			out[id] = append(out[id], m.roles[rid])
		}
	}
	return out, nil
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User, roleIDs []int64) ([]domain.Role, error) {
	if _, err := m.FindByEmail(ctx, user.Email); err == nil {
		return nil, repository.ErrUserAlreadyExists
	}
	roles, unique, err := m.resolve(roleIDs)
	if err != nil {
		return nil, err
	}
	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	m.userRoles[user.ID] = unique
	return roles, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User, roleIDs []int64) ([]domain.Role, error) {
	existing, ok := m.users[user.ID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	roles, unique, err := m.resolve(roleIDs)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = existing.PasswordHash
	stored := *user
	m.users[user.ID] = &stored
	m.userRoles[user.ID] = unique
	return roles, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	delete(m.userRoles, id)
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, userID int64, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists || refreshToken.UserID != userID {
		return repository.ErrRefreshTokenNotFound
	}
	return m.revoke(token)
}

func (m *mockRefreshTokenRepository) revoke(token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists || refreshToken.Revoked {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) Rotate(ctx context.Context, current string, next *domain.RefreshToken) error {
	if err := m.revoke(current); err != nil {
		return err
	}
	return m.Create(ctx, next)
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	for k, t := range m.tokens {
		if time.Now().After(t.ExpiresAt) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}
