package service

import (
	"context"
	"strings"

	"dscatalog/internal/domain"
	"dscatalog/internal/dto"
	"dscatalog/internal/repository"
)

const entityRole = "role"

// RoleService defines the interface for role business logic
type RoleService interface {
	FindAll(ctx context.Context) ([]dto.RoleSummary, error)
	FindByID(ctx context.Context, id int64) (dto.RoleSummary, error)
	Insert(ctx context.Context, input dto.RoleInput) (dto.RoleSummary, error)
	Update(ctx context.Context, id int64, input dto.RoleInput) (dto.RoleSummary, error)
	Delete(ctx context.Context, id int64) error
}

type roleService struct {
	roleRepo repository.RoleRepository
}

// NewRoleService creates a new instance of RoleService
func NewRoleService(roleRepo repository.RoleRepository) RoleService {
	return &roleService{roleRepo: roleRepo}
}

func (s *roleService) FindAll(ctx context.Context) ([]dto.RoleSummary, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return nil, translate(entityRole, 0, err)
	}

	out := make([]dto.RoleSummary, len(roles))
	for i, r := range roles {
		out[i] = dto.NewRoleSummary(*r)
	}
	return out, nil
}

func (s *roleService) FindByID(ctx context.Context, id int64) (dto.RoleSummary, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return dto.RoleSummary{}, translate(entityRole, id, err)
	}
	return dto.NewRoleSummary(*role), nil
}

func (s *roleService) Insert(ctx context.Context, input dto.RoleInput) (dto.RoleSummary, error) {
	role := &domain.Role{Authority: strings.ToUpper(strings.TrimSpace(input.Authority))}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return dto.RoleSummary{}, translate(entityRole, 0, err)
	}
	return dto.NewRoleSummary(*role), nil
}

func (s *roleService) Update(ctx context.Context, id int64, input dto.RoleInput) (dto.RoleSummary, error) {
	role := &domain.Role{ID: id, Authority: strings.ToUpper(strings.TrimSpace(input.Authority))}
	if err := s.roleRepo.Update(ctx, role); err != nil {
		return dto.RoleSummary{}, translate(entityRole, id, err)
	}
	return dto.NewRoleSummary(*role), nil
}

// Delete refuses to remove a role still granted to a user
func (s *roleService) Delete(ctx context.Context, id int64) error {
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return translate(entityRole, id, err)
	}
	return nil
}
