package service

import (
	"context"
	"strings"

	"dscatalog/internal/domain"
	"dscatalog/internal/dto"
	"dscatalog/internal/repository"
)

const entityCategory = "category"

// CategoryService defines the interface for category business logic
type CategoryService interface {
	FindAllPaged(ctx context.Context, page domain.PageRequest) (dto.Page[dto.CategorySummary], error)
	FindByID(ctx context.Context, id int64) (dto.CategorySummary, error)
	Insert(ctx context.Context, input dto.CategoryInput) (dto.CategorySummary, error)
	Update(ctx context.Context, id int64, input dto.CategoryInput) (dto.CategorySummary, error)
	// Delete fails with a conflict while any product still references the
	// category
	Delete(ctx context.Context, id int64) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) FindAllPaged(ctx context.Context, page domain.PageRequest) (dto.Page[dto.CategorySummary], error) {
	if err := page.Validate(); err != nil {
		return dto.Page[dto.CategorySummary]{}, err
	}

	categories, total, err := s.categoryRepo.FindPage(ctx, page)
	if err != nil {
		return dto.Page[dto.CategorySummary]{}, translate(entityCategory, 0, err)
	}

	content := make([]dto.CategorySummary, len(categories))
	for i, c := range categories {
		content[i] = dto.NewCategorySummary(*c)
	}

	return dto.NewPage(content, page, total), nil
}

func (s *categoryService) FindByID(ctx context.Context, id int64) (dto.CategorySummary, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return dto.CategorySummary{}, translate(entityCategory, id, err)
	}
	return dto.NewCategorySummary(*category), nil
}

func (s *categoryService) Insert(ctx context.Context, input dto.CategoryInput) (dto.CategorySummary, error) {
	category := &domain.Category{Name: strings.TrimSpace(input.Name)}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return dto.CategorySummary{}, translate(entityCategory, 0, err)
	}
	return dto.NewCategorySummary(*category), nil
}

func (s *categoryService) Update(ctx context.Context, id int64, input dto.CategoryInput) (dto.CategorySummary, error) {
	category := &domain.Category{ID: id, Name: strings.TrimSpace(input.Name)}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return dto.CategorySummary{}, translate(entityCategory, id, err)
	}
	return dto.NewCategorySummary(*category), nil
}

func (s *categoryService) Delete(ctx context.Context, id int64) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return translate(entityCategory, id, err)
	}
	return nil
}
