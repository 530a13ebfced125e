package service

import (
	"context"
	"fmt"

	"dscatalog/internal/domain"
	"dscatalog/internal/dto"
	"dscatalog/internal/repository"
)

const entityProduct = "product"

// ProductService defines the interface for product business logic
type ProductService interface {
	// FindAllPaged returns one page of products matching filter, each with
	// its full category list. Categories are loaded in a single batch query
	// for the products on the page.
	FindAllPaged(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (dto.Page[dto.ProductDetail], error)
	// FindAllMatching walks every page of a filtered listing
	FindAllMatching(ctx context.Context, filter domain.ProductFilter, sort domain.Sort) ([]dto.ProductDetail, error)
	FindByID(ctx context.Context, id int64) (dto.ProductDetail, error)
	Insert(ctx context.Context, input dto.ProductInput) (dto.ProductDetail, error)
	// Update replaces the product's fields and its whole category set
	Update(ctx context.Context, id int64, input dto.ProductInput) (dto.ProductDetail, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) FindAllPaged(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (dto.Page[dto.ProductDetail], error) {
	if err := page.Validate(); err != nil {
		return dto.Page[dto.ProductDetail]{}, err
	}

	details, total, err := s.findPage(ctx, filter, page)
	if err != nil {
		return dto.Page[dto.ProductDetail]{}, err
	}

	return dto.NewPage(details, page, total), nil
}

func (s *productService) findPage(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]dto.ProductDetail, int, error) {
	products, total, err := s.productRepo.FindPage(ctx, filter, page)
	if err != nil {
		return nil, 0, translate(entityProduct, 0, fmt.Errorf("failed to list products: %w", err))
	}

	if len(products) == 0 {
		return []dto.ProductDetail{}, total, nil
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	categories, err := s.productRepo.FindCategoriesFor(ctx, ids)
	if err != nil {
		return nil, 0, translate(entityProduct, 0, fmt.Errorf("failed to load categories: %w", err))
	}

	return dto.NewProductDetails(products, categories), total, nil
}

func (s *productService) FindAllMatching(ctx context.Context, filter domain.ProductFilter, sort domain.Sort) ([]dto.ProductDetail, error) {
	page := domain.PageRequest{Page: 0, Size: domain.MaxPageSize, Sort: sort}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	all := make([]dto.ProductDetail, 0)
	for {
		details, total, err := s.findPage(ctx, filter, page)
		if err != nil {
			return nil, err
		}
		all = append(all, details...)

		if len(details) < page.Size || (page.Page+1)*page.Size >= total {
			return all, nil
		}
		page.Page++
	}
}

func (s *productService) FindByID(ctx context.Context, id int64) (dto.ProductDetail, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return dto.ProductDetail{}, translate(entityProduct, id, err)
	}

	categories, err := s.productRepo.FindCategoriesFor(ctx, []int64{id})
	if err != nil {
		return dto.ProductDetail{}, translate(entityProduct, id, fmt.Errorf("failed to load categories: %w", err))
	}

	return dto.NewProductDetail(product, categories[id]), nil
}

func (s *productService) Insert(ctx context.Context, input dto.ProductInput) (dto.ProductDetail, error) {
	product := input.Product()

	categories, err := s.productRepo.Create(ctx, product, input.CategoryIDs())
	if err != nil {
		return dto.ProductDetail{}, translate(entityProduct, 0, err)
	}

	return dto.NewProductDetail(product, categories), nil
}

func (s *productService) Update(ctx context.Context, id int64, input dto.ProductInput) (dto.ProductDetail, error) {
	product := input.Product()
	product.ID = id

	categories, err := s.productRepo.Update(ctx, product, input.CategoryIDs())
	if err != nil {
		return dto.ProductDetail{}, translate(entityProduct, id, err)
	}

	return dto.NewProductDetail(product, categories), nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return translate(entityProduct, id, err)
	}
	return nil
}
