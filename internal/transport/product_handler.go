package transport

import (
	"net/http"

	"dscatalog/internal/dto"
	"dscatalog/internal/middleware"
	"dscatalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers product routes. Reads are public; writes need an
// operator or admin token.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Get("/export", h.Export)
		r.Get("/{id}", h.FindByID)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, middleware.RequireOperator(h.logger))
			r.Post("/", h.Insert)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// FindAll handles GET /products?page&size&sort&category&name
func (h *ProductHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	filter, err := productFilter(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	result, err := h.productService.FindAllPaged(r.Context(), filter, page)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	product, err := h.productService.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Insert handles POST /products
func (h *ProductHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var input dto.ProductInput
	if err := middleware.DecodeAndValidate(w, r, &input); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Insert(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	w.Header().Set("Location", location(r, product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}. The body replaces the product,
// including its category set.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	var input dto.ProductInput
	if err := middleware.DecodeAndValidate(w, r, &input); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), id, input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product updated", zap.Int64("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}
