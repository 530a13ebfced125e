package transport

import (
	"net/http"

	"dscatalog/internal/dto"
	"dscatalog/internal/middleware"
	"dscatalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RoleHandler handles HTTP requests for roles. Every route is admin-only.
type RoleHandler struct {
	roleService service.RoleService
	logger      *zap.Logger
}

func NewRoleHandler(roleService service.RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
		logger:      logger,
	}
}

func (h *RoleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/roles", func(r chi.Router) {
		r.Use(authMiddleware, middleware.RequireAdmin(h.logger))
		r.Get("/", h.FindAll)
		r.Post("/", h.Insert)
		r.Get("/{id}", h.FindByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *RoleHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.FindAll(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, roles)
}

func (h *RoleHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	role, err := h.roleService.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var input dto.RoleInput
	if err := middleware.DecodeAndValidate(w, r, &input); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	role, err := h.roleService.Insert(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Role created", zap.String("authority", role.Authority))
	w.Header().Set("Location", location(r, role.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	var input dto.RoleInput
	if err := middleware.DecodeAndValidate(w, r, &input); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	role, err := h.roleService.Update(r.Context(), id, input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	if err := h.roleService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
