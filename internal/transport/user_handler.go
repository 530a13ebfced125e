package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dscatalog/internal/dto"
	"dscatalog/internal/middleware"
	"dscatalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler handles authentication and user administration
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers /auth and the admin-only /users routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/me", h.GetProfile)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(authMiddleware, middleware.RequireAdmin(h.logger))
		r.Get("/", h.FindAll)
		r.Post("/", h.Insert)
		r.Get("/{id}", h.FindByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginInput
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User logged in", zap.Int64("user_id", result.User.ID))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// RefreshToken exchanges a refresh token for a new access token
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshInput
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	result, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Debug("Token refresh failed", zap.Error(err))
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the caller when the body is empty
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.RefreshInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userService.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User logged out", zap.Int64("user_id", userID), zap.Bool("all_sessions", req.RefreshToken == ""))
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile returns the authenticated user
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	result, err := h.userService.FindAllPaged(r.Context(), page)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *UserHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	user, err := h.userService.FindByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

// Insert creates a user with an initial password
func (h *UserHandler) Insert(w http.ResponseWriter, r *http.Request) {
	var input dto.UserInsertInput
	if err := middleware.DecodeAndValidate(w, r, &input); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	user, err := h.userService.Insert(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User created", zap.Int64("user_id", user.ID))
	w.Header().Set("Location", location(r, user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// Update replaces profile fields and roles; the password is untouched
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	var input dto.UserInput
	if err := middleware.DecodeAndValidate(w, r, &input); err != nil {
		respondWithDecodeError(w, h.logger, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, input)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User deleted", zap.Int64("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}
