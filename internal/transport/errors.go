package transport

import (
	"errors"
	"net/http"

	"dscatalog/internal/domain"
	"dscatalog/internal/middleware"
	"dscatalog/internal/service"

	"go.uber.org/zap"
)

// retryAfterSeconds is advertised when the store is temporarily unavailable
const retryAfterSeconds = "5"

// respondWithServiceError maps a service failure to its HTTP status. Only
// unclassified failures are logged at error level; their message is not
// exposed to the client.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.KindNotFound:
			middleware.RespondWithErrorDetails(w, http.StatusNotFound, de.Message, map[string]interface{}{
				"entity": de.Entity,
				"id":     de.ID,
			})
			return
		case domain.KindConflict:
			logger.Info("Request conflicts with stored data", zap.Error(err))
			middleware.RespondWithError(w, http.StatusConflict, de.Message)
			return
		case domain.KindValidation:
			middleware.RespondWithError(w, http.StatusBadRequest, de.Message)
			return
		case domain.KindTransient:
			logger.Warn("Store unavailable", zap.Error(err))
			w.Header().Set("Retry-After", retryAfterSeconds)
			middleware.RespondWithError(w, http.StatusServiceUnavailable, de.Message)
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrTokenExpired):
		middleware.RespondWithError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, service.ErrInvalidToken):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token")
	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondWithDecodeError reports a body that failed to decode or validate
func respondWithDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	var decodeErr *middleware.DecodeError
	if errors.As(err, &decodeErr) {
		middleware.RespondWithError(w, http.StatusBadRequest, decodeErr.Error())
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
