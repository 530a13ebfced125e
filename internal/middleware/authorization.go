package middleware

import (
	"net/http"
	"slices"

	"dscatalog/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the user holds ROLE_ADMIN
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.RoleAdmin)
}

// RequireOperator lets through operators and admins, the roles allowed to
// manage the catalog
func RequireOperator(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.RoleOperator, domain.RoleAdmin)
}

// RequireRole middleware ensures the user holds at least one of allowedRoles
func RequireRole(logger *zap.Logger, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorities, ok := GetAuthorities(r.Context())
			if !ok {
				logger.Warn("Authorities not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !slices.ContainsFunc(authorities, func(a string) bool {
				return slices.Contains(allowedRoles, a)
			}) {
				userID, _ := GetUserID(r.Context())
				logger.Warn("User role not authorized",
					zap.Int64("user_id", userID),
					zap.Strings("authorities", authorities),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
