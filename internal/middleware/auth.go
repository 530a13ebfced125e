package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey      contextKey = "user_id"
	AuthoritiesKey contextKey = "authorities"
)

// AuthMiddleware validates bearer access tokens and stores the subject and
// its granted authorities in the request context
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || tokenString == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			userID, ok := userIDClaim(claims)
			if !ok {
				logger.Warn("Missing user_id in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			authorities := authoritiesClaim(claims)

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, AuthoritiesKey, authorities)

			logger.Debug("User authenticated",
				zap.Int64("user_id", userID),
				zap.Strings("authorities", authorities),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// user_id is a JSON number, which MapClaims decodes as float64
func userIDClaim(claims jwt.MapClaims) (int64, bool) {
	raw, ok := claims["user_id"].(float64)
	if !ok || raw <= 0 || raw != float64(int64(raw)) {
		return 0, false
	}
	return int64(raw), true
}

func authoritiesClaim(claims jwt.MapClaims) []string {
	raw, _ := claims["authorities"].([]interface{})
	authorities := make([]string, 0, len(raw))
	for _, a := range raw {
		if s, ok := a.(string); ok {
			authorities = append(authorities, s)
		}
	}
	return authorities
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetAuthorities extracts the granted authorities from request context
func GetAuthorities(ctx context.Context) ([]string, bool) {
	authorities, ok := ctx.Value(AuthoritiesKey).([]string)
	return authorities, ok
}
