package httputil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docflow/docflow-backend/pkg/actor"
	"github.com/docflow/docflow-backend/pkg/config"
	"github.com/docflow/docflow-backend/pkg/errors"
	"github.com/docflow/docflow-backend/pkg/logger"
	"github.com/docflow/docflow-backend/pkg/permissions"
)

// Auth validates JWT bearer tokens and adds user context to the request.
// The actor derived from the token claims is attached for audit attribution.
func Auth(cfg *config.JWTConfig, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			tokenString := parts[1]

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(cfg.Secret), nil
			})

			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				if strings.Contains(err.Error(), "expired") {
					Error(w, errors.TokenExpired())
				} else {
					Error(w, errors.TokenInvalid())
				}
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				Error(w, errors.TokenInvalid())
				return
			}

			// Extract user info from claims
			userID, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			firstName, _ := claims["first_name"].(string)
			lastName, _ := claims["last_name"].(string)
			department, _ := claims["department"].(string)
			perms := permissionClaims(claims)

			if userID == "" {
				Error(w, errors.TokenInvalid())
				return
			}

			ctx := WithUserContext(r.Context(), userID, email, role)
			ctx = WithUserPermissions(ctx, perms)
			ctx = actor.WithActor(ctx, &actor.Actor{
				ID:         userID,
				FirstName:  firstName,
				LastName:   lastName,
				Email:      email,
				Department: department,
				RoleName:   role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// permissionClaims extracts the permissions claim as a string slice
func permissionClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["permissions"].([]interface{})
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			perms = append(perms, s)
		}
	}
	return perms
}

// RequirePermission rejects requests whose token lacks the given permission.
// Administrators carry the "*" permission and pass every check.
func RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perms := GetUserPermissions(r.Context())
			if !permissions.HasPermission(perms, required) {
				Error(w, errors.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
