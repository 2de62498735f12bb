package middleware

import (
	"context"
	"net/http"
	"strings"

	"portaria-backend/internal/auth"
	"portaria-backend/internal/services"
)

type contextKey string

const actorKey contextKey = "actor"

// AuthMiddleware authenticates requests with a Bearer JWT and puts the
// resulting actor on the request context.
type AuthMiddleware struct {
	JWT *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{JWT: jwtManager}
}

// RequireAuth rejects requests without a valid token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "Missing authorization token", http.StatusUnauthorized)
			return
		}
		claims, err := m.JWT.Parse(token)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		actor := services.Actor{
			UserID:         claims.UserID,
			PropertyID:     claims.PropertyID,
			Role:           claims.Role,
			ProfessionalID: claims.ProfessionalID,
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// RequireRole additionally restricts the route to the listed roles.
func (m *AuthMiddleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := GetActorFromContext(r.Context())
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
		}))
	}
}

// GetActorFromContext returns the authenticated caller, if any.
func GetActorFromContext(ctx context.Context) (services.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(services.Actor)
	return actor, ok
}

// bearerToken reads the Authorization header, falling back to the "token"
// query parameter for websocket clients that cannot set headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
