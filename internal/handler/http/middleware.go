package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/vendora/vendora/internal/models"
)

type contextKey string

const actorKey contextKey = "actor"

// TokenVerifier verifies bearer tokens and returns the actor they carry
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.Actor, error)
}

// AuthMiddleware extracts the bearer token, verifies it and passes the
// actor to the request context
func AuthMiddleware(tv TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
				return
			}

			actor, err := tv.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects actors whose role is not in the allowed set
func RequireRoles(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := getActor(r.Context())
			if !ok {
				writeFail(w, http.StatusUnauthorized, "not authorized to access this route")
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeFail(w, http.StatusForbidden, "role is not allowed to perform this action")
		})
	}
}

// getActor extracts the authenticated actor from context
func getActor(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*models.Actor)
	if !ok || actor == nil {
		return models.Actor{}, false
	}
	return *actor, true
}
