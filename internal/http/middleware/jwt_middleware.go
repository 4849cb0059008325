package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
	"github.com/felixfuego/AppPark-sub000/internal/http/response"
	"github.com/felixfuego/AppPark-sub000/pkg/auth"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

type ctxKey string

const ctxActor ctxKey = "actor"

// RequireJWT authenticates the bearer token and, when roles are given,
// restricts access to those roles. The decoded actor lands in the request
// context.
func RequireJWT(secret string, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "missing bearer token")
				return
			}
			claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), secret)
			if err != nil {
				response.Unauthorized(w, "invalid token")
				return
			}

			actor := claims.Actor()
			if len(roles) > 0 && !roleAllowed(actor.Role, roles) {
				response.Forbidden(w, "insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), ctxActor, actor)
			ctx = context.WithValue(ctx, logger.ActorIDKey, actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// Actor returns the authenticated actor, or false when the request skipped
// RequireJWT.
func Actor(r *http.Request) (domain.Actor, bool) {
	v := r.Context().Value(ctxActor)
	if v == nil {
		return domain.Actor{}, false
	}
	return v.(domain.Actor), true
}
