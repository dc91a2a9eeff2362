// Package middleware provides HTTP middleware for NOURX.
package middleware

import (
	"context"
	"net/http"

	"github.com/nourx/nourx/internal/domain/user"
)

// Actor identity headers set by the auth gateway in front of this service.
// Session handling lives there; by the time a request reaches us the
// gateway has resolved the principal.
const (
	headerActorID    = "X-Actor-Id"
	headerActorEmail = "X-Actor-Email"
	headerActorRole  = "X-Actor-Role"
	headerActorOrg   = "X-Actor-Org"
)

type actorKey struct{}

// WithActor returns a new context carrying the actor.
func WithActor(ctx context.Context, a user.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext extracts the actor from the context. The second return
// is false when no actor was set.
func ActorFromContext(ctx context.Context) (user.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(user.Actor)
	return a, ok
}

// Actor is middleware that reads the gateway identity headers into the
// request context. Requests without a valid identity are rejected.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := user.Actor{
			ID:    r.Header.Get(headerActorID),
			Email: r.Header.Get(headerActorEmail),
			Role:  user.Role(r.Header.Get(headerActorRole)),
			OrgID: r.Header.Get(headerActorOrg),
		}
		if a.ID == "" || !a.Role.Valid() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"unauthorized","message":"authentication required"}}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
	})
}
