package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gasindo/gastrack-backend/api/responses"
	pkgerrors "github.com/gasindo/gastrack-backend/pkg/errors"
	"github.com/gasindo/gastrack-backend/pkg/logger"
)

const actorHeader = "X-Actor-User-Id"

type contextKey string

const ctxActorUserID contextKey = "actor_user_id"

// ActorUserIDFromContext returns the acting user id injected by Actor, or
// zero when the request carried none.
func ActorUserIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxActorUserID).(int64); ok {
		return v
	}
	return 0
}

// WithActorUserID injects the acting user id into the context.
func WithActorUserID(ctx context.Context, userID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorUserID, userID)
}

// Actor requires the authenticated user id forwarded by the gateway.
// Authentication itself happens upstream; every mutation here still needs an
// actor for the movement ledger and the status history.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(actorHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "missing actor user id"))
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid actor user id"))
				return
			}

			ctx := WithActorUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
