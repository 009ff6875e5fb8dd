package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/neiist-dev/shop-backend/api/responses"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/logger"
)

// ActingMemberHeader identifies the association member performing a
// privileged operation. The surrounding portal authenticates the member
// and forwards the identity on this header.
const ActingMemberHeader = "X-Acting-Member"

type actingMemberKey struct{}

// RequireActingMember rejects requests that carry no acting member. The
// member lands in the request context and on the request-scoped logger.
func RequireActingMember(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			member := strings.TrimSpace(r.Header.Get(ActingMemberHeader))
			if member == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "acting member header required").WithDetails(map[string]any{"header": ActingMemberHeader}))
				return
			}

			ctx := context.WithValue(r.Context(), actingMemberKey{}, member)
			if logg != nil {
				ctx = logg.WithActingMember(ctx, member)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActingMemberFromContext returns the member set by RequireActingMember.
func ActingMemberFromContext(ctx context.Context) (string, bool) {
	member, ok := ctx.Value(actingMemberKey{}).(string)
	return member, ok && member != ""
}

// WithActingMember injects a member directly, for tests that bypass the
// middleware.
func WithActingMember(ctx context.Context, member string) context.Context {
	return context.WithValue(ctx, actingMemberKey{}, member)
}
