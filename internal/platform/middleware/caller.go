package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/httputil"
	"healthfund/pkg/requestcontext"
)

// Headers set by the trusted upstream that authenticated the caller.
const (
	CallerIDHeader   = "X-Caller-ID"
	CallerRoleHeader = "X-Caller-Role"
)

// Caller threads the caller capability asserted by the upstream into the
// request context. Requests without the headers proceed as anonymous callers;
// whether an anonymous caller may act is decided by the access policy, not here.
// Malformed headers are rejected.
func Caller(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := strings.TrimSpace(r.Header.Get(CallerIDHeader))
			rawRole := strings.ToLower(strings.TrimSpace(r.Header.Get(CallerRoleHeader)))
			if rawID == "" && rawRole == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			id, err := domain.ParseIdentityID(rawID)
			role := domain.Role(rawRole)
			if err != nil || !role.IsValid() {
				logger.WarnContext(ctx, "rejected malformed caller headers",
					"caller_role", rawRole,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid caller identity or role"))
				return
			}

			ctx = requestcontext.WithCaller(ctx, domain.Caller{ID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
