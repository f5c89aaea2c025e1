package testutil

import (
	"net/http"

	"healthfund/pkg/domain"
	"healthfund/pkg/requestcontext"
)

// AsCaller attaches a caller capability to the request context, as the caller
// middleware does for requests carrying X-Caller-ID and X-Caller-Role.
func AsCaller(req *http.Request, id domain.IdentityID, role domain.Role) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), domain.Caller{ID: id, Role: role})
	return req.WithContext(ctx)
}

// WithCallerHeaders sets the upstream capability headers on the request.
func WithCallerHeaders(req *http.Request, id domain.IdentityID, role domain.Role) *http.Request {
	req.Header.Set("X-Caller-ID", id.String())
	req.Header.Set("X-Caller-Role", string(role))
	return req
}
