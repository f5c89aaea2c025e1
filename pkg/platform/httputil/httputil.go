// Package httputil holds the JSON request and response helpers every handler uses.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "healthfund/pkg/domain-errors"
)

// maxBodyBytes caps request bodies; registration payloads are small.
const maxBodyBytes = 1 << 20

// Normalizable requests trim and canonicalize their fields before validation.
type Normalizable interface {
	Normalize()
}

// Validatable requests check their own required fields.
type Validatable interface {
	Validate() error
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// StatusFor maps a domain error code to its HTTP status. Conflict codes differ
// by context: a duplicate identity is a plain 400, duplicate application and
// already-certified are 403, and an exhausted code retry is 409.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeMissingFields, dErrors.CodeInvalidAction,
		dErrors.CodeBadRequest, dErrors.CodeDuplicateIdentity:
		return http.StatusBadRequest
	case dErrors.CodeDuplicateApplication, dErrors.CodeAlreadyCertified, dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeDuplicateCode, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeNotFound, dErrors.CodeApplicationNotFound, dErrors.CodeMemberNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err using its domain code. Errors without a domain code are
// internal. The description carries the error text, including storage
// messages, because this API is an administrative surface.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if de, ok := dErrors.As(err); ok && de.Message != "" && de.Err == nil {
		resp.Description = de.Message
	} else if err != nil {
		resp.Description = err.Error()
	}
	WriteJSON(w, StatusFor(code), resp)
}

// DecodeJSON decodes the request body into dst. An empty or malformed body is
// a bad request.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid json payload")
	}
	return nil
}

// DecodeAndPrepare decodes a request of type T, normalizes and validates it.
// On failure it writes the error response and returns ok=false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := DecodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, err)
		return nil, false
	}
	if n, ok := any(&req).(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "invalid request",
				"error", err,
				"request_id", requestID,
			)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
