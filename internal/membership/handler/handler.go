package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthfund/internal/membership/models"
	"healthfund/internal/platform/middleware"
	"healthfund/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the membership operations the handler needs.
type Service interface {
	Lookup(ctx context.Context, nationalID string) (*models.Membership, error)
}

// Handler serves member lookups.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a membership Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the membership routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/members/{trn}", h.handleLookup)
}

// MemberResponse is the member card shown to applicants.
type MemberResponse struct {
	MemberNumber string `json:"member_number"`
	FullName     string `json:"full_name"`
	TRN          string `json:"trn"`
	ValidFrom    string `json:"valid_from"`
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	m, err := h.service.Lookup(ctx, chi.URLParam(r, "trn"))
	if err != nil {
		h.logger.WarnContext(ctx, "member lookup failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MemberResponse{
		MemberNumber: m.MemberNumber,
		FullName:     m.FullName,
		TRN:          m.NationalID,
		ValidFrom:    m.ValidFromString(),
	})
}
