package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"healthfund/internal/platform/middleware"
	"healthfund/internal/review/models"
	"healthfund/internal/review/service"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/httputil"
	"healthfund/pkg/platform/validation"
	"healthfund/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the review operations the handler needs.
type Service interface {
	Decide(ctx context.Context, caller domain.Caller, cmd service.DecideCommand) error
}

// Handler serves staff decisions.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a review Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/staff/approve", h.handleDecide)
}

// DecideRequest is the body of POST /api/staff/approve.
type DecideRequest struct {
	AppCode          string `json:"app_code"`
	Action           string `json:"action"`
	ReviewerUsername string `json:"reviewer_username" validate:"max=100"`
	Reason           string `json:"reason" validate:"max=2000"`
}

func (r *DecideRequest) Normalize() {
	r.AppCode = strings.TrimSpace(r.AppCode)
	r.Action = strings.TrimSpace(r.Action)
	r.ReviewerUsername = strings.TrimSpace(r.ReviewerUsername)
}

func (r *DecideRequest) Validate() error {
	switch models.Status(r.Action) {
	case models.StatusApproved, models.StatusRejected:
	default:
		return dErrors.New(dErrors.CodeInvalidAction, "Invalid action")
	}
	if r.AppCode == "" {
		return dErrors.New(dErrors.CodeInvalidAction, "Invalid action")
	}
	return validation.Struct(r, "Invalid action")
}

type decideResponse struct {
	OK bool `json:"ok"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DecideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := h.service.Decide(ctx, requestcontext.Caller(ctx), service.DecideCommand{
		AppCode:          req.AppCode,
		Action:           req.Action,
		ReviewerUsername: req.ReviewerUsername,
		Reason:           req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "decision failed",
			"error", err,
			"code", req.AppCode,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decideResponse{OK: true})
}
