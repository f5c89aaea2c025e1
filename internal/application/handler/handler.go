package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"healthfund/internal/application/models"
	"healthfund/internal/application/service"
	"healthfund/internal/platform/middleware"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/httputil"
	"healthfund/pkg/platform/validation"
	"healthfund/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the application operations the handler needs.
type Service interface {
	Submit(ctx context.Context, caller domain.Caller, cmd service.SubmitCommand) (string, error)
	List(ctx context.Context, caller domain.Caller, limit int) ([]*models.Application, error)
}

// Handler serves application submission and listing.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an application Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the application routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/applications", h.handleSubmit)
	r.Get("/api/applications", h.handleList)
}

// SubmitRequest is the body of POST /api/applications.
type SubmitRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	FullName  string `json:"full_name" validate:"required,max=200"`
	TRN       string `json:"trn" validate:"required,max=20"`
	DOB       string `json:"dob" validate:"required,max=10"`
	Gender    string `json:"gender" validate:"required,max=20"`
	Address   string `json:"address" validate:"max=500"`
	Phone     string `json:"phone" validate:"max=30"`
	Parish    string `json:"parish" validate:"max=100"`
	Condition string `json:"condition" validate:"max=2000"`
}

func (r *SubmitRequest) Normalize() {
	for _, f := range []*string{&r.UserID, &r.FullName, &r.TRN, &r.DOB, &r.Gender, &r.Address, &r.Phone, &r.Parish, &r.Condition} {
		*f = strings.TrimSpace(*f)
	}
}

func (r *SubmitRequest) Validate() error {
	return validation.Struct(r, "Missing required fields")
}

type submitResponse struct {
	OK   bool   `json:"ok"`
	Code string `json:"code"`
}

// ApplicationResponse is one entry of the listing.
type ApplicationResponse struct {
	Code      string `json:"code"`
	FullName  string `json:"full_name"`
	TRN       string `json:"trn"`
	DOB       string `json:"dob"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Parish    string `json:"parish"`
	Condition string `json:"condition"`
	CreatedAt string `json:"created_at"`
}

type listResponse struct {
	Applications []ApplicationResponse `json:"applications"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	code, err := h.service.Submit(ctx, requestcontext.Caller(ctx), service.SubmitCommand{
		UserID:    req.UserID,
		FullName:  req.FullName,
		TRN:       req.TRN,
		DOB:       req.DOB,
		Gender:    req.Gender,
		Address:   req.Address,
		Phone:     req.Phone,
		Parish:    req.Parish,
		Condition: req.Condition,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "application submission failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submitResponse{OK: true, Code: code})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	apps, err := h.service.List(ctx, requestcontext.Caller(ctx), limit)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list applications",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := listResponse{Applications: make([]ApplicationResponse, 0, len(apps))}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, toResponse(app))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseLimit reads the optional ?limit= value. Absent means the service default.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
	}
	return n, nil
}

func toResponse(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		Code:      app.Code,
		FullName:  app.FullName,
		TRN:       app.TRN,
		DOB:       app.DOB,
		Gender:    app.Gender,
		Address:   app.Address,
		Phone:     app.Phone,
		Parish:    app.Parish,
		Condition: app.Condition,
		CreatedAt: app.CreatedAt.UTC().Format(time.RFC3339),
	}
}
