package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"healthfund/internal/identity/models"
	"healthfund/internal/identity/service"
	"healthfund/internal/platform/middleware"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the identity operations the handler needs.
type Service interface {
	RegisterApplicant(ctx context.Context, cmd service.ApplicantRegistration) (domain.Role, error)
	RegisterDoctor(ctx context.Context, cmd service.DoctorRegistration) (domain.Role, error)
	RegisterStaff(ctx context.Context, cmd service.StaffRegistration) (domain.Role, error)
	Login(ctx context.Context, login, password string) (*models.Identity, error)
}

// Handler serves registration and login.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an identity Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/applicants/register", h.handleRegisterApplicant)
	r.Post("/api/doctor/register", h.handleRegisterDoctor)
	r.Post("/api/staff/register", h.handleRegisterStaff)
	r.Post("/api/login", h.handleLogin)
}

func (h *Handler) handleRegisterApplicant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterApplicantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	role, err := h.service.RegisterApplicant(ctx, req.command())
	h.writeRegistration(ctx, w, role, err, requestID)
}

func (h *Handler) handleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterDoctorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	role, err := h.service.RegisterDoctor(ctx, req.command())
	h.writeRegistration(ctx, w, role, err, requestID)
}

func (h *Handler) handleRegisterStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterStaffRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	role, err := h.service.RegisterStaff(ctx, req.command())
	h.writeRegistration(ctx, w, role, err, requestID)
}

func (h *Handler) writeRegistration(ctx context.Context, w http.ResponseWriter, role domain.Role, err error, requestID string) {
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registerResponse{OK: true, Role: string(role)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ident, err := h.service.Login(ctx, req.UsernameOrEmail, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		OK:       true,
		ID:       ident.ID.String(),
		Username: ident.Username,
		Role:     string(ident.Role),
	})
}
