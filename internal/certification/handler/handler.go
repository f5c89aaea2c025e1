package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"healthfund/internal/certification/models"
	"healthfund/internal/certification/service"
	"healthfund/internal/platform/middleware"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/httputil"
	"healthfund/pkg/platform/validation"
	"healthfund/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the certification operations the handler needs.
type Service interface {
	Certify(ctx context.Context, caller domain.Caller, cmd service.CertifyCommand) error
}

// Handler serves doctor certifications.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a certification Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the certification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/certifications", h.handleCertify)
}

// CertifyRequest is the body of POST /api/certifications.
type CertifyRequest struct {
	AppCode           string             `json:"app_code" validate:"required,max=32"`
	DoctorName        string             `json:"doctor_name" validate:"required,max=200"`
	MCJRegNo          string             `json:"mcj_reg_no" validate:"max=50"`
	OfficeAddress     string             `json:"office_address" validate:"max=500"`
	Parish            string             `json:"parish" validate:"max=100"`
	OfficePhone       string             `json:"office_phone" validate:"max=30"`
	Conditions        []models.Condition `json:"conditions"`
	ConditionsJSON    string             `json:"conditions_json"`
	Notes             string             `json:"notes"`
	CertificationDate string             `json:"certification_date"`
}

func (r *CertifyRequest) Normalize() {
	for _, f := range []*string{&r.AppCode, &r.DoctorName, &r.MCJRegNo, &r.OfficeAddress, &r.Parish, &r.OfficePhone, &r.CertificationDate} {
		*f = strings.TrimSpace(*f)
	}
}

func (r *CertifyRequest) Validate() error {
	return validation.Struct(r, "Missing required fields")
}

type certifyResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleCertify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CertifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := h.service.Certify(ctx, requestcontext.Caller(ctx), service.CertifyCommand{
		AppCode:           req.AppCode,
		DoctorName:        req.DoctorName,
		MCJRegNo:          req.MCJRegNo,
		OfficeAddress:     req.OfficeAddress,
		Parish:            req.Parish,
		OfficePhone:       req.OfficePhone,
		Conditions:        req.Conditions,
		ConditionsJSON:    req.ConditionsJSON,
		Notes:             req.Notes,
		CertificationDate: req.CertificationDate,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "certification failed",
			"error", err,
			"code", req.AppCode,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, certifyResponse{Message: "Certification saved successfully"})
}
