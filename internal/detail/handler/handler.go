package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appModels "healthfund/internal/application/models"
	certModels "healthfund/internal/certification/models"
	"healthfund/internal/detail/models"
	"healthfund/internal/platform/middleware"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/httputil"
	"healthfund/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the read-side operations the handler needs.
type Service interface {
	Detail(ctx context.Context, caller domain.Caller, code string) (*models.Detail, error)
	DoctorView(ctx context.Context, caller domain.Caller, code string) (*models.DoctorView, error)
}

// Handler serves the staff and doctor views of a single application.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a detail Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register registers the detail routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/staff/applications/{code}", h.handleDetail)
	r.Get("/api/doctor/applications/{code}", h.handleDoctorView)
}

type applicationJSON struct {
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

type certificationJSON struct {
	DoctorName        string                 `json:"doctor_name"`
	MCJRegNo          string                 `json:"mcj_reg_no"`
	OfficeAddress     string                 `json:"office_address"`
	Parish            string                 `json:"parish"`
	OfficePhone       string                 `json:"office_phone"`
	ConditionsJSON    string                 `json:"conditions_json"`
	Conditions        []certModels.Condition `json:"conditions"`
	Notes             string                 `json:"notes"`
	CertificationDate string                 `json:"certification_date"`
}

type approvalJSON struct {
	Status           string  `json:"status"`
	ReviewerUsername *string `json:"reviewer_username"`
	ReviewedAt       *string `json:"reviewed_at"`
	Reason           *string `json:"reason"`
}

// DetailResponse is the body of GET /api/staff/applications/{code}.
type DetailResponse struct {
	Application   applicationJSON    `json:"application"`
	Certification *certificationJSON `json:"certification"`
	Approval      approvalJSON       `json:"approval"`
}

// DoctorViewResponse is the body of GET /api/doctor/applications/{code}.
type DoctorViewResponse struct {
	applicationJSON
	IsCertified bool `json:"is_certified"`
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	d, err := h.service.Detail(ctx, requestcontext.Caller(ctx), code)
	if err != nil {
		h.logger.WarnContext(ctx, "application detail failed",
			"error", err,
			"code", code,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDetailResponse(d))
}

func (h *Handler) handleDoctorView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")

	v, err := h.service.DoctorView(ctx, requestcontext.Caller(ctx), code)
	if err != nil {
		h.logger.WarnContext(ctx, "doctor view failed",
			"error", err,
			"code", code,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DoctorViewResponse{
		applicationJSON: toApplicationJSON(v.Application),
		IsCertified:     v.IsCertified,
	})
}

func toDetailResponse(d *models.Detail) DetailResponse {
	resp := DetailResponse{
		Application: toApplicationJSON(d.Application),
		Approval: approvalJSON{
			Status:           string(d.Approval.Status),
			ReviewerUsername: optional(d.Approval.ReviewerUsername),
			Reason:           optional(d.Approval.Reason),
		},
	}
	if d.Approval.ReviewedAt != nil {
		at := d.Approval.ReviewedAt.UTC().Format(time.RFC3339)
		resp.Approval.ReviewedAt = &at
	}
	if c := d.Certification; c != nil {
		resp.Certification = &certificationJSON{
			DoctorName:        c.DoctorName,
			MCJRegNo:          c.MCJRegNo,
			OfficeAddress:     c.OfficeAddress,
			Parish:            c.Parish,
			OfficePhone:       c.OfficePhone,
			ConditionsJSON:    c.ConditionsJSON(),
			Conditions:        conditionsOrEmpty(c.Conditions),
			Notes:             c.Notes,
			CertificationDate: c.CertificationDate.UTC().Format(time.RFC3339),
		}
	}
	return resp
}

func toApplicationJSON(app *appModels.Application) applicationJSON {
	return applicationJSON{
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

func conditionsOrEmpty(c []certModels.Condition) []certModels.Condition {
	if c == nil {
		return []certModels.Condition{}
	}
	return c
}

// optional renders an empty string as null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
