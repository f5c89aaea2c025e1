package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"healthfund/internal/certification/handler/mocks"
	"healthfund/internal/certification/models"
	"healthfund/internal/certification/service"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/testutil"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r, svc
}

func TestHandleCertify(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Certify(gomock.Any(), domain.Caller{}, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.Caller, cmd service.CertifyCommand) error {
				assert.Equal(t, "NHF-20250504-ABCDEF", cmd.AppCode)
				assert.Equal(t, []models.Condition{{Name: "asthma", Severity: "mild"}}, cmd.Conditions)
				return nil
			})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/certifications", map[string]any{
			"app_code":    " NHF-20250504-ABCDEF ",
			"doctor_name": "Dr Smith",
			"conditions":  []map[string]string{{"name": "asthma", "severity": "mild"}},
		}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.JSONEq(t, `{"message":"Certification saved successfully"}`, rr.Body.String())
	})

	t.Run("conditions sent as plain strings", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Certify(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.Caller, cmd service.CertifyCommand) error {
				assert.Equal(t, []models.Condition{{Name: "Diabetes (Severe)"}, {Name: "Asthma (Mild)"}}, cmd.Conditions)
				return nil
			})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/certifications", map[string]any{
			"app_code":    "NHF-20250504-ABCDEF",
			"doctor_name": "Dr Smith",
			"conditions":  []string{"Diabetes (Severe)", "Asthma (Mild)"},
		}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	})

	t.Run("already certified is forbidden", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Certify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeAlreadyCertified, "This application has already been certified"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/certifications",
			map[string]string{"app_code": "NHF-20250504-ABCDEF", "doctor_name": "Dr Smith"}))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "already_certified")
	})

	t.Run("strict mode unknown application", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Certify(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeApplicationNotFound, "Application not found"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/certifications",
			map[string]string{"app_code": "NHF-20250504-NOSUCH", "doctor_name": "Dr Smith"}))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "application_not_found")
	})

	t.Run("missing doctor name", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/certifications",
			map[string]string{"app_code": "NHF-20250504-ABCDEF"}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "missing_fields")
	})

	t.Run("empty body", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/certifications", ""))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}
