package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"healthfund/internal/application/handler/mocks"
	"healthfund/internal/application/models"
	"healthfund/internal/application/service"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/testutil"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, svc
}

func TestHandleSubmit(t *testing.T) {
	owner := domain.NewIdentityID()
	body := map[string]string{
		"user_id": owner.String(), "full_name": "Jane Doe", "trn": "123456789",
		"dob": "1990-01-01", "gender": "F", "condition": " asthma ",
	}

	t.Run("passes the caller and returns the code", func(t *testing.T) {
		router, svc := newTestRouter(t)
		caller := domain.Caller{ID: owner, Role: domain.RoleApplicant}
		svc.EXPECT().Submit(gomock.Any(), caller, service.SubmitCommand{
			UserID: owner.String(), FullName: "Jane Doe", TRN: "123456789",
			DOB: "1990-01-01", Gender: "F", Condition: "asthma",
		}).Return("NHF-20250504-ABCDEF", nil)

		req := testutil.AsCaller(testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", body), owner, domain.RoleApplicant)
		rr := testutil.DoRequest(router, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.DecodeBody[map[string]any](t, rr)
		assert.Equal(t, true, resp["ok"])
		assert.Equal(t, "NHF-20250504-ABCDEF", resp["code"])
	})

	t.Run("duplicate application is forbidden", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeDuplicateApplication, "You already submitted an application"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", body))
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "duplicate_application")
	})

	t.Run("exhausted codes are a conflict", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Submit(gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", dErrors.New(dErrors.CodeDuplicateCode, "Could not allocate a unique application code"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", body))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "duplicate_code")
	})

	t.Run("missing fields", func(t *testing.T) {
		router, _ := newTestRouter(t)
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/applications",
			map[string]string{"full_name": "Jane Doe"}))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "missing_fields")
	})
}

func TestHandleList(t *testing.T) {
	created := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

	testutil.Given(t, "a staff caller", func(t *testing.T) {
		staff := domain.NewIdentityID()

		testutil.When(t, "listing with a limit", func(t *testing.T) {
			router, svc := newTestRouter(t)
			svc.EXPECT().List(gomock.Any(), domain.Caller{ID: staff, Role: domain.RoleStaff}, 25).
				Return([]*models.Application{{Code: "NHF-20250504-ABCDEF", FullName: "Jane Doe", CreatedAt: created}}, nil)

			req := testutil.NewJSONRequest(t, http.MethodGet, "/api/applications?limit=25", nil)
			rr := testutil.DoRequest(router, testutil.AsCaller(req, staff, domain.RoleStaff))

			testutil.Then(t, "the applications are returned", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				resp := testutil.DecodeBody[listResponse](t, rr)
				require.Len(t, resp.Applications, 1)
				assert.Equal(t, "NHF-20250504-ABCDEF", resp.Applications[0].Code)
			})
			testutil.And(t, "created_at is an RFC 3339 UTC timestamp", func(t *testing.T) {
				resp := testutil.DecodeBody[listResponse](t, rr)
				require.Len(t, resp.Applications, 1)
				assert.Equal(t, "2025-05-04T10:00:00Z", resp.Applications[0].CreatedAt)
			})
		})

		testutil.When(t, "nothing matches", func(t *testing.T) {
			router, svc := newTestRouter(t)
			svc.EXPECT().List(gomock.Any(), gomock.Any(), 0).Return(nil, nil)

			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/api/applications", nil))

			testutil.Then(t, "an empty array is returned", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				assert.JSONEq(t, `{"applications":[]}`, rr.Body.String())
			})
		})
	})

	for _, limit := range []string{"abc", "-1", "1.5"} {
		t.Run("rejects limit "+limit, func(t *testing.T) {
			router, _ := newTestRouter(t)
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/api/applications?limit="+limit, nil))
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
		})
	}
}
