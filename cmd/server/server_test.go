package main

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthfund/internal/platform/config"
	"healthfund/pkg/domain"
	"healthfund/pkg/testutil"
)

func newTestServer(t *testing.T, mutate func(*config.Server)) http.Handler {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "ACCESS_POLICY"} {
		t.Setenv(key, "")
	}
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	in := &infra{log: log}
	svcs, err := buildServices(cfg, log, in, prometheus.NewRegistry())
	require.NoError(t, err)
	return newRouter(cfg, log, in, svcs)
}

func post(t *testing.T, h http.Handler, path string, body any) map[string]any {
	t.Helper()
	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, path, body))
	require.Less(t, rr.Code, 300, "POST %s: %s", path, rr.Body.String())
	return testutil.DecodeBody[map[string]any](t, rr)
}

func TestApplicationLifecycle(t *testing.T) {
	h := newTestServer(t, nil)

	post(t, h, "/api/applicants/register", map[string]string{
		"username": "jane", "email": "jane@example.com", "password": "s3cret",
		"full_name": "Jane Doe", "trn": "123456789", "dob": "1990-01-01", "gender": "F",
	})
	login := post(t, h, "/api/login", map[string]string{"username_or_email": "jane@example.com", "password": "s3cret"})
	require.Equal(t, "applicant", login["role"])

	submitted := post(t, h, "/api/applications", map[string]string{
		"user_id": login["id"].(string), "full_name": "Jane Doe", "trn": "123456789",
		"dob": "1990-01-01", "gender": "F", "condition": "asthma",
	})
	code := submitted["code"].(string)
	assert.Regexp(t, `^NHF-\d{8}-[A-Z2-9]{6}$`, code)

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/api/doctor/applications/"+code, nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, false, testutil.DecodeBody[map[string]any](t, rr)["is_certified"])

	post(t, h, "/api/certifications", map[string]any{
		"app_code": code, "doctor_name": "Dr Smith",
		"conditions": []map[string]string{{"name": "asthma", "severity": "mild"}},
	})
	post(t, h, "/api/staff/approve", map[string]string{"app_code": code, "action": "approved"})

	rr = testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/api/staff/applications/"+code, nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	detail := testutil.DecodeBody[map[string]any](t, rr)
	assert.Equal(t, "Dr Smith", detail["certification"].(map[string]any)["doctor_name"])
	approval := detail["approval"].(map[string]any)
	assert.Equal(t, "approved", approval["status"])
	assert.Equal(t, "staff", approval["reviewer_username"])

	rr = testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/api/members/123456789", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	member := testutil.DecodeBody[map[string]any](t, rr)
	assert.Regexp(t, `^NHF\d{9}$`, member["member_number"])
	assert.Equal(t, "Jane Doe", member["full_name"])

	rr = testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/api/applications", map[string]string{
		"user_id": login["id"].(string), "full_name": "Jane Doe", "trn": "123456789", "dob": "1990-01-01", "gender": "F",
	}))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "duplicate_application")
}

func TestRolePolicyRejectsAnonymousApproval(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Server) { cfg.Workflow.AccessPolicy = "role" })

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodPost, "/api/staff/approve",
		map[string]string{"app_code": "NHF-20250701-ABCDEF", "action": "approved"}))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/staff/approve",
		map[string]string{"app_code": "NHF-20250701-ABCDEF", "action": "approved"})
	rr = testutil.DoRequest(h, testutil.WithCallerHeaders(req, domain.NewIdentityID(), domain.RoleStaff))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "application_not_found")
}

func TestHealthInMemory(t *testing.T) {
	h := newTestServer(t, nil)

	rr := testutil.DoRequest(h, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.DecodeBody[map[string]any](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["storage"])
}
