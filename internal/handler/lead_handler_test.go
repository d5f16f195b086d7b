package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suar-net/leadintake/internal/config"
	"github.com/suar-net/leadintake/internal/metrics"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/ratelimit"
	"github.com/suar-net/leadintake/internal/service"
	"github.com/suar-net/leadintake/internal/validation/validationtest"
	"github.com/suar-net/leadintake/pkg/logging"
)

type leadSink struct {
	mu    sync.Mutex
	leads []*model.Lead
}

func (s *leadSink) Accept(_ context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

func (s *leadSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

type testServer struct {
	router *chi.Mux
	sink   *leadSink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logging.NewNop()
	reg := prometheus.NewRegistry()
	limiter := ratelimit.NewFixedWindow(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	sink := &leadSink{}

	svc := service.NewLeadService(limiter, sink, logger, service.WithMetrics(metrics.NewIntakeMetrics(reg)))
	leads := NewLeadHandler(svc, ratelimit.IdentityFromHeader(ratelimit.DefaultIdentityHeader), limiter.RetryAfter(), 0, logger)
	router := SetupRouter(leads, NewHealthHandler(nil, logger), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), config.CORSConfig{}, logger)

	return &testServer{router: router, sink: sink}
}

func (s *testServer) post(t *testing.T, path, identity string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		req.Header.Set(ratelimit.DefaultIdentityHeader, identity)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func formJSON(t *testing.T, form model.LeadForm) []byte {
	t.Helper()
	b, err := json.Marshal(form)
	require.NoError(t, err)
	return b
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.DTOError {
	t.Helper()
	var body model.DTOError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubmit_Accepted(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.post(t, "/lead-intake", "203.0.113.7", formJSON(t, validationtest.ValidForm()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body model.DTOLeadAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, model.DTOLeadAccepted{Success: true, Message: MessageAccepted}, body)
	assert.Equal(t, 1, srv.sink.count())
}

func TestSubmit_ConsultationAlias(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.post(t, "/api/consultation", "203.0.113.7", formJSON(t, validationtest.ValidForm()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.sink.count())
}

func TestSubmit_RejectedListsEveryField(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.post(t, "/lead-intake", "203.0.113.7", formJSON(t, model.LeadForm{
		Name:         "A",
		Phone:        "0123456789",
		MonthlyBill:  "abc",
		PropertyType: "Castle",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, MessageInvalid, body.Error)
	assert.Equal(t, map[string][]string{
		"name":         {"Name must be at least 2 characters."},
		"phone":        {"Please enter a valid phone number."},
		"monthlyBill":  {"Must be a number."},
		"propertyType": {"Please select a valid property type."},
	}, body.Details)
	assert.Zero(t, srv.sink.count())
}

func TestSubmit_MalformedPayloadIsInternalError(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.post(t, "/lead-intake", "203.0.113.7", []byte("{not json"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, MessageInternal, body.Error)
	assert.Empty(t, body.Details)
}

func TestSubmit_TrailingContentIsMalformed(t *testing.T) {
	srv := newTestServer(t)
	body := append(formJSON(t, validationtest.ValidForm()), []byte(" trailing-garbage")...)

	rec := srv.post(t, "/lead-intake", "203.0.113.7", body)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, MessageInternal, decodeError(t, rec).Error)
	assert.Zero(t, srv.sink.count())
}

func TestSubmit_OversizedBody(t *testing.T) {
	srv := newTestServer(t)
	form := validationtest.ValidForm()
	form.Name = model.FormValue(strings.Repeat("a", defaultMaxBodyBytes))

	rec := srv.post(t, "/lead-intake", "203.0.113.7", formJSON(t, form))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, srv.sink.count())
}

func TestSubmit_SixthRapidRequestIsRateLimited(t *testing.T) {
	srv := newTestServer(t)
	valid := formJSON(t, validationtest.ValidForm())
	bodies := [][]byte{valid, []byte("{not json"), valid, formJSON(t, model.LeadForm{}), valid}

	for i, b := range bodies {
		rec := srv.post(t, "/lead-intake", "198.51.100.4", b)
		assert.NotEqual(t, http.StatusTooManyRequests, rec.Code, "request %d", i+1)
	}

	rec := srv.post(t, "/lead-intake", "198.51.100.4", valid)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, MessageRateLimited, decodeError(t, rec).Error)

	other := srv.post(t, "/lead-intake", "192.0.2.10", valid)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestSubmit_MissingIdentitySharesFallbackQuota(t *testing.T) {
	srv := newTestServer(t)
	valid := formJSON(t, validationtest.ValidForm())

	for i := 0; i < ratelimit.DefaultLimit; i++ {
		require.Equal(t, http.StatusOK, srv.post(t, "/lead-intake", "", valid).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, srv.post(t, "/lead-intake", "", valid).Code)
}

func TestSubmit_ScriptPayloadStripped(t *testing.T) {
	srv := newTestServer(t)
	form := validationtest.ValidForm()
	form.Name = "Asha<script>alert(1)</script> Rao"

	rec := srv.post(t, "/lead-intake", "203.0.113.7", formJSON(t, form))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, srv.sink.count())
	assert.Equal(t, "Asha Rao", srv.sink.leads[0].Submission.Name)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/lead-intake", "/api/consultation"} {
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"operational"}`, rec.Body.String())
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/lead-intake", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lead-intake", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.post(t, "/lead-intake", "203.0.113.7", formJSON(t, validationtest.ValidForm()))

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `leadintake_pipeline_requests_total{state="Accepted"} 1`)
}

func TestHealth(t *testing.T) {
	logger := logging.NewNop()

	rec := httptest.NewRecorder()
	NewHealthHandler(nil, logger).Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(context.DeadlineExceeded)

	rec = httptest.NewRecorder()
	NewHealthHandler(db, logger).Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmit_RetryAfterRoundsUp(t *testing.T) {
	limiter := ratelimit.NewFixedWindow(1, time.Minute)
	svc := service.NewLeadService(limiter, &leadSink{}, logging.NewNop())
	h := NewLeadHandler(svc, nil, 1500*time.Millisecond, 0, logging.NewNop())

	valid := formJSON(t, validationtest.ValidForm())
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Submit(rec, httptest.NewRequest(http.MethodPost, "/lead-intake", bytes.NewReader(valid)))
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			assert.Equal(t, "2", rec.Header().Get("Retry-After"))
		}
	}
}
