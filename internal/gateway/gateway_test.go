package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/gateway"
	"healthcare-portal-api/internal/handler"
	"healthcare-portal-api/internal/metrics"
	"healthcare-portal-api/internal/middleware"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/scheduler"
	"healthcare-portal-api/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeScheduling struct {
	err    error
	appt   *model.Appointment
	actor  model.Actor
	lastID string
}

func (f *fakeScheduling) Book(_ context.Context, a model.Actor, _ scheduler.BookRequest) (*model.Appointment, error) {
	f.actor = a
	return f.appt, f.err
}
func (f *fakeScheduling) UpdateStatus(_ context.Context, a model.Actor, id, _ string) (*model.Appointment, error) {
	f.actor, f.lastID = a, id
	return f.appt, f.err
}
func (f *fakeScheduling) Cancel(_ context.Context, a model.Actor, id string) error {
	f.actor, f.lastID = a, id
	return f.err
}
func (f *fakeScheduling) ListForPatient(context.Context, model.Actor, string) ([]model.Appointment, error) {
	return []model.Appointment{}, f.err
}
func (f *fakeScheduling) ListForDoctor(context.Context, model.Actor, string) ([]model.Appointment, error) {
	return []model.Appointment{}, f.err
}
func (f *fakeScheduling) SetAvailability(context.Context, model.Actor, []byte) (availability.Schedule, error) {
	return availability.Schedule{}, f.err
}
func (f *fakeScheduling) GetAvailability(context.Context, string) (availability.Schedule, error) {
	return availability.Schedule{availability.Monday: {Start: 540, End: 1020}}, f.err
}
func (f *fakeScheduling) ListDoctors(context.Context) ([]model.User, error) {
	return []model.User{{ID: "d1", Name: "Dr. Ada", Email: "ada@x.io", Role: model.RoleDoctor}}, f.err
}

// noAccounts knows nobody.
type noAccounts struct{}

func (noAccounts) CreateUser(context.Context, *model.User) error { return errors.New("read only") }
func (noAccounts) UserByEmail(context.Context, string) (*model.User, error) {
	return nil, store.ErrNotFound
}
func (noAccounts) UserByID(context.Context, string) (*model.User, error) { return nil, store.ErrNotFound }
func (noAccounts) CreateRefreshToken(context.Context, string, string, time.Time) (string, error) {
	return "", errors.New("read only")
}
func (noAccounts) GetRefreshTokenByHash(context.Context, string) (*store.RefreshToken, error) {
	return nil, store.ErrNotFound
}
func (noAccounts) RotateRefreshToken(context.Context, string, string, string, string, time.Time) error {
	return store.ErrConflict
}
func (noAccounts) RevokeAllRefreshTokens(context.Context, string) error { return nil }

type env struct {
	router  *gin.Engine
	sched   *fakeScheduling
	tokens  *auth.Issuer
	metrics *metrics.Collector
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sched := &fakeScheduling{}
	tokens := auth.NewIssuer("test-secret", "portal", time.Minute)
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector("test", reg)
	h := handler.New(sched, noAccounts{}, tokens, handler.Options{RefreshTTL: time.Hour}, zap.NewNop())

	g := gateway.New(gateway.Options{
		Service:  h,
		Tokens:   tokens,
		Limiter:  middleware.NewRateLimiter(ctx, 0.001, 2),
		Metrics:  m,
		Gatherer: reg,
		Logger:   zap.NewNop(),
	})
	return &env{router: g.Router(), sched: sched, tokens: tokens, metrics: m}
}

func (e *env) token(t *testing.T, id string, role model.Role) string {
	t.Helper()
	tok, err := e.tokens.MakeToken(id, role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *env) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) gateway.ErrorResponse {
	t.Helper()
	var resp gateway.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestBookCreated(t *testing.T) {
	e := newEnv(t)
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	e.sched.appt = &model.Appointment{ID: "a1", DoctorID: "d1", PatientID: "p1", Instant: at, Reason: "checkup", Status: model.StatusScheduled}

	w := e.do(http.MethodPost, "/api/appointments/book", e.token(t, "p1", model.RolePatient),
		`{"doctorId":"d1","appointmentTime":"2025-01-06T09:00:00Z","reason":"checkup"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	for k, want := range map[string]string{
		"id": "a1", "doctorId": "d1", "patientId": "p1",
		"appointmentTime": "2025-01-06T09:00:00Z", "reason": "checkup", "status": "Scheduled",
	} {
		if resp.Data[k] != want {
			t.Errorf("%s = %q, want %q", k, resp.Data[k], want)
		}
	}
	if e.sched.actor.ID != "p1" || e.sched.actor.Role != model.RolePatient {
		t.Errorf("actor %+v", e.sched.actor)
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		kind   scheduler.Kind
		status int
	}{
		{scheduler.KindMissingField, http.StatusBadRequest},
		{scheduler.KindInvalidStatus, http.StatusBadRequest},
		{scheduler.KindDoctorNotFound, http.StatusNotFound},
		{scheduler.KindNotFound, http.StatusNotFound},
		{scheduler.KindOutsideAvailability, http.StatusUnprocessableEntity},
		{scheduler.KindDoctorUnavailableOnDay, http.StatusUnprocessableEntity},
		{scheduler.KindNoAvailabilityConfigured, http.StatusUnprocessableEntity},
		{scheduler.KindMalformedAvailability, http.StatusUnprocessableEntity},
		{scheduler.KindAlreadyFinalized, http.StatusConflict},
		{scheduler.KindNotAuthorized, http.StatusForbidden},
		{scheduler.KindPersistence, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := newEnv(t)
			e.sched.err = &scheduler.Error{Kind: tt.kind, Msg: "why"}

			w := e.do(http.MethodDelete, "/api/appointments/a1", e.token(t, "p1", model.RolePatient), "")
			if w.Code != tt.status {
				t.Fatalf("status %d, want %d", w.Code, tt.status)
			}
			resp := decodeError(t, w)
			if resp.Code != string(tt.kind) {
				t.Errorf("code %q", resp.Code)
			}
			if tt.status == http.StatusInternalServerError && resp.Error != "internal server error" {
				t.Errorf("internal detail leaked: %q", resp.Error)
			}
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	e := newEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/appointments/book"},
		{http.MethodGet, "/api/appointments/patient"},
		{http.MethodGet, "/api/appointments/doctor"},
		{http.MethodPut, "/api/appointments/a1/status"},
		{http.MethodDelete, "/api/appointments/a1"},
		{http.MethodGet, "/api/doctors"},
		{http.MethodPut, "/api/doctors/me/availability"},
		{http.MethodPost, "/api/auth/logout"},
	} {
		w := e.do(tc.method, tc.path, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: %d", tc.method, tc.path, w.Code)
		}
	}
	if w := e.do(http.MethodGet, "/api/doctors", "garbage", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: %d", w.Code)
	}
}

func TestStatusUpdateForwardsPathID(t *testing.T) {
	e := newEnv(t)
	e.sched.appt = &model.Appointment{ID: "a9", Status: model.StatusCompleted, Instant: time.Now()}
	w := e.do(http.MethodPut, "/api/appointments/a9/status", e.token(t, "d1", model.RoleDoctor), `{"status":"Completed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	if e.sched.lastID != "a9" {
		t.Errorf("id %q", e.sched.lastID)
	}
}

func TestMalformedBody(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/api/appointments/book", e.token(t, "p1", model.RolePatient), `{"doctorId":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d", w.Code)
	}
}

func TestDoctorsAndAvailability(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "p1", model.RolePatient)

	w := e.do(http.MethodGet, "/api/doctors", tok, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"Dr. Ada"`) {
		t.Errorf("doctors %d %s", w.Code, w.Body)
	}

	w = e.do(http.MethodGet, "/api/doctors/d1/availability", tok, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"monday":{"start":"09:00","end":"17:00"}`) {
		t.Errorf("availability %d %s", w.Code, w.Body)
	}
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t)
	body := `{"email":"a@x.io","password":"whatever1"}`
	for i := 0; i < 2; i++ {
		if w := e.do(http.MethodPost, "/api/auth/login", "", body); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, w.Code)
		}
	}
	if w := e.do(http.MethodPost, "/api/auth/login", "", body); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	if w := e.do(http.MethodGet, "/healthz", "", ""); w.Code != http.StatusOK {
		t.Errorf("healthz %d", w.Code)
	}
	w := e.do(http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "test_http_requests_total") {
		t.Errorf("metrics %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t)
	r := httptest.NewRequest(http.MethodOptions, "/api/appointments/book", nil)
	r.Header.Set("Origin", "http://portal.local")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Errorf("status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://portal.local" {
		t.Errorf("allow origin %q", got)
	}
}
