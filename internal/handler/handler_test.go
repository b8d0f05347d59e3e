package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/handler"
	"healthcare-portal-api/internal/middleware"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/rpc"
	"healthcare-portal-api/internal/scheduler"
)

const staffSecret = "let-me-in"

func setup(t *testing.T) (*handler.Handler, *stubScheduling, *memAccounts, *auth.Issuer) {
	t.Helper()
	sched := &stubScheduling{}
	accounts := newMemAccounts()
	tokens := auth.NewIssuer("test-secret", "portal", time.Minute)
	h := handler.New(sched, accounts, tokens, handler.Options{
		RefreshTTL:  time.Hour,
		StaffSecret: staffSecret,
	}, zap.NewNop())
	return h, sched, accounts, tokens
}

func as(role model.Role, id string) context.Context {
	return middleware.WithActor(context.Background(), model.Actor{ID: id, Role: role})
}

func TestSchedulerErrorsMapToCodes(t *testing.T) {
	tests := []struct {
		kind scheduler.Kind
		code codes.Code
	}{
		{scheduler.KindMissingField, codes.InvalidArgument},
		{scheduler.KindInvalidField, codes.InvalidArgument},
		{scheduler.KindInvalidStatus, codes.InvalidArgument},
		{scheduler.KindDoctorNotFound, codes.NotFound},
		{scheduler.KindNotFound, codes.NotFound},
		{scheduler.KindNoAvailabilityConfigured, codes.FailedPrecondition},
		{scheduler.KindMalformedAvailability, codes.FailedPrecondition},
		{scheduler.KindDoctorUnavailableOnDay, codes.FailedPrecondition},
		{scheduler.KindOutsideAvailability, codes.FailedPrecondition},
		{scheduler.KindAlreadyFinalized, codes.FailedPrecondition},
		{scheduler.KindNotAuthorized, codes.PermissionDenied},
		{scheduler.KindPersistence, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			h, sched, _, _ := setup(t)
			sched.err = &scheduler.Error{Kind: tt.kind, Msg: "detail for " + string(tt.kind)}

			_, err := h.BookAppointment(as(model.RolePatient, "p1"), &rpc.BookAppointmentRequest{})
			st := status.Convert(err)
			if st.Code() != tt.code {
				t.Errorf("code %s, want %s", st.Code(), tt.code)
			}
			if st.Message() != "detail for "+string(tt.kind) {
				t.Errorf("message %q", st.Message())
			}
			if got := handler.ReasonOf(err); got != string(tt.kind) {
				t.Errorf("reason %q", got)
			}
		})
	}
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	h, sched, _, _ := setup(t)
	sched.err = errors.New("boom")
	_, err := h.ListDoctors(as(model.RolePatient, "p1"), &rpc.ListDoctorsRequest{})
	if status.Code(err) != codes.Internal || status.Convert(err).Message() != "internal error" {
		t.Errorf("got %v", err)
	}
}

func TestProtectedMethodsNeedActor(t *testing.T) {
	h, _, _, _ := setup(t)
	ctx := context.Background()
	calls := map[string]func() error{
		"book":   func() error { _, err := h.BookAppointment(ctx, &rpc.BookAppointmentRequest{}); return err },
		"cancel": func() error { _, err := h.CancelAppointment(ctx, &rpc.CancelAppointmentRequest{}); return err },
		"status": func() error { _, err := h.UpdateAppointmentStatus(ctx, &rpc.UpdateStatusRequest{}); return err },
		"logout": func() error { _, err := h.Logout(ctx, &rpc.LogoutRequest{}); return err },
		"set":    func() error { _, err := h.SetAvailability(ctx, &rpc.SetAvailabilityRequest{}); return err },
	}
	for name, call := range calls {
		if code := status.Code(call()); code != codes.Unauthenticated {
			t.Errorf("%s: %s", name, code)
		}
	}
}

func TestBookAppointmentResponse(t *testing.T) {
	h, sched, _, _ := setup(t)
	instant := time.Date(2025, 1, 6, 9, 0, 0, 500000, time.UTC)
	sched.appt = &model.Appointment{
		ID: "a1", DoctorID: "d1", PatientID: "p1", Instant: instant,
		Reason: "checkup", Status: model.StatusScheduled, CreatedAt: instant,
	}

	resp, err := h.BookAppointment(as(model.RolePatient, "p1"), &rpc.BookAppointmentRequest{
		DoctorID: "d1", AppointmentTime: "2025-01-06T09:00:00.0005Z", Reason: "checkup",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sched.lastBook.AppointmentTime != "2025-01-06T09:00:00.0005Z" || sched.lastBook.DoctorID != "d1" {
		t.Errorf("request not forwarded: %+v", sched.lastBook)
	}
	a := resp.Appointment
	if a.AppointmentTime != "2025-01-06T09:00:00.0005Z" || a.Status != "Scheduled" || a.Reason != "checkup" {
		t.Errorf("appointment %+v", a)
	}
}

func TestAvailabilityResponses(t *testing.T) {
	h, sched, _, _ := setup(t)
	sched.sched = availability.Schedule{availability.Monday: {Start: 9 * 60, End: 17 * 60}}

	resp, err := h.GetAvailability(as(model.RolePatient, "p1"), &rpc.GetAvailabilityRequest{DoctorID: "d1"})
	if err != nil {
		t.Fatal(err)
	}
	if w := resp.Availability["monday"]; w.Start != "09:00" || w.End != "17:00" || len(resp.Availability) != 1 {
		t.Errorf("availability %+v", resp.Availability)
	}

	_, err = h.SetAvailability(as(model.RoleDoctor, "d1"), &rpc.SetAvailabilityRequest{})
	if handler.ReasonOf(err) != string(scheduler.KindMissingField) {
		t.Errorf("absent availability: %v", err)
	}

	var req rpc.SetAvailabilityRequest
	if err := json.Unmarshal([]byte(`{"availability":null}`), &req); err != nil {
		t.Fatal(err)
	}
	if _, err := h.SetAvailability(as(model.RoleDoctor, "d1"), &req); err != nil {
		t.Fatalf("explicit null: %v", err)
	}
	if string(sched.lastDoc) != "null" {
		t.Errorf("forwarded %q", sched.lastDoc)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	h, _, accounts, tokens := setup(t)
	ctx := context.Background()

	reg, err := h.Register(ctx, &rpc.RegisterRequest{Name: " Pat ", Email: " Pat@Example.COM ", Password: "hunter22"})
	if err != nil {
		t.Fatal(err)
	}
	if reg.Role != "patient" || reg.AccessToken == "" || reg.RefreshToken == "" {
		t.Errorf("register response %+v", reg)
	}
	u, err := accounts.UserByID(ctx, reg.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "pat@example.com" || u.Name != "Pat" {
		t.Errorf("stored %q %q", u.Email, u.Name)
	}

	claims, err := tokens.ParseToken(reg.AccessToken)
	if err != nil || claims.UserID != reg.UserID || claims.Role != model.RolePatient {
		t.Errorf("claims %+v %v", claims, err)
	}

	login, err := h.Login(ctx, &rpc.LoginRequest{Email: "PAT@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatal(err)
	}
	if login.UserID != reg.UserID || login.Name != "Pat" {
		t.Errorf("login %+v", login)
	}

	_, err = h.Login(ctx, &rpc.LoginRequest{Email: "pat@example.com", Password: "wrong-pass"})
	if status.Code(err) != codes.Unauthenticated || handler.ReasonOf(err) != handler.ReasonInvalidCredentials {
		t.Errorf("wrong password: %v", err)
	}
	_, err = h.Login(ctx, &rpc.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("unknown email: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _, _ := setup(t)
	ctx := context.Background()
	if _, err := h.Register(ctx, &rpc.RegisterRequest{Name: "A", Email: "a@x.io", Password: "longenough"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  *rpc.RegisterRequest
		code codes.Code
	}{
		{"missing name", &rpc.RegisterRequest{Email: "b@x.io", Password: "longenough"}, codes.InvalidArgument},
		{"short password", &rpc.RegisterRequest{Name: "B", Email: "b@x.io", Password: "short"}, codes.InvalidArgument},
		{"unknown role", &rpc.RegisterRequest{Name: "B", Email: "b@x.io", Password: "longenough", Role: "nurse"}, codes.InvalidArgument},
		{"doctor without secret", &rpc.RegisterRequest{Name: "B", Email: "b@x.io", Password: "longenough", Role: "doctor"}, codes.PermissionDenied},
		{"doctor with wrong secret", &rpc.RegisterRequest{Name: "B", Email: "b@x.io", Password: "longenough", Role: "doctor", StaffSecret: "guess"}, codes.PermissionDenied},
		{"duplicate email", &rpc.RegisterRequest{Name: "A2", Email: "A@X.io", Password: "longenough"}, codes.AlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Register(ctx, tt.req); status.Code(err) != tt.code {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}

	doc, err := h.Register(ctx, &rpc.RegisterRequest{Name: "Dr", Email: "dr@x.io", Password: "longenough", Role: "Doctor", StaffSecret: staffSecret})
	if err != nil {
		t.Fatal(err)
	}
	if doc.Role != "doctor" {
		t.Errorf("role %s", doc.Role)
	}
}

func TestRefreshRotation(t *testing.T) {
	h, _, accounts, _ := setup(t)
	ctx := context.Background()

	reg, err := h.Register(ctx, &rpc.RegisterRequest{Name: "P", Email: "p@x.io", Password: "longenough"})
	if err != nil {
		t.Fatal(err)
	}

	next, err := h.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: reg.RefreshToken})
	if err != nil {
		t.Fatal(err)
	}
	if next.RefreshToken == reg.RefreshToken || next.UserID != reg.UserID {
		t.Errorf("refresh %+v", next)
	}

	// replaying the first token revokes the whole family
	if _, err := h.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: reg.RefreshToken}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("replay: %v", err)
	}
	if n := accounts.liveTokens(reg.UserID); n != 0 {
		t.Errorf("%d tokens still live after replay", n)
	}
	if _, err := h.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: next.RefreshToken}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("revoked successor still works: %v", err)
	}
	if _, err := h.Refresh(ctx, &rpc.RefreshRequest{RefreshToken: "unknown"}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("unknown token: %v", err)
	}
}

func TestLogoutRevokes(t *testing.T) {
	h, _, accounts, _ := setup(t)
	ctx := context.Background()

	reg, err := h.Register(ctx, &rpc.RegisterRequest{Name: "P", Email: "p@x.io", Password: "longenough"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Logout(as(model.RolePatient, reg.UserID), &rpc.LogoutRequest{}); err != nil {
		t.Fatal(err)
	}
	if n := accounts.liveTokens(reg.UserID); n != 0 {
		t.Errorf("%d tokens live after logout", n)
	}
}
