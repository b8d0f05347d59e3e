package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"healthcare-portal-api/internal/auth"
	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/middleware"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/rpc"
	"healthcare-portal-api/internal/scheduler"
	"healthcare-portal-api/internal/store"
)

// ErrorDomain tags the ErrorInfo detail on every error this service returns.
const ErrorDomain = "healthcare-portal"

// Reasons for failures that do not come from the scheduler.
const (
	ReasonInvalidCredentials = "InvalidCredentials"
	ReasonEmailTaken         = "EmailTaken"
	ReasonUnauthenticated    = "Unauthenticated"
	ReasonInternal           = "Internal"
)

// Scheduling is the appointment core as the handler calls it.
type Scheduling interface {
	Book(ctx context.Context, actor model.Actor, req scheduler.BookRequest) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, actor model.Actor, id, status string) (*model.Appointment, error)
	Cancel(ctx context.Context, actor model.Actor, id string) error
	ListForPatient(ctx context.Context, actor model.Actor, patientID string) ([]model.Appointment, error)
	ListForDoctor(ctx context.Context, actor model.Actor, doctorID string) ([]model.Appointment, error)
	SetAvailability(ctx context.Context, actor model.Actor, doc []byte) (availability.Schedule, error)
	GetAvailability(ctx context.Context, doctorID string) (availability.Schedule, error)
	ListDoctors(ctx context.Context) ([]model.User, error)
}

// Accounts is the user and refresh-token storage behind login.
type Accounts interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Handler struct {
	rpc.UnimplementedScheduleServiceServer
	sched       Scheduling
	accounts    Accounts
	tokens      *auth.Issuer
	refreshTTL  time.Duration
	staffSecret string
	log         *zap.Logger
	now         func() time.Time
}

type Options struct {
	RefreshTTL  time.Duration
	StaffSecret string
}

func New(sched Scheduling, accounts Accounts, tokens *auth.Issuer, opts Options, log *zap.Logger) *Handler {
	return &Handler{
		sched:       sched,
		accounts:    accounts,
		tokens:      tokens,
		refreshTTL:  opts.RefreshTTL,
		staffSecret: opts.StaffSecret,
		log:         log.Named("handler"),
		now:         time.Now,
	}
}

func (h *Handler) actor(ctx context.Context) (model.Actor, error) {
	a, ok := middleware.ActorFrom(ctx)
	if !ok {
		return model.Actor{}, statusError(codes.Unauthenticated, ReasonUnauthenticated, "authentication required")
	}
	return a, nil
}

var kindCodes = map[scheduler.Kind]codes.Code{
	scheduler.KindMissingField:             codes.InvalidArgument,
	scheduler.KindInvalidField:             codes.InvalidArgument,
	scheduler.KindInvalidStatus:            codes.InvalidArgument,
	scheduler.KindDoctorNotFound:           codes.NotFound,
	scheduler.KindNotFound:                 codes.NotFound,
	scheduler.KindNoAvailabilityConfigured: codes.FailedPrecondition,
	scheduler.KindMalformedAvailability:    codes.FailedPrecondition,
	scheduler.KindDoctorUnavailableOnDay:   codes.FailedPrecondition,
	scheduler.KindOutsideAvailability:      codes.FailedPrecondition,
	scheduler.KindAlreadyFinalized:         codes.FailedPrecondition,
	scheduler.KindNotAuthorized:            codes.PermissionDenied,
	scheduler.KindPersistence:              codes.Internal,
}

// CodeFor is the gRPC code a scheduler failure kind travels as.
func CodeFor(k scheduler.Kind) codes.Code {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return codes.Internal
}

// toStatus turns a scheduler failure into a gRPC status error carrying the
// kind as ErrorInfo.Reason.
func (h *Handler) toStatus(err error) error {
	var e *scheduler.Error
	if !errors.As(err, &e) {
		h.log.Error("unexpected error", zap.Error(err))
		return statusError(codes.Internal, ReasonInternal, "internal error")
	}
	return statusError(CodeFor(e.Kind), string(e.Kind), e.Error())
}

func statusError(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	if withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: ErrorDomain}); err == nil {
		st = withInfo
	}
	return st.Err()
}

// ReasonOf returns the ErrorInfo reason attached to err, or the gRPC code
// name when there is none.
func ReasonOf(err error) string {
	st := status.Convert(err)
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetReason() != "" {
			return info.GetReason()
		}
	}
	return st.Code().String()
}
