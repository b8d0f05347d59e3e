package scheduler

import "errors"

// Kind names one rejection reason. Values are stable and travel on the wire.
type Kind string

const (
	KindMissingField             Kind = "MissingField"
	KindInvalidField             Kind = "InvalidField"
	KindDoctorNotFound           Kind = "DoctorNotFound"
	KindNoAvailabilityConfigured Kind = "NoAvailabilityConfigured"
	KindMalformedAvailability    Kind = "MalformedAvailability"
	KindDoctorUnavailableOnDay   Kind = "DoctorUnavailableOnDay"
	KindOutsideAvailability      Kind = "OutsideAvailability"
	KindInvalidStatus            Kind = "InvalidStatus"
	KindNotAuthorized            Kind = "NotAuthorized"
	KindNotFound                 Kind = "NotFound"
	KindAlreadyFinalized         Kind = "AlreadyFinalized"
	KindPersistence              Kind = "PersistenceError"
)

// Error is the failure result of every scheduler operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingField             = &Error{Kind: KindMissingField}
	ErrInvalidField             = &Error{Kind: KindInvalidField}
	ErrDoctorNotFound           = &Error{Kind: KindDoctorNotFound}
	ErrNoAvailabilityConfigured = &Error{Kind: KindNoAvailabilityConfigured}
	ErrMalformedAvailability    = &Error{Kind: KindMalformedAvailability}
	ErrDoctorUnavailableOnDay   = &Error{Kind: KindDoctorUnavailableOnDay}
	ErrOutsideAvailability      = &Error{Kind: KindOutsideAvailability}
	ErrInvalidStatus            = &Error{Kind: KindInvalidStatus}
	ErrNotAuthorized            = &Error{Kind: KindNotAuthorized}
	ErrNotFound                 = &Error{Kind: KindNotFound}
	ErrAlreadyFinalized         = &Error{Kind: KindAlreadyFinalized}
	ErrPersistence              = &Error{Kind: KindPersistence}
)

func fail(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Msg: op + " failed", Err: err}
}

// KindOf returns the kind carried by err, or "" when err is not a scheduler error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
