// Package scheduler books appointments against doctors' weekly availability
// and drives the appointment lifecycle:
//
//	Scheduled -> Completed | Cancelled   (owning doctor)
//	Scheduled -> removed                 (booking patient)
//
// Completed and Cancelled are terminal. Every operation takes the
// authenticated Actor explicitly and returns a *Error on failure.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/events"
	"healthcare-portal-api/internal/metrics"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/store"
)

type Scheduler struct {
	store   Store
	loc     *time.Location
	events  events.Publisher
	metrics *metrics.Collector
	log     *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// New returns a Scheduler that derives weekdays and times of day in loc.
// Nil collaborators fall back to UTC, a no-op publisher, an unexported
// registry and a no-op logger.
func New(st Store, loc *time.Location, pub events.Publisher, m *metrics.Collector, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if pub == nil {
		pub = events.Noop{}
	}
	if m == nil {
		m = metrics.NewCollector("scheduler", prometheus.NewRegistry())
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		store:   st,
		loc:     loc,
		events:  pub,
		metrics: m,
		log:     log.Named("scheduler"),
		tracer:  otel.Tracer("healthcare-portal-api/scheduler"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Location is the operating timezone.
func (s *Scheduler) Location() *time.Location { return s.loc }

type BookRequest struct {
	DoctorID        string
	AppointmentTime string
	Reason          string
}

// Book validates req against the doctor's current availability and creates a
// Scheduled appointment for the acting patient. Lookup, validation and insert
// share one transaction.
func (s *Scheduler) Book(ctx context.Context, actor model.Actor, req BookRequest) (appt *model.Appointment, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.Book", trace.WithAttributes(
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("patient.id", actor.ID),
	))
	defer func() {
		outcome := "booked"
		if err != nil {
			outcome = string(KindOf(err))
		}
		s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
		endSpan(span, err)
	}()

	if !canBook(actor) {
		return nil, fail(KindNotAuthorized, "only patients can book appointments")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fail(KindMissingField, "reason is required")
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		return nil, fail(KindMissingField, "doctorId is required")
	}
	if strings.TrimSpace(req.AppointmentTime) == "" {
		return nil, fail(KindMissingField, "appointmentTime is required")
	}
	instant, perr := ParseInstant(req.AppointmentTime)
	if perr != nil {
		msg := fmt.Sprintf("appointmentTime %q is not an ISO-8601 instant", req.AppointmentTime)
		if errors.Is(perr, ErrSubMicrosecond) {
			msg = fmt.Sprintf("appointmentTime %q is more precise than one microsecond", req.AppointmentTime)
		}
		return nil, fail(KindInvalidField, msg)
	}

	err = s.store.InTx(ctx, func(tx Repository) error {
		doctor, err := s.lookupDoctor(ctx, tx, req.DoctorID)
		if err != nil {
			return err
		}
		sched, err := loadSchedule(doctor.Availability)
		if err != nil {
			return err
		}
		if err := checkSlot(sched, instant, s.loc); err != nil {
			return err
		}

		now := s.now()
		a := &model.Appointment{
			ID:        uuid.New().String(),
			PatientID: actor.ID,
			DoctorID:  doctor.ID,
			Instant:   instant,
			Reason:    req.Reason,
			Status:    model.StatusScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateAppointment(ctx, a); err != nil {
			return persistence("create appointment", err)
		}
		appt = a
		return nil
	})
	if err != nil {
		return nil, s.settle("book appointment", err)
	}

	s.log.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("doctor_id", appt.DoctorID),
		zap.String("patient_id", appt.PatientID),
		zap.Time("appointment_time", appt.Instant),
	)
	s.publish(ctx, events.AppointmentBooked, appt)
	return appt, nil
}

// UpdateStatus lets the owning doctor finalize a Scheduled appointment.
// Setting Scheduled on a Scheduled appointment changes nothing.
func (s *Scheduler) UpdateStatus(ctx context.Context, actor model.Actor, id, status string) (appt *model.Appointment, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.UpdateStatus", trace.WithAttributes(
		attribute.String("appointment.id", id),
		attribute.String("appointment.status", status),
	))
	defer func() { endSpan(span, err) }()

	to := model.Status(status)
	if !to.IsValid() {
		return nil, fail(KindInvalidStatus, fmt.Sprintf("status %q is not one of Scheduled, Completed, Cancelled", status))
	}
	if !actor.Is(model.RoleDoctor) {
		return nil, fail(KindNotAuthorized, "only doctors can update appointment status")
	}

	changed := false
	err = s.store.InTx(ctx, func(tx Repository) error {
		a, err := s.lookupAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canSetStatus(actor, a) {
			return fail(KindNotAuthorized, "appointment belongs to another doctor")
		}
		if a.Status.IsTerminal() {
			return fail(KindAlreadyFinalized, fmt.Sprintf("appointment is already %s", a.Status))
		}
		appt = a
		if to == a.Status {
			return nil
		}
		if err := tx.UpdateAppointmentStatus(ctx, a.ID, a.Status, to); err != nil {
			return s.transitionErr("update appointment status", err)
		}
		a.Status = to
		a.UpdatedAt = s.now()
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.settle("update appointment status", err)
	}

	if changed {
		s.metrics.StatusUpdatesTotal.WithLabelValues(string(to)).Inc()
		s.log.Info("appointment status updated",
			zap.String("appointment_id", appt.ID),
			zap.String("doctor_id", appt.DoctorID),
			zap.String("patient_id", appt.PatientID),
			zap.String("status", string(to)),
		)
		s.publish(ctx, events.AppointmentStatusUpdated, appt)
	}
	return appt, nil
}

// Cancel removes a Scheduled appointment on behalf of the patient who booked it.
func (s *Scheduler) Cancel(ctx context.Context, actor model.Actor, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.Cancel", trace.WithAttributes(
		attribute.String("appointment.id", id),
	))
	defer func() { endSpan(span, err) }()

	if !actor.Is(model.RolePatient) {
		return fail(KindNotAuthorized, "only patients can cancel appointments")
	}

	var removed *model.Appointment
	err = s.store.InTx(ctx, func(tx Repository) error {
		a, err := s.lookupAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canCancel(actor, a) {
			return fail(KindNotAuthorized, "appointment belongs to another patient")
		}
		if a.Status.IsTerminal() {
			return fail(KindAlreadyFinalized, fmt.Sprintf("appointment is already %s", a.Status))
		}
		if err := tx.DeleteAppointment(ctx, a.ID, model.StatusScheduled); err != nil {
			return s.transitionErr("delete appointment", err)
		}
		removed = a
		return nil
	})
	if err != nil {
		return s.settle("cancel appointment", err)
	}

	s.metrics.CancellationsTotal.Inc()
	s.log.Info("appointment cancelled",
		zap.String("appointment_id", removed.ID),
		zap.String("doctor_id", removed.DoctorID),
		zap.String("patient_id", removed.PatientID),
	)
	s.publish(ctx, events.AppointmentCancelled, removed)
	return nil
}

// ListForPatient returns a patient's appointments, earliest first. An empty
// patientID means the actor's own.
func (s *Scheduler) ListForPatient(ctx context.Context, actor model.Actor, patientID string) ([]model.Appointment, error) {
	if patientID == "" {
		patientID = actor.ID
	}
	if !canViewPatient(actor, patientID) {
		return nil, fail(KindNotAuthorized, "cannot view another patient's appointments")
	}
	return s.list(ctx, "scheduler.ListForPatient", patientID, Repository.ListAppointmentsByPatient)
}

// ListForDoctor returns a doctor's appointments, earliest first. An empty
// doctorID means the actor's own.
func (s *Scheduler) ListForDoctor(ctx context.Context, actor model.Actor, doctorID string) ([]model.Appointment, error) {
	if doctorID == "" {
		doctorID = actor.ID
	}
	if !canViewDoctor(actor, doctorID) {
		return nil, fail(KindNotAuthorized, "cannot view another doctor's appointments")
	}
	return s.list(ctx, "scheduler.ListForDoctor", doctorID, Repository.ListAppointmentsByDoctor)
}

func (s *Scheduler) list(ctx context.Context, op, id string,
	fetch func(Repository, context.Context, string) ([]model.Appointment, error),
) (out []model.Appointment, err error) {
	ctx, span := s.tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	out = []model.Appointment{}
	if _, perr := uuid.Parse(id); perr != nil {
		return out, nil
	}
	got, ferr := fetch(s.store, ctx, id)
	if ferr != nil {
		s.log.Error("list appointments", zap.String("owner_id", id), zap.Error(ferr))
		return nil, persistence("list appointments", ferr)
	}
	out = append(out, got...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Instant.Before(out[j].Instant) })
	return out, nil
}

// instantLayouts are tried in order after RFC 3339. Layouts without an
// offset are read as UTC.
var instantLayouts = []string{
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ErrSubMicrosecond rejects instants finer than the store can keep.
var ErrSubMicrosecond = errors.New("instant has sub-microsecond precision")

// ParseInstant reads an ISO-8601 instant with or without seconds. A trailing
// Z (either case) or numeric offset is honoured; a value with no offset is
// taken as UTC. The result is in UTC and at most microsecond precise.
func ParseInstant(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "z") {
		v = v[:len(v)-1] + "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	for _, layout := range instantLayouts {
		if err == nil {
			break
		}
		t, err = time.ParseInLocation(layout, v, time.UTC)
	}
	if err != nil {
		return time.Time{}, err
	}
	if t.Nanosecond()%int(time.Microsecond) != 0 {
		return time.Time{}, ErrSubMicrosecond
	}
	return t.UTC(), nil
}

// checkSlot accepts instant iff its local time of day in loc falls in
// [start, end) of that weekday's window.
func checkSlot(sched availability.Schedule, instant time.Time, loc *time.Location) *Error {
	local := instant.In(loc)
	day := availability.WeekdayOf(local)
	w, ok := sched.On(day)
	if !ok {
		return fail(KindDoctorUnavailableOnDay, fmt.Sprintf("doctor is not available on %s", day))
	}
	if !w.Contains(availability.ClockOffset(local)) {
		return fail(KindOutsideAvailability, fmt.Sprintf(
			"requested time %s is outside the doctor's hours on %s (%s)",
			local.Format("15:04"), day, w))
	}
	return nil
}

func loadSchedule(raw *string) (availability.Schedule, error) {
	sched, err := availability.Load(raw)
	switch {
	case errors.Is(err, availability.ErrNoAvailability):
		return nil, &Error{Kind: KindNoAvailabilityConfigured, Msg: "doctor has no availability configured", Err: err}
	case err != nil:
		return nil, &Error{Kind: KindMalformedAvailability, Msg: "doctor availability is malformed", Err: err}
	}
	return sched, nil
}

func (s *Scheduler) lookupDoctor(ctx context.Context, r Repository, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fail(KindDoctorNotFound, fmt.Sprintf("doctor %s not found", id))
	}
	u, err := r.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(KindDoctorNotFound, fmt.Sprintf("doctor %s not found", id))
	}
	if err != nil {
		return nil, persistence("load doctor", err)
	}
	if u.Role != model.RoleDoctor {
		return nil, fail(KindDoctorNotFound, fmt.Sprintf("doctor %s not found", id))
	}
	return u, nil
}

func (s *Scheduler) lookupAppointment(ctx context.Context, r Repository, id string) (*model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fail(KindNotFound, "appointment not found")
	}
	a, err := r.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(KindNotFound, "appointment not found")
	}
	if err != nil {
		return nil, persistence("load appointment", err)
	}
	return a, nil
}

// transitionErr maps a lost conditional write. A conflict means another
// request finalized the appointment first.
func (s *Scheduler) transitionErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return fail(KindAlreadyFinalized, "appointment was finalized concurrently")
	case errors.Is(err, store.ErrNotFound):
		return fail(KindNotFound, "appointment not found")
	}
	return persistence(op, err)
}

// settle normalizes an error leaving a transaction. Anything that is not
// already a scheduler error came from begin or commit.
func (s *Scheduler) settle(op string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = persistence(op, err)
	}
	if e.Kind == KindPersistence {
		s.log.Error(op, zap.Error(e.Err))
	}
	return e
}

func (s *Scheduler) publish(ctx context.Context, typ events.Type, a *model.Appointment) {
	ev := events.Event{
		Type:            typ,
		AppointmentID:   a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		Status:          string(a.Status),
		AppointmentTime: a.Instant,
		OccurredAt:      s.now(),
	}
	result := "ok"
	if err := s.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		result = "error"
		s.log.Warn("publish appointment event",
			zap.String("type", string(typ)),
			zap.String("appointment_id", a.ID),
			zap.Error(err),
		)
	}
	s.metrics.EventsTotal.WithLabelValues(string(typ), result).Inc()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(KindOf(err)))
	}
	span.End()
}
