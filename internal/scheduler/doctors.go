package scheduler

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/store"
)

// SetAvailability replaces the acting doctor's weekly schedule. The document
// is validated before it is written, so a stored schedule always loads. A
// null or empty document clears the schedule.
func (s *Scheduler) SetAvailability(ctx context.Context, actor model.Actor, doc []byte) (sched availability.Schedule, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.SetAvailability", trace.WithAttributes(
		attribute.String("doctor.id", actor.ID),
	))
	defer func() { endSpan(span, err) }()

	if !canEditAvailability(actor) {
		return nil, fail(KindNotAuthorized, "only doctors can set availability")
	}

	var raw *string
	sched, perr := availability.Parse(doc)
	switch {
	case errors.Is(perr, availability.ErrNoAvailability):
		sched = availability.Schedule{}
	case perr != nil:
		return nil, &Error{Kind: KindMalformedAvailability, Msg: perr.Error(), Err: perr}
	default:
		enc, eerr := sched.Encode()
		if eerr != nil {
			return nil, &Error{Kind: KindMalformedAvailability, Msg: eerr.Error(), Err: eerr}
		}
		raw = &enc
	}

	if werr := s.store.SetAvailability(ctx, actor.ID, raw); werr != nil {
		if errors.Is(werr, store.ErrNotFound) {
			return nil, fail(KindDoctorNotFound, "doctor account not found")
		}
		s.log.Error("set availability", zap.String("doctor_id", actor.ID), zap.Error(werr))
		return nil, persistence("set availability", werr)
	}

	s.log.Info("availability updated",
		zap.String("doctor_id", actor.ID),
		zap.Int("days", len(sched)),
	)
	return sched, nil
}

// GetAvailability returns a doctor's parsed weekly schedule.
func (s *Scheduler) GetAvailability(ctx context.Context, doctorID string) (sched availability.Schedule, err error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.GetAvailability", trace.WithAttributes(
		attribute.String("doctor.id", doctorID),
	))
	defer func() { endSpan(span, err) }()

	doctor, err := s.lookupDoctor(ctx, s.store, doctorID)
	if err != nil {
		return nil, err
	}
	return loadSchedule(doctor.Availability)
}

// ListDoctors returns every doctor account.
func (s *Scheduler) ListDoctors(ctx context.Context) ([]model.User, error) {
	doctors, err := s.store.ListUsersByRole(ctx, model.RoleDoctor)
	if err != nil {
		s.log.Error("list doctors", zap.Error(err))
		return nil, persistence("list doctors", err)
	}
	if doctors == nil {
		doctors = []model.User{}
	}
	return doctors, nil
}
