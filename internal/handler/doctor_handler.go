package handler

import (
	"context"

	"google.golang.org/grpc/codes"

	"healthcare-portal-api/internal/availability"
	"healthcare-portal-api/internal/rpc"
	"healthcare-portal-api/internal/scheduler"
)

func (h *Handler) ListDoctors(ctx context.Context, _ *rpc.ListDoctorsRequest) (*rpc.ListDoctorsResponse, error) {
	if _, err := h.actor(ctx); err != nil {
		return nil, err
	}
	doctors, err := h.sched.ListDoctors(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	out := make([]*rpc.Doctor, len(doctors))
	for i, d := range doctors {
		out[i] = &rpc.Doctor{ID: d.ID, Name: d.Name, Email: d.Email}
	}
	return &rpc.ListDoctorsResponse{Doctors: out}, nil
}

func (h *Handler) GetAvailability(ctx context.Context, req *rpc.GetAvailabilityRequest) (*rpc.AvailabilityResponse, error) {
	if _, err := h.actor(ctx); err != nil {
		return nil, err
	}
	sched, err := h.sched.GetAvailability(ctx, req.DoctorID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.AvailabilityResponse{DoctorID: req.DoctorID, Availability: scheduleToRPC(sched)}, nil
}

func (h *Handler) SetAvailability(ctx context.Context, req *rpc.SetAvailabilityRequest) (*rpc.AvailabilityResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	// an explicit null clears the schedule; an absent field is a mistake
	if len(req.Availability) == 0 {
		return nil, statusError(codes.InvalidArgument, string(scheduler.KindMissingField), "availability is required")
	}
	sched, err := h.sched.SetAvailability(ctx, a, req.Availability)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.AvailabilityResponse{DoctorID: a.ID, Availability: scheduleToRPC(sched)}, nil
}

func scheduleToRPC(s availability.Schedule) map[string]rpc.TimeWindow {
	out := make(map[string]rpc.TimeWindow, len(s))
	for _, day := range s.Days() {
		w := s[day]
		out[string(day)] = rpc.TimeWindow{Start: w.Start.String(), End: w.End.String()}
	}
	return out
}
