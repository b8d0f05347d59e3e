package handler

import (
	"context"
	"time"

	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/rpc"
	"healthcare-portal-api/internal/scheduler"
)

func (h *Handler) BookAppointment(ctx context.Context, req *rpc.BookAppointmentRequest) (*rpc.AppointmentResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	appt, err := h.sched.Book(ctx, a, scheduler.BookRequest{
		DoctorID:        req.DoctorID,
		AppointmentTime: req.AppointmentTime,
		Reason:          req.Reason,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.AppointmentResponse{Appointment: toRPC(appt)}, nil
}

func (h *Handler) ListPatientAppointments(ctx context.Context, req *rpc.ListPatientAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := h.sched.ListForPatient(ctx, a, req.PatientID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.ListAppointmentsResponse{Appointments: toRPCList(appts)}, nil
}

func (h *Handler) ListDoctorAppointments(ctx context.Context, req *rpc.ListDoctorAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := h.sched.ListForDoctor(ctx, a, req.DoctorID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.ListAppointmentsResponse{Appointments: toRPCList(appts)}, nil
}

func (h *Handler) UpdateAppointmentStatus(ctx context.Context, req *rpc.UpdateStatusRequest) (*rpc.AppointmentResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	appt, err := h.sched.UpdateStatus(ctx, a, req.ID, req.Status)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.AppointmentResponse{Appointment: toRPC(appt)}, nil
}

func (h *Handler) CancelAppointment(ctx context.Context, req *rpc.CancelAppointmentRequest) (*rpc.CancelAppointmentResponse, error) {
	a, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.sched.Cancel(ctx, a, req.ID); err != nil {
		return nil, h.toStatus(err)
	}
	return &rpc.CancelAppointmentResponse{}, nil
}

func toRPC(a *model.Appointment) *rpc.Appointment {
	p := &rpc.Appointment{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentTime: a.Instant.UTC().Format(time.RFC3339Nano),
		Reason:          a.Reason,
		Status:          string(a.Status),
	}
	if !a.CreatedAt.IsZero() {
		p.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return p
}

func toRPCList(appts []model.Appointment) []*rpc.Appointment {
	out := make([]*rpc.Appointment, len(appts))
	for i := range appts {
		out[i] = toRPC(&appts[i])
	}
	return out
}
