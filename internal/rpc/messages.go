package rpc

import "encoding/json"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role defaults to patient. Other roles need StaffSecret.
	Role        string `json:"role,omitempty"`
	StaffSecret string `json:"staffSecret,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Role         string `json:"role"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type Doctor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ListDoctorsRequest struct{}

type ListDoctorsResponse struct {
	Doctors []*Doctor `json:"doctors"`
}

type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type GetAvailabilityRequest struct {
	DoctorID string `json:"doctorId"`
}

type SetAvailabilityRequest struct {
	// Availability is the weekly schedule document, keyed by lowercase weekday.
	Availability json.RawMessage `json:"availability"`
}

type AvailabilityResponse struct {
	DoctorID     string                `json:"doctorId"`
	Availability map[string]TimeWindow `json:"availability"`
}

type BookAppointmentRequest struct {
	DoctorID        string `json:"doctorId"`
	AppointmentTime string `json:"appointmentTime"`
	Reason          string `json:"reason"`
}

type Appointment struct {
	ID              string `json:"id"`
	DoctorID        string `json:"doctorId"`
	PatientID       string `json:"patientId"`
	AppointmentTime string `json:"appointmentTime"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

type AppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type ListPatientAppointmentsRequest struct {
	// PatientID is optional; empty means the caller.
	PatientID string `json:"patientId,omitempty"`
}

type ListDoctorAppointmentsRequest struct {
	DoctorID string `json:"doctorId,omitempty"`
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
}

type UpdateStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CancelAppointmentRequest struct {
	ID string `json:"id"`
}

type CancelAppointmentResponse struct{}
