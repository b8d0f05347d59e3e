package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	// Availability is the doctor's weekly schedule as stored: a JSON object
	// keyed by weekday. nil when the doctor never configured one.
	Availability *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Is(role Role) bool { return a.Role == role }

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID        string
	PatientID string
	DoctorID  string
	// Instant is the booked moment in UTC, exactly as requested.
	Instant   time.Time
	Reason    string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}
