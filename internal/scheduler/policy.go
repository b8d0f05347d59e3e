package scheduler

import "healthcare-portal-api/internal/model"

// Authorization predicates. None of them touch the store.

func canBook(a model.Actor) bool {
	return a.Is(model.RolePatient)
}

func canSetStatus(a model.Actor, appt *model.Appointment) bool {
	return a.Is(model.RoleDoctor) && appt.DoctorID == a.ID
}

func canCancel(a model.Actor, appt *model.Appointment) bool {
	return a.Is(model.RolePatient) && appt.PatientID == a.ID
}

func canViewPatient(a model.Actor, patientID string) bool {
	return a.Is(model.RoleAdmin) || (a.Is(model.RolePatient) && a.ID == patientID)
}

func canViewDoctor(a model.Actor, doctorID string) bool {
	return a.Is(model.RoleAdmin) || (a.Is(model.RoleDoctor) && a.ID == doctorID)
}

func canEditAvailability(a model.Actor) bool {
	return a.Is(model.RoleDoctor)
}
