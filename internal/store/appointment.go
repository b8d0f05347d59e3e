package store

import (
	"context"

	"healthcare-portal-api/internal/model"
)

const appointmentColumns = `id, patient_id, doctor_id, appointment_time, reason, status, created_at, updated_at`

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, appointment_time, reason, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
		a.ID, a.PatientID, a.DoctorID, a.Instant, a.Reason, a.Status, a.CreatedAt,
	)
	return err
}

func scanAppointment(row interface{ Scan(...any) error }) (*model.Appointment, error) {
	a := &model.Appointment{}
	if err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Instant, &a.Reason,
		&a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	a.Instant = a.Instant.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.db.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

// UpdateAppointmentStatus moves an appointment from one status to another.
// The status guard makes concurrent finalizations lose cleanly with ErrConflict.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// DeleteAppointment removes an appointment that is still in status.
func (s *Store) DeleteAppointment(ctx context.Context, id string, status model.Status) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM appointments WHERE id = $1 AND status = $2`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

func (s *Store) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *Store) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE patient_id = $1 ORDER BY appointment_time, id`, patientID)
}

func (s *Store) ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE doctor_id = $1 ORDER BY appointment_time, id`, doctorID)
}

func (s *Store) listAppointments(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
