package scheduler

import (
	"context"

	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/store"
)

// Repository is the entity store as seen by the scheduler. Lookups return
// store.ErrNotFound for missing rows; conditional writes return
// store.ErrConflict when the row is no longer in the expected status.
type Repository interface {
	UserByID(ctx context.Context, id string) (*model.User, error)
	ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error)
	SetAvailability(ctx context.Context, doctorID string, raw *string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status) error
	DeleteAppointment(ctx context.Context, id string, status model.Status) error
	ListAppointmentsByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)
}

// Store is a Repository with a transaction boundary. fn either commits as a
// whole or leaves nothing behind.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(Repository) error) error
}

type pgStore struct {
	*store.Store
}

// PGStore exposes a postgres-backed store to the scheduler.
func PGStore(st *store.Store) Store {
	return pgStore{Store: st}
}

func (p pgStore) InTx(ctx context.Context, fn func(Repository) error) error {
	return p.Store.InTx(ctx, func(tx *store.Store) error {
		return fn(tx)
	})
}
