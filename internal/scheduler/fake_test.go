package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"healthcare-portal-api/internal/events"
	"healthcare-portal-api/internal/model"
	"healthcare-portal-api/internal/store"
)

// fakeStore is an in-memory Store. InTx snapshots the maps and restores
// them when fn fails.
type fakeStore struct {
	users map[string]model.User
	appts map[string]model.Appointment

	failCreate error
	failList   error
	failGet    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]model.User{}, appts: map[string]model.Appointment{}}
}

func (f *fakeStore) addUser(u model.User) { f.users[u.ID] = u }

func (f *fakeStore) addAppointment(a model.Appointment) { f.appts[a.ID] = a }

func (f *fakeStore) InTx(ctx context.Context, fn func(Repository) error) error {
	users := make(map[string]model.User, len(f.users))
	for k, v := range f.users {
		users[k] = v
	}
	appts := make(map[string]model.Appointment, len(f.appts))
	for k, v := range f.appts {
		appts[k] = v
	}
	if err := fn(f); err != nil {
		f.users, f.appts = users, appts
		return err
	}
	return nil
}

func (f *fakeStore) UserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) ListUsersByRole(_ context.Context, role model.Role) ([]model.User, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	var out []model.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) SetAvailability(_ context.Context, id string, raw *string) error {
	u, ok := f.users[id]
	if !ok || u.Role != model.RoleDoctor {
		return store.ErrNotFound
	}
	u.Availability = raw
	f.users[id] = u
	return nil
}

func (f *fakeStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	f.appts[a.ID] = *a
	if f.failCreate != nil {
		// written then failed, as a commit error would leave it
		return f.failCreate
	}
	return nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	a, ok := f.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (f *fakeStore) UpdateAppointmentStatus(_ context.Context, id string, from, to model.Status) error {
	a, ok := f.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.Status != from {
		return store.ErrConflict
	}
	a.Status = to
	f.appts[id] = a
	return nil
}

func (f *fakeStore) DeleteAppointment(_ context.Context, id string, status model.Status) error {
	a, ok := f.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.Status != status {
		return store.ErrConflict
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeStore) ListAppointmentsByPatient(_ context.Context, id string) ([]model.Appointment, error) {
	return f.filter(func(a model.Appointment) bool { return a.PatientID == id })
}

func (f *fakeStore) ListAppointmentsByDoctor(_ context.Context, id string) ([]model.Appointment, error) {
	return f.filter(func(a model.Appointment) bool { return a.DoctorID == id })
}

// filter returns matches in map order, so callers must sort.
func (f *fakeStore) filter(keep func(model.Appointment) bool) ([]model.Appointment, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	var out []model.Appointment
	for _, a := range f.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	got  []events.Event
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.got = append(p.got, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.got))
	for i, ev := range p.got {
		out[i] = ev.Type
	}
	return out
}
