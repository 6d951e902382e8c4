package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is the in-memory model the engine runs on when no external
// store is configured, and the fixture every test builds on. All methods are
// safe for concurrent use; returned values are copies.
type MemoryRepository struct {
	mu            sync.RWMutex
	providers     map[uuid.UUID]*Provider
	patients      map[uuid.UUID]*Patient
	appointments  map[uuid.UUID]*Appointment
	notifications []Notification
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		providers:    make(map[uuid.UUID]*Provider),
		patients:     make(map[uuid.UUID]*Patient),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

// AddProvider and AddPatient load entities into the model. They are not part
// of the Repository contract; registration lives outside the engine.

func (r *MemoryRepository) AddProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	cp.AvailableSlots = append([]time.Time(nil), p.AvailableSlots...)
	r.providers[p.ID] = &cp
}

func (r *MemoryRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.patients[p.ID] = &cp
}

func copyProvider(p *Provider) *Provider {
	cp := *p
	cp.AvailableSlots = append([]time.Time(nil), p.AvailableSlots...)
	if p.Template != nil {
		tpl := *p.Template
		cp.Template = &tpl
	}
	return &cp
}

func (r *MemoryRepository) GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return copyProvider(p), nil
}

func (r *MemoryRepository) ListProviders(ctx context.Context) ([]Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, *copyProvider(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) SetProviderSchedule(ctx context.Context, id uuid.UUID, slots []time.Time, tpl *WeeklyTemplate) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, ErrProviderNotFound
	}

	p.AvailableSlots = append([]time.Time(nil), slots...)
	if tpl != nil {
		cp := *tpl
		p.Template = &cp
	}
	p.UpdatedAt = time.Now().UTC()

	return copyProvider(p), nil
}

func (r *MemoryRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *MemoryRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}

	cp := *a
	cp.UpdatedAt = time.Now().UTC()
	r.appointments[a.ID] = &cp

	out := cp
	return &out, nil
}

func (r *MemoryRepository) FindActiveInWindow(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Appointment, 0)
	for _, a := range r.appointments {
		if a.ProviderID != providerID || !a.Status.Active() {
			continue
		}
		if a.StartTime.Before(start) || !a.StartTime.Before(end) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *MemoryRepository) FindActiveAt(ctx context.Context, providerID uuid.UUID, at time.Time) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.ProviderID == providerID && a.Status.Active() && a.StartTime.Equal(at) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *MemoryRepository) InsertNotification(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)
	return nil
}

func (r *MemoryRepository) ListNotifications(ctx context.Context, recipientID uuid.UUID) ([]Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Notification, 0)
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *MemoryRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].Read = true
			return nil
		}
	}
	return ErrNotificationNotFound
}

// LocalLocker serializes provider mutations within a single process. The
// distributed counterpart lives in internal/redis.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *LocalLocker) WithProviderLock(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[providerID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[providerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}
