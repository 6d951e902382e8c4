package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound     = errors.New("provider not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Repository contains all storage interactions needed by the engine. The core
// operates on whatever implementation is wired in; durability is the
// implementation's concern.
type Repository interface {
	GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	ListProviders(ctx context.Context) ([]Provider, error)

	// SetProviderSchedule replaces the provider's available-slot set and, when
	// tpl is non-nil, its last-committed template. Returns the updated provider.
	SetProviderSchedule(ctx context.Context, id uuid.UUID, slots []time.Time, tpl *WeeklyTemplate) (*Provider, error)

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, a *Appointment) error
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)

	// FindActiveInWindow returns SCHEDULED/RESCHEDULED appointments for the
	// provider with start <= StartTime < end, ordered by StartTime.
	FindActiveInWindow(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]Appointment, error)

	// FindActiveAt is an exact-timestamp lookup among active appointments.
	FindActiveAt(ctx context.Context, providerID uuid.UUID, at time.Time) (*Appointment, error)

	InsertNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, recipientID uuid.UUID) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
}

// Notifier delivers notification events to their recipients. Delivery is
// fire-and-forget relative to the mutation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, message string) error
}

type repoNotifier struct {
	repo Repository
}

// NewRepoNotifier returns a Notifier that stores notifications through the
// repository, where the API layer serves them from.
func NewRepoNotifier(repo Repository) Notifier {
	return &repoNotifier{repo: repo}
}

func (n *repoNotifier) Notify(ctx context.Context, recipientID uuid.UUID, message string) error {
	return n.repo.InsertNotification(ctx, Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	})
}
