package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "SCHEDULED"
	StatusRescheduled AppointmentStatus = "RESCHEDULED"
	StatusCancelled   AppointmentStatus = "CANCELLED"
	StatusCompleted   AppointmentStatus = "COMPLETED"
)

// Active reports whether the appointment still occupies its timestamp and
// blocks that hour from being offered again.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusRescheduled
}

// Terminal reports whether the appointment can no longer be moved.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

type Provider struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	Hospital  string
	Bio       string

	// AvailableSlots holds the offerable whole-hour timestamps, sorted
	// ascending. Booking removes a slot; cancellation does not reinsert it.
	AvailableSlots []time.Time

	// Template is the last committed weekly template, nil before the first
	// commit.
	Template *WeeklyTemplate

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	PatientID  uuid.UUID
	StartTime  time.Time
	Status     AppointmentStatus
	Type       string
	Reason     string

	// Clinical fields, attached on completion.
	Diagnosis    string
	Prescription string
	Notes        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Message     string
	Read        bool
	CreatedAt   time.Time
}
