package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/saurabh8101998/HMS/internal/schedule"
)

type SchedulePreviewRequest struct {
	Template  schedule.WeeklyTemplate `json:"template"`
	StartDate time.Time               `json:"start_date"`
}

type ScheduleCommitRequest struct {
	Template  schedule.WeeklyTemplate `json:"template"`
	StartDate time.Time               `json:"start_date"`
	CancelIDs []string                `json:"cancel_ids"`
}

type BookAppointmentRequest struct {
	ProviderID string    `json:"provider_id"`
	PatientID  string    `json:"patient_id"`
	StartTime  time.Time `json:"start_time"`
	Reason     string    `json:"reason"`
}

type RescheduleAppointmentRequest struct {
	StartTime time.Time `json:"start_time"`
}

type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
}

type ReplaceSlotsRequest struct {
	Slots []time.Time `json:"slots"`
}

type AppointmentResponse struct {
	ID           uuid.UUID `json:"id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	PatientID    uuid.UUID `json:"patient_id"`
	StartTime    time.Time `json:"start_time"`
	Status       string    `json:"status"`
	Type         string    `json:"type,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Diagnosis    string    `json:"diagnosis,omitempty"`
	Prescription string    `json:"prescription,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

type ProviderResponse struct {
	ID             uuid.UUID                `json:"id"`
	Name           string                   `json:"name"`
	Specialty      string                   `json:"specialty"`
	Hospital       string                   `json:"hospital"`
	Bio            string                   `json:"bio,omitempty"`
	AvailableSlots []time.Time              `json:"available_slots"`
	Template       *schedule.WeeklyTemplate `json:"template,omitempty"`
}

type NotificationResponse struct {
	ID          uuid.UUID `json:"id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		ProviderID:   a.ProviderID,
		PatientID:    a.PatientID,
		StartTime:    a.StartTime,
		Status:       string(a.Status),
		Type:         a.Type,
		Reason:       a.Reason,
		Diagnosis:    a.Diagnosis,
		Prescription: a.Prescription,
		Notes:        a.Notes,
	}
}

func toProviderResponse(p *schedule.Provider) ProviderResponse {
	slots := p.AvailableSlots
	if slots == nil {
		slots = []time.Time{}
	}
	return ProviderResponse{
		ID:             p.ID,
		Name:           p.Name,
		Specialty:      p.Specialty,
		Hospital:       p.Hospital,
		Bio:            p.Bio,
		AvailableSlots: slots,
		Template:       p.Template,
	}
}
