package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository persists the scheduling model in Postgres. Available slots live
// in their own table keyed by (provider_id, slot_time); the last-committed
// template is stored as JSON on the provider row.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	var templateJSON []byte

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.Hospital,
		&p.Bio,
		&templateJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	if len(templateJSON) > 0 {
		var tpl WeeklyTemplate
		if err := json.Unmarshal(templateJSON, &tpl); err != nil {
			return nil, fmt.Errorf("decode stored template: %w", err)
		}
		p.Template = &tpl
	}

	return &p, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.PatientID,
		&a.StartTime,
		&a.Status,
		&a.Type,
		&a.Reason,
		&a.Diagnosis,
		&a.Prescription,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.StartTime = a.StartTime.UTC()
	return &a, nil
}

func (r *PgRepository) loadSlots(ctx context.Context, providerID uuid.UUID) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_time
		FROM provider_slots
		WHERE provider_id = $1
		ORDER BY slot_time
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		slots = append(slots, t.UTC())
	}
	return slots, rows.Err()
}

// Interface methods

func (r *PgRepository) GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, hospital, bio, template, created_at, updated_at
		FROM providers
		WHERE id = $1
	`, id)

	p, err := scanProvider(row)
	if err != nil {
		return nil, err
	}

	p.AvailableSlots, err = r.loadSlots(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load provider slots: %w", err)
	}
	return p, nil
}

func (r *PgRepository) ListProviders(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, hospital, bio, template, created_at, updated_at
		FROM providers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		result[i].AvailableSlots, err = r.loadSlots(ctx, result[i].ID)
		if err != nil {
			return nil, fmt.Errorf("load provider slots: %w", err)
		}
	}
	return result, nil
}

func (r *PgRepository) SetProviderSchedule(ctx context.Context, id uuid.UUID, slots []time.Time, tpl *WeeklyTemplate) (*Provider, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE providers
		SET updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProviderNotFound
	}

	if tpl != nil {
		templateJSON, err := json.Marshal(tpl)
		if err != nil {
			return nil, fmt.Errorf("encode template: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE providers
			SET template = $2
			WHERE id = $1
		`, id, templateJSON); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM provider_slots
		WHERE provider_id = $1
	`, id); err != nil {
		return nil, err
	}

	for _, slot := range slots {
		if _, err := tx.Exec(ctx, `
			INSERT INTO provider_slots (provider_id, slot_time)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, slot); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetProviderByID(ctx, id)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

const appointmentColumns = `id, provider_id, patient_id, start_time, status, type, reason,
	diagnosis, prescription, notes, created_at, updated_at`

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, provider_id, patient_id, start_time, status, type, reason,
			diagnosis, prescription, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
	`, a.ID, a.ProviderID, a.PatientID, a.StartTime, a.Status, a.Type, a.Reason,
		a.Diagnosis, a.Prescription, a.Notes)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET start_time = $2,
		    status = $3,
		    diagnosis = $4,
		    prescription = $5,
		    notes = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.StartTime, a.Status, a.Diagnosis, a.Prescription, a.Notes)
	return scanAppointment(row)
}

func (r *PgRepository) FindActiveInWindow(ctx context.Context, providerID uuid.UUID, start, end time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		  AND status IN ('SCHEDULED', 'RESCHEDULED')
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`, providerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) FindActiveAt(ctx context.Context, providerID uuid.UUID, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		  AND status IN ('SCHEDULED', 'RESCHEDULED')
		  AND start_time = $2
		LIMIT 1
	`, providerID, at)
	return scanAppointment(row)
}

func (r *PgRepository) InsertNotification(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, message, read, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, n.ID, n.RecipientID, n.Message, n.Read, nullableTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PgRepository) ListNotifications(ctx context.Context, recipientID uuid.UUID) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_id, message, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = true
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
