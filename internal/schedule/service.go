package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saurabh8101998/HMS/internal/observability/metrics"
	redisclient "github.com/saurabh8101998/HMS/internal/redis"
)

var (
	ErrInvalidTemplate         = errors.New("invalid weekly template")
	ErrInvalidDayCount         = errors.New("day count must be positive")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrProviderBusy            = errors.New("provider schedule is being modified, please retry")
)

const noticeTimeFormat = "Mon, 02 Jan 2006 15:04"

// Service is the availability and conflict-resolution engine. All mutations
// of one provider's state run under that provider's lock; reads do not.
type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewService wires the engine. metrics may be nil (tests run without a
// registry).
func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}

// GenerateSlots validates tpl and expands it into concrete slot timestamps
// from start over the given number of calendar days.
func (s *Service) GenerateSlots(tpl WeeklyTemplate, start time.Time, days int) ([]time.Time, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDayCount, days)
	}
	return ExpandTemplate(tpl, start, days), nil
}

// PreviewConflicts reports the active appointments that the new template
// would orphan within the commit window. Side-effect free, safe to call
// repeatedly while the operator decides per-appointment resolutions.
func (s *Service) PreviewConflicts(ctx context.Context, providerID uuid.UUID, tpl WeeklyTemplate, windowStart time.Time) ([]Appointment, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProviderByID(ctx, providerID); err != nil {
		return nil, fmt.Errorf("load provider: %w", err)
	}

	conflicts, err := s.detectConflicts(ctx, providerID, tpl, windowStart)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ConflictsDetected.Add(float64(len(conflicts)))
	}
	return conflicts, nil
}

func (s *Service) detectConflicts(ctx context.Context, providerID uuid.UUID, tpl WeeklyTemplate, windowStart time.Time) ([]Appointment, error) {
	start := TruncateHour(windowStart)
	end := start.AddDate(0, 0, windowDays)

	allowed := make(map[time.Time]struct{})
	for _, slot := range ExpandTemplate(tpl, start, windowDays) {
		allowed[slot] = struct{}{}
	}

	active, err := s.repo.FindActiveInWindow(ctx, providerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find active appointments: %w", err)
	}

	conflicts := make([]Appointment, 0)
	for _, appt := range active {
		if _, ok := allowed[TruncateHour(appt.StartTime)]; !ok {
			conflicts = append(conflicts, appt)
		}
	}
	return conflicts, nil
}

// CommitSchedule merges a new weekly template into the provider's slot set
// over the commit window, applying the operator's per-appointment resolutions.
// Conflicts named in cancelIDs are cancelled; the rest stay active outside the
// template's nominal hours. Observed all-or-nothing under the provider lock.
func (s *Service) CommitSchedule(ctx context.Context, providerID uuid.UUID, tpl WeeklyTemplate, windowStart time.Time, cancelIDs []uuid.UUID) (*Provider, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	var updated *Provider

	err := s.locker.WithProviderLock(ctx, providerID, func(ctx context.Context) error {
		prov, err := s.repo.GetProviderByID(ctx, providerID)
		if err != nil {
			return fmt.Errorf("load provider: %w", err)
		}

		start := TruncateHour(windowStart)
		end := start.AddDate(0, 0, windowDays)

		// The preview the operator acted on may be stale; resolve against a
		// fresh conflict set.
		conflicts, err := s.detectConflicts(ctx, providerID, tpl, start)
		if err != nil {
			return err
		}

		cancelSet := make(map[uuid.UUID]struct{}, len(cancelIDs))
		for _, id := range cancelIDs {
			cancelSet[id] = struct{}{}
		}

		// Only current conflicts are cancellable here. A stale cancel id
		// naming an appointment the new template still covers leaves it
		// active, and it must stay excluded from the offerable set below.
		cancelledSet := make(map[uuid.UUID]struct{}, len(cancelIDs))
		for _, appt := range conflicts {
			if _, ok := cancelSet[appt.ID]; !ok {
				continue
			}
			appt.Status = StatusCancelled
			if _, err := s.repo.UpdateAppointment(ctx, &appt); err != nil {
				return fmt.Errorf("cancel conflicting appointment %s: %w", appt.ID, err)
			}
			cancelledSet[appt.ID] = struct{}{}
			s.notify(ctx, appt.PatientID,
				fmt.Sprintf("Appointment on %s cancelled due to schedule change.", appt.StartTime.Format(noticeTimeFormat)))
		}

		if len(cancelIDs) > 0 {
			s.notify(ctx, providerID,
				fmt.Sprintf("%d conflicting appointments cancelled.", len(cancelledSet)))
		}
		if retained := len(conflicts) - len(cancelledSet); retained > 0 {
			s.notify(ctx, providerID,
				fmt.Sprintf("Schedule updated. %d conflicting appointments were retained.", retained))
		}

		allowed := ExpandTemplate(tpl, start, windowDays)

		// Slots outside the window survive untouched; everything inside it is
		// superseded by the new template.
		kept := make([]time.Time, 0, len(prov.AvailableSlots))
		for _, slot := range prov.AvailableSlots {
			if slot.Before(start) || !slot.Before(end) {
				kept = append(kept, slot)
			}
		}

		active, err := s.repo.FindActiveInWindow(ctx, providerID, start, end)
		if err != nil {
			return fmt.Errorf("find active appointments: %w", err)
		}

		// Invariant: a timestamp is never both offerable and occupied. Only
		// the cancellations actually applied above are excluded; an appointment
		// named by a stale cancel id still occupies its hour.
		occupied := make(map[time.Time]struct{}, len(active))
		for _, appt := range active {
			if _, ok := cancelledSet[appt.ID]; ok {
				continue
			}
			occupied[TruncateHour(appt.StartTime)] = struct{}{}
		}

		offerable := make([]time.Time, 0, len(allowed))
		for _, slot := range allowed {
			if _, ok := occupied[slot]; !ok {
				offerable = append(offerable, slot)
			}
		}

		updated, err = s.repo.SetProviderSchedule(ctx, providerID, mergeSlots(kept, offerable), &tpl)
		if err != nil {
			return fmt.Errorf("store provider schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ScheduleCommits.Inc()
	}
	s.logger.Info("schedule committed",
		zap.String("provider_id", providerID.String()),
		zap.Time("window_start", TruncateHour(windowStart)),
		zap.Int("cancel_requests", len(cancelIDs)),
		zap.Int("slot_count", len(updated.AvailableSlots)))

	return updated, nil
}

// Book creates a SCHEDULED appointment and takes the timestamp out of the
// provider's available set. A timestamp that was never offered is accepted:
// providers book ad hoc, and the available-set check is deliberately skipped,
// so two active appointments can share one timestamp.
func (s *Service) Book(ctx context.Context, providerID uuid.UUID, start time.Time, reason string, patientID uuid.UUID) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	start = TruncateHour(start)

	var created *Appointment

	err := s.locker.WithProviderLock(ctx, providerID, func(ctx context.Context) error {
		prov, err := s.repo.GetProviderByID(ctx, providerID)
		if err != nil {
			return fmt.Errorf("load provider: %w", err)
		}

		now := time.Now().UTC()
		appt := &Appointment{
			ID:         uuid.New(),
			ProviderID: providerID,
			PatientID:  patientID,
			StartTime:  start,
			Status:     StatusScheduled,
			Type:       "Consultation",
			Reason:     reason,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt

		if _, err := s.repo.SetProviderSchedule(ctx, providerID, removeSlot(prov.AvailableSlots, start), nil); err != nil {
			return fmt.Errorf("update provider slots: %w", err)
		}

		s.notify(ctx, patientID, fmt.Sprintf("Appointment confirmed for %s", start.Format(noticeTimeFormat)))
		s.notify(ctx, providerID, "New appointment booked by patient.")
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsBooked.Inc()
	}
	return created, nil
}

// Reschedule moves an appointment to a new timestamp. The old hour returns to
// the provider's available set and the new one is removed from it.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	newStart = TruncateHour(newStart)

	var updated *Appointment

	err = s.locker.WithProviderLock(ctx, appt.ProviderID, func(ctx context.Context) error {
		appt, err := s.repo.GetAppointmentByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}
		if appt.Status.Terminal() {
			return ErrInvalidStatusTransition
		}

		oldStart := TruncateHour(appt.StartTime)
		appt.StartTime = newStart
		appt.Status = StatusRescheduled

		updated, err = s.repo.UpdateAppointment(ctx, appt)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		prov, err := s.repo.GetProviderByID(ctx, appt.ProviderID)
		if err != nil {
			return fmt.Errorf("load provider: %w", err)
		}

		slots := mergeSlots(removeSlot(prov.AvailableSlots, newStart), []time.Time{oldStart})
		if _, err := s.repo.SetProviderSchedule(ctx, appt.ProviderID, slots, nil); err != nil {
			return fmt.Errorf("update provider slots: %w", err)
		}

		s.notify(ctx, appt.PatientID, fmt.Sprintf("Appointment rescheduled to %s", newStart.Format(noticeTimeFormat)))
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsRescheduled.Inc()
	}
	return updated, nil
}

// Cancel sets the appointment to CANCELLED. The freed timestamp stays out of
// the available set until the provider reopens it explicitly.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}

	err = s.locker.WithProviderLock(ctx, appt.ProviderID, func(ctx context.Context) error {
		appt, err := s.repo.GetAppointmentByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}

		appt.Status = StatusCancelled
		if _, err := s.repo.UpdateAppointment(ctx, appt); err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		s.notify(ctx, appt.PatientID, "Appointment cancelled")
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrProviderBusy
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Inc()
	}
	return nil
}

// Complete sets the appointment to COMPLETED and attaches the clinical
// record. A cancelled appointment may still be completed: the consultation
// can have happened before the cancellation landed, and keeping the record
// loses less than rejecting it.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, diagnosis, prescription, notes string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var updated *Appointment

	err = s.locker.WithProviderLock(ctx, appt.ProviderID, func(ctx context.Context) error {
		appt, err := s.repo.GetAppointmentByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}

		appt.Status = StatusCompleted
		appt.Diagnosis = diagnosis
		appt.Prescription = prescription
		appt.Notes = notes

		updated, err = s.repo.UpdateAppointment(ctx, appt)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		s.notify(ctx, appt.PatientID, "Consultation completed. Records updated.")
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCompleted.Inc()
	}
	return updated, nil
}

// ReplaceSlots overwrites the provider's available-slot set wholesale, for
// manual slot management outside template commits. Input is normalized to
// whole hours, deduplicated and sorted.
func (s *Service) ReplaceSlots(ctx context.Context, providerID uuid.UUID, slots []time.Time) (*Provider, error) {
	var updated *Provider

	err := s.locker.WithProviderLock(ctx, providerID, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.SetProviderSchedule(ctx, providerID, mergeSlots(slots, nil), nil)
		if err != nil {
			return fmt.Errorf("store provider slots: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		return nil, err
	}
	return updated, nil
}

// PrunePastSlots drops available slots already in the past from every
// provider. Run periodically by cmd/prune-worker.
func (s *Service) PrunePastSlots(ctx context.Context, now time.Time) error {
	providers, err := s.repo.ListProviders(ctx)
	if err != nil {
		return fmt.Errorf("list providers: %w", err)
	}

	cutoff := TruncateHour(now)
	pruned := 0

	for _, prov := range providers {
		id := prov.ID
		removed := 0

		// The listing above is only an iteration order; slots are re-read
		// under the lock so a booking or commit landing in between is not
		// overwritten.
		err := s.locker.WithProviderLock(ctx, id, func(ctx context.Context) error {
			cur, err := s.repo.GetProviderByID(ctx, id)
			if err != nil {
				return err
			}

			future := make([]time.Time, 0, len(cur.AvailableSlots))
			for _, slot := range cur.AvailableSlots {
				if !slot.Before(cutoff) {
					future = append(future, slot)
				}
			}
			if len(future) == len(cur.AvailableSlots) {
				return nil
			}

			removed = len(cur.AvailableSlots) - len(future)
			_, err = s.repo.SetProviderSchedule(ctx, id, future, nil)
			return err
		})
		if err != nil {
			s.logger.Warn("failed to prune provider slots",
				zap.String("provider_id", id.String()), zap.Error(err))
			continue
		}
		pruned += removed
	}

	if pruned > 0 {
		if s.metrics != nil {
			s.metrics.SlotsPruned.Add(float64(pruned))
		}
		s.logger.Info("pruned past slots", zap.Int("count", pruned))
	}
	return nil
}

// Read-side passthroughs for the API layer.

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	prov, err := s.repo.GetProviderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return prov, nil
}

func (s *Service) ListProviders(ctx context.Context) ([]Provider, error) {
	providers, err := s.repo.ListProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// FindActiveAppointment returns the active appointment occupying the given
// hour for the provider, if one exists.
func (s *Service) FindActiveAppointment(ctx context.Context, providerID uuid.UUID, at time.Time) (*Appointment, error) {
	appt, err := s.repo.FindActiveAt(ctx, providerID, TruncateHour(at))
	if err != nil {
		return nil, fmt.Errorf("find active appointment: %w", err)
	}
	return appt, nil
}

// GetPatient resolves a patient for display only; scheduling logic never
// depends on patient fields beyond existence.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (s *Service) ListNotifications(ctx context.Context, recipientID uuid.UUID) ([]Notification, error) {
	ns, err := s.repo.ListNotifications(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return ns, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// notify emits a notification event. Emission is fire-and-forget: a sink
// failure never fails the mutation that triggered it.
func (s *Service) notify(ctx context.Context, recipientID uuid.UUID, message string) {
	if err := s.notifier.Notify(ctx, recipientID, message); err != nil {
		s.logger.Warn("failed to emit notification",
			zap.String("recipient_id", recipientID.String()), zap.Error(err))
	}
}

func removeSlot(slots []time.Time, at time.Time) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, slot := range slots {
		if !slot.Equal(at) {
			out = append(out, slot)
		}
	}
	return out
}

func mergeSlots(a, b []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(a)+len(b))
	out := make([]time.Time, 0, len(a)+len(b))

	for _, group := range [][]time.Time{a, b} {
		for _, slot := range group {
			slot = TruncateHour(slot)
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			out = append(out, slot)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
