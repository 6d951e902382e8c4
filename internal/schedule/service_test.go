package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type testEngine struct {
	svc        *Service
	repo       *MemoryRepository
	providerID uuid.UUID
	patientID  uuid.UUID
}

func newTestEngine(t *testing.T, slots []time.Time) *testEngine {
	t.Helper()

	repo := NewMemoryRepository()
	providerID := uuid.New()
	patientID := uuid.New()

	repo.AddProvider(Provider{
		ID:             providerID,
		Name:           "Dr. Meera Nair",
		Specialty:      "Cardiology",
		Hospital:       "City General Hospital",
		AvailableSlots: slots,
	})
	repo.AddPatient(Patient{
		ID:   patientID,
		Name: "Arjun Rao",
	})

	svc := NewService(repo, NewLocalLocker(), NewRepoNotifier(repo), zap.NewNop(), nil)

	return &testEngine{
		svc:        svc,
		repo:       repo,
		providerID: providerID,
		patientID:  patientID,
	}
}

func (e *testEngine) mustBook(t *testing.T, at time.Time) *Appointment {
	t.Helper()
	appt, err := e.svc.Book(context.Background(), e.providerID, at, "check-up", e.patientID)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return appt
}

func (e *testEngine) providerSlots(t *testing.T) []time.Time {
	t.Helper()
	prov, err := e.repo.GetProviderByID(context.Background(), e.providerID)
	if err != nil {
		t.Fatalf("GetProviderByID: %v", err)
	}
	return prov.AvailableSlots
}

func hasSlot(slots []time.Time, at time.Time) bool {
	for _, s := range slots {
		if s.Equal(at) {
			return true
		}
	}
	return false
}

func TestGenerateSlots(t *testing.T) {
	e := newTestEngine(t, nil)
	monday := utcHour(2024, 1, 1, 0)

	got, err := e.svc.GenerateSlots(WeeklyTemplate{Monday: []int{9, 10}}, monday, 7)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(utcHour(2024, 1, 1, 9)) || !got[1].Equal(utcHour(2024, 1, 1, 10)) {
		t.Fatalf("unexpected slots: %v", got)
	}

	if _, err := e.svc.GenerateSlots(WeeklyTemplate{Monday: []int{25}}, monday, 7); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	if _, err := e.svc.GenerateSlots(WeeklyTemplate{}, monday, 0); !errors.Is(err, ErrInvalidDayCount) {
		t.Fatalf("expected ErrInvalidDayCount, got %v", err)
	}
}

func TestPreviewConflicts(t *testing.T) {
	ctx := context.Background()
	monday := utcHour(2024, 1, 1, 0)
	nine := utcHour(2024, 1, 1, 9)
	ten := utcHour(2024, 1, 1, 10)

	e := newTestEngine(t, []time.Time{nine, ten})
	inside := e.mustBook(t, nine)
	e.mustBook(t, ten)

	// The new template keeps 10:00 but drops 9:00.
	tpl := WeeklyTemplate{Monday: []int{10}}

	conflicts, err := e.svc.PreviewConflicts(ctx, e.providerID, tpl, monday)
	if err != nil {
		t.Fatalf("PreviewConflicts: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != inside.ID {
		t.Fatalf("expected only the 09:00 appointment in conflict, got %v", conflicts)
	}

	// Preview is side-effect free: same answer twice, nothing cancelled.
	again, err := e.svc.PreviewConflicts(ctx, e.providerID, tpl, monday)
	if err != nil {
		t.Fatalf("second PreviewConflicts: %v", err)
	}
	if len(again) != 1 || again[0].ID != inside.ID {
		t.Fatalf("preview not idempotent, got %v", again)
	}
	stored, err := e.repo.GetAppointmentByID(ctx, inside.ID)
	if err != nil {
		t.Fatalf("GetAppointmentByID: %v", err)
	}
	if stored.Status != StatusScheduled {
		t.Fatalf("preview mutated appointment status to %s", stored.Status)
	}
}

func TestPreviewConflictsUnknownProvider(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.svc.PreviewConflicts(context.Background(), uuid.New(), WeeklyTemplate{}, utcHour(2024, 1, 1, 0))
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestCommitScheduleRetainAndCancel(t *testing.T) {
	ctx := context.Background()
	monday := utcHour(2024, 1, 1, 0)
	nine := utcHour(2024, 1, 1, 9)
	eleven := utcHour(2024, 1, 1, 11)

	e := newTestEngine(t, []time.Time{nine, eleven})
	cancelled := e.mustBook(t, nine)
	retained := e.mustBook(t, eleven)

	// New template offers 10:00 and 11:00; both booked hours conflict with or
	// collide with it in different ways.
	tpl := WeeklyTemplate{Monday: []int{10, 11}}

	prov, err := e.svc.CommitSchedule(ctx, e.providerID, tpl, monday, []uuid.UUID{cancelled.ID})
	if err != nil {
		t.Fatalf("CommitSchedule: %v", err)
	}

	gotCancelled, _ := e.repo.GetAppointmentByID(ctx, cancelled.ID)
	if gotCancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", gotCancelled.Status)
	}
	gotRetained, _ := e.repo.GetAppointmentByID(ctx, retained.ID)
	if gotRetained.Status != StatusScheduled {
		t.Fatalf("retained appointment changed status to %s", gotRetained.Status)
	}

	// 10:00 is offerable; 11:00 is occupied by the retained appointment;
	// 9:00 is no longer in the template so it is not reopened.
	if !hasSlot(prov.AvailableSlots, utcHour(2024, 1, 1, 10)) {
		t.Fatalf("expected 10:00 offerable, slots: %v", prov.AvailableSlots)
	}
	if hasSlot(prov.AvailableSlots, eleven) {
		t.Fatalf("11:00 is occupied but still offerable, slots: %v", prov.AvailableSlots)
	}
	if hasSlot(prov.AvailableSlots, nine) {
		t.Fatalf("9:00 left the template but was reopened, slots: %v", prov.AvailableSlots)
	}

	if prov.Template == nil || len(prov.Template.Monday) != 2 {
		t.Fatalf("committed template not persisted: %+v", prov.Template)
	}

	// Patient of the cancelled appointment was told; provider got the
	// cancelled and retained summaries.
	patientNotes, _ := e.repo.ListNotifications(ctx, e.patientID)
	found := false
	for _, n := range patientNotes {
		if n.Message == "Appointment on Mon, 01 Jan 2024 09:00 cancelled due to schedule change." {
			found = true
		}
	}
	if !found {
		t.Fatalf("patient cancellation notice missing: %v", patientNotes)
	}

	providerNotes, _ := e.repo.ListNotifications(ctx, e.providerID)
	var messages []string
	for _, n := range providerNotes {
		messages = append(messages, n.Message)
	}
	wantCancelledNote := "1 conflicting appointments cancelled."
	if !containsString(messages, wantCancelledNote) {
		t.Fatalf("provider summary %q missing from %v", wantCancelledNote, messages)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func TestCommitScheduleStaleCancelID(t *testing.T) {
	// The operator's preview can go stale: the cancel list may name an
	// appointment the new template still covers. It is not a conflict, so it
	// stays active and its hour must not be offered.
	ctx := context.Background()
	monday := utcHour(2024, 1, 1, 0)
	ten := utcHour(2024, 1, 1, 10)

	e := newTestEngine(t, []time.Time{ten})
	appt := e.mustBook(t, ten)

	tpl := WeeklyTemplate{Monday: []int{10, 11}}

	prov, err := e.svc.CommitSchedule(ctx, e.providerID, tpl, monday, []uuid.UUID{appt.ID})
	if err != nil {
		t.Fatalf("CommitSchedule: %v", err)
	}

	got, _ := e.repo.GetAppointmentByID(ctx, appt.ID)
	if got.Status != StatusScheduled {
		t.Fatalf("non-conflicting appointment was cancelled: %s", got.Status)
	}
	if hasSlot(prov.AvailableSlots, ten) {
		t.Fatalf("10:00 offerable while its appointment is still active: %v", prov.AvailableSlots)
	}
	if !hasSlot(prov.AvailableSlots, utcHour(2024, 1, 1, 11)) {
		t.Fatalf("free template hour missing: %v", prov.AvailableSlots)
	}

	// A non-empty cancel list always produces the provider summary, with the
	// count of appointments actually cancelled.
	providerNotes, _ := e.repo.ListNotifications(ctx, e.providerID)
	var messages []string
	for _, n := range providerNotes {
		messages = append(messages, n.Message)
	}
	if !containsString(messages, "0 conflicting appointments cancelled.") {
		t.Fatalf("expected zero-cancelled summary, got %v", messages)
	}

	patientNotes, _ := e.repo.ListNotifications(ctx, e.patientID)
	for _, n := range patientNotes {
		if n.Message == "Appointment on Mon, 01 Jan 2024 10:00 cancelled due to schedule change." {
			t.Fatalf("patient received a cancellation notice for an appointment that stayed active")
		}
	}
}

func TestCommitScheduleNeverOffersOccupiedHours(t *testing.T) {
	ctx := context.Background()
	monday := utcHour(2024, 1, 1, 0)

	e := newTestEngine(t, nil)
	e.mustBook(t, utcHour(2024, 1, 1, 9))
	e.mustBook(t, utcHour(2024, 1, 2, 14))

	tpl := WeeklyTemplate{
		Monday:  []int{9, 10},
		Tuesday: []int{14, 15},
	}

	prov, err := e.svc.CommitSchedule(ctx, e.providerID, tpl, monday, nil)
	if err != nil {
		t.Fatalf("CommitSchedule: %v", err)
	}

	active, err := e.repo.FindActiveInWindow(ctx, e.providerID, monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("FindActiveInWindow: %v", err)
	}
	for _, appt := range active {
		if hasSlot(prov.AvailableSlots, TruncateHour(appt.StartTime)) {
			t.Fatalf("timestamp %v is both offerable and occupied", appt.StartTime)
		}
	}

	if !hasSlot(prov.AvailableSlots, utcHour(2024, 1, 1, 10)) ||
		!hasSlot(prov.AvailableSlots, utcHour(2024, 1, 2, 15)) {
		t.Fatalf("unbooked template hours missing from slots: %v", prov.AvailableSlots)
	}
}

func TestCommitSchedulePreservesSlotsOutsideWindow(t *testing.T) {
	ctx := context.Background()
	monday := utcHour(2024, 1, 1, 0)

	before := utcHour(2023, 12, 31, 16)
	after := utcHour(2024, 1, 8, 9)
	inside := utcHour(2024, 1, 2, 9)

	e := newTestEngine(t, []time.Time{before, inside, after})

	prov, err := e.svc.CommitSchedule(ctx, e.providerID, WeeklyTemplate{Monday: []int{12}}, monday, nil)
	if err != nil {
		t.Fatalf("CommitSchedule: %v", err)
	}

	if !hasSlot(prov.AvailableSlots, before) || !hasSlot(prov.AvailableSlots, after) {
		t.Fatalf("slots outside the window were dropped: %v", prov.AvailableSlots)
	}
	if hasSlot(prov.AvailableSlots, inside) {
		t.Fatalf("old in-window slot survived the commit: %v", prov.AvailableSlots)
	}
	if !hasSlot(prov.AvailableSlots, utcHour(2024, 1, 1, 12)) {
		t.Fatalf("new template hour missing: %v", prov.AvailableSlots)
	}
}

func TestCommitScheduleSortedAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	monday := utcHour(2024, 1, 1, 0)

	// Out-of-window slots arrive unordered; the merged result must come back
	// strictly ascending with no duplicates.
	e := newTestEngine(t, []time.Time{utcHour(2024, 1, 8, 9), utcHour(2023, 12, 25, 9)})

	prov, err := e.svc.CommitSchedule(ctx, e.providerID, WeeklyTemplate{Monday: []int{9, 10}}, monday, nil)
	if err != nil {
		t.Fatalf("CommitSchedule: %v", err)
	}

	for i := 1; i < len(prov.AvailableSlots); i++ {
		if !prov.AvailableSlots[i-1].Before(prov.AvailableSlots[i]) {
			t.Fatalf("slots not strictly increasing: %v", prov.AvailableSlots)
		}
	}
}

func TestCommitScheduleUnknownProvider(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.svc.CommitSchedule(context.Background(), uuid.New(), WeeklyTemplate{}, utcHour(2024, 1, 1, 0), nil)
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	nine := utcHour(2024, 1, 1, 9)
	ten := utcHour(2024, 1, 1, 10)

	e := newTestEngine(t, []time.Time{nine, ten})

	appt := e.mustBook(t, nine)
	if appt.Status != StatusScheduled {
		t.Fatalf("expected SCHEDULED, got %s", appt.Status)
	}
	if !appt.StartTime.Equal(nine) {
		t.Fatalf("expected start %v, got %v", nine, appt.StartTime)
	}

	slots := e.providerSlots(t)
	if hasSlot(slots, nine) {
		t.Fatalf("booked hour still offerable: %v", slots)
	}
	if !hasSlot(slots, ten) {
		t.Fatalf("unrelated slot removed: %v", slots)
	}

	patientNotes, _ := e.repo.ListNotifications(ctx, e.patientID)
	if len(patientNotes) != 1 {
		t.Fatalf("expected 1 patient notification, got %d", len(patientNotes))
	}
	providerNotes, _ := e.repo.ListNotifications(ctx, e.providerID)
	if len(providerNotes) != 1 || providerNotes[0].Message != "New appointment booked by patient." {
		t.Fatalf("provider notification wrong: %v", providerNotes)
	}
}

func TestBookSubHourStartIsTruncated(t *testing.T) {
	nine := utcHour(2024, 1, 1, 9)
	e := newTestEngine(t, []time.Time{nine})

	appt := e.mustBook(t, time.Date(2024, 1, 1, 9, 45, 0, 0, time.UTC))
	if !appt.StartTime.Equal(nine) {
		t.Fatalf("expected %v, got %v", nine, appt.StartTime)
	}
	if hasSlot(e.providerSlots(t), nine) {
		t.Fatalf("truncated booking did not consume the 9:00 slot")
	}
}

func TestBookUnofferedHourAllowed(t *testing.T) {
	// Ad-hoc bookings skip the available-set check, so a never-offered hour
	// books fine and two active appointments may share one timestamp.
	e := newTestEngine(t, nil)
	at := utcHour(2024, 1, 1, 13)

	first := e.mustBook(t, at)
	second := e.mustBook(t, at)
	if first.ID == second.ID {
		t.Fatal("expected distinct appointments")
	}

	active, err := e.repo.FindActiveInWindow(context.Background(), e.providerID, at, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("FindActiveInWindow: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active appointments at %v, got %d", at, len(active))
	}
}

func TestBookUnknownPatient(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.svc.Book(context.Background(), e.providerID, utcHour(2024, 1, 1, 9), "check-up", uuid.New())
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestReschedule(t *testing.T) {
	nine := utcHour(2024, 1, 1, 9)
	ten := utcHour(2024, 1, 1, 10)

	e := newTestEngine(t, []time.Time{nine, ten})
	appt := e.mustBook(t, nine)

	moved, err := e.svc.Reschedule(context.Background(), appt.ID, ten)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if moved.Status != StatusRescheduled {
		t.Fatalf("expected RESCHEDULED, got %s", moved.Status)
	}
	if !moved.StartTime.Equal(ten) {
		t.Fatalf("expected start %v, got %v", ten, moved.StartTime)
	}

	slots := e.providerSlots(t)
	if !hasSlot(slots, nine) {
		t.Fatalf("old hour not returned to available set: %v", slots)
	}
	if hasSlot(slots, ten) {
		t.Fatalf("new hour still offerable: %v", slots)
	}
}

func TestRescheduleTerminalAppointment(t *testing.T) {
	ctx := context.Background()
	nine := utcHour(2024, 1, 1, 9)

	e := newTestEngine(t, []time.Time{nine})
	appt := e.mustBook(t, nine)

	if err := e.svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err := e.svc.Reschedule(ctx, appt.ID, utcHour(2024, 1, 1, 10))
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestCancelDoesNotReopenSlot(t *testing.T) {
	ctx := context.Background()
	nine := utcHour(2024, 1, 1, 9)

	e := newTestEngine(t, []time.Time{nine})
	appt := e.mustBook(t, nine)

	if err := e.svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	got, _ := e.repo.GetAppointmentByID(ctx, appt.ID)
	if got.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", got.Status)
	}
	if hasSlot(e.providerSlots(t), nine) {
		t.Fatalf("cancel reopened the slot")
	}
}

func TestRebookAfterCancel(t *testing.T) {
	ctx := context.Background()
	nine := utcHour(2024, 1, 1, 9)

	e := newTestEngine(t, []time.Time{nine})
	first := e.mustBook(t, nine)

	if err := e.svc.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	second := e.mustBook(t, nine)
	if second.Status != StatusScheduled {
		t.Fatalf("expected SCHEDULED, got %s", second.Status)
	}

	active, err := e.repo.FindActiveAt(ctx, e.providerID, nine)
	if err != nil {
		t.Fatalf("FindActiveAt: %v", err)
	}
	if active.ID != second.ID {
		t.Fatalf("expected the rebooked appointment active at %v", nine)
	}
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	nine := utcHour(2024, 1, 1, 9)

	e := newTestEngine(t, []time.Time{nine})
	appt := e.mustBook(t, nine)

	done, err := e.svc.Complete(ctx, appt.ID, "Hypertension stage 1", "Amlodipine 5mg", "Follow up in 4 weeks")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", done.Status)
	}
	if done.Diagnosis != "Hypertension stage 1" || done.Prescription != "Amlodipine 5mg" || done.Notes != "Follow up in 4 weeks" {
		t.Fatalf("clinical record not attached: %+v", done)
	}

	if _, err := e.svc.Reschedule(ctx, appt.ID, utcHour(2024, 1, 1, 10)); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected completed appointment to be immovable, got %v", err)
	}
}

func TestCompleteCancelledAppointment(t *testing.T) {
	// The consultation may have happened before the cancellation landed, so
	// completing a cancelled appointment records it rather than erroring.
	ctx := context.Background()
	nine := utcHour(2024, 1, 1, 9)

	e := newTestEngine(t, []time.Time{nine})
	appt := e.mustBook(t, nine)

	if err := e.svc.Cancel(ctx, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	done, err := e.svc.Complete(ctx, appt.ID, "Routine", "", "")
	if err != nil {
		t.Fatalf("Complete after cancel: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", done.Status)
	}
}

func TestLifecycleUnknownAppointment(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	missing := uuid.New()

	if _, err := e.svc.Reschedule(ctx, missing, utcHour(2024, 1, 1, 9)); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("Reschedule: expected ErrAppointmentNotFound, got %v", err)
	}
	if err := e.svc.Cancel(ctx, missing); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("Cancel: expected ErrAppointmentNotFound, got %v", err)
	}
	if _, err := e.svc.Complete(ctx, missing, "", "", ""); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("Complete: expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestReplaceSlots(t *testing.T) {
	e := newTestEngine(t, []time.Time{utcHour(2024, 1, 1, 9)})

	prov, err := e.svc.ReplaceSlots(context.Background(), e.providerID, []time.Time{
		time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
		utcHour(2024, 1, 2, 10),
		utcHour(2024, 1, 2, 14),
	})
	if err != nil {
		t.Fatalf("ReplaceSlots: %v", err)
	}

	want := []time.Time{utcHour(2024, 1, 2, 10), utcHour(2024, 1, 2, 14)}
	if len(prov.AvailableSlots) != len(want) {
		t.Fatalf("expected %v, got %v", want, prov.AvailableSlots)
	}
	for i := range want {
		if !prov.AvailableSlots[i].Equal(want[i]) {
			t.Fatalf("expected %v, got %v", want, prov.AvailableSlots)
		}
	}
}

func TestPrunePastSlots(t *testing.T) {
	past := utcHour(2024, 1, 1, 9)
	future := utcHour(2024, 3, 1, 9)

	e := newTestEngine(t, []time.Time{past, future})

	if err := e.svc.PrunePastSlots(context.Background(), utcHour(2024, 2, 1, 0)); err != nil {
		t.Fatalf("PrunePastSlots: %v", err)
	}

	slots := e.providerSlots(t)
	if hasSlot(slots, past) {
		t.Fatalf("past slot survived pruning: %v", slots)
	}
	if !hasSlot(slots, future) {
		t.Fatalf("future slot pruned: %v", slots)
	}
}

// listSnoopRepo removes a slot right after the provider listing returns,
// standing in for a booking that lands between the prune run's listing and its
// per-provider lock.
type listSnoopRepo struct {
	*MemoryRepository
	providerID uuid.UUID
	slot       time.Time
	once       sync.Once
}

func (r *listSnoopRepo) ListProviders(ctx context.Context) ([]Provider, error) {
	out, err := r.MemoryRepository.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		prov, err := r.MemoryRepository.GetProviderByID(ctx, r.providerID)
		if err != nil {
			return
		}
		_, _ = r.MemoryRepository.SetProviderSchedule(ctx, r.providerID,
			removeSlot(prov.AvailableSlots, r.slot), nil)
	})
	return out, nil
}

func TestPrunePastSlotsKeepsConcurrentBooking(t *testing.T) {
	ctx := context.Background()
	past := utcHour(2024, 1, 1, 9)
	booked := utcHour(2024, 3, 1, 9)

	mem := NewMemoryRepository()
	providerID := uuid.New()
	mem.AddProvider(Provider{
		ID:             providerID,
		Name:           "Dr. Meera Nair",
		AvailableSlots: []time.Time{past, booked},
	})

	repo := &listSnoopRepo{MemoryRepository: mem, providerID: providerID, slot: booked}
	svc := NewService(repo, NewLocalLocker(), NewRepoNotifier(repo), zap.NewNop(), nil)

	if err := svc.PrunePastSlots(ctx, utcHour(2024, 2, 1, 0)); err != nil {
		t.Fatalf("PrunePastSlots: %v", err)
	}

	prov, err := mem.GetProviderByID(ctx, providerID)
	if err != nil {
		t.Fatalf("GetProviderByID: %v", err)
	}
	if hasSlot(prov.AvailableSlots, booked) {
		t.Fatalf("prune reinstated a slot removed after its listing: %v", prov.AvailableSlots)
	}
	if hasSlot(prov.AvailableSlots, past) {
		t.Fatalf("past slot survived pruning: %v", prov.AvailableSlots)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, []time.Time{utcHour(2024, 1, 1, 9)})
	e.mustBook(t, utcHour(2024, 1, 1, 9))

	notes, err := e.svc.ListNotifications(ctx, e.patientID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Read {
		t.Fatalf("expected one unread notification, got %v", notes)
	}

	if err := e.svc.MarkNotificationRead(ctx, notes[0].ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}

	notes, _ = e.svc.ListNotifications(ctx, e.patientID)
	if !notes[0].Read {
		t.Fatal("notification still unread")
	}

	if err := e.svc.MarkNotificationRead(ctx, uuid.New()); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}
