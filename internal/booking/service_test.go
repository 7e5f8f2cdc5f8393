package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carebridge/booking-platform/internal/availability"
	"github.com/carebridge/booking-platform/internal/payment"
)

// fakeStore backs both the booking repository and the availability repository
// so IsSlotBooked observes holds created through CreatePendingHold, the same
// way both read the appointments table in production.
type fakeStore struct {
	mu        sync.Mutex
	appts     map[uuid.UUID]*Appointment
	schedules map[string][]string // doctorID|date -> declared slots
	fees      map[uuid.UUID]*availability.FeeSchedule
	events    []EventLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appts:     make(map[uuid.UUID]*Appointment),
		schedules: make(map[string][]string),
		fees:      make(map[uuid.UUID]*availability.FeeSchedule),
	}
}

func (f *fakeStore) declare(doctorID uuid.UUID, date string, slots ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules[doctorID.String()+"|"+date] = slots
}

func (f *fakeStore) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.appts {
		if a.Status != StatusCancelled {
			n++
		}
	}
	return n
}

func (f *fakeStore) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		types = append(types, ev.EventType)
	}
	return types
}

// availability.Repository

func (f *fakeStore) ListSchedules(_ context.Context, doctorID uuid.UUID) ([]availability.DaySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []availability.DaySchedule
	prefix := doctorID.String() + "|"
	for key, slots := range f.schedules {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, availability.DaySchedule{DoctorID: doctorID, Date: key[len(prefix):], Slots: slots})
		}
	}
	return out, nil
}

func (f *fakeStore) GetSchedule(_ context.Context, doctorID uuid.UUID, date string) (*availability.DaySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slots, ok := f.schedules[doctorID.String()+"|"+date]
	if !ok {
		return nil, availability.ErrScheduleNotFound
	}
	return &availability.DaySchedule{DoctorID: doctorID, Date: date, Slots: slots}, nil
}

func (f *fakeStore) BookedTimes(_ context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var times []string
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.Date == date && a.Status != StatusCancelled {
			times = append(times, a.TimeRange)
		}
	}
	return times, nil
}

func (f *fakeStore) GetFeeSchedule(_ context.Context, doctorID uuid.UUID) (*availability.FeeSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fees, ok := f.fees[doctorID]
	if !ok {
		return nil, availability.ErrDoctorNotFound
	}
	return fees, nil
}

// booking.Repository

func (f *fakeStore) CreatePendingHold(_ context.Context, appt Appointment, expiresAt time.Time) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Mirror of the partial unique index: one live row per slot.
	for _, existing := range f.appts {
		if existing.DoctorID == appt.DoctorID && existing.Date == appt.Date &&
			existing.TimeRange == appt.TimeRange && existing.Status != StatusCancelled {
			return nil, ErrSlotTaken
		}
	}

	appt.ID = uuid.New()
	appt.Status = StatusPending
	exp := expiresAt
	appt.ExpiresAt = &exp
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt

	stored := appt
	f.appts[appt.ID] = &stored
	out := appt
	return &out, nil
}

func (f *fakeStore) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeStore) GetAppointmentByChargeID(_ context.Context, chargeID string) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.ChargeID != nil && *a.ChargeID == chargeID {
			out := *a
			return &out, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (f *fakeStore) SetChargeID(_ context.Context, id uuid.UUID, chargeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.ChargeID = &chargeID
	return nil
}

func (f *fakeStore) AttachPrescription(_ context.Context, id uuid.UUID, rx Prescription) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.HasPrescription = true
	a.Prescription = &rx
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (f *fakeStore) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Appointment
	for _, a := range f.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FindExpiredPending(_ context.Context, now time.Time) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Appointment
	for _, a := range f.appts {
		if a.Status == StatusPending && a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertEvent(_ context.Context, ev EventLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

// fakeLocker serializes callers per slot key the way the Redis lock does,
// except it blocks instead of failing fast so concurrency tests are
// deterministic: the loser reaches the in-lock recheck and sees the winner's
// hold.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, doctorID uuid.UUID, date, timeRange string, fn func(ctx context.Context) error) error {
	key := doctorID.String() + "|" + date + "|" + timeRange
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type fakeGateway struct {
	mu      sync.Mutex
	fail    bool
	charges []payment.ChargeRequest
}

func (g *fakeGateway) CreateCharge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("gateway timeout")
	}
	g.charges = append(g.charges, req)
	return &payment.Charge{
		ID:     fmt.Sprintf("ch_%d", len(g.charges)),
		Status: payment.ChargeCreated,
	}, nil
}

func newTestService(store *fakeStore, gateway payment.Gateway) *Service {
	availSvc := availability.NewService(store, zap.NewNop())
	return NewService(store, availSvc, newFakeLocker(), gateway, 10*time.Minute, zap.NewNop())
}

func TestHoldClaimsSlotAndOpensCharge(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{}
	svc := newTestService(store, gateway)

	doctorID := uuid.New()
	patientID := uuid.New()
	store.declare(doctorID, "2025-03-10", "09:00-09:30", "10:00-10:30")
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}

	appt, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        patientID,
		Date:             "2025-03-10",
		TimeRange:        "10:00-10:30",
		ConsultationType: availability.ConsultationGeneral,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, int64(7000), appt.FeeCents)
	require.NotNil(t, appt.ChargeID)
	require.NotNil(t, appt.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *appt.ExpiresAt, 5*time.Second)

	require.Len(t, gateway.charges, 1)
	assert.Equal(t, appt.ID, gateway.charges[0].AppointmentID)
	assert.Equal(t, int64(7000), gateway.charges[0].AmountCents)

	assert.Contains(t, store.eventTypes(), EventBookingHeld)
}

func TestHoldRejectsUndeclaredTime(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})

	doctorID := uuid.New()
	store.declare(doctorID, "2025-03-10", "09:00-09:30")
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}

	_, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        uuid.New(),
		Date:             "2025-03-10",
		TimeRange:        "22:00-22:30",
		ConsultationType: availability.ConsultationGeneral,
	})
	require.ErrorIs(t, err, ErrSlotNotDeclared)
	assert.Zero(t, store.liveCount())
}

func TestHoldRejectsUnknownConsultationType(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})

	doctorID := uuid.New()
	store.declare(doctorID, "2025-03-10", "09:00-09:30")
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}

	_, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        uuid.New(),
		Date:             "2025-03-10",
		TimeRange:        "09:00-09:30",
		ConsultationType: availability.ConsultationType("teleconsult"),
	})
	require.ErrorIs(t, err, availability.ErrUnknownConsultationType)
	assert.Zero(t, store.liveCount())
}

func TestConcurrentHoldsSingleWinner(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{}
	svc := newTestService(store, gateway)

	doctorID := uuid.New()
	store.declare(doctorID, "2025-03-10", "10:00-10:30")
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Hold(context.Background(), HoldRequest{
				DoctorID:         doctorID,
				PatientID:        uuid.New(),
				Date:             "2025-03-10",
				TimeRange:        "10:00-10:30",
				ConsultationType: availability.ConsultationFollowUp,
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotTaken)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.liveCount())
	require.Len(t, gateway.charges, 1)
}

func TestHoldChargeFailureFreesSlot(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{fail: true}
	svc := newTestService(store, gateway)

	doctorID := uuid.New()
	store.declare(doctorID, "2025-03-10", "10:00-10:30")
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}

	_, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        uuid.New(),
		Date:             "2025-03-10",
		TimeRange:        "10:00-10:30",
		ConsultationType: availability.ConsultationFollowUp,
	})
	require.ErrorIs(t, err, ErrPaymentInitFailed)
	assert.Zero(t, store.liveCount())

	// The slot is immediately rebookable once the gateway recovers.
	gateway.fail = false
	appt, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        uuid.New(),
		Date:             "2025-03-10",
		TimeRange:        "10:00-10:30",
		ConsultationType: availability.ConsultationFollowUp,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
}

func holdOne(t *testing.T, svc *Service, store *fakeStore, doctorID uuid.UUID) *Appointment {
	t.Helper()
	store.declare(doctorID, "2025-03-10", "10:00-10:30")
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}

	appt, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        uuid.New(),
		Date:             "2025-03-10",
		TimeRange:        "10:00-10:30",
		ConsultationType: availability.ConsultationFollowUp,
	})
	require.NoError(t, err)
	return appt
}

func TestHandleChargeResultConfirms(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})
	appt := holdOne(t, svc, store, uuid.New())

	confirmed, err := svc.HandleChargeResult(context.Background(), *appt.ChargeID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	// Webhook redelivery is a no-op, not an error.
	again, err := svc.HandleChargeResult(context.Background(), *appt.ChargeID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)

	assert.Contains(t, store.eventTypes(), EventBookingConfirmed)
}

func TestHandleChargeResultFailureCancels(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})
	appt := holdOne(t, svc, store, uuid.New())

	cancelled, err := svc.HandleChargeResult(context.Background(), *appt.ChargeID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Zero(t, store.liveCount())
}

func TestHandleChargeResultAfterExpiry(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})
	appt := holdOne(t, svc, store, uuid.New())

	// Push the hold past its deadline.
	store.mu.Lock()
	past := time.Now().Add(-time.Minute)
	store.appts[appt.ID].ExpiresAt = &past
	store.mu.Unlock()

	_, err := svc.HandleChargeResult(context.Background(), *appt.ChargeID, true)
	require.ErrorIs(t, err, ErrHoldExpired)

	got, err := svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestHandleChargeResultUnknownCharge(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})

	_, err := svc.HandleChargeResult(context.Background(), "ch_unknown", true)
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancelTransitions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})
	appt := holdOne(t, svc, store, uuid.New())

	cancelled, err := svc.Cancel(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled is terminal.
	_, err = svc.Cancel(context.Background(), appt.ID)
	require.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})
	appt := holdOne(t, svc, store, uuid.New())

	// Still pending: payment has not confirmed.
	_, err := svc.Complete(context.Background(), appt.ID)
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.HandleChargeResult(context.Background(), *appt.ChargeID, true)
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	_, err = svc.Complete(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestAttachPrescription(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})
	appt := holdOne(t, svc, store, uuid.New())

	rx := Prescription{
		Diagnosis: "seasonal allergy",
		Medications: []Medication{
			{Name: "cetirizine", Dosage: "10mg", Frequency: "once daily", Duration: "14 days"},
		},
	}

	// Pending holds cannot carry a prescription.
	_, err := svc.AttachPrescription(context.Background(), appt.ID, rx)
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.HandleChargeResult(context.Background(), *appt.ChargeID, true)
	require.NoError(t, err)

	updated, err := svc.AttachPrescription(context.Background(), appt.ID, rx)
	require.NoError(t, err)
	assert.True(t, updated.HasPrescription)
	require.NotNil(t, updated.Prescription)
	assert.Equal(t, "seasonal allergy", updated.Prescription.Diagnosis)
	assert.False(t, updated.Prescription.IssuedAt.IsZero())
}

func TestExpirePendingHolds(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})

	doctorID := uuid.New()
	stale := holdOne(t, svc, store, doctorID)

	store.mu.Lock()
	past := time.Now().Add(-time.Minute)
	store.appts[stale.ID].ExpiresAt = &past
	store.mu.Unlock()

	require.NoError(t, svc.ExpirePendingHolds(context.Background()))

	got, err := svc.GetAppointment(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Contains(t, store.eventTypes(), EventBookingExpired)

	// The reclaimed slot is bookable again.
	fresh, err := svc.Hold(context.Background(), HoldRequest{
		DoctorID:         doctorID,
		PatientID:        uuid.New(),
		Date:             "2025-03-10",
		TimeRange:        "10:00-10:30",
		ConsultationType: availability.ConsultationFollowUp,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fresh.Status)
}

func TestListByPatientClampsLimit(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeGateway{})

	doctorID := uuid.New()
	patientID := uuid.New()
	store.fees[doctorID] = &availability.FeeSchedule{FollowUpCents: 3000, GeneralCheckupCents: 7000, SpecialistCents: 15000}
	for i := 0; i < 25; i++ {
		slot := fmt.Sprintf("%02d:00-%02d:30", i%24, i%24)
		store.declare(doctorID, fmt.Sprintf("2025-03-%02d", i+1), slot)
		_, err := svc.Hold(context.Background(), HoldRequest{
			DoctorID:         doctorID,
			PatientID:        patientID,
			Date:             fmt.Sprintf("2025-03-%02d", i+1),
			TimeRange:        slot,
			ConsultationType: availability.ConsultationFollowUp,
		})
		require.NoError(t, err)
	}

	appts, err := svc.ListByPatient(context.Background(), patientID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, appts, 20) // default limit

	appts, err = svc.ListByPatient(context.Background(), patientID, 1000, 0)
	require.NoError(t, err)
	assert.Len(t, appts, 25) // capped at 100, all rows fit
}
