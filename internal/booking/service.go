package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/booking-platform/internal/availability"
	"github.com/carebridge/booking-platform/internal/payment"
	redisclient "github.com/carebridge/booking-platform/internal/redis"
)

const (
	EventBookingHeld      = "BOOKING_HELD"
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventBookingCancelled = "BOOKING_CANCELLED"
	EventBookingExpired   = "BOOKING_EXPIRED"
	EventPrescriptionSet  = "PRESCRIPTION_ATTACHED"
)

var (
	ErrSlotNotDeclared         = errors.New("time is not among the doctor's declared slots")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrHoldExpired             = errors.New("booking hold has expired")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPaymentInitFailed       = errors.New("could not initiate payment")
)

type HoldRequest struct {
	DoctorID         uuid.UUID
	PatientID        uuid.UUID
	Date             string
	TimeRange        string
	ConsultationType availability.ConsultationType
}

type Service struct {
	repo    Repository
	avail   *availability.Service
	locker  redisclient.Locker
	gateway payment.Gateway
	holdTTL time.Duration
	log     *zap.Logger
}

func NewService(repo Repository, avail *availability.Service, locker redisclient.Locker, gateway payment.Gateway, holdTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		avail:   avail,
		locker:  locker,
		gateway: gateway,
		holdTTL: holdTTL,
		log:     log,
	}
}

// Hold claims a slot for a patient and opens a charge with the payment
// gateway. The claim is persisted before any money moves, so a gateway or
// process failure after this point can only leave a pending hold behind,
// which the expiry worker reclaims. A distributed lock serializes concurrent
// attempts on the same slot; the partial unique index on appointments is the
// backstop in case the lock is lost.
func (s *Service) Hold(ctx context.Context, req HoldRequest) (*Appointment, error) {
	times, err := s.avail.ListBookableTimes(ctx, req.DoctorID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("load bookable times: %w", err)
	}
	declared := false
	for _, t := range times {
		if t == req.TimeRange {
			declared = true
			break
		}
	}
	if !declared {
		return nil, ErrSlotNotDeclared
	}

	fee, err := s.avail.ResolveFee(ctx, req.DoctorID, req.ConsultationType)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, req.DoctorID, req.Date, req.TimeRange, func(lockCtx context.Context) error {
		// Re-check inside the critical section before inserting.
		booked, err := s.avail.IsSlotBooked(lockCtx, req.DoctorID, req.Date, req.TimeRange)
		if err != nil {
			return fmt.Errorf("check booked slot: %w", err)
		}
		if booked {
			return ErrSlotTaken
		}

		expiresAt := time.Now().Add(s.holdTTL)
		appt, err := s.repo.CreatePendingHold(lockCtx, Appointment{
			DoctorID:         req.DoctorID,
			PatientID:        req.PatientID,
			Date:             req.Date,
			TimeRange:        req.TimeRange,
			ConsultationType: req.ConsultationType,
			FeeCents:         fee,
		}, expiresAt)
		if err != nil {
			return fmt.Errorf("create pending hold: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventBookingHeld, map[string]any{
			"doctor_id":  req.DoctorID.String(),
			"patient_id": req.PatientID.String(),
			"date":       req.Date,
			"time":       req.TimeRange,
			"expires_at": expiresAt,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	charge, err := s.gateway.CreateCharge(ctx, payment.ChargeRequest{
		AppointmentID: created.ID,
		PatientID:     created.PatientID,
		AmountCents:   created.FeeCents,
		Description:   fmt.Sprintf("%s consultation on %s %s", created.ConsultationType, created.Date, created.TimeRange),
	})
	if err != nil {
		// Release the claim so the slot frees up immediately instead of
		// waiting for the expiry worker.
		if _, cancelErr := s.repo.UpdateStatus(ctx, created.ID, StatusPending, StatusCancelled); cancelErr != nil && !errors.Is(cancelErr, ErrAppointmentNotFound) {
			s.log.Error("failed to cancel hold after charge failure",
				zap.String("appointment_id", created.ID.String()),
				zap.Error(cancelErr),
			)
		}
		s.logEvent(ctx, created.ID, EventBookingCancelled, map[string]any{
			"reason": "charge_create_failed",
		})
		return nil, fmt.Errorf("%w: %v", ErrPaymentInitFailed, err)
	}

	if err := s.repo.SetChargeID(ctx, created.ID, charge.ID); err != nil {
		return nil, fmt.Errorf("record charge id: %w", err)
	}
	chargeID := charge.ID
	created.ChargeID = &chargeID

	return created, nil
}

// HandleChargeResult is driven by the payment webhook. Success confirms the
// pending hold, failure cancels it and frees the slot.
func (s *Service) HandleChargeResult(ctx context.Context, chargeID string, succeeded bool) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByChargeID(ctx, chargeID)
	if err != nil {
		return nil, fmt.Errorf("load appointment for charge: %w", err)
	}

	if !succeeded {
		updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Already moved on, nothing to undo.
				return appt, nil
			}
			return nil, fmt.Errorf("cancel unpaid hold: %w", err)
		}
		s.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
			"reason": "charge_failed",
		})
		return updated, nil
	}

	now := time.Now()
	if appt.ExpiresAt != nil && appt.ExpiresAt.Before(now) && appt.Status == StatusPending {
		if _, updErr := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusCancelled); updErr != nil && !errors.Is(updErr, ErrAppointmentNotFound) {
			s.log.Error("failed to expire hold during confirm",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(updErr),
			)
		}
		s.logEvent(ctx, appt.ID, EventBookingExpired, map[string]any{
			"reason": "confirm_after_expiry",
		})
		return nil, ErrHoldExpired
	}

	if appt.Status != StatusPending {
		if appt.Status == StatusConfirmed {
			// Webhook redelivery, already confirmed.
			return appt, nil
		}
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventBookingConfirmed, map[string]any{
		"charge_id": chargeID,
	})

	return updated, nil
}

// Cancel releases a pending or confirmed appointment.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
		"reason": "requested",
	})

	return updated, nil
}

// Complete marks a confirmed appointment as done.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.repo.UpdateStatus(ctx, id, StatusConfirmed, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Either the appointment does not exist or it is not confirmed;
			// disambiguate for the caller.
			if _, getErr := s.repo.GetAppointmentByID(ctx, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}
	return updated, nil
}

// AttachPrescription stores a structured prescription on a confirmed or
// completed appointment.
func (s *Service) AttachPrescription(ctx context.Context, id uuid.UUID, rx Prescription) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusConfirmed && appt.Status != StatusCompleted {
		return nil, ErrInvalidStatusTransition
	}

	if rx.IssuedAt.IsZero() {
		rx.IssuedAt = time.Now()
	}

	updated, err := s.repo.AttachPrescription(ctx, id, rx)
	if err != nil {
		return nil, fmt.Errorf("attach prescription: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventPrescriptionSet, map[string]any{
		"diagnosis": rx.Diagnosis,
	})

	return updated, nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListByPatient retrieves appointments for a specific patient.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appts, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

// ExpirePendingHolds is intended to be called by the worker periodically.
// It frees slots whose payment never completed.
func (s *Service) ExpirePendingHolds(ctx context.Context) error {
	now := time.Now()
	expired, err := s.repo.FindExpiredPending(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired pending holds: %w", err)
	}

	for _, appt := range expired {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			s.log.Error("failed to expire hold",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err),
			)
			continue
		}
		s.logEvent(ctx, appt.ID, EventBookingExpired, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("failed to marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error("failed to insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
