package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("slot already booked")
)

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	// CreatePendingHold inserts a pending appointment. A non-cancelled row
	// for the same (doctor, date, time) makes it fail with ErrSlotTaken.
	CreatePendingHold(ctx context.Context, appt Appointment, expiresAt time.Time) (*Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentByChargeID(ctx context.Context, chargeID string) (*Appointment, error)

	// UpdateStatus performs a compare-and-swap status transition and returns
	// ErrAppointmentNotFound when no row is in the expected from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	SetChargeID(ctx context.Context, id uuid.UUID, chargeID string) error

	AttachPrescription(ctx context.Context, id uuid.UUID, rx Prescription) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)

	// Expiry worker
	FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
