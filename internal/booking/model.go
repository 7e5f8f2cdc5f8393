package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-platform/internal/availability"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type Prescription struct {
	Diagnosis   string       `json:"diagnosis"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes,omitempty"`
	DocumentURL string       `json:"document_url,omitempty"`
	IssuedAt    time.Time    `json:"issued_at"`
}

// Appointment is a slot reservation. It is created in pending status the
// moment the slot is claimed, before any money moves, and never hard-deleted.
// Only non-cancelled rows count toward the (doctor, date, time) uniqueness
// constraint.
type Appointment struct {
	ID               uuid.UUID
	DoctorID         uuid.UUID
	PatientID        uuid.UUID
	Date             string // ISO date
	TimeRange        string // "HH:MM-HH:MM", matches a declared slot verbatim
	ConsultationType availability.ConsultationType
	Status           Status
	FeeCents         int64
	ChargeID         *string
	HasPrescription  bool
	Prescription     *Prescription
	ExpiresAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
