package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-platform/internal/booking"
	"github.com/carebridge/booking-platform/internal/signup"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type AvailableDatesResponse struct {
	DoctorID string   `json:"doctor_id"`
	Dates    []string `json:"dates"`
}

type DayAvailabilityResponse struct {
	DoctorID string   `json:"doctor_id"`
	Date     string   `json:"date"`
	Declared []string `json:"declared"`
	Booked   []string `json:"booked"`
}

type CreateBookingRequest struct {
	DoctorID         string `json:"doctor_id"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	ConsultationType string `json:"consultation_type"`
}

type BookingResponse struct {
	ID               uuid.UUID  `json:"id"`
	DoctorID         uuid.UUID  `json:"doctor_id"`
	PatientID        uuid.UUID  `json:"patient_id"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	ConsultationType string     `json:"consultation_type"`
	Status           string     `json:"status"`
	FeeCents         int64      `json:"fee_cents"`
	ChargeID         *string    `json:"charge_id,omitempty"`
	HasPrescription  bool       `json:"has_prescription"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

func toBookingResponse(a *booking.Appointment) BookingResponse {
	return BookingResponse{
		ID:               a.ID,
		DoctorID:         a.DoctorID,
		PatientID:        a.PatientID,
		Date:             a.Date,
		Time:             a.TimeRange,
		ConsultationType: string(a.ConsultationType),
		Status:           string(a.Status),
		FeeCents:         a.FeeCents,
		ChargeID:         a.ChargeID,
		HasPrescription:  a.HasPrescription,
		ExpiresAt:        a.ExpiresAt,
	}
}

type PrescriptionRequest struct {
	Diagnosis   string               `json:"diagnosis"`
	Medications []booking.Medication `json:"medications"`
	Notes       string               `json:"notes"`
	DocumentURL string               `json:"document_url"`
}

type PaymentWebhookRequest struct {
	ChargeID string `json:"charge_id"`
	Status   string `json:"status"` // succeeded or failed
}

type SignupResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

type SignupStatusResponse struct {
	RequestID       string    `json:"request_id"`
	EntityType      string    `json:"entity_type"`
	Status          string    `json:"status"`
	SubmittedAt     time.Time `json:"submitted_at"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
}

func toSignupStatusResponse(req *signup.SignupRequest) SignupStatusResponse {
	return SignupStatusResponse{
		RequestID:       req.RequestID,
		EntityType:      string(req.EntityType),
		Status:          string(req.Status),
		SubmittedAt:     req.SubmittedAt,
		RejectionReason: req.RejectionReason,
	}
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type RosterAddRequest struct {
	DoctorID      string `json:"doctor_id"`
	LicenseNumber string `json:"license_number"`
}

type BedAvailabilityRequest struct {
	ICU       int `json:"icu"`
	General   int `json:"general"`
	Emergency int `json:"emergency"`
}

type EmergencyStatusRequest struct {
	Available bool `json:"available"`
}

type AssistantSubmitResponse struct {
	JobID string `json:"job_id"`
}

type AssistantJobResponse struct {
	JobID  string `json:"job_id"`
	Ready  bool   `json:"ready"`
	Result string `json:"result,omitempty"`
}
