package signup

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityDoctor   EntityType = "doctor"
	EntityHospital EntityType = "hospital"
)

type Status string

const (
	StatusPending  Status = "pending_admin_approval"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DoctorApplication carries the doctor-specific signup fields. All three fee
// tiers are required so fee resolution never falls through to zero.
type DoctorApplication struct {
	FullName               string   `json:"full_name" validate:"required"`
	Qualification          string   `json:"qualification" validate:"required"`
	LicenseNumber          string   `json:"license_number" validate:"required"`
	Specialty              string   `json:"specialty"`
	ConsultationModes      []string `json:"consultation_modes" validate:"required,min=1,dive,oneof=video clinic home"`
	FollowUpFeeCents       int64    `json:"follow_up_fee_cents" validate:"required,gt=0"`
	GeneralCheckupFeeCents int64    `json:"general_checkup_fee_cents" validate:"required,gt=0"`
	SpecialistFeeCents     int64    `json:"specialist_fee_cents" validate:"required,gt=0"`
	ProfileImageURL        string   `json:"profile_image_url"`
}

type Geolocation struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type HospitalApplication struct {
	Name           string       `json:"name" validate:"required"`
	Address        string       `json:"address" validate:"required"`
	Location       *Geolocation `json:"location" validate:"required"`
	ImageURLs      []string     `json:"image_urls"`
	CertificateURL string       `json:"certificate_url"`
}

// SignupRequest is a pending registration awaiting admin review. Once it
// reaches a terminal status it is frozen; approval additionally deletes it
// after the account materializes, rejection keeps it so the applicant can
// query the reason.
type SignupRequest struct {
	RequestID       string
	EntityType      EntityType
	Status          Status
	Email           string
	UID             uuid.UUID // identity credential created at submission
	SubmittedAt     time.Time
	AdminApproved   bool
	RejectionReason *string
	Doctor          *DoctorApplication
	Hospital        *HospitalApplication
}

// Attachment is an uploaded file from the signup form.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type DoctorSubmission struct {
	Email        string            `validate:"required,email"`
	Password     string            `validate:"required,min=8"`
	Application  DoctorApplication `validate:"required"`
	ProfileImage *Attachment
}

type HospitalSubmission struct {
	Email       string              `validate:"required,email"`
	Password    string              `validate:"required,min=8"`
	Application HospitalApplication `validate:"required"`
	Images      []Attachment        `validate:"min=4"`
	Certificate *Attachment         `validate:"required"`
}
