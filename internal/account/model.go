package account

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a materialized, approved doctor. Its ID is the identity
// credential UID issued at signup, so the login and the account line up.
type Doctor struct {
	ID                     uuid.UUID
	Email                  string
	FullName               string
	Qualification          string
	LicenseNumber          string
	Specialty              string
	ConsultationModes      []string // e.g. "video", "clinic", "home"
	FollowUpFeeCents       int64
	GeneralCheckupFeeCents int64
	SpecialistFeeCents     int64
	ProfileImageURL        string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Hospital is a materialized, approved hospital. Its service records (beds,
// emergency flag, roster) are created as a zeroed skeleton in the same
// transaction that creates the account.
type Hospital struct {
	ID             uuid.UUID
	Email          string
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	ImageURLs      []string
	CertificateURL string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type BedAvailability struct {
	HospitalID uuid.UUID
	ICU        int
	General    int
	Emergency  int
	UpdatedAt  time.Time
}

type EmergencyStatus struct {
	HospitalID uuid.UUID
	Available  bool
	UpdatedAt  time.Time
}

// RosterEntry links a doctor to a hospital. The license number is recorded
// at add time and must match the doctor account's license.
type RosterEntry struct {
	HospitalID    uuid.UUID
	DoctorID      uuid.UUID
	LicenseNumber string
	Position      int
	AddedAt       time.Time
}
