package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound   = errors.New("doctor account not found")
	ErrHospitalNotFound = errors.New("hospital account not found")
	ErrLicenseMismatch  = errors.New("license number does not match doctor account")
	ErrAlreadyOnRoster  = errors.New("doctor already on roster")
)

// Repository covers reads and service-record updates on materialized
// accounts. Account creation happens inside the signup approval transaction
// and is not exposed here.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetHospitalByID(ctx context.Context, id uuid.UUID) (*Hospital, error)

	GetBedAvailability(ctx context.Context, hospitalID uuid.UUID) (*BedAvailability, error)
	UpdateBedAvailability(ctx context.Context, b BedAvailability) error

	GetEmergencyStatus(ctx context.Context, hospitalID uuid.UUID) (*EmergencyStatus, error)
	SetEmergencyStatus(ctx context.Context, hospitalID uuid.UUID, available bool) error

	GetRoster(ctx context.Context, hospitalID uuid.UUID) ([]RosterEntry, error)
	AddRosterEntry(ctx context.Context, entry RosterEntry) error
}
