package account

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetHospitalByID(ctx, id)
}

// AddDoctorToRoster appends an approved doctor to a hospital's roster. The
// supplied license number must match the doctor account verbatim.
func (s *Service) AddDoctorToRoster(ctx context.Context, hospitalID, doctorID uuid.UUID, licenseNumber string) (*RosterEntry, error) {
	if _, err := s.repo.GetHospitalByID(ctx, hospitalID); err != nil {
		return nil, fmt.Errorf("load hospital: %w", err)
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if doctor.LicenseNumber != licenseNumber {
		return nil, ErrLicenseMismatch
	}

	roster, err := s.repo.GetRoster(ctx, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	for _, e := range roster {
		if e.DoctorID == doctorID {
			return nil, ErrAlreadyOnRoster
		}
	}

	entry := RosterEntry{
		HospitalID:    hospitalID,
		DoctorID:      doctorID,
		LicenseNumber: licenseNumber,
		Position:      len(roster) + 1,
		AddedAt:       time.Now(),
	}
	if err := s.repo.AddRosterEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("add roster entry: %w", err)
	}

	s.log.Info("doctor added to roster",
		zap.String("hospital_id", hospitalID.String()),
		zap.String("doctor_id", doctorID.String()),
	)

	return &entry, nil
}

func (s *Service) GetBedAvailability(ctx context.Context, hospitalID uuid.UUID) (*BedAvailability, error) {
	return s.repo.GetBedAvailability(ctx, hospitalID)
}

func (s *Service) UpdateBedAvailability(ctx context.Context, b BedAvailability) error {
	if b.ICU < 0 || b.General < 0 || b.Emergency < 0 {
		return fmt.Errorf("bed counts must be non-negative")
	}
	return s.repo.UpdateBedAvailability(ctx, b)
}

func (s *Service) SetEmergencyStatus(ctx context.Context, hospitalID uuid.UUID, available bool) error {
	return s.repo.SetEmergencyStatus(ctx, hospitalID, available)
}
