package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownConsultationType = errors.New("unknown consultation type")
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

// ListAvailableDates returns the dates a doctor has at least one declared
// slot on, sorted ascending by calendar date. An empty result is valid.
func (s *Service) ListAvailableDates(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	schedules, err := s.repo.ListSchedules(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	dates := make([]string, 0, len(schedules))
	for _, sched := range schedules {
		if len(sched.Slots) == 0 {
			continue
		}
		dates = append(dates, sched.Date)
	}

	sortDates(dates)
	s.log.Debug("reconciled available dates",
		zap.String("doctor_id", doctorID.String()),
		zap.Int("declared", len(schedules)),
		zap.Int("open", len(dates)),
	)
	return dates, nil
}

// ListBookableTimes returns the full declared slot list for a date, sorted by
// start time. Booked slots are not subtracted here; callers cross-reference
// BookedTimes when presenting choices. A date with no declared schedule
// yields an empty list, not an error.
func (s *Service) ListBookableTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	sched, err := s.repo.GetSchedule(ctx, doctorID, date)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	slots := make([]string, len(sched.Slots))
	copy(slots, sched.Slots)
	sortSlots(slots)
	return slots, nil
}

// BookedTimes returns the reserved time ranges for a doctor on a date,
// sorted by start time.
func (s *Service) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	times, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("booked times: %w", err)
	}
	sortSlots(times)
	return times, nil
}

// IsSlotBooked reports whether a non-cancelled appointment already holds the
// given slot.
func (s *Service) IsSlotBooked(ctx context.Context, doctorID uuid.UUID, date, timeRange string) (bool, error) {
	times, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return false, fmt.Errorf("booked times: %w", err)
	}
	for _, t := range times {
		if t == timeRange {
			return true, nil
		}
	}
	return false, nil
}

// ResolveFee looks up the fee tier for a consultation type. An unknown type
// is a validation failure, never a zero charge.
func (s *Service) ResolveFee(ctx context.Context, doctorID uuid.UUID, consultationType ConsultationType) (int64, error) {
	fees, err := s.repo.GetFeeSchedule(ctx, doctorID)
	if err != nil {
		return 0, fmt.Errorf("get fee schedule: %w", err)
	}
	return FeeFor(fees, consultationType)
}

// FeeFor selects the tier from an already-loaded fee schedule.
func FeeFor(fees *FeeSchedule, consultationType ConsultationType) (int64, error) {
	switch consultationType {
	case ConsultationFollowUp:
		return fees.FollowUpCents, nil
	case ConsultationGeneral:
		return fees.GeneralCheckupCents, nil
	case ConsultationSpecialist:
		return fees.SpecialistCents, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownConsultationType, consultationType)
	}
}
