package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrScheduleNotFound = errors.New("no schedule declared for that date")
)

// Repository contains all DB interactions needed by the reconciler.
type Repository interface {
	// ListSchedules returns every declared day schedule for a doctor,
	// including ones whose slot list is empty.
	ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]DaySchedule, error)

	GetSchedule(ctx context.Context, doctorID uuid.UUID, date string) (*DaySchedule, error)

	// BookedTimes returns the time ranges of all non-cancelled appointments
	// for a doctor on a date.
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error)

	GetFeeSchedule(ctx context.Context, doctorID uuid.UUID) (*FeeSchedule, error)
}
