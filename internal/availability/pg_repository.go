package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]DaySchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, to_char(date, 'YYYY-MM-DD'), slots
		FROM availability_slots
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DaySchedule
	for rows.Next() {
		var s DaySchedule
		if err := rows.Scan(&s.DoctorID, &s.Date, &s.Slots); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetSchedule(ctx context.Context, doctorID uuid.UUID, date string) (*DaySchedule, error) {
	var s DaySchedule
	err := r.pool.QueryRow(ctx, `
		SELECT doctor_id, to_char(date, 'YYYY-MM-DD'), slots
		FROM availability_slots
		WHERE doctor_id = $1 AND date = $2::date
	`, doctorID, date).Scan(&s.DoctorID, &s.Date, &s.Slots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) BookedTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_time
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2::date
		  AND status <> 'cancelled'
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return times, nil
}

func (r *PgRepository) GetFeeSchedule(ctx context.Context, doctorID uuid.UUID) (*FeeSchedule, error) {
	var f FeeSchedule
	err := r.pool.QueryRow(ctx, `
		SELECT follow_up_fee_cents, general_checkup_fee_cents, specialist_fee_cents
		FROM doctor_accounts
		WHERE id = $1
	`, doctorID).Scan(&f.FollowUpCents, &f.GeneralCheckupCents, &f.SpecialistCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &f, nil
}
