package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const appointmentColumns = `
	id, doctor_id, patient_id, to_char(appointment_date, 'YYYY-MM-DD'),
	appointment_time, consultation_type, status, fee_cents, charge_id,
	has_prescription, prescription, expires_at, created_at, updated_at
`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a        Appointment
		chargeID *string
		rxRaw    []byte
	)

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.TimeRange,
		&a.ConsultationType,
		&a.Status,
		&a.FeeCents,
		&chargeID,
		&a.HasPrescription,
		&rxRaw,
		&a.ExpiresAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.ChargeID = chargeID
	if len(rxRaw) > 0 {
		var rx Prescription
		if err := json.Unmarshal(rxRaw, &rx); err != nil {
			return nil, fmt.Errorf("decode prescription: %w", err)
		}
		a.Prescription = &rx
	}

	return &a, nil
}

func (r *PgRepository) CreatePendingHold(ctx context.Context, appt Appointment, expiresAt time.Time) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, doctor_id, patient_id, appointment_date, appointment_time,
			 consultation_type, status, fee_cents, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, 'pending', $7, now(), now(), $8)
		RETURNING `+appointmentColumns,
		id, appt.DoctorID, appt.PatientID, appt.Date, appt.TimeRange,
		appt.ConsultationType, appt.FeeCents, expiresAt)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByChargeID(ctx context.Context, chargeID string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE charge_id = $1
	`, chargeID)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) SetChargeID(ctx context.Context, id uuid.UUID, chargeID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET charge_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, chargeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) AttachPrescription(ctx context.Context, id uuid.UUID, rx Prescription) (*Appointment, error) {
	data, err := json.Marshal(rx)
	if err != nil {
		return nil, fmt.Errorf("encode prescription: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET prescription = $2,
		    has_prescription = true,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, data)
	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
