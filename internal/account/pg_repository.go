package account

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

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, full_name, qualification, license_number, specialty,
		       consultation_modes, follow_up_fee_cents, general_checkup_fee_cents,
		       specialist_fee_cents, profile_image_url, created_at, updated_at
		FROM doctor_accounts
		WHERE id = $1
	`, id).Scan(
		&d.ID, &d.Email, &d.FullName, &d.Qualification, &d.LicenseNumber,
		&d.Specialty, &d.ConsultationModes, &d.FollowUpFeeCents,
		&d.GeneralCheckupFeeCents, &d.SpecialistFeeCents, &d.ProfileImageURL,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) GetHospitalByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	var h Hospital
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, address, latitude, longitude, image_urls,
		       certificate_url, created_at, updated_at
		FROM hospital_accounts
		WHERE id = $1
	`, id).Scan(
		&h.ID, &h.Email, &h.Name, &h.Address, &h.Latitude, &h.Longitude,
		&h.ImageURLs, &h.CertificateURL, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *PgRepository) GetBedAvailability(ctx context.Context, hospitalID uuid.UUID) (*BedAvailability, error) {
	var b BedAvailability
	err := r.pool.QueryRow(ctx, `
		SELECT hospital_id, icu_beds, general_beds, emergency_beds, updated_at
		FROM hospital_bed_availability
		WHERE hospital_id = $1
	`, hospitalID).Scan(&b.HospitalID, &b.ICU, &b.General, &b.Emergency, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PgRepository) UpdateBedAvailability(ctx context.Context, b BedAvailability) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospital_bed_availability
		SET icu_beds = $2, general_beds = $3, emergency_beds = $4, updated_at = now()
		WHERE hospital_id = $1
	`, b.HospitalID, b.ICU, b.General, b.Emergency)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHospitalNotFound
	}
	return nil
}

func (r *PgRepository) GetEmergencyStatus(ctx context.Context, hospitalID uuid.UUID) (*EmergencyStatus, error) {
	var e EmergencyStatus
	err := r.pool.QueryRow(ctx, `
		SELECT hospital_id, available, updated_at
		FROM hospital_emergency_status
		WHERE hospital_id = $1
	`, hospitalID).Scan(&e.HospitalID, &e.Available, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *PgRepository) SetEmergencyStatus(ctx context.Context, hospitalID uuid.UUID, available bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE hospital_emergency_status
		SET available = $2, updated_at = now()
		WHERE hospital_id = $1
	`, hospitalID, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrHospitalNotFound
	}
	return nil
}

func (r *PgRepository) GetRoster(ctx context.Context, hospitalID uuid.UUID) ([]RosterEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT hospital_id, doctor_id, license_number, position, added_at
		FROM hospital_doctor_roster
		WHERE hospital_id = $1
		ORDER BY position
	`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.HospitalID, &e.DoctorID, &e.LicenseNumber, &e.Position, &e.AddedAt); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return roster, nil
}

func (r *PgRepository) AddRosterEntry(ctx context.Context, entry RosterEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospital_doctor_roster (hospital_id, doctor_id, license_number, position, added_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.HospitalID, entry.DoctorID, entry.LicenseNumber, entry.Position, entry.AddedAt)
	return err
}

// InsertDoctorTx materializes a doctor account inside an approval
// transaction.
func InsertDoctorTx(ctx context.Context, tx pgx.Tx, d Doctor) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO doctor_accounts
			(id, email, full_name, qualification, license_number, specialty,
			 consultation_modes, follow_up_fee_cents, general_checkup_fee_cents,
			 specialist_fee_cents, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
	`, d.ID, d.Email, d.FullName, d.Qualification, d.LicenseNumber, d.Specialty,
		d.ConsultationModes, d.FollowUpFeeCents, d.GeneralCheckupFeeCents,
		d.SpecialistFeeCents, d.ProfileImageURL)
	return err
}

// InsertHospitalTx materializes a hospital account plus its zeroed service
// record skeleton (beds, emergency flag, empty roster is implicit) inside an
// approval transaction. All writes commit or roll back together.
func InsertHospitalTx(ctx context.Context, tx pgx.Tx, h Hospital) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO hospital_accounts
			(id, email, name, address, latitude, longitude, image_urls,
			 certificate_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
	`, h.ID, h.Email, h.Name, h.Address, h.Latitude, h.Longitude, h.ImageURLs, h.CertificateURL)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO hospital_bed_availability (hospital_id, icu_beds, general_beds, emergency_beds, updated_at)
		VALUES ($1, 0, 0, 0, now())
	`, h.ID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO hospital_emergency_status (hospital_id, available, updated_at)
		VALUES ($1, false, now())
	`, h.ID)
	return err
}
