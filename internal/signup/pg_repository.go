package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/booking-platform/internal/account"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) CreateRequest(ctx context.Context, req *SignupRequest) error {
	application, err := encodeApplication(req)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO signup_requests
			(request_id, entity_type, status, email, uid, submitted_at,
			 admin_approved, application)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`, req.RequestID, req.EntityType, req.Status, req.Email, req.UID,
		req.SubmittedAt, application)
	if err != nil {
		return fmt.Errorf("insert signup request: %w", err)
	}

	return nil
}

func (r *PgRepository) GetRequest(ctx context.Context, requestID string) (*SignupRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT request_id, entity_type, status, email, uid, submitted_at,
		       admin_approved, rejection_reason, application
		FROM signup_requests
		WHERE request_id = $1
	`, requestID)
	return scanRequest(row)
}

func (r *PgRepository) ListPending(ctx context.Context) ([]SignupRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT request_id, entity_type, status, email, uid, submitted_at,
		       admin_approved, rejection_reason, application
		FROM signup_requests
		WHERE status = 'pending_admin_approval'
		ORDER BY submitted_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SignupRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ApproveDoctor(ctx context.Context, requestID string, doc account.Doctor) error {
	return r.approve(ctx, requestID, func(txCtx context.Context, tx pgx.Tx) error {
		return account.InsertDoctorTx(txCtx, tx, doc)
	})
}

func (r *PgRepository) ApproveHospital(ctx context.Context, requestID string, hosp account.Hospital) error {
	return r.approve(ctx, requestID, func(txCtx context.Context, tx pgx.Tx) error {
		return account.InsertHospitalTx(txCtx, tx, hosp)
	})
}

// approve deletes the pending request and materializes the account in one
// transaction. Losing the race on the delete aborts before anything else is
// written.
func (r *PgRepository) approve(ctx context.Context, requestID string, materialize func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin approval tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		DELETE FROM signup_requests
		WHERE request_id = $1
		  AND status = 'pending_admin_approval'
	`, requestID)
	if err != nil {
		return fmt.Errorf("delete signup request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}

	if err := materialize(ctx, tx); err != nil {
		return fmt.Errorf("materialize account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit approval tx: %w", err)
	}

	return nil
}

func (r *PgRepository) MarkRejected(ctx context.Context, requestID, reason string) (*SignupRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE signup_requests
		SET status = 'rejected',
		    rejection_reason = $2
		WHERE request_id = $1
		  AND status = 'pending_admin_approval'
		RETURNING request_id, entity_type, status, email, uid, submitted_at,
		          admin_approved, rejection_reason, application
	`, requestID, reason)
	return scanRequest(row)
}

func scanRequest(row pgx.Row) (*SignupRequest, error) {
	var (
		req    SignupRequest
		reason *string
		appRaw []byte
	)

	err := row.Scan(
		&req.RequestID,
		&req.EntityType,
		&req.Status,
		&req.Email,
		&req.UID,
		&req.SubmittedAt,
		&req.AdminApproved,
		&reason,
		&appRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	req.RejectionReason = reason
	if err := decodeApplication(&req, appRaw); err != nil {
		return nil, err
	}

	return &req, nil
}

func encodeApplication(req *SignupRequest) ([]byte, error) {
	switch req.EntityType {
	case EntityDoctor:
		data, err := json.Marshal(req.Doctor)
		if err != nil {
			return nil, fmt.Errorf("encode doctor application: %w", err)
		}
		return data, nil
	case EntityHospital:
		data, err := json.Marshal(req.Hospital)
		if err != nil {
			return nil, fmt.Errorf("encode hospital application: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", req.EntityType)
	}
}

func decodeApplication(req *SignupRequest, raw []byte) error {
	switch req.EntityType {
	case EntityDoctor:
		var app DoctorApplication
		if err := json.Unmarshal(raw, &app); err != nil {
			return fmt.Errorf("decode doctor application: %w", err)
		}
		req.Doctor = &app
	case EntityHospital:
		var app HospitalApplication
		if err := json.Unmarshal(raw, &app); err != nil {
			return fmt.Errorf("decode hospital application: %w", err)
		}
		req.Hospital = &app
	default:
		return fmt.Errorf("unknown entity type %q", req.EntityType)
	}
	return nil
}
