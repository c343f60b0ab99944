package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// SQLVerificationRegistry persists verification records in Postgres. Each
// write is a single statement or transaction, so a failure leaves prior
// state unchanged.
type SQLVerificationRegistry struct {
	db *sql.DB
}

var _ ports.VerificationRegistry = (*SQLVerificationRegistry)(nil)

func NewSQLVerificationRegistry(db *sql.DB) *SQLVerificationRegistry {
	return &SQLVerificationRegistry{db: db}
}

func (r *SQLVerificationRegistry) Create(ctx context.Context, record domain.VerificationRecord) (string, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_records
		   (id, counselor_account_id, counselor_name, professional_affiliation, institutional_email, status, request_date)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)`,
		record.ID,
		record.CounselorAccountID,
		record.CounselorName,
		record.Affiliation,
		record.InstitutionalEmail,
		string(record.Status),
		record.RequestDate,
	)
	if err != nil {
		return "", translateError(err)
	}
	return record.ID, nil
}

func (r *SQLVerificationRegistry) Find(ctx context.Context, id string) (*domain.VerificationRecord, error) {
	var record domain.VerificationRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(counselor_account_id, ''), counselor_name, professional_affiliation, institutional_email, status, request_date
		   FROM verification_records WHERE id = $1`,
		id,
	).Scan(
		&record.ID,
		&record.CounselorAccountID,
		&record.CounselorName,
		&record.Affiliation,
		&record.InstitutionalEmail,
		&record.Status,
		&record.RequestDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *SQLVerificationRegistry) Update(ctx context.Context, record domain.VerificationRecord) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE verification_records
		    SET counselor_account_id = NULLIF($2, ''),
		        counselor_name = $3,
		        professional_affiliation = $4,
		        institutional_email = $5,
		        status = $6,
		        request_date = $7
		  WHERE id = $1`,
		record.ID,
		record.CounselorAccountID,
		record.CounselorName,
		record.Affiliation,
		record.InstitutionalEmail,
		string(record.Status),
		record.RequestDate,
	)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

func (r *SQLVerificationRegistry) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLVerificationRegistry) List(ctx context.Context, status *domain.VerificationStatus) ([]domain.VerificationRecord, error) {
	query := `SELECT id, COALESCE(counselor_account_id, ''), counselor_name, professional_affiliation, institutional_email, status, request_date
	            FROM verification_records`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY request_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.VerificationRecord
	for rows.Next() {
		var record domain.VerificationRecord
		if err := rows.Scan(
			&record.ID,
			&record.CounselorAccountID,
			&record.CounselorName,
			&record.Affiliation,
			&record.InstitutionalEmail,
			&record.Status,
			&record.RequestDate,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLVerificationRegistry) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verification_records WHERE status = $1`, string(status),
	).Scan(&count)
	return count, err
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
