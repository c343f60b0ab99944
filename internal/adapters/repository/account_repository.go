package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/neuronet-health/counselor-admin-service/internal/core/domain"
	"github.com/neuronet-health/counselor-admin-service/internal/core/ports"
)

// SQLAccountDirectory implements the account directory on Postgres.
// Credentials are stored bcrypt-hashed; the directory never returns them.
type SQLAccountDirectory struct {
	db *sql.DB
}

var _ ports.AccountDirectory = (*SQLAccountDirectory)(nil)

func NewSQLAccountDirectory(db *sql.DB) *SQLAccountDirectory {
	return &SQLAccountDirectory{db: db}
}

const accountColumns = `id, email, full_name, is_active, created_at`

func (r *SQLAccountDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = LOWER($1)`, email))
}

func (r *SQLAccountDirectory) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *SQLAccountDirectory) Search(ctx context.Context, search string) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		  WHERE $1 = '' OR email ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'
		  ORDER BY created_at`,
		search,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.ID, &account.Email, &account.FullName, &account.IsActive, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *SQLAccountDirectory) Create(ctx context.Context, account domain.Account, credential string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, full_name, password_hash, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID,
		account.Email,
		account.FullName,
		string(hash),
		account.IsActive,
		account.CreatedAt,
	)
	return translateError(err)
}

func (r *SQLAccountDirectory) Update(ctx context.Context, account domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET email = $2, full_name = $3, is_active = $4 WHERE id = $1`,
		account.ID,
		account.Email,
		account.FullName,
		account.IsActive,
	)
	if err != nil {
		return translateError(err)
	}
	return requireRow(res)
}

func (r *SQLAccountDirectory) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM account_roles WHERE account_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLAccountDirectory) EnsureRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, string(role))
	return err
}

func (r *SQLAccountDirectory) AssignRole(ctx context.Context, accountID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_roles (account_id, role_name, assigned_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (account_id, role_name) DO NOTHING`,
		accountID, string(role))
	return translateError(err)
}

func (r *SQLAccountDirectory) RemoveRole(ctx context.Context, accountID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM account_roles WHERE account_id = $1 AND role_name = $2`,
		accountID, string(role))
	return err
}

func (r *SQLAccountDirectory) GetRoles(ctx context.Context, accountID string) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_name FROM account_roles WHERE account_id = $1 ORDER BY assigned_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, domain.Role(role))
	}
	return roles, rows.Err()
}

func (r *SQLAccountDirectory) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count, err
}

func (r *SQLAccountDirectory) scanOne(row *sql.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(&account.ID, &account.Email, &account.FullName, &account.IsActive, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// translateError maps Postgres unique violations onto the domain's conflict
// error so the workflow can distinguish them from infrastructure failures.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrConflict
	}
	return err
}
