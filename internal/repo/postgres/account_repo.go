package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

type AccountRepo interface {
	Create(ctx context.Context, req *domain.RegisterReq, passwordHash string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	SaveLockState(ctx context.Context, acc *domain.Account) error
}

type AccountRepoImpl struct{ pool *pgxpool.Pool }

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepoImpl { return &AccountRepoImpl{pool: pool} }

const accountCols = `id, email, name, password_hash, role, company_id, zone_id,
failed_login_count, lockout_until, active, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.CompanyID, &a.ZoneID,
		&a.FailedLoginCount, &a.LockoutUntil, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepoImpl) Create(ctx context.Context, req *domain.RegisterReq, passwordHash string) (*domain.Account, error) {
	const q = `INSERT INTO accounts (email, name, password_hash, role, company_id, zone_id, active)
		VALUES ($1,$2,$3,$4,$5,$6,true)
		RETURNING ` + accountCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAccount(r.pool.QueryRow(ctx, q,
		req.Email, req.Name, passwordHash, req.Role, req.CompanyID, req.ZoneID,
	))
}

func (r *AccountRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE email=$1 AND active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AccountRepoImpl) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id=$1 AND active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// SaveLockState persists the failure counter and lockout window mutated on
// every login attempt.
func (r *AccountRepoImpl) SaveLockState(ctx context.Context, acc *domain.Account) error {
	const q = `UPDATE accounts
		SET failed_login_count=$1, lockout_until=$2, updated_at=now()
		WHERE id=$3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, acc.FailedLoginCount, acc.LockoutUntil, acc.ID)
	return err
}

var _ AccountRepo = (*AccountRepoImpl)(nil)
