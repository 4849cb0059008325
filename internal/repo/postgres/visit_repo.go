package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixfuego/AppPark-sub000/internal/access"
	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

type VisitRepo interface {
	Create(ctx context.Context, v *domain.Visit) (*domain.Visit, error)
	CreateMass(ctx context.Context, parent *domain.Visit, children []domain.Visit) (*domain.MassVisit, error)
	GetByID(ctx context.Context, id int64) (*domain.Visit, error)
	GetByCode(ctx context.Context, code string) (*domain.Visit, error)
	UpdateTransition(ctx context.Context, v *domain.Visit) (bool, error)
	ListByScope(ctx context.Context, scope access.Scope, status *domain.VisitStatus, limit, offset int) ([]domain.Visit, error)
	ExpirePending(ctx context.Context, now time.Time) ([]domain.Visit, error)
}

type VisitRepoImpl struct{ pool *pgxpool.Pool }

func NewVisitRepo(pool *pgxpool.Pool) *VisitRepoImpl { return &VisitRepoImpl{pool: pool} }

const visitCols = `id, visit_code, status, scheduled_date, entry_time, exit_time,
company_id, gate_id, visitor_id, created_by_id, parent_visit_id, is_mass_visit,
notes, version, created_at, updated_at`

func scanVisit(row pgx.Row) (*domain.Visit, error) {
	var v domain.Visit
	err := row.Scan(
		&v.ID, &v.VisitCode, &v.Status, &v.ScheduledDate, &v.EntryTime, &v.ExitTime,
		&v.CompanyID, &v.GateID, &v.VisitorID, &v.CreatedByID, &v.ParentVisitID, &v.IsMassVisit,
		&v.Notes, &v.Version, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const insertVisit = `INSERT INTO visits (
    visit_code, status, scheduled_date,
    company_id, gate_id, visitor_id, created_by_id,
    parent_visit_id, is_mass_visit, notes
  ) VALUES ($1,'pending',$2,$3,$4,$5,$6,$7,$8,$9)
  RETURNING ` + visitCols

func (r *VisitRepoImpl) Create(ctx context.Context, v *domain.Visit) (*domain.Visit, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanVisit(r.pool.QueryRow(ctx, insertVisit,
		v.VisitCode, v.ScheduledDate,
		v.CompanyID, v.GateID, v.VisitorID, v.CreatedByID,
		v.ParentVisitID, v.IsMassVisit, v.Notes,
	))
	if err != nil {
		return nil, wrapDuplicateCode(err, v.VisitCode)
	}
	return created, nil
}

// CreateMass writes the parent and all children in one transaction: either
// the whole batch lands or none of it does.
func (r *VisitRepoImpl) CreateMass(ctx context.Context, parent *domain.Visit, children []domain.Visit) (*domain.MassVisit, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := scanVisit(tx.QueryRow(ctx, insertVisit,
		parent.VisitCode, parent.ScheduledDate,
		parent.CompanyID, parent.GateID, parent.VisitorID, parent.CreatedByID,
		nil, true, parent.Notes,
	))
	if err != nil {
		return nil, wrapDuplicateCode(err, parent.VisitCode)
	}

	out := &domain.MassVisit{Parent: *p, Children: make([]domain.Visit, 0, len(children))}
	for _, c := range children {
		child, err := scanVisit(tx.QueryRow(ctx, insertVisit,
			c.VisitCode, c.ScheduledDate,
			c.CompanyID, c.GateID, c.VisitorID, c.CreatedByID,
			&p.ID, false, c.Notes,
		))
		if err != nil {
			return nil, wrapDuplicateCode(err, c.VisitCode)
		}
		out.Children = append(out.Children, *child)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *VisitRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisit(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *VisitRepoImpl) GetByCode(ctx context.Context, code string) (*domain.Visit, error) {
	const q = `SELECT ` + visitCols + ` FROM visits WHERE visit_code=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisit(r.pool.QueryRow(ctx, q, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// UpdateTransition persists a state transition guarded by the version
// column. A false return means another writer got there first; the caller
// decides whether to retry against fresh state.
func (r *VisitRepoImpl) UpdateTransition(ctx context.Context, v *domain.Visit) (bool, error) {
	const q = `UPDATE visits
		SET status=$1, entry_time=$2, exit_time=$3, version=version+1, updated_at=now()
		WHERE id=$4 AND version=$5`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, v.Status, v.EntryTime, v.ExitTime, v.ID, v.Version)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}
	v.Version++
	return true, nil
}

// ListByScope applies the resolved scope in SQL: company scopes filter on
// company_id, zone scopes resolve the zone's gate set first. An empty scope
// queries nothing.
func (r *VisitRepoImpl) ListByScope(ctx context.Context, scope access.Scope, status *domain.VisitStatus, limit, offset int) ([]domain.Visit, error) {
	if scope.Empty() {
		return []domain.Visit{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + visitCols + ` FROM visits WHERE 1=1`
	args := []any{}

	switch scope.Kind {
	case access.ScopeCompany:
		args = append(args, scope.CompanyID)
		q += fmt.Sprintf(` AND company_id = $%d`, len(args))
	case access.ScopeZone:
		args = append(args, scope.ZoneID)
		q += fmt.Sprintf(` AND gate_id IN (SELECT id FROM gates WHERE zone_id = $%d)`, len(args))
	}
	if status != nil {
		args = append(args, *status)
		q += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY scheduled_date DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vs := make([]domain.Visit, 0, limit)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		vs = append(vs, *v)
	}
	return vs, rows.Err()
}

// ExpirePending flips every due pending visit to expired in one statement
// and returns the affected rows. In-progress visits are untouched.
func (r *VisitRepoImpl) ExpirePending(ctx context.Context, now time.Time) ([]domain.Visit, error) {
	const q = `UPDATE visits
		SET status='expired', version=version+1, updated_at=now()
		WHERE status='pending' AND scheduled_date < $1
		RETURNING ` + visitCols
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vs []domain.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		vs = append(vs, *v)
	}
	return vs, rows.Err()
}

func wrapDuplicateCode(err error, code string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("visit code %s: %w", code, domain.ErrDuplicateCode)
	}
	return err
}

var _ VisitRepo = (*VisitRepoImpl)(nil)
