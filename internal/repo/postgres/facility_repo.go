package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixfuego/AppPark-sub000/internal/domain"
)

// FacilityRepo is the read side of companies, gates, visitors and zone
// grants; the core validates against it and the resolver consumes it.
type FacilityRepo interface {
	GetCompany(ctx context.Context, id int64) (*domain.Company, error)
	GetGate(ctx context.Context, id int64) (*domain.Gate, error)
	GetVisitor(ctx context.Context, id int64) (*domain.Visitor, error)
	GrantsForActor(ctx context.Context, actorID int64) ([]domain.ZoneGrant, error)
}

type FacilityRepoImpl struct{ pool *pgxpool.Pool }

func NewFacilityRepo(pool *pgxpool.Pool) *FacilityRepoImpl { return &FacilityRepoImpl{pool: pool} }

func (r *FacilityRepoImpl) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	const q = `SELECT id, name, active FROM companies WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var c domain.Company
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *FacilityRepoImpl) GetGate(ctx context.Context, id int64) (*domain.Gate, error) {
	const q = `SELECT id, number, zone_id, active FROM gates WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var g domain.Gate
	err := r.pool.QueryRow(ctx, q, id).Scan(&g.ID, &g.Number, &g.ZoneID, &g.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *FacilityRepoImpl) GetVisitor(ctx context.Context, id int64) (*domain.Visitor, error) {
	const q = `SELECT id, name, email, active FROM visitors WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v domain.Visitor
	err := r.pool.QueryRow(ctx, q, id).Scan(&v.ID, &v.Name, &v.Email, &v.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *FacilityRepoImpl) GrantsForActor(ctx context.Context, actorID int64) ([]domain.ZoneGrant, error) {
	const q = `SELECT actor_id, zone_id, active, created_at
		FROM zone_grants WHERE actor_id=$1 ORDER BY created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gs []domain.ZoneGrant
	for rows.Next() {
		var g domain.ZoneGrant
		if err := rows.Scan(&g.ActorID, &g.ZoneID, &g.Active, &g.CreatedAt); err != nil {
			return nil, err
		}
		gs = append(gs, g)
	}
	return gs, rows.Err()
}

var _ FacilityRepo = (*FacilityRepoImpl)(nil)
