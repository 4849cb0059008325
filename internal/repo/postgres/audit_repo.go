package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixfuego/AppPark-sub000/internal/audit"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
)

// AuditLog is the postgres-backed audit.Sink. Failures are logged and
// swallowed: auditing never rolls back the transition it records.
type AuditLog struct{ pool *pgxpool.Pool }

func NewAuditLog(pool *pgxpool.Pool) *AuditLog { return &AuditLog{pool: pool} }

func (a *AuditLog) Record(ctx context.Context, e audit.Entry) {
	const q = `INSERT INTO audit_log (action, entity, entity_id, actor_id, before, after)
		VALUES ($1,$2,$3,$4,$5,$6)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	before := marshalSnapshot(e.Before)
	after := marshalSnapshot(e.After)

	if _, err := a.pool.Exec(ctx, q, e.Action, e.Entity, e.EntityID, e.ActorID, before, after); err != nil {
		logger.ErrorContext(ctx, "Failed to record audit entry",
			"error", err, "action", e.Action, "entity", e.Entity, "entity_id", e.EntityID)
	}
}

func marshalSnapshot(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

var _ audit.Sink = (*AuditLog)(nil)
