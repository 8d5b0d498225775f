package audit

import (
	"context"
	"fmt"

	"github.com/yourorg/workstream/pkg/database"
)

// PostgresSink writes audit events to a relational table, giving tenants a
// durable trail independent of the document store.
type PostgresSink struct {
	pool *database.ConnectionPool
}

const createAuditTable = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          BIGSERIAL PRIMARY KEY,
	company_id  TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	action      TEXT NOT NULL,
	resource    TEXT NOT NULL,
	resource_id TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	details     TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
)`

// NewPostgresSink prepares the audit table and returns a sink bound to the
// pool.
func NewPostgresSink(ctx context.Context, pool *database.ConnectionPool) (*PostgresSink, error) {
	if _, err := pool.DB().ExecContext(ctx, createAuditTable); err != nil {
		return nil, fmt.Errorf("failed to prepare audit table: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Record(ctx context.Context, ev Event) error {
	_, err := s.pool.DB().ExecContext(ctx,
		`INSERT INTO audit_events (company_id, user_id, action, resource, resource_id, status, details, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.CompanyID, ev.UserID, ev.Action, ev.Resource, ev.ResourceID, ev.Status, ev.Details, ev.At,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}
