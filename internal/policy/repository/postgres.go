package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"farmgate/backend/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a policy repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetEnabledPoliciesByOrg returns the org's enabled policies, oldest first.
func (r *PostgresRepository) GetEnabledPoliciesByOrg(ctx context.Context, orgID string) ([]*domain.Policy, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, org_id, rules, enabled, created_at
		FROM policies
		WHERE org_id = $1 AND enabled
		ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Policy
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Rules, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create persists the policy, assigning an id when empty.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO policies (id, org_id, rules, enabled, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.OrgID, p.Rules, p.Enabled, p.CreatedAt)
	return err
}
