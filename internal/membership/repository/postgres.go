package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farmgate/backend/internal/membership/domain"
)

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository returns a membership repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const membershipSelect = `
	SELECT m.id, m.user_id, m.org_id, COALESCE(o.name, ''), m.status, COALESCE(m.role, ''),
	       COALESCE(m.active_mode, ''), m.created_at, m.updated_at
	FROM memberships m
	LEFT JOIN organizations o ON o.id = m.org_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanMembership(s scanner) (*domain.Membership, error) {
	var (
		m            domain.Membership
		status, mode string
	)
	if err := s.Scan(&m.ID, &m.UserID, &m.OrgID, &m.OrgName, &status, &m.Role, &mode, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	// Stored values are passed through unparsed; the resolver treats unknown values as least privileged.
	m.Status = domain.Status(status)
	m.ActiveMode = domain.Mode(mode)
	return &m, nil
}

// GetMembershipByUser returns the user's membership with its organization name, or nil if the user has none.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByUser(ctx context.Context, userID string) (*domain.Membership, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx, membershipSelect+` WHERE m.user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// CreateRequest files a PENDING join request. A previously rejected membership is replaced;
// any other existing membership yields ErrAlreadyMember.
func (r *PostgresRepository) CreateRequest(ctx context.Context, m *domain.Membership) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Status = domain.StatusPending
	m.ActiveMode = ""
	if err := m.Validate(); err != nil {
		return err
	}
	now := r.now()
	m.CreatedAt, m.UpdatedAt = now, now
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO memberships (id, user_id, org_id, role, status, active_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET id = EXCLUDED.id, org_id = EXCLUDED.org_id, role = EXCLUDED.role, status = EXCLUDED.status,
		    active_mode = NULL, created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at
		WHERE memberships.status = 'REJECTED'
		RETURNING id`,
		m.ID, m.UserID, m.OrgID, m.Role, string(m.Status), now,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of the user's membership and returns the updated row, or nil if the user has none.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, userID string, status domain.Status) (*domain.Membership, error) {
	if _, err := domain.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	return r.update(ctx, `UPDATE memberships SET status = $2, updated_at = $3 WHERE user_id = $1`, userID, string(status))
}

// UpdateActiveMode sets the active mode of the user's membership and returns the updated row, or nil if the user has none.
func (r *PostgresRepository) UpdateActiveMode(ctx context.Context, userID string, mode domain.Mode) (*domain.Membership, error) {
	if mode == "" {
		return nil, domain.ErrInvalidMode
	}
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	return r.update(ctx, `UPDATE memberships SET active_mode = $2, updated_at = $3 WHERE user_id = $1`, userID, string(mode))
}

func (r *PostgresRepository) update(ctx context.Context, stmt, userID, value string) (*domain.Membership, error) {
	res, err := r.db.ExecContext(ctx, stmt, userID, value, r.now())
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.GetMembershipByUser(ctx, userID)
}

// ListPendingByOrg returns the org's PENDING requests, oldest first.
func (r *PostgresRepository) ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, membershipSelect+` WHERE m.org_id = $1 AND m.status = 'PENDING' ORDER BY m.created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
