// seed inserts development sample data covering every navigation verdict and prints a dev access
// token per user when JWT_PRIVATE_KEY is set. Idempotent: skips when the owner user already exists.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"farmgate/backend/internal/config"
	"farmgate/backend/internal/db"
	identitydomain "farmgate/backend/internal/identity/domain"
	identityrepo "farmgate/backend/internal/identity/repository"
	"farmgate/backend/internal/logging"
	"farmgate/backend/internal/membership/domain"
	membershiprepo "farmgate/backend/internal/membership/repository"
	orgdomain "farmgate/backend/internal/organization/domain"
	orgrepo "farmgate/backend/internal/organization/repository"
	policydomain "farmgate/backend/internal/policy/domain"
	policyrepo "farmgate/backend/internal/policy/repository"
	"farmgate/backend/internal/security"
)

// ownersOnlyPolicy narrows approvals in the dev org to owners, so managers see a forbidden result.
const ownersOnlyPolicy = `package farmgate.membership

default allow := false

allow if {
	input.actor.status == "ACTIVE"
	input.actor.mode == "MANAGEMENT"
	lower(input.actor.role) == "owner"
	input.actor.org_id == input.org_id
	input.actor.user_id != input.target.user_id
}

allow if {
	input.action == "list_pending"
	input.actor.status == "ACTIVE"
	input.actor.mode == "MANAGEMENT"
	input.actor.org_id == input.org_id
}
`

const devOrgID = "dev-org-001"

type seedUser struct {
	user   identitydomain.User
	role   string
	status domain.Status
	mode   domain.Mode
}

var seedUsers = []seedUser{
	{identitydomain.User{ID: "dev-owner-001", Email: "owner@example.com", Name: "Dev Owner"}, "owner", domain.StatusActive, domain.ModeManagement},
	{identitydomain.User{ID: "dev-manager-001", Email: "manager@example.com", Name: "Dev Manager"}, "manager", domain.StatusActive, domain.ModeManagement},
	{identitydomain.User{ID: "dev-officer-001", Email: "officer@example.com", Name: "Dev Officer"}, "officer", domain.StatusActive, domain.ModeOfficer},
	{identitydomain.User{ID: "dev-pending-001", Email: "pending@example.com", Name: "Dev Pending"}, "officer", domain.StatusPending, ""},
	{identitydomain.User{ID: "dev-rejected-001", Email: "rejected@example.com", Name: "Dev Rejected"}, "officer", domain.StatusRejected, ""},
	// No membership: resolves to the pending verdict with no_membership.
	{user: identitydomain.User{ID: "dev-newcomer-001", Email: "newcomer@example.com", Name: "Dev Newcomer"}},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, syncLogs, err := logging.Install(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer syncLogs()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	users := identityrepo.NewPostgresRepository(conn)
	existing, err := users.GetUserByEmail(ctx, seedUsers[0].user.Email)
	if err != nil {
		logger.Fatal("seed check", zap.Error(err))
	}
	if existing == nil {
		if err := seed(ctx, conn, users); err != nil {
			logger.Fatal("seed", zap.Error(err))
		}
		logger.Info("seed completed")
	} else {
		logger.Info("seed already applied; skipping inserts", zap.String("email", existing.Email))
	}

	printTokens(cfg, logger)
}

func seed(ctx context.Context, conn *sql.DB, users *identityrepo.PostgresRepository) error {
	now := time.Now().UTC()
	if err := orgrepo.NewPostgresRepository(conn).UpsertOrganization(ctx, &orgdomain.Org{
		ID:        devOrgID,
		Name:      "Sunrise Poultry (dev)",
		Status:    orgdomain.OrgStatusActive,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("create org: %w", err)
	}

	memberships := membershiprepo.NewPostgresRepository(conn)
	for _, su := range seedUsers {
		u := su.user
		u.CreatedAt = now
		if err := users.UpsertUser(ctx, &u); err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
		if su.status == "" {
			continue
		}
		err := memberships.CreateRequest(ctx, &domain.Membership{UserID: u.ID, OrgID: devOrgID, Role: su.role})
		if err != nil && !errors.Is(err, membershiprepo.ErrAlreadyMember) {
			return fmt.Errorf("create membership %s: %w", u.Email, err)
		}
		if su.status != domain.StatusPending {
			if _, err := memberships.UpdateStatus(ctx, u.ID, su.status); err != nil {
				return fmt.Errorf("set status %s: %w", u.Email, err)
			}
		}
		if su.mode != "" {
			if _, err := memberships.UpdateActiveMode(ctx, u.ID, su.mode); err != nil {
				return fmt.Errorf("set mode %s: %w", u.Email, err)
			}
		}
	}

	if err := policyrepo.NewPostgresRepository(conn).Create(ctx, &policydomain.Policy{
		OrgID:     devOrgID,
		Rules:     ownersOnlyPolicy,
		Enabled:   true,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("create policy: %w", err)
	}
	return nil
}

func printTokens(cfg *config.Config, logger *zap.Logger) {
	if cfg.JWTPrivateKey == "" {
		logger.Info("JWT_PRIVATE_KEY not set; no dev tokens issued")
		return
	}
	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		logger.Fatal("jwt keys", zap.Error(err))
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	for _, su := range seedUsers {
		tok, claims, err := tokens.IssueAccess(su.user.ID, su.user.Name, su.user.Email)
		if err != nil {
			logger.Fatal("issue token", zap.String("user_id", su.user.ID), zap.Error(err))
		}
		fmt.Printf("%-22s expires %s\n  %s\n", su.user.Email, claims.Expiry().Format(time.RFC3339), tok)
	}
}
