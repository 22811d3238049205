package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"farmgate/backend/internal/membership/domain"
)

var membershipCols = []string{"id", "user_id", "org_id", "name", "status", "role", "active_mode", "created_at", "updated_at"}

func newRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func membershipRow(userID, status, mode string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(membershipCols).
		AddRow("m-"+userID, userID, "o1", "Sunrise Farms", status, "manager", mode, now, now)
}

func TestGetMembershipByUser(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM memberships m").
		WithArgs("u1").
		WillReturnRows(membershipRow("u1", "ACTIVE", "MANAGEMENT"))

	m, err := repo.GetMembershipByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetMembershipByUser: %v", err)
	}
	if m.OrgName != "Sunrise Farms" || m.Status != domain.StatusActive || m.ActiveMode != domain.ModeManagement {
		t.Errorf("membership = %+v", m)
	}
}

func TestGetMembershipByUser_PassesUnknownValuesThrough(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM memberships m").
		WillReturnRows(membershipRow("u1", "SUSPENDED", "")) // written by another system

	m, err := repo.GetMembershipByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetMembershipByUser: %v", err)
	}
	if m.Status != "SUSPENDED" || m.ActiveMode != "" {
		t.Errorf("membership = %+v", m)
	}
}

func TestGetMembershipByUser_None(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM memberships m").WillReturnRows(sqlmock.NewRows(membershipCols))
	m, err := repo.GetMembershipByUser(context.Background(), "u1")
	if err != nil || m != nil {
		t.Fatalf("got %v, %v; want nil, nil", m, err)
	}
}

func TestCreateRequest(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO memberships").
		WithArgs(sqlmock.AnyArg(), "u1", "o1", "officer", "PENDING", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m1"))

	m := &domain.Membership{UserID: "u1", OrgID: "o1", Role: "officer", Status: domain.StatusActive}
	if err := repo.CreateRequest(context.Background(), m); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if m.ID == "" || m.Status != domain.StatusPending {
		t.Errorf("membership = %+v", m)
	}
}

func TestCreateRequest_AlreadyMember(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO memberships").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.CreateRequest(context.Background(), &domain.Membership{UserID: "u1", OrgID: "o1"})
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("want ErrAlreadyMember, got %v", err)
	}
}

func TestCreateRequest_Invalid(t *testing.T) {
	repo, _ := newRepo(t)
	if err := repo.CreateRequest(context.Background(), &domain.Membership{UserID: "u1"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE memberships SET status").
		WithArgs("u1", "ACTIVE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM memberships m").
		WithArgs("u1").
		WillReturnRows(membershipRow("u1", "ACTIVE", ""))

	m, err := repo.UpdateStatus(context.Background(), "u1", domain.StatusActive)
	if err != nil || m == nil || m.Status != domain.StatusActive {
		t.Fatalf("UpdateStatus = %+v, %v", m, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStatus_NoRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("UPDATE memberships SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	m, err := repo.UpdateStatus(context.Background(), "ghost", domain.StatusRejected)
	if err != nil || m != nil {
		t.Fatalf("got %v, %v; want nil, nil", m, err)
	}
}

func TestUpdateStatus_RejectsUnknown(t *testing.T) {
	repo, _ := newRepo(t)
	if _, err := repo.UpdateStatus(context.Background(), "u1", "BANNED"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateActiveMode(t *testing.T) {
	repo, mock := newRepo(t)
	if _, err := repo.UpdateActiveMode(context.Background(), "u1", ""); !errors.Is(err, domain.ErrInvalidMode) {
		t.Fatalf("empty mode: want ErrInvalidMode, got %v", err)
	}

	mock.ExpectExec("UPDATE memberships SET active_mode").
		WithArgs("u1", "MANAGEMENT", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM memberships m").
		WillReturnRows(membershipRow("u1", "ACTIVE", "MANAGEMENT"))
	m, err := repo.UpdateActiveMode(context.Background(), "u1", domain.ModeManagement)
	if err != nil || m.ActiveMode != domain.ModeManagement {
		t.Fatalf("UpdateActiveMode = %+v, %v", m, err)
	}
}

func TestListPendingByOrg(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) WHERE m.org_id = (.+) AND m.status = 'PENDING'").
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(membershipCols).
			AddRow("m1", "u1", "o1", "Sunrise Farms", "PENDING", "", "", now, now).
			AddRow("m2", "u2", "o1", "Sunrise Farms", "PENDING", "officer", "", now, now))

	list, err := repo.ListPendingByOrg(context.Background(), "o1")
	if err != nil {
		t.Fatalf("ListPendingByOrg: %v", err)
	}
	if len(list) != 2 || list[1].UserID != "u2" {
		t.Errorf("list = %+v", list)
	}
}
