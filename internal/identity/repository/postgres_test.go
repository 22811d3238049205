package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"farmgate/backend/internal/identity/domain"
)

var userCols = []string{"id", "email", "name", "created_at"}

func newRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetUser_Found(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "kofi@example.com", nil, time.Now()))

	u, err := repo.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u == nil || u.Email != "kofi@example.com" || u.Name != "" {
		t.Fatalf("user = %+v", u)
	}
	if got := u.Identity().Name; got != "kofi@example.com" {
		t.Errorf("identity name falls back to email, got %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userCols))

	u, err := repo.GetUser(context.Background(), "missing")
	if err != nil || u != nil {
		t.Fatalf("GetUser(missing) = %v, %v; want nil, nil", u, err)
	}
}

func TestGetUser_DBError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users").WillReturnError(errors.New("boom"))
	if _, err := repo.GetUser(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetUserByEmail_Normalizes(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE lower\\(email\\)").
		WithArgs("esi@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u2", "Esi@example.com", "Esi", time.Now()))

	u, err := repo.GetUserByEmail(context.Background(), "  ESI@example.com ")
	if err != nil || u == nil || u.ID != "u2" {
		t.Fatalf("GetUserByEmail = %+v, %v", u, err)
	}
}

func TestUpsertUser(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "kofi@example.com", "Kofi", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	u := &domain.User{ID: "u1", Email: "kofi@example.com", Name: "Kofi"}
	if err := repo.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}
