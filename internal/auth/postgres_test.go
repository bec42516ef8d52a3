package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func userRows(u *User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "citizen_id", "phone", "email",
		"password_hash", "role", "is_active", "created_at", "updated_at",
	}).AddRow(u.ID, u.FirstName, u.LastName, u.CitizenID, u.Phone, u.Email,
		u.PasswordHash, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
}

func sampleUser() *User {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &User{
		ID:           "usr-1",
		FirstName:    "Jane",
		LastName:     "Doe",
		CitizenID:    "12345678901",
		Phone:        "5550001122",
		Email:        "jane.doe@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Role:         RolePatient,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPGUserStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	u := sampleUser()
	mock.ExpectExec("insert into users").
		WithArgs(u.ID, u.FirstName, u.LastName, u.CitizenID, u.Phone, u.Email, u.PasswordHash, u.Role, u.IsActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGUserStore(db)
	if err := store.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGUserStoreCreateAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	u := sampleUser()
	u.ID = ""
	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), u.FirstName, u.LastName, u.CitizenID, u.Phone, u.Email, u.PasswordHash, u.Role, u.IsActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGUserStore(db)
	if err := store.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Create must assign an id")
	}
}

func TestPGUserStoreCreateUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	store := NewPGUserStore(db)
	if err := store.Create(context.Background(), sampleUser()); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestPGUserStoreFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(`select .* from users where lower\(email\)=lower\(\$1\)`).
		WithArgs("jane.doe@example.com").
		WillReturnRows(userRows(u))

	store := NewPGUserStore(db)
	got, err := store.FindByEmail(context.Background(), "jane.doe@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.ID != u.ID || got.Email != u.Email {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestPGUserStoreFindNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := NewPGUserStore(db)
	if _, err := store.Find(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPGUserStoreUpdatePassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update users set password_hash").
		WithArgs("usr-1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update users set password_hash").
		WithArgs("missing", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGUserStore(db)
	if err := store.UpdatePassword(context.Background(), "usr-1", "new-hash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if err := store.UpdatePassword(context.Background(), "missing", "new-hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPGUserStoreSetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update users set is_active").
		WithArgs("usr-1", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGUserStore(db)
	if err := store.SetActive(context.Background(), "usr-1", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
}

func TestPGUserStoreList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	u := sampleUser()
	mock.ExpectQuery(`select count\(\*\) from users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("select .* from users order by created_at desc").
		WithArgs(10, 0).
		WillReturnRows(userRows(u))

	store := NewPGUserStore(db)
	users, total, err := store.List(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(users) != 1 {
		t.Fatalf("total=%d len=%d", total, len(users))
	}
	if users[0].ID != u.ID {
		t.Fatalf("unexpected user: %+v", users[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
