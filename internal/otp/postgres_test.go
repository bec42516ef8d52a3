package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("insert into otp_challenges").
		WithArgs("chal-1", "jane.doe@example.com", "123456", false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	err = store.Create(context.Background(), &Challenge{
		ID:        "chal-1",
		Email:     "jane.doe@example.com",
		Code:      "123456",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByEmailAndCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("select id, email, code, is_verified, created_at").
		WithArgs("jane.doe@example.com", "123456").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "code", "is_verified", "created_at"}).
			AddRow("chal-1", "jane.doe@example.com", "123456", false, now))

	store := NewPGStore(db)
	ch, err := store.FindByEmailAndCode(context.Background(), "jane.doe@example.com", "123456")
	if err != nil {
		t.Fatalf("FindByEmailAndCode: %v", err)
	}
	if ch.ID != "chal-1" || ch.Verified {
		t.Fatalf("unexpected challenge: %+v", ch)
	}

	mock.ExpectQuery("select id, email, code, is_verified, created_at").
		WithArgs("jane.doe@example.com", "999999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "code", "is_verified", "created_at"}))

	if _, err := store.FindByEmailAndCode(context.Background(), "jane.doe@example.com", "999999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPGStoreMarkVerified(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update otp_challenges set is_verified=true").
		WithArgs("chal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update otp_challenges set is_verified=true").
		WithArgs("chal-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.MarkVerified(context.Background(), "chal-1"); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	// Second attempt hits zero rows: the challenge is already consumed.
	if err := store.MarkVerified(context.Background(), "chal-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPGStoreCountSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	from := time.Date(2025, 2, 27, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`select count\(\*\) from otp_challenges`).
		WithArgs("jane.doe@example.com", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	store := NewPGStore(db)
	count, err := store.CountSince(context.Background(), "jane.doe@example.com", from)
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}
