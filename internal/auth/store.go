package auth

import (
	"context"
	"time"
)

// UserStore describes persistence operations required by the credential
// subsystem. Implementations own the users table exclusively and must enforce
// email uniqueness at the storage layer; the service-level existence check is
// advisory only (see SignUp).
type UserStore interface {
	// Create persists a new credential row. Returns ErrAlreadyExists when the
	// unique email constraint rejects the insert.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetActive(ctx context.Context, userID string, active bool) error
	// List returns a page of users ordered by creation time descending, plus
	// the total row count.
	List(ctx context.Context, page, pageSize int) ([]*User, int, error)
}

// Clock is the time source injected into components that stamp records, so
// tests can pin the clock.
type Clock func() time.Time
