// Package otp implements time-based one-time passcode issuance and single-use
// validation, with per-email attempt accounting.
package otp

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAttemptsExceeded = errors.New("otp: attempts exceeded")
	ErrInvalidOTP       = errors.New("otp: invalid otp")
	ErrNotFound         = errors.New("otp: not found")
)

// Challenge is one issued passcode. The log is append-only: rows are never
// deleted, and Verified flips from false to true exactly once.
type Challenge struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Verified  bool      `json:"isVerified"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store describes persistence for the challenge log.
type Store interface {
	Create(ctx context.Context, ch *Challenge) error
	FindByEmailAndCode(ctx context.Context, email, code string) (*Challenge, error)
	// MarkVerified flips an unverified challenge to verified. Returns
	// ErrNotFound when the row does not exist or was already consumed, which
	// keeps single-use enforcement atomic at the storage layer.
	MarkVerified(ctx context.Context, id string) error
	// CountSince counts challenges issued for the email at or after from.
	CountSince(ctx context.Context, email string, from time.Time) (int, error)
}
