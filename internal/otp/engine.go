package otp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	pqotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"emhana.org/internal/ids"
	"emhana.org/internal/notify"
)

const (
	defaultWindow      = 48 * time.Hour
	defaultMaxAttempts = 3
	defaultPeriod      = 30
)

// Engine issues and validates one-time passcodes. Codes are derived TOTP-style
// from a per-email secret, so generation is deterministic for a given email
// and time step; validation however goes through the persisted challenge log,
// which is what makes each code single-use.
type Engine struct {
	store       Store
	dispatcher  *notify.Dispatcher
	secret      []byte
	window      time.Duration
	maxAttempts int
	period      uint
	now         func() time.Time
}

// Option configures Engine behavior.
type Option func(*Engine)

// WithWindow overrides the attempt-accounting window. The window is strictly
// backward-looking: challenges issued within it count toward the cap.
func WithWindow(window time.Duration) Option {
	return func(e *Engine) {
		if window > 0 {
			e.window = window
		}
	}
}

// WithMaxAttempts overrides the per-window issuance cap.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an Engine. The secret keys the per-email code
// derivation and must be non-empty.
func NewEngine(store Store, dispatcher *notify.Dispatcher, secret string, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("otp: secret is not configured")
	}
	e := &Engine{
		store:       store,
		dispatcher:  dispatcher,
		secret:      []byte(secret),
		window:      defaultWindow,
		maxAttempts: defaultMaxAttempts,
		period:      defaultPeriod,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Generate issues a new challenge for the email and mails the code. The count
// and the insert are two separate store operations; that race only loosens
// the soft rate limit, never a security boundary.
func (e *Engine) Generate(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	now := e.now()

	attempts, err := e.store.CountSince(ctx, email, now.Add(-e.window))
	if err != nil {
		return fmt.Errorf("otp: count attempts: %w", err)
	}
	if attempts >= e.maxAttempts {
		return ErrAttemptsExceeded
	}

	code, err := e.code(email, now)
	if err != nil {
		return fmt.Errorf("otp: derive code: %w", err)
	}

	if err := e.store.Create(ctx, &Challenge{
		ID:        ids.New(),
		Email:     email,
		Code:      code,
		CreatedAt: now.UTC(),
	}); err != nil {
		return fmt.Errorf("otp: store challenge: %w", err)
	}

	e.dispatcher.Dispatch(notify.Message{
		To:       email,
		Subject:  "OTP Code",
		Template: notify.TemplateOTP,
		Context:  map[string]any{"otp": code},
	})
	return nil
}

// Validate consumes a challenge. A code that was never issued for the email,
// or one that was already consumed, both come back as ErrInvalidOTP. There is
// no expiry: an unconsumed code stays valid until used.
func (e *Engine) Validate(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	ch, err := e.store.FindByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("otp: look up challenge: %w", err)
	}
	if ch.Verified {
		return ErrInvalidOTP
	}
	if err := e.store.MarkVerified(ctx, ch.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the race against a concurrent validation of the same code.
			return ErrInvalidOTP
		}
		return fmt.Errorf("otp: mark verified: %w", err)
	}
	return nil
}

// code derives the 6-digit TOTP value for the email at the given instant.
// The per-email secret is the HMAC of the email under the engine secret.
func (e *Engine) code(email string, at time.Time) (string, error) {
	mac := hmac.New(sha256.New, e.secret)
	mac.Write([]byte(email))
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(mac.Sum(nil))
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    e.period,
		Digits:    pqotp.DigitsSix,
		Algorithm: pqotp.AlgorithmSHA1,
	})
}
